//go:build integration

package integration

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thruflo/taskboard/internal/controller"
	"github.com/thruflo/taskboard/internal/logging"
	"github.com/thruflo/taskboard/internal/render"
	"github.com/thruflo/taskboard/internal/server"
	"github.com/thruflo/taskboard/internal/state"
)

// syncBuffer is a bytes.Buffer safe for the server's goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// boardEnv is a controller opened on a backend and served over HTTP, wired
// the way `taskboard serve` wires them.
type boardEnv struct {
	ctl  *controller.Controller
	srv  *server.Server
	url  string
	logs *syncBuffer
}

func openController(t *testing.T, backend state.Backend, log *logging.Logger) *controller.Controller {
	t.Helper()

	r := render.New(render.WithScheduler(func(_ time.Duration, f func()) { f() }))
	ctl := controller.New(controller.Options{
		Storage:  state.NewStorage(backend, log),
		Renderer: r,
		Logger:   log,
	})
	require.NoError(t, ctl.Open(context.Background()))
	return ctl
}

func startBoard(t *testing.T, backend state.Backend) *boardEnv {
	t.Helper()

	logs := &syncBuffer{}
	log := logging.New()
	log.SetOutput(logs)
	log.SetLevel(logging.LevelDebug)

	ctl := openController(t, backend, log)
	srv, err := server.NewServer(&server.Config{
		Addr:   "127.0.0.1:0",
		Logger: log,
	}, ctl)
	require.NoError(t, err)
	ctl.Renderer().OnChange(srv.Stream().Notify)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errc:
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	})

	require.Eventually(t, func() bool { return srv.ListenAddr() != "" }, 5*time.Second, 10*time.Millisecond)
	return &boardEnv{ctl: ctl, srv: srv, url: "http://" + srv.ListenAddr(), logs: logs}
}

func (e *boardEnv) request(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.url+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
