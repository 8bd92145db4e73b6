package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer is a bytes.Buffer safe for one writer goroutine and a
// polling reader.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var servingRe = regexp.MustCompile(`Serving board on (http://\S+)`)

func TestServe(t *testing.T) {
	setupBoardDir(t)
	serveAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out, errOut lockedBuffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetContext(ctx)

	errc := make(chan error, 1)
	go func() { errc <- runServe(cmd, nil) }()

	var base string
	require.Eventually(t, func() bool {
		m := servingRe.FindStringSubmatch(out.String())
		if m == nil {
			return false
		}
		base = m[1]
		return true
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Post(base+"/api/tasks", "application/json", strings.NewReader(`{"text":"From the browser"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/api/board")
	require.NoError(t, err)
	var snap struct {
		Persisted bool `json:"persisted"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	assert.True(t, snap.Persisted)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}

	assert.Contains(t, list(t), "From the browser", "the page and the commands share the board")
}

func TestServe_BadFlags(t *testing.T) {
	setupBoardDir(t)

	serveAddr = "not-an-address"
	cmd, _ := newTestCmd("")
	assert.Error(t, runServe(cmd, nil))

	serveAddr = "127.0.0.1:0"
	serveAssets = "/nonexistent/assets"
	err := runServe(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assets directory")
}
