package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thruflo/taskboard/internal/board"
	"github.com/thruflo/taskboard/internal/config"
	"github.com/thruflo/taskboard/internal/controller"
	"github.com/thruflo/taskboard/internal/logging"
	"github.com/thruflo/taskboard/internal/render"
	"github.com/thruflo/taskboard/web"
)

// Board is the set of gestures the web page drives; *controller.Controller
// implements it.
type Board interface {
	Board() render.Board
	Tasks() []board.Task
	Add(ctx context.Context, text string, status board.Status) (board.Task, error)
	Edit(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) bool
	Move(ctx context.Context, id string, status board.Status) error
	ClearAll(ctx context.Context, confirm controller.Confirmer) bool
	Degraded() bool
}

const (
	// maxBodyBytes bounds JSON request bodies.
	maxBodyBytes = 64 << 10
	// sseReconnect ends event streams so clients reconnect periodically.
	sseReconnect = 60 * time.Second
	// headerRequestID carries the per-request correlation id.
	headerRequestID = "X-Request-ID"
)

// Server serves the board to a browser on the local machine.
type Server struct {
	addr    string
	board   Board
	log     *logging.Logger
	limiter *rateLimiter
	stream  *BoardStream
	assets  fs.FS
	page    *template.Template
	handler http.Handler

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	started  bool
}

// Config holds server configuration options.
type Config struct {
	Addr      string
	RateLimit RateLimitConfig
	// Assets holds index.html, app.js and style.css. Nil means the
	// embedded copy.
	Assets fs.FS
	Logger *logging.Logger
}

// NewServer creates a Server for b.
func NewServer(cfg *Config, b Board) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if b == nil {
		return nil, errors.New("board is required")
	}

	assets := cfg.Assets
	if assets == nil {
		assets = web.Embedded()
	}
	page, err := template.ParseFS(assets, web.IndexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}
	log = log.With("component", "server")

	s := &Server{
		addr:    cfg.Addr,
		board:   b,
		log:     log,
		limiter: newRateLimiter(cfg.RateLimit, log),
		stream:  NewBoardStream(),
		assets:  assets,
		page:    page,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)
	s.handler = s.withRequestID(mux)
	return s, nil
}

// NewServerFromConfig creates a Server from a config.ServerConfig.
func NewServerFromConfig(cfg *config.ServerConfig, b Board, assets fs.FS, log *logging.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	rl := DefaultRateLimitConfig()
	if cfg.RateLimit > 0 {
		rl.MaxRequests = cfg.RateLimit
	}
	return NewServer(&Config{
		Addr:      cfg.Addr(),
		RateLimit: rl,
		Assets:    assets,
		Logger:    log,
	}, b)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the server's routes wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Stream returns the change feed behind GET /api/events.
func (s *Server) Stream() *BoardStream {
	return s.stream
}

// Start starts the HTTP server.
// The server runs until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: /api/events responses are long-lived.
	}
	s.started = true
	s.mu.Unlock()

	go s.housekeeping(ctx)

	s.log.Info("serving board", "addr", listener.Addr().String())
	err = s.server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.server == nil {
		return nil
	}

	// Release event streams first; Shutdown waits for active handlers.
	s.stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.started = false
	return nil
}

// ListenAddr returns the actual address the server is listening on.
// Useful when port 0 is used to get an available port.
// Returns empty string if not started.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// housekeeping prunes the rate limiter and stops the server with ctx.
func (s *Server) housekeeping(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Stop(); err != nil {
				s.log.Warn("shutdown failed", "error", err)
			}
			return
		case <-ticker.C:
			s.limiter.cleanup()
		}
	}
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.assets)))

	mux.HandleFunc("GET /api/board", s.handleBoard)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	mux.HandleFunc("POST /api/tasks", s.withRateLimit(s.handleCreate))
	mux.HandleFunc("PUT /api/tasks/{id}", s.withRateLimit(s.handleUpdate))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.withRateLimit(s.handleDelete))
	mux.HandleFunc("POST /api/tasks/{id}/move", s.withRateLimit(s.handleMove))
	mux.HandleFunc("POST /api/clear", s.withRateLimit(s.handleClear))
}

// boardResponse is the page's view of the board.
type boardResponse struct {
	Board     render.Board `json:"board"`
	Persisted bool         `json:"persisted"`
}

func (s *Server) snapshot() boardResponse {
	return boardResponse{
		Board:     s.board.Board(),
		Persisted: !s.board.Degraded(),
	}
}

// handleIndex renders the board page with the current snapshot inlined.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, s.snapshot()); err != nil {
		s.requestLog(r).Error("page render failed", "error", err)
	}
}

// handleBoard handles GET /api/board.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

// handleEvents streams a board snapshot as a server-sent event on connect
// and after every change.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithTimeout(r.Context(), sseReconnect)
	defer cancel()

	offset := s.stream.Offset()
	for {
		if err := writeEvent(w, "board", offset, s.snapshot()); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			s.requestLog(r).Debug("event stream cannot flush", "error", err)
			return
		}

		next, err := s.stream.Wait(ctx, offset)
		if err != nil {
			return
		}
		offset = next
	}
}

type createRequest struct {
	Text   string `json:"text"`
	Status string `json:"status"`
}

// handleCreate handles POST /api/tasks.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !s.decode(w, r, &req) {
		return
	}

	status := board.StatusTodo
	if req.Status != "" {
		st, err := board.ParseStatus(req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = st
	}

	task, err := s.board.Add(r.Context(), req.Text, status)
	if err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

type updateRequest struct {
	Text string `json:"text"`
}

// handleUpdate handles PUT /api/tasks/{id}.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.board.Edit(r.Context(), id, req.Text); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	s.writeTask(w, r, id)
}

// handleDelete handles DELETE /api/tasks/{id}. Unknown ids are a no-op.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.board.Delete(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	Status string `json:"status"`
}

// handleMove handles POST /api/tasks/{id}/move.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req moveRequest
	if !s.decode(w, r, &req) {
		return
	}

	status, err := board.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.board.Move(r.Context(), id, status); err != nil {
		s.writeBoardError(w, r, err)
		return
	}
	s.writeTask(w, r, id)
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

type clearResponse struct {
	Cleared bool `json:"cleared"`
}

// handleClear handles POST /api/clear. The page asks the user; the request
// carries the answer.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if !s.decode(w, r, &req) {
		return
	}

	cleared := s.board.ClearAll(r.Context(), controller.ConfirmFunc(func(string) bool {
		return req.Confirm
	}))
	writeJSON(w, http.StatusOK, clearResponse{Cleared: cleared})
}

// writeTask responds with the current state of task id.
func (s *Server) writeTask(w http.ResponseWriter, r *http.Request, id string) {
	for _, t := range s.board.Tasks() {
		if t.ID == id {
			writeJSON(w, http.StatusOK, t)
			return
		}
	}
	// Removed between the mutation and this read.
	s.writeBoardError(w, r, board.ErrNotFound)
}

// errorResponse is the body of every failed API request. Cue tells the page
// which feedback to play.
type errorResponse struct {
	Error string `json:"error"`
	Cue   string `json:"cue,omitempty"`
}

// writeBoardError maps domain errors to HTTP statuses.
func (s *Server) writeBoardError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, board.ErrEmptyText):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Cue: "shake"})
	case errors.Is(err, board.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, board.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.requestLog(r).Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// withRateLimit rejects mutations from clients over their budget.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		res := s.limiter.check(ip)
		if !res.Allowed {
			s.requestLog(r).Warn("request rate limited", "ip", ip, "reason", res.Reason, "retry_after", res.RetryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			writeError(w, http.StatusTooManyRequests, res.Reason)
			return
		}
		next(w, r)
	}
}

type requestIDKey struct{}

// withRequestID tags every request with an id, echoed in the response and
// attached to its log lines. A well-formed id sent by the client is kept.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		s.log.With("request_id", id).Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// requestLog returns the server logger tagged with r's request id.
func (s *Server) requestLog(r *http.Request) *logging.Logger {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return s.log.With("request_id", id)
	}
	return s.log
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEvent writes one server-sent event. JSON never contains raw newlines,
// so the payload fits on a single data line.
func writeEvent(w http.ResponseWriter, event string, id uint64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", event, id, data)
	return err
}
