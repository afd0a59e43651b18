// Package server exposes a session.Controller over a small local HTTP API,
// a websocket stream and a dashboard page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/SmitUplenchwar2687/macrokit/internal/clock"
	"github.com/SmitUplenchwar2687/macrokit/internal/input"
	"github.com/SmitUplenchwar2687/macrokit/internal/replay"
	"github.com/SmitUplenchwar2687/macrokit/internal/session"
	"github.com/SmitUplenchwar2687/macrokit/internal/state"
	"github.com/SmitUplenchwar2687/macrokit/internal/storage"
)

// Options configures optional server features.
type Options struct {
	Hub    *Hub
	UI     *UI
	Logger *slog.Logger
	// AllowRemote serves non-loopback clients too.
	AllowRemote bool
}

// Server is the macrokit control server.
type Server struct {
	httpServer *http.Server
	ctl        *session.Controller
	clock      clock.Clock
	mux        *http.ServeMux
	hub        *Hub
	ui         *UI
	logger     *slog.Logger
}

// New creates a new control server for ctl.
func New(addr string, ctl *session.Controller, clk clock.Clock, opts ...Options) *Server {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Hub == nil {
		o.Hub = NewHub(o.Logger)
	}
	if o.UI == nil {
		o.UI = NewUI(o.Hub)
	}

	s := &Server{
		ctl:    ctl,
		clock:  clk,
		mux:    http.NewServeMux(),
		hub:    o.Hub,
		ui:     o.UI,
		logger: o.Logger.With("component", "server"),
	}
	s.routes()

	var handler http.Handler = s.mux
	handler = LoggingMiddleware(handler, s.logger, clk)
	handler = LocalOnly(handler, o.AllowRemote)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's root handler, middleware included.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/capture/start", s.handleCaptureStart)
	s.mux.HandleFunc("POST /api/capture/stop", s.handleCaptureStop)
	s.mux.HandleFunc("POST /api/replay/start", s.handleReplayStart)
	s.mux.HandleFunc("POST /api/replay/stop", s.handleReplayStop)
	s.mux.HandleFunc("POST /api/replay/stop-loop", s.handleReplayStopLoop)
	s.mux.HandleFunc("GET /api/recordings", s.handleListRecordings)
	s.mux.HandleFunc("GET /api/recordings/{name}", s.handleGetRecording)
	s.mux.HandleFunc("DELETE /api/recordings/{name}", s.handleDeleteRecording)
	s.mux.HandleFunc("GET /dashboard/", s.handleDashboard)
	s.mux.HandleFunc("/ws", s.hub.HandleWebSocket)
}

// handleRoot serves a welcome message.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "macrokit",
		"status":  "running",
		"time":    s.clock.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.State())
}

type captureRequest struct {
	// Name is where the capture is saved. Empty means storage.DefaultName.
	Name string `json:"name"`
}

func (s *Server) handleCaptureStart(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != "" {
		if _, err := storage.CleanName(req.Name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.ctl.StartCaptureAs(req.Name, s.ui.Finished); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.ctl.State())
}

func (s *Server) handleCaptureStop(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.RequestStopCapture(); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.State())
}

type replayRequest struct {
	Name string `json:"name"`
	Loop bool   `json:"loop"`
}

func (s *Server) handleReplayStart(w http.ResponseWriter, r *http.Request) {
	var req replayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ctl.StartReplay(req.Name, req.Loop, s.ui.Finished); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.ctl.State())
}

func (s *Server) handleReplayStop(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.RequestStopReplay(); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.State())
}

func (s *Server) handleReplayStopLoop(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.RequestStopLooping(); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.State())
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	infos, err := s.ctl.Store().List(r.Context())
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if infos == nil {
		infos = []storage.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	log, err := s.ctl.Store().Load(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Store().Delete(r.Context(), r.PathValue("name")); err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.ui.Refresh()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, DashboardHTML)
}

// writeSessionError maps controller and storage errors to HTTP statuses.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, state.ErrAlreadyActive), errors.Is(err, state.ErrNotActive):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidName):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrLoad), errors.Is(err, replay.ErrEmptyLog):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, input.ErrListenerStartup):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.StartOnListener(ln)
}

// StartOnListener begins serving on the provided listener.
// Useful for tests that need to pick an ephemeral port.
func (s *Server) StartOnListener(ln net.Listener) error {
	s.logger.Info("macrokit server listening", "addr", ln.Addr().String())
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server and disconnects websocket
// clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
