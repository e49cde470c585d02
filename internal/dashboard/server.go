// Package dashboard is the read-only web view of the queue plus the
// admin-gated destructive operations (reset, snapshot restore). It calls
// into the queue engine like every other surface and holds no queue state
// of its own.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"darkroom/internal/config"
	"darkroom/internal/journal"
	"darkroom/internal/logging"
	"darkroom/internal/notifications"
	"darkroom/internal/queue"
	"darkroom/internal/snapshot"
)

// FileResolver resolves a payload reference to a downloadable URL. The
// Telegram client implements it; tests substitute a stub.
type FileResolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

// Server serves the dashboard and the JSON API the CLI consumes.
type Server struct {
	cfg      *config.Config
	engine   *queue.Engine
	files    FileResolver
	journal  *journal.Journal
	notifier notifications.Service
	logger   *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer wires the HTTP surface. The file resolver and journal may be
// nil; the notifier must not be (use the noop service).
func NewServer(cfg *config.Config, engine *queue.Engine, files FileResolver, jrnl *journal.Journal, notifier notifications.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		files:    files,
		journal:  jrnl,
		notifier: notifier,
		logger:   logger.With(logging.String("component", "dashboard")),
	}

	token := cfg.Dashboard.AdminToken
	mux := http.NewServeMux()
	mux.HandleFunc("/", authMiddleware(token, s.handleAdminView))
	mux.HandleFunc("/status", s.handlePublicView)
	mux.HandleFunc("/reset", authMiddleware(token, s.handleReset))
	mux.HandleFunc("/restore", authMiddleware(token, s.handleRestore))
	mux.HandleFunc("/download-queue", authMiddleware(token, s.handleDownload))
	mux.HandleFunc("/api/queue", authMiddleware(token, s.handleAPIQueue))
	mux.HandleFunc("/api/status", s.handleAPIStatus)
	mux.HandleFunc("/api/journal", authMiddleware(token, s.handleAPIJournal))

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start listens on the configured bind address and serves until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Dashboard.Bind)
	if err != nil {
		return fmt.Errorf("dashboard listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dashboard server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dashboard listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listen address, useful when binding to port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	removed := s.engine.Len()
	warning := ""
	if err := s.engine.ResetAll(); err != nil {
		s.logger.Error("reset failed to persist", logging.Error(err))
		warning = err.Error()
	}

	s.afterMutation(journal.ActionReset, 0, "", fmt.Sprintf("dashboard reset removed %d", removed), func(ctx context.Context) error {
		return s.notifier.NotifyQueueReset(ctx, removed)
	})

	if wantsHTML(r) {
		http.Redirect(w, r, "/?token="+s.cfg.Dashboard.AdminToken, http.StatusSeeOther)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "durabilityWarning": warning})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	records, err := snapshot.Decode(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	warning := ""
	if err := s.engine.Replace(records); err != nil {
		if errors.Is(err, queue.ErrSaveFailed) {
			warning = err.Error()
		} else {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	s.afterMutation(journal.ActionRestore, 0, "", fmt.Sprintf("restored %d records", len(records)), nil)

	s.writeJSON(w, http.StatusOK, map[string]any{"restored": len(records), "durabilityWarning": warning})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := s.cfg.SnapshotPath()
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "No queue file found.", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="queue.json"`)
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}

// afterMutation dispatches journal and notification side calls outside
// any engine lock, fire-and-forget.
func (s *Server) afterMutation(action journal.Action, requesterID int64, displayName, detail string, push func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if s.journal != nil {
			if err := s.journal.Record(ctx, action, requesterID, displayName, detail); err != nil {
				s.logger.Warn("journal append", logging.Error(err))
			}
		}
		if push != nil {
			if err := push(ctx); err != nil {
				s.logger.Warn("operator notification", logging.Error(err))
			}
		}
	}()
}

func wantsHTML(r *http.Request) bool {
	return !strings.Contains(r.Header.Get("Accept"), "application/json")
}
