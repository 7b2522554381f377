package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/maine/ai_news_bot/internal/app"
	"github.com/maine/ai_news_bot/internal/config"
	"github.com/maine/ai_news_bot/internal/store"
)

// Runner - запуски, которые можно инициировать по HTTP.
type Runner interface {
	RunReleases(ctx context.Context) (app.Report, error)
	RunNews(ctx context.Context) (app.Report, error)
}

// Server принимает HTTP-триггеры запусков от планировщика.
type Server struct {
	runner Runner
	lister store.Lister
	cfg    config.Server
	logger *slog.Logger

	// Запуски не должны пересекаться: два upsert одного ключа могут создать дубликат.
	running sync.Mutex
}

// NewServer создаёт сервер. lister может быть nil, тогда /verify отвечает 500.
func NewServer(runner Runner, lister store.Lister, cfg config.Server, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{runner: runner, lister: lister, cfg: cfg, logger: logger}
}

// Handler возвращает маршрутизатор со всеми обработчиками.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /run/releases", s.handleRun("releases", s.runner.RunReleases))
	mux.HandleFunc("POST /run/news", s.handleRun("news", s.runner.RunNews))
	mux.HandleFunc("GET /verify", s.handleVerify)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// ListenAndServe слушает cfg.Addr до отмены ctx.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает ln до отмены ctx, затем корректно завершает работу.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("http server started", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type runResponse struct {
	OK bool `json:"ok"`
	app.Report
}

type verifyResponse struct {
	OK          bool                    `json:"ok"`
	Collections []app.CollectionSummary `json:"collections"`
}

func (s *Server) handleRun(kind string, run func(context.Context) (app.Report, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.running.TryLock() {
			writeError(w, http.StatusConflict, "another run is in progress")
			return
		}
		defer s.running.Unlock()

		s.logger.Info("run triggered", "kind", kind, "remote", r.RemoteAddr)
		rep, err := run(r.Context())
		if err != nil {
			s.logger.Error("run failed", "kind", kind, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, runResponse{OK: true, Report: rep})
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	limit := app.DefaultVerifyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	collections, err := app.Verify(r.Context(), s.lister, limit)
	if err != nil {
		s.logger.Error("verify failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{OK: true, Collections: collections})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"ok": false, "error": msg})
}
