package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mattjoyce/cakeday/internal/interaction"
	"github.com/mattjoyce/cakeday/internal/signature"
)

// Server represents the interactions webhook HTTP server.
type Server struct {
	config     Config
	verifier   RequestVerifier
	dispatcher Dispatcher
	logger     *slog.Logger
	server     *http.Server
	startedAt  time.Time
}

// New creates a new webhook server instance.
func New(config Config, verifier RequestVerifier, dispatcher Dispatcher, logger *slog.Logger) *Server {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}

	return &Server{
		config:     config,
		verifier:   verifier,
		dispatcher: dispatcher,
		logger:     logger,
		startedAt:  time.Now(),
	}
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.setupRoutes(), "interactions")
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen, "path", s.config.Path)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Post(s.config.Path, s.handleInteraction)
	r.Get("/healthz", s.handleHealthz)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleInteraction authenticates, decodes and dispatches one interaction.
// Every rejection happens before the body is interpreted.
func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil {
		s.respondText(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondText(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	sig := r.Header.Get(signature.HeaderSignature)
	ts := r.Header.Get(signature.HeaderTimestamp)
	if sig == "" || ts == "" {
		s.logger.Warn("interaction signature missing", "request_id", reqID)
		s.respondText(w, http.StatusUnauthorized, "missing signature")
		return
	}

	if err := s.verifier.Verify(body, sig, ts); err != nil {
		s.logger.Warn("interaction signature rejected", "request_id", reqID, "reason", err)
		s.respondText(w, http.StatusUnauthorized, rejectionText(err))
		return
	}

	in, err := interaction.Decode(body)
	if err != nil {
		s.logger.Warn("interaction body rejected", "request_id", reqID, "error", err)
		s.respondText(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reply := s.dispatcher.Dispatch(ctx, in)

	s.logger.Debug("interaction handled",
		"request_id", reqID,
		"interaction_id", in.ID(),
		"kind", in.Kind().String(),
		"reply_type", int(reply.Type),
	)
	s.respondJSON(w, http.StatusOK, reply)
}

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

func rejectionText(err error) string {
	switch {
	case errors.Is(err, signature.ErrBadTimestamp):
		return "bad signature timestamp"
	case errors.Is(err, signature.ErrStaleSignature):
		return "stale signature timestamp"
	default:
		return "bad signature"
	}
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// respondText sends a bare-status rejection with a short plain-text body.
func (s *Server) respondText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, message)
}
