// Package server exposes the relay over HTTP for the web chat, Telegram's
// webhook delivery, and the setup and diagnostics pages.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/edgard/relaychat/internal/config"
	apperrors "github.com/edgard/relaychat/internal/errors"
	"github.com/edgard/relaychat/internal/logger"
	"github.com/edgard/relaychat/internal/relay"
	"github.com/edgard/relaychat/internal/telegram"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Deps are the collaborators the HTTP handlers use.
type Deps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Relay      *relay.Service
	Dispatcher *relay.Dispatcher
	Client     *telegram.Client
	Webhooks   *telegram.WebhookManager
}

// Server is the relay's HTTP API.
type Server struct {
	deps     Deps
	cfg      *config.Config
	logger   *slog.Logger
	validate *validator.Validate
	router   chi.Router
}

// NewServer creates a Server and its routes.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	s := &Server{
		deps:     deps,
		cfg:      deps.Config,
		logger:   deps.Logger.With("component", "http_server"),
		validate: newValidator(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(s.deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Telegram-Bot-Api-Secret-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Get("/messages", s.handleListMessages)
	r.Post("/messages", s.handlePostMessage)
	r.Delete("/messages", s.handleClearMessages)

	r.Post("/telegram-webhook", s.handleTelegramWebhook)
	r.Get("/telegram-webhook", s.handleRecentTelegram)
	r.Post("/telegram-notify", s.handleTelegramNotify)
	r.Post("/telegram-webhook-setup", s.handleWebhookSetup)
	r.Post("/telegram-setup", s.handleDiscoverChats)

	r.Route("/status", func(r chi.Router) {
		r.Get("/bot", s.handleBotStatus)
		r.Get("/webhook", s.handleWebhookStatus)
		r.Get("/env", s.handleEnvStatus)
	})

	r.Route("/debug", func(r chi.Router) {
		r.Get("/env", s.handleDebugEnv)
		r.Get("/updates", s.handleDebugUpdates)
		r.Post("/test-send", s.handleDebugTestSend)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.jsonResponse(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	s.router = r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutdown signal received, stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Relay.Store().Ping(r.Context()); err != nil {
		s.errorResponse(w, r, http.StatusServiceUnavailable, "store unavailable", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("Failed to write JSON response", "error", err)
	}
}

// errorResponse writes {"error": message}. err is logged, not exposed.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "HTTP error",
		"status", status,
		"message", message,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()))
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failureResponse writes {"success": false, "error": ...} plus extra fields,
// with the status derived from err.
func (s *Server) failureResponse(w http.ResponseWriter, r *http.Request, err error, extra map[string]any) {
	status := apperrors.HTTPStatus(err, http.StatusBadGateway)
	s.logger.WarnContext(r.Context(), "Request failed",
		"path", r.URL.Path,
		"status", status,
		"error_code", apperrors.Code(err),
		"error", err)

	body := map[string]any{"success": false, "error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}
	s.jsonResponse(w, status, body)
}

// decodeJSON reads a JSON body into dst and validates it. Numbers decode as
// json.Number so chat ids keep their precision.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation("invalid request body", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		s.logger.DebugContext(r.Context(), "Request validation failed", "path", r.URL.Path, "error", err)
		return apperrors.Validation(validationMessage(err), nil)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage renders validator errors as "field: rule" pairs.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	parts := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "required", "required_if":
			parts = append(parts, fe.Field()+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
