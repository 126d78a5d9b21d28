package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/pavelanni/sqi/internal/model"
)

// PromptStore is the storage the handlers need for the diagnostic prompt.
type PromptStore interface {
	SavePrompt(ctx context.Context, content string) (model.Prompt, error)
	CurrentPrompt(ctx context.Context) (model.Prompt, error)
	ListPrompts(ctx context.Context, limit int) ([]model.Prompt, error)
	Ping(ctx context.Context) error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  PromptStore
	config model.ServerConfig
}

const defaultMaxUpload = 10 << 20

// New creates a new Handler.
func New(s PromptStore, cfg model.ServerConfig) (*Handler, error) {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = defaultMaxUpload
	}
	return &Handler{store: s, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Route("/api", func(api chi.Router) {
		api.Get("/prompt", h.handleGetPrompt)
		api.Post("/prompt", h.handleSavePrompt)
		api.Get("/prompt/history", h.handlePromptHistory)
		api.Post("/compute-sqi", h.handleComputeSQI)
		api.Post("/compute-sqi/upload", h.handleUploadAttempts)
	})
}

// CORS wraps next with the cross-origin policy for the admin console.
func (h *Handler) CORS(next http.Handler) http.Handler {
	origins := h.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept-Language"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Language"},
	})
	return c.Handler(next)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON encodes v before committing the status; encoding failures
// are reported as 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}
