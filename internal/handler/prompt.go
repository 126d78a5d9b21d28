package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	appI18n "github.com/pavelanni/sqi/internal/i18n"
	"github.com/pavelanni/sqi/internal/model"
	"github.com/pavelanni/sqi/internal/store"
)

type promptRequest struct {
	Prompt *string `json:"prompt"`
}

type promptResponse struct {
	Prompt  string `json:"prompt"`
	Version string `json:"version"`
}

type savePromptResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Version string `json:"version"`
}

type promptHistoryResponse struct {
	Summary string         `json:"summary"`
	Prompts []model.Prompt `json:"prompts"`
}

func (h *Handler) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.CurrentPrompt(r.Context())
	if err != nil {
		slog.Error("failed to load prompt", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "PromptLoadFailed"), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{Prompt: p.Content, Version: store.VersionTag(p)})
}

func (h *Handler) handleSavePrompt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUpload)
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidJSON"), err.Error())
		return
	}
	if req.Prompt == nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "PromptSaveFailed"), "prompt is required")
		return
	}

	p, err := h.store.SavePrompt(r.Context(), *req.Prompt)
	if err != nil {
		slog.Error("failed to save prompt", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "PromptSaveFailed"), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, savePromptResponse{
		Success: true,
		Message: appI18n.T(r.Context(), "PromptSaved"),
		Version: store.VersionTag(p),
	})
}

func (h *Handler) handlePromptHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidInput"), "limit must be a positive integer")
			return
		}
		limit = n
	}

	prompts, err := h.store.ListPrompts(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list prompts", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "PromptLoadFailed"), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, promptHistoryResponse{
		Summary: appI18n.Tp(r.Context(), "PromptsListed", len(prompts)),
		Prompts: prompts,
	})
}
