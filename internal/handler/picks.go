package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/quiniela/platform/internal/auth"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/service"
)

// PickService is the subset of service.PickService used here.
type PickService interface {
	Submit(ctx context.Context, user *domain.User, in service.SubmitInput) (int, error)
	ListByUser(ctx context.Context, user *domain.User, rawPoolID string) ([]domain.PickEntry, error)
}

// PickHandler handles pick submission and retrieval.
type PickHandler struct {
	picks  PickService
	logger *slog.Logger
}

// NewPickHandler creates a new PickHandler.
func NewPickHandler(picks PickService, logger *slog.Logger) *PickHandler {
	return &PickHandler{picks: picks, logger: logger}
}

// Bulk handles POST /picks/bulk.
func (h *PickHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var in service.SubmitInput
	if err := DecodeJSON(r, &in); err != nil {
		badBody(w)
		return
	}
	h.submit(w, r, in)
}

type singlePickRequest struct {
	PoolID     string          `json:"pool_id"`
	GameID     string          `json:"game_id"`
	Prediction json.RawMessage `json:"prediction"`
}

// Single handles POST /picks, the autosave path for one game.
func (h *PickHandler) Single(w http.ResponseWriter, r *http.Request) {
	var req singlePickRequest
	if err := DecodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	if req.GameID == "" {
		RespondError(w, domain.ErrValidation("game_id is required"))
		return
	}
	h.submit(w, r, service.SubmitInput{
		PoolID: req.PoolID,
		Picks:  []service.PickInput{{GameID: req.GameID, Prediction: req.Prediction}},
	})
}

func (h *PickHandler) submit(w http.ResponseWriter, r *http.Request, in service.SubmitInput) {
	if _, err := h.picks.Submit(r.Context(), auth.UserFromContext(r.Context()), in); err != nil {
		WriteError(h.logger, w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ByUser handles GET /picks/by_user?pool_id=.
func (h *PickHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	picks, err := h.picks.ListByUser(r.Context(), auth.UserFromContext(r.Context()), r.URL.Query().Get("pool_id"))
	if err != nil {
		WriteError(h.logger, w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"data": picks})
}
