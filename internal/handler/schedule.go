package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quiniela/platform/internal/domain"
)

// ScheduleService is the subset of service.ScheduleService used here.
type ScheduleService interface {
	Seasons(ctx context.Context) ([]domain.Season, error)
	Get(ctx context.Context, rawSeasonID string) (*domain.Schedule, error)
}

// ScheduleHandler serves seasons and the week-grouped game schedule.
type ScheduleHandler struct {
	schedule ScheduleService
	logger   *slog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(schedule ScheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule, logger: logger}
}

// Schedule handles GET /schedule?season_id=.
func (h *ScheduleHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.schedule.Get(r.Context(), r.URL.Query().Get("season_id"))
	if err != nil {
		WriteError(h.logger, w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, sched)
}

// Seasons handles GET /seasons.
func (h *ScheduleHandler) Seasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.schedule.Seasons(r.Context())
	if err != nil {
		WriteError(h.logger, w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"seasons": seasons})
}
