package admin

import (
	"log/slog"
	"net/http"

	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/handler"
	"github.com/quiniela/platform/internal/repository"
)

// TablesHandler exposes the first rows of whitelisted tables for debugging.
type TablesHandler struct {
	db     repository.DBTX
	logger *slog.Logger
}

// NewTablesHandler creates a new TablesHandler.
func NewTablesHandler(db repository.DBTX, logger *slog.Logger) *TablesHandler {
	return &TablesHandler{db: db, logger: logger}
}

// Peek handles GET /admin/tables?name=.
func (h *TablesHandler) Peek(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		handler.RespondError(w, domain.ErrValidation("name is required"))
		return
	}
	if !repository.PeekableTables[name] {
		handler.RespondError(w, domain.ErrValidation("unknown table "+name))
		return
	}

	rows, err := repository.PeekTable(r.Context(), h.db, name)
	if err != nil {
		handler.WriteError(h.logger, w, r, domain.ErrUpstream("peek table", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"table": name, "data": rows})
}
