package handler

import (
	"net/http"

	"github.com/quiniela/platform/internal/infra"
)

// HealthHandler reports each dependency check. Any failing check turns the
// response into a 503.
func HealthHandler(checks ...infra.Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := infra.RunChecks(r.Context(), checks...)

		status, code := "healthy", http.StatusOK
		if !report.Healthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		RespondJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": report.Checks,
		})
	}
}
