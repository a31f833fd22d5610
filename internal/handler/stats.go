package handler

import (
	"log/slog"
	"net/http"

	"github.com/Reidond/subsctl/internal/stats"
)

type StatsHandler struct {
	stats  *stats.Service
	logger *slog.Logger
}

func NewStatsHandler(statsService *stats.Service, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: statsService, logger: logger}
}

// Summary handles GET /api/stats/summary
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.stats.Summary(r.Context(), identity(r).Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if sum.ByCategory == nil {
		sum.ByCategory = []stats.CategoryBreakdown{}
	}
	writeJSON(w, http.StatusOK, sum)
}
