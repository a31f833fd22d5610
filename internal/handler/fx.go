package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Reidond/subsctl/internal/fx"
)

type FxHandler struct {
	fx     *fx.Service
	logger *slog.Logger
}

func NewFxHandler(fxService *fx.Service, logger *slog.Logger) *FxHandler {
	return &FxHandler{fx: fxService, logger: logger}
}

type ratesResponse struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
	Stale     bool               `json:"stale"`
}

// Rates handles GET /api/fx/rates
func (h *FxHandler) Rates(w http.ResponseWriter, r *http.Request) {
	snap, err := h.fx.Current(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ratesResponse{
		Base:      fx.Base,
		Rates:     snap.Rates,
		FetchedAt: snap.FetchedAt,
		Stale:     snap.Stale,
	})
}
