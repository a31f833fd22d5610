package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Reidond/subsctl/internal/apperr"
	"github.com/Reidond/subsctl/internal/model"
	"github.com/Reidond/subsctl/internal/service"
	"github.com/Reidond/subsctl/internal/store"
	ws "github.com/Reidond/subsctl/internal/websocket"
)

type SubscriptionHandler struct {
	subs   *service.SubscriptionService
	hub    *ws.Hub
	logger *slog.Logger
}

func NewSubscriptionHandler(subs *service.SubscriptionService, hub *ws.Hub, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, hub: hub, logger: logger}
}

func (h *SubscriptionHandler) notify(owner, action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(owner, ws.NewMessage("subscription", action, id, nil))
	}
}

// List handles GET /api/subscriptions
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListFilter{
		Status:     model.Status(q.Get("status")),
		CategoryID: q.Get("category_id"),
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, h.logger, apperr.Validation("invalid from date %q", raw))
			return
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, h.logger, apperr.Validation("invalid to date %q", raw))
			return
		}
		filter.To = t
	}

	subs, err := h.subs.List(identity(r).Email, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// Create handles POST /api/subscriptions
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateSubscriptionInput
	if !decodeBody(w, r, h.logger, &in) {
		return
	}
	sub, err := h.subs.Create(r.Context(), identity(r).Email, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify(identity(r).Email, "created", sub.ID)
	writeJSON(w, http.StatusCreated, sub)
}

// Get handles GET /api/subscriptions/{id}
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subs.Get(identity(r).Email, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Update handles PATCH /api/subscriptions/{id}
func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateSubscriptionInput
	if !decodeBody(w, r, h.logger, &in) {
		return
	}
	sub, err := h.subs.Update(identity(r).Email, r.PathValue("id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify(identity(r).Email, "updated", sub.ID)
	writeJSON(w, http.StatusOK, sub)
}

// Delete handles DELETE /api/subscriptions/{id}
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.subs.Delete(identity(r).Email, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify(identity(r).Email, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SubscriptionHandler) transition(w http.ResponseWriter, r *http.Request,
	f func(ownerEmail, id string) (*model.Subscription, error)) {
	sub, err := f(identity(r).Email, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify(identity(r).Email, "updated", sub.ID)
	writeJSON(w, http.StatusOK, sub)
}

// Pause handles POST /api/subscriptions/{id}/pause
func (h *SubscriptionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.subs.Pause)
}

// Resume handles POST /api/subscriptions/{id}/resume
func (h *SubscriptionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.subs.Resume)
}

// Archive handles POST /api/subscriptions/{id}/archive
func (h *SubscriptionHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.subs.Archive)
}

// Restore handles POST /api/subscriptions/{id}/restore
func (h *SubscriptionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.subs.Restore)
}

type markPaidResponse struct {
	Subscription *model.Subscription      `json:"subscription"`
	Event        *model.SubscriptionEvent `json:"event"`
}

// MarkPaid handles POST /api/subscriptions/{id}/mark-paid
func (h *SubscriptionHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var in service.MarkPaidInput
	if !decodeBody(w, r, h.logger, &in) {
		return
	}
	sub, event, err := h.subs.MarkPaid(r.Context(), identity(r).Email, r.PathValue("id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify(identity(r).Email, "updated", sub.ID)
	writeJSON(w, http.StatusOK, markPaidResponse{Subscription: sub, Event: event})
}

// Events handles GET /api/subscriptions/{id}/events
func (h *SubscriptionHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.subs.Events(identity(r).Email, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if events == nil {
		events = []model.SubscriptionEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
