package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Reidond/subsctl/internal/apperr"
	"github.com/Reidond/subsctl/internal/notify"
	"github.com/Reidond/subsctl/internal/store"
)

type PushHandler struct {
	push    *store.PushStore
	snoozes *store.SnoozeStore
	users   *store.UserStore
	subs    *store.SubscriptionStore
	webpush *notify.WebPush
	logger  *slog.Logger
}

func NewPushHandler(push *store.PushStore, snoozes *store.SnoozeStore, users *store.UserStore, subs *store.SubscriptionStore, webpush *notify.WebPush, logger *slog.Logger) *PushHandler {
	return &PushHandler{
		push:    push,
		snoozes: snoozes,
		users:   users,
		subs:    subs,
		webpush: webpush,
		logger:  logger,
	}
}

// VAPIDPublicKey handles GET /api/push/vapid-public-key
func (h *PushHandler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.webpush.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Subscribe handles POST /api/push/subscribe. Registering any endpoint
// turns the user's reminders on.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, h.logger, apperr.Validation("endpoint, p256dh, and auth are required"))
		return
	}

	userID := identity(r).UserID
	sub, err := h.push.Replace(userID, req.Endpoint, req.P256dh, req.Auth)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.users.SetPushEnabled(userID, true); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe handles POST /api/push/unsubscribe. Without an endpoint every
// registration is dropped. Reminders switch off when no endpoint remains.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if r.ContentLength != 0 && !decodeBody(w, r, h.logger, &req) {
		return
	}

	userID := identity(r).UserID
	var err error
	if req.Endpoint == "" {
		err = h.push.DeleteByUser(userID)
	} else {
		err = h.push.DeleteByUserEndpoint(userID, req.Endpoint)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	remaining, err := h.push.CountByUser(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if remaining == 0 {
		if err := h.users.SetPushEnabled(userID, false); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type snoozeRequest struct {
	Until *time.Time `json:"until"`
}

// Snooze handles POST /api/subscriptions/{id}/snooze. With no explicit
// until, the reminder sleeps for a day.
func (h *PushHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	var req snoozeRequest
	if r.ContentLength != 0 && !decodeBody(w, r, h.logger, &req) {
		return
	}

	id := identity(r)
	sub, err := h.subs.GetByID(r.PathValue("id"), id.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if sub == nil {
		writeError(w, h.logger, apperr.NotFound("subscription not found"))
		return
	}

	until := time.Now().UTC().Add(24 * time.Hour)
	if req.Until != nil {
		if !req.Until.After(time.Now()) {
			writeError(w, h.logger, apperr.Validation("snooze must end in the future"))
			return
		}
		until = req.Until.UTC()
	}

	snooze, err := h.snoozes.Replace(sub.ID, id.UserID, until)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, snooze)
}
