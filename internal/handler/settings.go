package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Reidond/subsctl/internal/apperr"
	"github.com/Reidond/subsctl/internal/store"
)

type SettingsHandler struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewSettingsHandler(users *store.UserStore, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{users: users, logger: logger}
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(identity(r).UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if user == nil {
		writeError(w, h.logger, apperr.NotFound("user not found"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type settingsRequest struct {
	PrimaryCurrency *string `json:"primary_currency"`
	Timezone        *string `json:"timezone"`
}

// Update handles PUT /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if req.PrimaryCurrency != nil && len(*req.PrimaryCurrency) != 3 {
		writeError(w, h.logger, apperr.Validation("primary currency must be a 3-letter code, got %q", *req.PrimaryCurrency))
		return
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			writeError(w, h.logger, apperr.Validation("unknown timezone %q", *req.Timezone))
			return
		}
	}

	user, err := h.users.UpdateSettings(identity(r).UserID, req.PrimaryCurrency, req.Timezone)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type onboardingTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

// OnboardingTimezone handles POST /api/onboarding/timezone
func (h *SettingsHandler) OnboardingTimezone(w http.ResponseWriter, r *http.Request) {
	var req onboardingTimezoneRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		writeError(w, h.logger, apperr.Validation("unknown timezone %q", req.Timezone))
		return
	}

	user, err := h.users.UpdateSettings(identity(r).UserID, nil, &req.Timezone)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type onboardingCurrencyRequest struct {
	PrimaryCurrency string `json:"primary_currency"`
}

// OnboardingCurrency handles POST /api/onboarding/currency
func (h *SettingsHandler) OnboardingCurrency(w http.ResponseWriter, r *http.Request) {
	var req onboardingCurrencyRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if len(req.PrimaryCurrency) != 3 {
		writeError(w, h.logger, apperr.Validation("primary currency must be a 3-letter code, got %q", req.PrimaryCurrency))
		return
	}

	user, err := h.users.UpdateSettings(identity(r).UserID, &req.PrimaryCurrency, nil)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CompleteOnboarding handles POST /api/onboarding/complete
func (h *SettingsHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	id := identity(r).UserID
	if err := h.users.SetOnboardingDone(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.users.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
