// Package handler exposes the JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Reidond/subsctl/internal/apperr"
	"github.com/Reidond/subsctl/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError maps categorized errors to their status and JSON shape.
// Uncategorized errors are logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	var body errorBody

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body.Error.Code = string(appErr.Code)
		body.Error.Message = appErr.Message
	} else {
		logger.Error("internal error", "error", err)
		body.Error.Code = "INTERNAL"
		body.Error.Message = "internal error"
	}
	writeJSON(w, status, body)
}

// identity returns the authenticated caller. The auth middleware guards
// every route using this, so absence is a programming error.
func identity(r *http.Request) auth.Identity {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		panic("handler reached without authentication")
	}
	return id
}

func decodeBody(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, logger, apperr.Validation("invalid JSON body: %v", err))
		return false
	}
	return true
}
