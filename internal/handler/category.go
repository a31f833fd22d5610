package handler

import (
	"log/slog"
	"net/http"

	"github.com/Reidond/subsctl/internal/service"
	ws "github.com/Reidond/subsctl/internal/websocket"
)

type CategoryHandler struct {
	cats   *service.CategoryService
	hub    *ws.Hub
	logger *slog.Logger
}

func NewCategoryHandler(cats *service.CategoryService, hub *ws.Hub, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{cats: cats, hub: hub, logger: logger}
}

func (h *CategoryHandler) notify(owner, action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(owner, ws.NewMessage("category", action, id, nil))
	}
}

// List handles GET /api/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.cats.List(identity(r).Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type categoryRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// Create handles POST /api/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	cat, err := h.cats.Create(identity(r).Email, req.Name, req.Color)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify(identity(r).Email, "created", cat.ID)
	writeJSON(w, http.StatusCreated, cat)
}

// Update handles PATCH /api/categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	cat, err := h.cats.Update(identity(r).Email, r.PathValue("id"), req.Name, req.Color)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify(identity(r).Email, "updated", cat.ID)
	writeJSON(w, http.StatusOK, cat)
}

// Delete handles DELETE /api/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.cats.Delete(identity(r).Email, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.notify(identity(r).Email, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
