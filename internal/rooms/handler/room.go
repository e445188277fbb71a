package handler

import (
	"net/http"
	"strings"

	"roombook/internal/auth"
	"roombook/internal/rooms/service"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RoomHandler struct {
	service service.RoomService
	guard   *auth.Guard
	log     *logger.Logger
}

func NewRoomHandler(service service.RoomService, guard *auth.Guard, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		guard:   guard,
		log:     log,
	}
}

type RoomResponse struct {
	Message string      `json:"message"`
	Room    *model.Room `json:"room"`
}

func (h *RoomHandler) GetAvailable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		h.writeError(w, "GetAvailable", apperrors.InvalidInput("Please provide a date."))
		return
	}

	day, err := model.ParseDay(raw)
	if err != nil {
		h.writeError(w, "GetAvailable", invalidDate(raw))
		return
	}

	rooms, err := h.service.GetAvailable(r.Context(), day)
	if err != nil {
		h.writeError(w, "GetAvailable", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailable", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetByType(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.service.GetByType(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, "GetByType", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByType", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var create model.RoomCreate
	if err := httputil.DecodeJSON(r, &create); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	room, err := h.service.Create(r.Context(), &create)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, RoomResponse{Message: "Room successfully created.", Room: room}); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RoomHandler) Edit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var edit model.RoomEdit
	if err := httputil.DecodeJSON(r, &edit); err != nil {
		h.writeError(w, "Edit", err)
		return
	}

	room, err := h.service.Edit(r.Context(), edit.RoomID, edit.Updates)
	if err != nil {
		h.writeError(w, "Edit", err)
		return
	}

	if err := httputil.WriteSuccess(w, RoomResponse{Message: "Room successfully updated.", Room: room}); err != nil {
		h.log.Error("failed to write success response", "handler", "Edit", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func invalidDate(raw string) *apperrors.AppError {
	return apperrors.Validation("Invalid date format", map[string]any{
		"date":     raw,
		"expected": "YYYY-MM-DD or ISO 8601 timestamp",
	})
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/rooms/availability", h.GetAvailable)
	router.GET("/rooms/classification", h.GetByType)
	router.PUT("/rooms/edit", h.guard.RequireRole(model.RoleAdmin, h.Edit))
	router.POST("/rooms/create", h.guard.RequireRole(model.RoleAdmin, h.Create))
}
