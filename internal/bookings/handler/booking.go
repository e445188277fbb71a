package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"roombook/internal/auth"
	"roombook/internal/bookings/report"
	"roombook/internal/bookings/service"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	guard   *auth.Guard
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, guard *auth.Guard, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		guard:   guard,
		log:     log,
	}
}

type CreateResponse struct {
	Message string         `json:"message"`
	Booking *model.Booking `json:"booking"`
	Room    *model.Room    `json:"room"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, _ := auth.IdentityFromContext(r.Context())

	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking, room, err := h.service.Create(r.Context(), id.ID, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	resp := CreateResponse{Message: "Booking successfully created.", Booking: booking, Room: room}
	if err := httputil.WriteCreated(w, resp); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.ListAll(r.Context())
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListForUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, _ := auth.IdentityFromContext(r.Context())

	bookings, err := h.service.ListForUser(r.Context(), id.ID)
	if err != nil {
		h.writeError(w, "ListForUser", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForUser", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) MonthlyReport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	result, err := h.service.MonthlyReport(r.Context(), query.Get("year"), query.Get("month"))
	if err != nil {
		h.writeError(w, "MonthlyReport", err)
		return
	}

	switch format := strings.ToLower(strings.TrimSpace(query.Get("format"))); format {
	case "", "json":
		if err := httputil.WriteSuccess(w, result.Entries); err != nil {
			h.log.Error("failed to write success response", "handler", "MonthlyReport", "operation", "WriteSuccess", "error", err)
		}
	case "xlsx":
		h.writeWorkbook(w, result)
	default:
		h.writeError(w, "MonthlyReport", apperrors.InvalidInput(fmt.Sprintf("Unsupported report format: %s", format)))
	}
}

func (h *BookingHandler) writeWorkbook(w http.ResponseWriter, result *service.MonthlyReport) {
	var buf bytes.Buffer
	if err := report.WriteMonthlyXLSX(&buf, result.Year, result.Month, result.Entries); err != nil {
		h.log.Error("Failed to render monthly report", "year", result.Year, "month", int(result.Month), "error", err)
		h.writeError(w, "MonthlyReport", apperrors.Internal("Failed to export monthly report", err))
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName(result.Year, result.Month)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Error("failed to write report", "handler", "MonthlyReport", "operation", "WriteTo", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, _ := auth.IdentityFromContext(r.Context())

	if err := h.service.Cancel(r.Context(), id, ps.ByName("id")); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Booking successfully canceled."); err != nil {
		h.log.Error("failed to write message response", "handler", "Cancel", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/bookings/create", h.guard.RequireUser(h.Create))
	router.GET("/bookings/all", h.guard.RequireRole(model.RoleAdmin, h.ListAll))
	router.GET("/bookings/user", h.guard.RequireUser(h.ListForUser))
	router.GET("/bookings/monthly-report", h.guard.RequireRole(model.RoleAdmin, h.MonthlyReport))
	router.DELETE("/bookings/cancel/:id", h.guard.RequireUser(h.Cancel))
}
