package handler

import (
	"context"
	"net/http"

	"pgstay/internal/bookings/service"
	"pgstay/pkg/auth"
	httputil "pgstay/pkg/http"
	"pgstay/pkg/logger"
	"pgstay/pkg/middleware"
	"pgstay/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// Create handles the public booking form.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.BookingInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	booking, err := h.service.Create(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, r, "List", err)
		return
	}
	status := model.BookingStatus(r.URL.Query().Get("status"))

	bookings, total, err := h.service.List(r.Context(), auth.FromContext(r.Context()), status, limit, offset)
	if err != nil {
		h.writeError(w, r, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

type decisionFunc func(ctx context.Context, p auth.Principal, id string, in *model.BookingDecision) (*model.Booking, error)

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.decide(w, r, ps, "Approve", h.service.Approve)
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.decide(w, r, ps, "Reject", h.service.Reject)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.decide(w, r, ps, "Cancel", h.service.Cancel)
}

// decide runs one of the admin decisions. The notes body is optional.
func (h *BookingHandler) decide(w http.ResponseWriter, r *http.Request, ps httprouter.Params, name string, fn decisionFunc) {
	var in model.BookingDecision
	if err := httputil.DecodeJSON(r, &in, true); err != nil {
		h.writeError(w, r, name, err)
		return
	}

	booking, err := fn(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Convert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conversion, err := h.service.Convert(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "Convert", err)
		return
	}

	if err := httputil.WriteSuccess(w, conversion); err != nil {
		h.log.Error("failed to write success response", "handler", "Convert", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Ctx(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/public/bookings", h.Create)

	router.GET("/api/v1/bookings", middleware.RequireAdmin(h.List))
	router.GET("/api/v1/bookings/:id", middleware.RequireAdmin(h.GetByID))
	router.POST("/api/v1/bookings/:id/approve", middleware.RequireAdmin(h.Approve))
	router.POST("/api/v1/bookings/:id/reject", middleware.RequireAdmin(h.Reject))
	router.POST("/api/v1/bookings/:id/cancel", middleware.RequireAdmin(h.Cancel))
	router.POST("/api/v1/bookings/:id/convert", middleware.RequireAdmin(h.Convert))
}
