package handler

import (
	"net/http"

	"pgstay/internal/deposits/service"
	"pgstay/pkg/auth"
	httputil "pgstay/pkg/http"
	"pgstay/pkg/logger"
	"pgstay/pkg/middleware"
	"pgstay/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type DepositHandler struct {
	service service.DepositService
	log     *logger.Logger
}

func NewDepositHandler(service service.DepositService, log *logger.Logger) *DepositHandler {
	return &DepositHandler{
		service: service,
		log:     log,
	}
}

func (h *DepositHandler) Record(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.DepositInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "Record", err)
		return
	}

	deposit, err := h.service.RecordDeposit(r.Context(), auth.FromContext(r.Context()), &in)
	if err != nil {
		h.writeError(w, r, "Record", err)
		return
	}

	if err := httputil.WriteCreated(w, deposit); err != nil {
		h.log.Error("failed to write created response", "handler", "Record", "operation", "WriteCreated", "error", err)
	}
}

func (h *DepositHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deposit, err := h.service.GetByID(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, deposit); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DepositHandler) ListByTenant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deposits, err := h.service.ListByTenant(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "ListByTenant", err)
		return
	}

	if err := httputil.WriteSuccess(w, deposits); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByTenant", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DepositHandler) Refund(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in model.RefundInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "Refund", err)
		return
	}

	deposit, err := h.service.Refund(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, "Refund", err)
		return
	}

	if err := httputil.WriteSuccess(w, deposit); err != nil {
		h.log.Error("failed to write success response", "handler", "Refund", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DepositHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Ctx(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *DepositHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/deposits", middleware.RequireAdmin(h.Record))
	router.GET("/api/v1/deposits/:id", middleware.RequireAdmin(h.GetByID))
	router.POST("/api/v1/deposits/:id/refund", middleware.RequireAdmin(h.Refund))
	router.GET("/api/v1/tenants/:id/deposits", middleware.RequireAdmin(h.ListByTenant))
}
