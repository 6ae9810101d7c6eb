package handler

import (
	"net/http"

	"pgstay/internal/tenants/service"
	"pgstay/pkg/auth"
	httputil "pgstay/pkg/http"
	"pgstay/pkg/logger"
	"pgstay/pkg/middleware"
	"pgstay/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TenantHandler struct {
	service service.TenantService
	log     *logger.Logger
}

func NewTenantHandler(service service.TenantService, log *logger.Logger) *TenantHandler {
	return &TenantHandler{
		service: service,
		log:     log,
	}
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.TenantInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	tenant, err := h.service.Create(r.Context(), auth.FromContext(r.Context()), &in)
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, tenant); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *TenantHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenant, err := h.service.GetByID(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, tenant); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, r, "List", err)
		return
	}
	status := model.TenantStatus(r.URL.Query().Get("status"))

	tenants, total, err := h.service.List(r.Context(), auth.FromContext(r.Context()), status, limit, offset)
	if err != nil {
		h.writeError(w, r, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, tenants, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *TenantHandler) GiveNotice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in model.NoticeInput
	if err := httputil.DecodeJSON(r, &in, true); err != nil {
		h.writeError(w, r, "GiveNotice", err)
		return
	}

	tenant, err := h.service.GiveNotice(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, "GiveNotice", err)
		return
	}

	if err := httputil.WriteSuccess(w, tenant); err != nil {
		h.log.Error("failed to write success response", "handler", "GiveNotice", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TenantHandler) Checkout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in model.CheckoutInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "Checkout", err)
		return
	}

	tenant, err := h.service.Checkout(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, "Checkout", err)
		return
	}

	if err := httputil.WriteSuccess(w, tenant); err != nil {
		h.log.Error("failed to write success response", "handler", "Checkout", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TenantHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Ctx(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *TenantHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tenants", middleware.RequireAdmin(h.Create))
	router.GET("/api/v1/tenants", middleware.RequireAdmin(h.List))
	router.GET("/api/v1/tenants/:id", middleware.RequireAdmin(h.GetByID))
	router.POST("/api/v1/tenants/:id/notice", middleware.RequireAdmin(h.GiveNotice))
	router.POST("/api/v1/tenants/:id/checkout", middleware.RequireAdmin(h.Checkout))
}
