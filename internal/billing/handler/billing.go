package handler

import (
	"context"
	"net/http"

	"pgstay/internal/billing/service"
	"pgstay/pkg/auth"
	httputil "pgstay/pkg/http"
	"pgstay/pkg/logger"
	"pgstay/pkg/middleware"
	"pgstay/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BillingHandler struct {
	service service.BillingService
	log     *logger.Logger
}

func NewBillingHandler(service service.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		service: service,
		log:     log,
	}
}

func (h *BillingHandler) CreateBill(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.CreateBillInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "CreateBill", err)
		return
	}

	bill, err := h.service.CreateBill(r.Context(), auth.FromContext(r.Context()), &in)
	if err != nil {
		h.writeError(w, r, "CreateBill", err)
		return
	}

	if err := httputil.WriteCreated(w, bill); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateBill", "operation", "WriteCreated", "error", err)
	}
}

func (h *BillingHandler) GetBill(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bill, err := h.service.GetBill(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetBill", err)
		return
	}

	if err := httputil.WriteSuccess(w, bill); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBill", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BillingHandler) ListBills(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, r, "ListBills", err)
		return
	}
	query := r.URL.Query()
	filter := model.BillFilter{
		TenantID:     query.Get("tenant_id"),
		BillingMonth: query.Get("month"),
		Status:       model.BillStatus(query.Get("status")),
	}

	bills, total, err := h.service.ListBills(r.Context(), auth.FromContext(r.Context()), filter, limit, offset)
	if err != nil {
		h.writeError(w, r, "ListBills", err)
		return
	}

	if err := httputil.WritePaginated(w, bills, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListBills", "operation", "WritePaginated", "error", err)
	}
}

func (h *BillingHandler) ListMyBills(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, r, "ListMyBills", err)
		return
	}

	bills, total, err := h.service.ListMyBills(r.Context(), auth.FromContext(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, r, "ListMyBills", err)
		return
	}

	if err := httputil.WritePaginated(w, bills, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMyBills", "operation", "WritePaginated", "error", err)
	}
}

func (h *BillingHandler) AddLineItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in model.LineItemInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "AddLineItem", err)
		return
	}

	bill, err := h.service.AddLineItem(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, "AddLineItem", err)
		return
	}

	if err := httputil.WriteCreated(w, bill); err != nil {
		h.log.Error("failed to write created response", "handler", "AddLineItem", "operation", "WriteCreated", "error", err)
	}
}

func (h *BillingHandler) RemoveLineItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bill, err := h.service.RemoveLineItem(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), ps.ByName("item_id"))
	if err != nil {
		h.writeError(w, r, "RemoveLineItem", err)
		return
	}

	if err := httputil.WriteSuccess(w, bill); err != nil {
		h.log.Error("failed to write success response", "handler", "RemoveLineItem", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BillingHandler) ApplyLateFee(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in model.LateFeeInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "ApplyLateFee", err)
		return
	}

	bill, err := h.service.ApplyLateFee(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, "ApplyLateFee", err)
		return
	}

	if err := httputil.WriteSuccess(w, bill); err != nil {
		h.log.Error("failed to write success response", "handler", "ApplyLateFee", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BillingHandler) AddElectricityCharge(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in model.ElectricityInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, "AddElectricityCharge", err)
		return
	}

	bill, err := h.service.AddElectricityCharge(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, "AddElectricityCharge", err)
		return
	}

	if err := httputil.WriteCreated(w, bill); err != nil {
		h.log.Error("failed to write created response", "handler", "AddElectricityCharge", "operation", "WriteCreated", "error", err)
	}
}

func (h *BillingHandler) RecordPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.pay(w, r, ps, "RecordPayment", h.service.RecordPayment)
}

func (h *BillingHandler) RecordTenantPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.pay(w, r, ps, "RecordTenantPayment", h.service.RecordTenantPayment)
}

type paymentFunc func(ctx context.Context, p auth.Principal, billID string, in *model.PaymentInput) (*model.Payment, error)

func (h *BillingHandler) pay(w http.ResponseWriter, r *http.Request, ps httprouter.Params, name string, record paymentFunc) {
	var in model.PaymentInput
	if err := httputil.DecodeJSON(r, &in, false); err != nil {
		h.writeError(w, r, name, err)
		return
	}

	payment, err := record(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &in)
	if err != nil {
		h.writeError(w, r, name, err)
		return
	}

	if err := httputil.WriteCreated(w, payment); err != nil {
		h.log.Error("failed to write created response", "handler", name, "operation", "WriteCreated", "error", err)
	}
}

func (h *BillingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.settlePayment(w, r, ps, "ConfirmPayment", h.service.ConfirmPayment)
}

func (h *BillingHandler) RejectPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.settlePayment(w, r, ps, "RejectPayment", h.service.RejectPayment)
}

type settleFunc func(ctx context.Context, p auth.Principal, paymentID string) (*model.Payment, error)

func (h *BillingHandler) settlePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params, name string, apply settleFunc) {
	payment, err := apply(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, payment); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BillingHandler) SendBill(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "SendBill", h.service.SendBill)
}

func (h *BillingHandler) MarkOverdue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "MarkOverdue", h.service.MarkOverdue)
}

func (h *BillingHandler) CancelBill(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "CancelBill", h.service.CancelBill)
}

type transitionFunc func(ctx context.Context, p auth.Principal, id string) (*model.Bill, error)

func (h *BillingHandler) transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params, name string, apply transitionFunc) {
	bill, err := apply(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, bill); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BillingHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Ctx(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BillingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bills", middleware.RequireAdmin(h.CreateBill))
	router.GET("/api/v1/bills", middleware.RequireAdmin(h.ListBills))
	router.GET("/api/v1/bills/:id", h.GetBill)
	router.POST("/api/v1/bills/:id/line-items", middleware.RequireAdmin(h.AddLineItem))
	router.DELETE("/api/v1/bills/:id/line-items/:item_id", middleware.RequireAdmin(h.RemoveLineItem))
	router.POST("/api/v1/bills/:id/late-fee", middleware.RequireAdmin(h.ApplyLateFee))
	router.POST("/api/v1/bills/:id/electricity", middleware.RequireAdmin(h.AddElectricityCharge))
	router.POST("/api/v1/bills/:id/payments", middleware.RequireAdmin(h.RecordPayment))
	router.POST("/api/v1/bills/:id/send", middleware.RequireAdmin(h.SendBill))
	router.POST("/api/v1/bills/:id/overdue", middleware.RequireAdmin(h.MarkOverdue))
	router.POST("/api/v1/bills/:id/cancel", middleware.RequireAdmin(h.CancelBill))

	router.POST("/api/v1/payments/:id/confirm", middleware.RequireAdmin(h.ConfirmPayment))
	router.POST("/api/v1/payments/:id/reject", middleware.RequireAdmin(h.RejectPayment))

	router.GET("/api/v1/me/bills", middleware.RequireTenant(h.ListMyBills))
	router.GET("/api/v1/me/bills/:id", middleware.RequireTenant(h.GetBill))
	router.POST("/api/v1/me/bills/:id/payments", middleware.RequireTenant(h.RecordTenantPayment))
}
