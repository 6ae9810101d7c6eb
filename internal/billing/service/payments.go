package service

import (
	"context"
	"errors"
	"fmt"

	billingerrors "pgstay/internal/billing/errors"
	"pgstay/pkg/auth"
	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/events"
	"pgstay/pkg/model"
	"pgstay/pkg/money"
	"pgstay/pkg/sanitizer"
	"pgstay/pkg/validation"

	"github.com/google/uuid"
)

// RecordPayment records a payment taken by an admin. It counts towards the
// bill immediately.
func (s *billingService) RecordPayment(ctx context.Context, p auth.Principal, billID string, in *model.PaymentInput) (*model.Payment, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.recordPayment(ctx, p, billID, in, model.PaymentSuccess)
}

// RecordTenantPayment lets a tenant report a payment against their own bill.
// It stays PENDING and does not count until an admin confirms it.
func (s *billingService) RecordTenantPayment(ctx context.Context, p auth.Principal, billID string, in *model.PaymentInput) (*model.Payment, error) {
	if err := p.RequireTenant(); err != nil {
		return nil, err
	}
	return s.recordPayment(ctx, p, billID, in, model.PaymentPending)
}

func (s *billingService) recordPayment(ctx context.Context, p auth.Principal, billID string, in *model.PaymentInput, status model.PaymentStatus) (*model.Payment, error) {
	in.Reference = sanitizer.TrimAndNormalize(in.Reference)
	in.Notes = sanitizer.TrimAndNormalize(in.Notes)
	if err := s.validator.ValidatePayment(in); err != nil {
		return nil, validation.ToAppError(err)
	}

	payment := &model.Payment{
		ID:              uuid.NewString(),
		BillID:          billID,
		Amount:          money.Round(in.Amount),
		Method:          in.Method,
		Status:          status,
		TransactionDate: in.TransactionDate.UTC(),
		Reference:       in.Reference,
		Notes:           in.Notes,
		RecordedBy:      p.UserID,
	}

	var bill *model.Bill
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		bill, err = s.bills.FindByID(txCtx, billID)
		if err != nil {
			return billError(err, "Bill", billID)
		}
		if err := authorizeBill(p, bill); err != nil {
			return err
		}
		if err := BillMachine.Check(bill.Status, BillPay); err != nil {
			return err
		}
		if payment.Amount.GreaterThan(bill.Outstanding()) {
			return overpayment(bill)
		}

		payment.TenantID = bill.TenantID
		if err := s.payments.Create(txCtx, payment); err != nil {
			return apperrors.Internal("Failed to record payment", err)
		}
		if status != model.PaymentSuccess {
			return nil
		}
		return s.applyPayment(txCtx, bill, payment)
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to record payment", "bill_id", billID, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Payment recorded",
		"bill_id", billID,
		"payment_id", payment.ID,
		"amount", payment.Amount.String(),
		"status", payment.Status,
		"bill_status", bill.Status,
	)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.PaymentRecorded, payment.ID, p.UserID, map[string]any{
		"bill_id":     bill.ID,
		"tenant_id":   bill.TenantID,
		"amount":      payment.Amount,
		"status":      payment.Status,
		"bill_status": bill.Status,
	}))
	return payment, nil
}

// ConfirmPayment turns a tenant's PENDING payment into SUCCESS and applies
// it to the bill.
func (s *billingService) ConfirmPayment(ctx context.Context, p auth.Principal, paymentID string) (*model.Payment, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	var payment *model.Payment
	var bill *model.Bill
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		payment, err = s.payments.FindByID(txCtx, paymentID)
		if err != nil {
			return billError(err, "Payment", paymentID)
		}
		if payment.Status != model.PaymentPending {
			return apperrors.PreconditionFailed("Only pending payments can be confirmed")
		}

		bill, err = s.bills.FindByID(txCtx, payment.BillID)
		if err != nil {
			return billError(err, "Bill", payment.BillID)
		}
		if err := BillMachine.Check(bill.Status, BillPay); err != nil {
			return err
		}
		if payment.Amount.GreaterThan(bill.Outstanding()) {
			return overpayment(bill)
		}

		confirmedAt := s.now()
		if err := s.payments.Confirm(txCtx, payment.ID, p.UserID, confirmedAt); err != nil {
			if errors.Is(err, billingerrors.ErrStatusChanged) {
				return apperrors.PreconditionFailed("Only pending payments can be confirmed")
			}
			return billError(err, "Payment", paymentID)
		}
		payment.Status = model.PaymentSuccess
		payment.ConfirmedBy = p.UserID
		payment.ConfirmedAt = &confirmedAt

		return s.applyPayment(txCtx, bill, payment)
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to confirm payment", "payment_id", paymentID, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Payment confirmed", "payment_id", paymentID, "bill_id", bill.ID, "bill_status", bill.Status)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.PaymentConfirmed, payment.ID, p.UserID, map[string]any{
		"bill_id":     bill.ID,
		"tenant_id":   bill.TenantID,
		"amount":      payment.Amount,
		"bill_status": bill.Status,
	}))
	return payment, nil
}

// RejectPayment marks a tenant's PENDING payment REJECTED. The bill is left
// as it was; a rejected payment no longer blocks CancelBill.
func (s *billingService) RejectPayment(ctx context.Context, p auth.Principal, paymentID string) (*model.Payment, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	var payment *model.Payment
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		payment, err = s.payments.FindByID(txCtx, paymentID)
		if err != nil {
			return billError(err, "Payment", paymentID)
		}
		if payment.Status != model.PaymentPending {
			return apperrors.PreconditionFailed("Only pending payments can be rejected")
		}

		rejectedAt := s.now()
		if err := s.payments.Reject(txCtx, payment.ID, p.UserID, rejectedAt); err != nil {
			if errors.Is(err, billingerrors.ErrStatusChanged) {
				return apperrors.PreconditionFailed("Only pending payments can be rejected")
			}
			return billError(err, "Payment", paymentID)
		}
		payment.Status = model.PaymentRejected
		payment.RejectedBy = p.UserID
		payment.RejectedAt = &rejectedAt
		return nil
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to reject payment", "payment_id", paymentID, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Payment rejected", "payment_id", paymentID, "bill_id", payment.BillID)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.PaymentRejected, payment.ID, p.UserID, map[string]any{
		"bill_id":   payment.BillID,
		"tenant_id": payment.TenantID,
		"amount":    payment.Amount,
	}))
	return payment, nil
}

func (s *billingService) applyPayment(ctx context.Context, bill *model.Bill, payment *model.Payment) error {
	from := bill.Status
	bill.PaidAmount = money.Sum(bill.PaidAmount, payment.Amount)
	bill.Status = DeriveStatus(bill.Status, bill.PaidAmount, bill.TotalAmount)
	return s.update(ctx, bill, from)
}

func overpayment(bill *model.Bill) error {
	return apperrors.Validation(
		fmt.Sprintf("Payment exceeds outstanding amount of %s", bill.Outstanding().StringFixed(money.Scale)),
		map[string]any{"outstanding": bill.Outstanding().StringFixed(money.Scale)},
	)
}
