package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	billingerrors "pgstay/internal/billing/errors"
	"pgstay/internal/billing/repository"
	"pgstay/internal/billing/validator"
	"pgstay/pkg/auth"
	"pgstay/pkg/config"
	mongotx "pgstay/pkg/db/mongo"
	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/events"
	"pgstay/pkg/model"
	"pgstay/pkg/sanitizer"
	"pgstay/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillingService interface {
	CreateBill(ctx context.Context, p auth.Principal, in *model.CreateBillInput) (*model.BillDetails, error)
	GetBill(ctx context.Context, p auth.Principal, id string) (*model.BillDetails, error)
	ListBills(ctx context.Context, p auth.Principal, filter model.BillFilter, limit int, offset int64) ([]*model.Bill, int64, error)
	ListMyBills(ctx context.Context, p auth.Principal, limit int, offset int64) ([]*model.Bill, int64, error)

	AddLineItem(ctx context.Context, p auth.Principal, billID string, in *model.LineItemInput) (*model.BillDetails, error)
	RemoveLineItem(ctx context.Context, p auth.Principal, billID, itemID string) (*model.BillDetails, error)
	ApplyLateFee(ctx context.Context, p auth.Principal, billID string, in *model.LateFeeInput) (*model.BillDetails, error)
	AddElectricityCharge(ctx context.Context, p auth.Principal, billID string, in *model.ElectricityInput) (*model.BillDetails, error)

	RecordPayment(ctx context.Context, p auth.Principal, billID string, in *model.PaymentInput) (*model.Payment, error)
	RecordTenantPayment(ctx context.Context, p auth.Principal, billID string, in *model.PaymentInput) (*model.Payment, error)
	ConfirmPayment(ctx context.Context, p auth.Principal, paymentID string) (*model.Payment, error)
	RejectPayment(ctx context.Context, p auth.Principal, paymentID string) (*model.Payment, error)

	SendBill(ctx context.Context, p auth.Principal, id string) (*model.Bill, error)
	MarkOverdue(ctx context.Context, p auth.Principal, id string) (*model.Bill, error)
	CancelBill(ctx context.Context, p auth.Principal, id string) (*model.Bill, error)
}

// TenantDirectory resolves the tenant a bill is raised for.
type TenantDirectory interface {
	GetByID(ctx context.Context, p auth.Principal, id string) (*model.Tenant, error)
}

// RentLookup prices a bed.
type RentLookup interface {
	RentForBed(ctx context.Context, bedID string) (decimal.Decimal, error)
}

type billingService struct {
	bills     repository.BillRepository
	items     repository.LineItemRepository
	payments  repository.PaymentRepository
	readings  repository.ElectricityRepository
	tenants   TenantDirectory
	rents     RentLookup
	txManager mongotx.TransactionManager
	validator *validator.BillingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBillingService(
	bills repository.BillRepository,
	items repository.LineItemRepository,
	payments repository.PaymentRepository,
	readings repository.ElectricityRepository,
	tenants TenantDirectory,
	rents RentLookup,
	txManager mongotx.TransactionManager,
	validator *validator.BillingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BillingService {
	return &billingService{
		bills:     bills,
		items:     items,
		payments:  payments,
		readings:  readings,
		tenants:   tenants,
		rents:     rents,
		txManager: txManager,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateBill raises a DRAFT bill for a tenant's month seeded with one RENT
// line item at the rent of the tenant's bed.
func (s *billingService) CreateBill(ctx context.Context, p auth.Principal, in *model.CreateBillInput) (*model.BillDetails, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	in.TenantID = sanitizer.NormalizeID(in.TenantID)
	in.BillingMonth = sanitizer.TrimAndNormalize(in.BillingMonth)
	in.Notes = sanitizer.TrimAndNormalize(in.Notes)
	if err := s.validator.ValidateCreate(in); err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Bill validation failed", "error", err)
		return nil, validation.ToAppError(err)
	}

	tenant, err := s.tenants.GetByID(ctx, p, in.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.BedID == "" {
		return nil, apperrors.PreconditionFailed("Tenant has no bed assigned")
	}
	rent, err := s.rents.RentForBed(ctx, tenant.BedID)
	if err != nil {
		return nil, err
	}
	if !rent.IsPositive() {
		return nil, apperrors.PreconditionFailed("Bed has no monthly rent configured")
	}

	bill := &model.Bill{
		ID:             uuid.NewString(),
		TenantID:       tenant.ID,
		BedID:          tenant.BedID,
		BillingMonth:   in.BillingMonth,
		DueDate:        in.DueDate.UTC(),
		PaidAmount:     decimal.Zero,
		LateFeeApplied: decimal.Zero,
		Status:         model.BillDraft,
		Notes:          in.Notes,
		CreatedBy:      p.UserID,
	}
	rentItem := model.BillLineItem{
		ID:          uuid.NewString(),
		BillID:      bill.ID,
		Type:        model.LineItemRent,
		Description: fmt.Sprintf("Rent for %s", in.BillingMonth),
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   rent,
		Amount:      LineItemAmount(decimal.NewFromInt(1), rent),
		Position:    1,
	}
	bill.TotalAmount = RecalculateTotal([]model.BillLineItem{rentItem})

	err = s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.bills.FindByTenantAndMonth(txCtx, bill.TenantID, bill.BillingMonth); err == nil {
			return duplicateBill(bill.BillingMonth)
		} else if !errors.Is(err, billingerrors.ErrNotFound) {
			return apperrors.Internal("Failed to look up bill", err)
		}

		if err := s.bills.Create(txCtx, bill); err != nil {
			if errors.Is(err, billingerrors.ErrDuplicate) {
				return duplicateBill(bill.BillingMonth)
			}
			return apperrors.Internal("Failed to create bill", err)
		}
		if err := s.items.Create(txCtx, &rentItem); err != nil {
			return apperrors.Internal("Failed to create rent line item", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to create bill", "tenant_id", in.TenantID, "month", in.BillingMonth, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Bill created",
		"bill_id", bill.ID,
		"tenant_id", bill.TenantID,
		"month", bill.BillingMonth,
		"total", bill.TotalAmount.String(),
	)
	s.notify(ctx, events.BillCreated, bill, p, map[string]any{
		"tenant_id":     bill.TenantID,
		"billing_month": bill.BillingMonth,
		"total_amount":  bill.TotalAmount,
	})
	return &model.BillDetails{
		Bill:                bill,
		LineItems:           []model.BillLineItem{rentItem},
		Payments:            []model.Payment{},
		ElectricityReadings: []model.ElectricityReading{},
	}, nil
}

func (s *billingService) GetBill(ctx context.Context, p auth.Principal, id string) (*model.BillDetails, error) {
	bill, err := s.bills.FindByID(ctx, id)
	if err != nil {
		return nil, billError(err, "Bill", id)
	}
	if err := authorizeBill(p, bill); err != nil {
		return nil, err
	}
	return s.details(ctx, bill)
}

func (s *billingService) ListBills(ctx context.Context, p auth.Principal, filter model.BillFilter, limit int, offset int64) ([]*model.Bill, int64, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, 0, err
	}
	if filter.BillingMonth != "" {
		if !validation.IsBillingMonth(filter.BillingMonth) {
			return nil, 0, apperrors.InvalidInput("invalid month parameter, must be YYYY-MM")
		}
	}
	return s.list(ctx, filter, limit, offset)
}

func (s *billingService) ListMyBills(ctx context.Context, p auth.Principal, limit int, offset int64) ([]*model.Bill, int64, error) {
	if err := p.RequireTenant(); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, model.BillFilter{TenantID: p.TenantID, ExcludeDrafts: true}, limit, offset)
}

func (s *billingService) list(ctx context.Context, filter model.BillFilter, limit int, offset int64) ([]*model.Bill, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	bills, err := s.bills.Find(ctx, filter, limit, offset)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to list bills", "error", err)
		return nil, 0, apperrors.Internal("Failed to list bills", err)
	}
	count, err := s.bills.Count(ctx, filter)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to count bills", "error", err)
		return nil, 0, apperrors.Internal("Failed to count bills", err)
	}
	return bills, count, nil
}

func (s *billingService) SendBill(ctx context.Context, p auth.Principal, id string) (*model.Bill, error) {
	bill, err := s.transition(ctx, p, id, BillSend, func(_ context.Context, b *model.Bill) error {
		sentAt := s.now().Truncate(time.Millisecond)
		b.SentAt = &sentAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, events.BillSent, bill, p, map[string]any{"tenant_id": bill.TenantID})
	return bill, nil
}

func (s *billingService) MarkOverdue(ctx context.Context, p auth.Principal, id string) (*model.Bill, error) {
	bill, err := s.transition(ctx, p, id, BillMarkOverdue, nil)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, events.BillOverdue, bill, p, map[string]any{
		"tenant_id":   bill.TenantID,
		"outstanding": bill.Outstanding(),
	})
	return bill, nil
}

// CancelBill is refused while the bill has any payment that was not rejected,
// pending ones included.
func (s *billingService) CancelBill(ctx context.Context, p auth.Principal, id string) (*model.Bill, error) {
	bill, err := s.transition(ctx, p, id, BillCancel, func(txCtx context.Context, b *model.Bill) error {
		count, err := s.payments.CountByBill(txCtx, b.ID)
		if err != nil {
			return apperrors.Internal("Failed to count payments", err)
		}
		if count > 0 {
			return apperrors.PreconditionFailed("Cannot cancel bill with recorded payments")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, events.BillCancelled, bill, p, nil)
	return bill, nil
}

// transition moves a bill through BillMachine inside a transaction. guard
// may veto or fill in fields of the new status.
func (s *billingService) transition(ctx context.Context, p auth.Principal, id string, action BillAction, guard func(context.Context, *model.Bill) error) (*model.Bill, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	var bill *model.Bill
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		bill, err = s.bills.FindByID(txCtx, id)
		if err != nil {
			return billError(err, "Bill", id)
		}
		from := bill.Status
		next, err := BillMachine.Next(from, action)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(txCtx, bill); err != nil {
				return err
			}
		}
		bill.Status = next
		return s.update(txCtx, bill, from)
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Bill status change rejected", "bill_id", id, "action", action, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Bill status changed", "bill_id", id, "action", action, "status", bill.Status)
	return bill, nil
}

// mutate runs fn against a bill that accepts action, then recomputes the
// total from the stored line items, derives the status and saves the bill.
func (s *billingService) mutate(ctx context.Context, billID string, action BillAction, fn func(txCtx context.Context, bill *model.Bill) error) (*model.BillDetails, error) {
	var details *model.BillDetails
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		bill, err := s.bills.FindByID(txCtx, billID)
		if err != nil {
			return billError(err, "Bill", billID)
		}
		from := bill.Status
		if err := BillMachine.Check(from, action); err != nil {
			return err
		}

		if err := fn(txCtx, bill); err != nil {
			return err
		}

		items, err := s.items.FindByBill(txCtx, bill.ID)
		if err != nil {
			return apperrors.Internal("Failed to load line items", err)
		}
		bill.TotalAmount = RecalculateTotal(items)
		bill.Status = DeriveStatus(bill.Status, bill.PaidAmount, bill.TotalAmount)

		if err := s.update(txCtx, bill, from); err != nil {
			return err
		}
		details, err = s.details(txCtx, bill)
		return err
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (s *billingService) update(ctx context.Context, bill *model.Bill, from model.BillStatus) error {
	if err := s.bills.Update(ctx, bill, from); err != nil {
		if errors.Is(err, billingerrors.ErrStatusChanged) {
			return apperrors.PreconditionFailed("Bill changed concurrently, retry the request")
		}
		s.cfg.Log.Ctx(ctx).Error("Failed to update bill", "bill_id", bill.ID, "error", err)
		return billError(err, "Bill", bill.ID)
	}
	return nil
}

func (s *billingService) details(ctx context.Context, bill *model.Bill) (*model.BillDetails, error) {
	items, err := s.items.FindByBill(ctx, bill.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load line items", err)
	}
	payments, err := s.payments.FindByBill(ctx, bill.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load payments", err)
	}
	readings, err := s.readings.FindByBill(ctx, bill.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load electricity readings", err)
	}
	return &model.BillDetails{
		Bill:                bill,
		LineItems:           items,
		Payments:            payments,
		ElectricityReadings: readings,
	}, nil
}

func (s *billingService) notify(ctx context.Context, eventType string, bill *model.Bill, p auth.Principal, data map[string]any) {
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(eventType, bill.ID, p.UserID, data))
}

// authorizeBill lets admins see every bill and tenants only their own. A
// tenant's bill stays hidden as NOT_FOUND until it is sent.
func authorizeBill(p auth.Principal, bill *model.Bill) error {
	if p.IsAdmin() {
		return nil
	}
	if !p.Authenticated() {
		return apperrors.Unauthorized("Authentication required")
	}
	if !p.IsTenant() || bill.TenantID != p.TenantID {
		return apperrors.Forbidden("Unauthorized: This bill does not belong to you")
	}
	if bill.Status == model.BillDraft {
		return apperrors.NotFoundWithID("Bill", bill.ID)
	}
	return nil
}

func duplicateBill(month string) error {
	return apperrors.Conflict(fmt.Sprintf("A bill for %s already exists for this tenant", month))
}

func billError(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, billingerrors.ErrNotFound):
		return apperrors.NotFoundWithID(resource, id)
	case errors.Is(err, billingerrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid %s ID format", resource))
	default:
		return apperrors.Internal(fmt.Sprintf("Failed to access %s", resource), err)
	}
}
