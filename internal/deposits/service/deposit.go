package service

import (
	"context"
	"errors"
	"fmt"

	depositserrors "pgstay/internal/deposits/errors"
	"pgstay/internal/deposits/repository"
	"pgstay/internal/deposits/validator"
	"pgstay/pkg/auth"
	"pgstay/pkg/config"
	mongotx "pgstay/pkg/db/mongo"
	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/events"
	"pgstay/pkg/model"
	"pgstay/pkg/money"
	"pgstay/pkg/sanitizer"
	"pgstay/pkg/statemachine"
	"pgstay/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DepositAction string

const DepositRefund DepositAction = "refund"

// DepositMachine lets a deposit be refunded until nothing is left.
var DepositMachine = statemachine.New[model.DepositStatus, DepositAction]("deposit").
	Keep(DepositRefund, model.DepositHeld, model.DepositPartiallyRefunded).
	Reject(DepositRefund, "Deposit is already fully refunded")

type DepositService interface {
	RecordDeposit(ctx context.Context, p auth.Principal, in *model.DepositInput) (*model.SecurityDeposit, error)
	GetByID(ctx context.Context, p auth.Principal, id string) (*model.SecurityDeposit, error)
	ListByTenant(ctx context.Context, p auth.Principal, tenantID string) ([]*model.SecurityDeposit, error)
	Refund(ctx context.Context, p auth.Principal, id string, in *model.RefundInput) (*model.SecurityDeposit, error)
}

type TenantDirectory interface {
	GetByID(ctx context.Context, p auth.Principal, id string) (*model.Tenant, error)
}

type depositService struct {
	repo      repository.DepositRepository
	tenants   TenantDirectory
	txManager mongotx.TransactionManager
	validator *validator.DepositValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewDepositService(
	repo repository.DepositRepository,
	tenants TenantDirectory,
	txManager mongotx.TransactionManager,
	validator *validator.DepositValidator,
	publisher events.Publisher,
	cfg *config.Config,
) DepositService {
	return &depositService{
		repo:      repo,
		tenants:   tenants,
		txManager: txManager,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *depositService) RecordDeposit(ctx context.Context, p auth.Principal, in *model.DepositInput) (*model.SecurityDeposit, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	in.TenantID = sanitizer.NormalizeID(in.TenantID)
	in.Notes = sanitizer.TrimAndNormalize(in.Notes)
	if err := s.validator.ValidateDeposit(in); err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Deposit validation failed", "error", err)
		return nil, validation.ToAppError(err)
	}

	tenant, err := s.tenants.GetByID(ctx, p, in.TenantID)
	if err != nil {
		return nil, err
	}

	deposit := &model.SecurityDeposit{
		ID:             uuid.NewString(),
		TenantID:       tenant.ID,
		BedID:          tenant.BedID,
		AmountPaid:     money.Round(in.Amount),
		PaidDate:       in.PaidDate.UTC(),
		PaymentMethod:  in.Method,
		AmountRefunded: decimal.Zero,
		Deductions:     []model.Deduction{},
		Status:         model.DepositHeld,
		Notes:          in.Notes,
		RecordedBy:     p.UserID,
	}
	if err := s.repo.Create(ctx, deposit); err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to create deposit", "tenant_id", tenant.ID, "error", err)
		return nil, apperrors.Internal("Failed to record deposit", err)
	}

	s.cfg.Log.Ctx(ctx).Info("Deposit recorded", "deposit_id", deposit.ID, "tenant_id", tenant.ID, "amount", deposit.AmountPaid.String())
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.DepositRecorded, deposit.ID, p.UserID, map[string]any{
		"tenant_id": deposit.TenantID,
		"amount":    deposit.AmountPaid,
	}))
	return deposit, nil
}

func (s *depositService) GetByID(ctx context.Context, p auth.Principal, id string) (*model.SecurityDeposit, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	deposit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, depositError(err, id)
	}
	return deposit, nil
}

func (s *depositService) ListByTenant(ctx context.Context, p auth.Principal, tenantID string) ([]*model.SecurityDeposit, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	tenant, err := s.tenants.GetByID(ctx, p, tenantID)
	if err != nil {
		return nil, err
	}
	deposits, err := s.repo.FindByTenant(ctx, tenant.ID)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to list deposits", "tenant_id", tenantID, "error", err)
		return nil, apperrors.Internal("Failed to list deposits", err)
	}
	return deposits, nil
}

// Refund pays part or all of the held balance back. New deductions are
// appended to the deposit and count against the balance.
func (s *depositService) Refund(ctx context.Context, p auth.Principal, id string, in *model.RefundInput) (*model.SecurityDeposit, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	in.Notes = sanitizer.TrimAndNormalize(in.Notes)
	for i := range in.Deductions {
		in.Deductions[i].Reason = sanitizer.TrimAndNormalize(in.Deductions[i].Reason)
		in.Deductions[i].Amount = money.Round(in.Deductions[i].Amount)
	}
	if err := s.validator.ValidateRefund(in); err != nil {
		return nil, validation.ToAppError(err)
	}
	amount := money.Round(in.Amount)

	var deposit *model.SecurityDeposit
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		deposit, err = s.repo.FindByID(txCtx, id)
		if err != nil {
			return depositError(err, id)
		}
		if err := DepositMachine.Check(deposit.Status, DepositRefund); err != nil {
			return err
		}
		if err := validator.CheckRefundLimit(deposit, amount, in.Deductions); err != nil {
			return validation.ToAppError(err)
		}

		expected := deposit.UpdatedAt
		refundDate := in.RefundDate.UTC()
		deposit.AmountRefunded = money.Sum(deposit.AmountRefunded, amount)
		deposit.Deductions = append(deposit.Deductions, in.Deductions...)
		deposit.RefundDate = &refundDate
		deposit.RefundMethod = in.Method
		if in.Notes != "" {
			deposit.Notes = in.Notes
		}
		deposit.Status = refundStatus(deposit)

		if err := s.repo.Update(txCtx, deposit, expected); err != nil {
			if errors.Is(err, depositserrors.ErrChanged) {
				return apperrors.PreconditionFailed("Deposit changed concurrently, retry the request")
			}
			return depositError(err, id)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Deposit refund rejected", "deposit_id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Deposit refunded",
		"deposit_id", id,
		"amount", amount.String(),
		"balance", deposit.Balance().String(),
		"status", deposit.Status,
	)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.DepositRefunded, deposit.ID, p.UserID, map[string]any{
		"tenant_id":       deposit.TenantID,
		"amount":          amount,
		"amount_refunded": deposit.AmountRefunded,
		"status":          deposit.Status,
	}))
	return deposit, nil
}

func refundStatus(deposit *model.SecurityDeposit) model.DepositStatus {
	if money.IsPositive(deposit.Balance()) {
		return model.DepositPartiallyRefunded
	}
	return model.DepositRefunded
}

func depositError(err error, id string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, depositserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Deposit", id)
	case errors.Is(err, depositserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid deposit ID format")
	default:
		return apperrors.Internal(fmt.Sprintf("Failed to access deposit %s", id), err)
	}
}
