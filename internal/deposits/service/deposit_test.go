package service

import (
	"context"
	"testing"
	"time"

	"pgstay/internal/deposits/validator"
	"pgstay/internal/memstore"
	"pgstay/pkg/auth"
	"pgstay/pkg/config"
	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/events"
	"pgstay/pkg/logger"
	"pgstay/pkg/model"
	"pgstay/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTenants struct {
	getByIDFunc func(ctx context.Context, p auth.Principal, id string) (*model.Tenant, error)
}

func (m *mockTenants) GetByID(ctx context.Context, p auth.Principal, id string) (*model.Tenant, error) {
	return m.getByIDFunc(ctx, p, id)
}

var admin = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}

func newTestService(t *testing.T) (DepositService, *model.Tenant, *events.Recorder) {
	t.Helper()
	tenant := &model.Tenant{ID: uuid.NewString(), BedID: uuid.NewString(), Status: model.TenantActive}
	tenants := &mockTenants{getByIDFunc: func(_ context.Context, _ auth.Principal, id string) (*model.Tenant, error) {
		if id != tenant.ID {
			return nil, apperrors.NotFoundWithID("Tenant", id)
		}
		return tenant, nil
	}}

	store := memstore.New()
	cfg := &config.Config{Log: logger.Discard()}
	recorder := &events.Recorder{}
	svc := NewDepositService(
		store.Deposits(),
		tenants,
		store.TransactionManager(),
		validator.NewDepositValidator(validation.New(cfg.Log)),
		recorder,
		cfg,
	)
	return svc, tenant, recorder
}

func record(t *testing.T, svc DepositService, tenantID, amount string) *model.SecurityDeposit {
	t.Helper()
	deposit, err := svc.RecordDeposit(context.Background(), admin, &model.DepositInput{
		TenantID: tenantID,
		Amount:   decimal.RequireFromString(amount),
		PaidDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Method:   model.PaymentCash,
	})
	require.NoError(t, err)
	return deposit
}

func refund(amount string, deductions ...model.Deduction) *model.RefundInput {
	return &model.RefundInput{
		Amount:     decimal.RequireFromString(amount),
		RefundDate: time.Date(2027, 4, 1, 0, 0, 0, 0, time.UTC),
		Method:     model.PaymentUPI,
		Deductions: deductions,
	}
}

func TestDepositMachine(t *testing.T) {
	assert.True(t, DepositMachine.Can(model.DepositHeld, DepositRefund))
	assert.True(t, DepositMachine.Can(model.DepositPartiallyRefunded, DepositRefund))
	assert.False(t, DepositMachine.Can(model.DepositRefunded, DepositRefund))

	err := DepositMachine.Check(model.DepositRefunded, DepositRefund)
	assert.Equal(t, "Deposit is already fully refunded", apperrors.AsAppError(err).Message)
}

func TestRecordDeposit(t *testing.T) {
	svc, tenant, recorder := newTestService(t)

	deposit := record(t, svc, tenant.ID, "5000")

	assert.Equal(t, model.DepositHeld, deposit.Status)
	assert.Equal(t, tenant.BedID, deposit.BedID)
	assert.True(t, deposit.Balance().Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, []string{events.DepositRecorded}, recorder.Types())

	_, err := svc.RecordDeposit(context.Background(), admin, &model.DepositInput{
		TenantID: uuid.NewString(),
		Amount:   decimal.NewFromInt(5000),
		PaidDate: time.Now(),
		Method:   model.PaymentCash,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestRefund_LimitAndStatus(t *testing.T) {
	svc, tenant, _ := newTestService(t)
	ctx := context.Background()
	cleaning := model.Deduction{Reason: "Cleaning", Amount: decimal.NewFromInt(500)}

	deposit := record(t, svc, tenant.ID, "5000")

	_, err := svc.Refund(ctx, admin, deposit.ID, refund("4600", cleaning))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	partial, err := svc.Refund(ctx, admin, deposit.ID, refund("2000", cleaning))
	require.NoError(t, err)
	assert.Equal(t, model.DepositPartiallyRefunded, partial.Status)
	assert.True(t, partial.Balance().Equal(decimal.NewFromInt(2500)))

	full, err := svc.Refund(ctx, admin, deposit.ID, refund("2500"))
	require.NoError(t, err)
	assert.Equal(t, model.DepositRefunded, full.Status)
	assert.Len(t, full.Deductions, 1)
	assert.True(t, full.AmountRefunded.Equal(decimal.NewFromInt(4500)))

	_, err = svc.Refund(ctx, admin, deposit.ID, refund("1"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodePreconditionFailed))
}

func TestRefund_DeductionsOnly(t *testing.T) {
	svc, tenant, _ := newTestService(t)
	deposit := record(t, svc, tenant.ID, "5000")

	got, err := svc.Refund(context.Background(), admin, deposit.ID, refund("0", model.Deduction{Reason: "Damage", Amount: decimal.NewFromInt(5000)}))

	require.NoError(t, err)
	assert.Equal(t, model.DepositRefunded, got.Status)
	assert.True(t, got.AmountRefunded.IsZero())
}

func TestDeposits_AdminOnly(t *testing.T) {
	svc, tenant, _ := newTestService(t)
	deposit := record(t, svc, tenant.ID, "5000")
	resident := auth.Principal{UserID: uuid.NewString(), Role: auth.RoleTenant, TenantID: tenant.ID}

	_, err := svc.GetByID(context.Background(), resident, deposit.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.Refund(context.Background(), auth.Anonymous, deposit.ID, refund("100"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	listed, err := svc.ListByTenant(context.Background(), admin, tenant.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
