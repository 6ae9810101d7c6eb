package service

import (
	"context"
	"testing"
	"time"

	"pgstay/internal/billing/validator"
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

// ────────────────────────────────────────────────
// Collaborators
// ────────────────────────────────────────────────

type stubTenants struct {
	tenants map[string]*model.Tenant
}

func (s *stubTenants) GetByID(_ context.Context, _ auth.Principal, id string) (*model.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Tenant", id)
	}
	return t, nil
}

type stubRents struct {
	rentFunc func(bedID string) (decimal.Decimal, error)
}

func (s *stubRents) RentForBed(_ context.Context, bedID string) (decimal.Decimal, error) {
	return s.rentFunc(bedID)
}

type fixture struct {
	svc      BillingService
	recorder *events.Recorder
	tenant   *model.Tenant
	homeless *model.Tenant
	admin    auth.Principal
	resident auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	tenant := &model.Tenant{ID: uuid.NewString(), UserID: uuid.NewString(), BedID: uuid.NewString(), Status: model.TenantActive}
	homeless := &model.Tenant{ID: uuid.NewString(), UserID: uuid.NewString(), Status: model.TenantActive}
	tenants := &stubTenants{tenants: map[string]*model.Tenant{tenant.ID: tenant, homeless.ID: homeless}}
	rents := &stubRents{rentFunc: func(string) (decimal.Decimal, error) { return decimal.NewFromInt(12000), nil }}

	recorder := &events.Recorder{}
	cfg := &config.Config{Log: logger.Discard()}
	svc := NewBillingService(
		store.Bills(),
		store.LineItems(),
		store.Payments(),
		store.Electricity(),
		tenants,
		rents,
		store.TransactionManager(),
		validator.NewBillingValidator(validation.New(cfg.Log)),
		recorder,
		cfg,
	)

	return &fixture{
		svc:      svc,
		recorder: recorder,
		tenant:   tenant,
		homeless: homeless,
		admin:    auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin},
		resident: auth.Principal{UserID: tenant.UserID, Role: auth.RoleTenant, TenantID: tenant.ID},
	}
}

func (f *fixture) createBill(t *testing.T, month string) *model.BillDetails {
	t.Helper()
	due, err := time.Parse(model.BillingMonthLayout, month)
	require.NoError(t, err)
	bill, err := f.svc.CreateBill(context.Background(), f.admin, &model.CreateBillInput{
		TenantID:     f.tenant.ID,
		BillingMonth: month,
		DueDate:      due.AddDate(0, 0, 4),
	})
	require.NoError(t, err)
	return bill
}

// sentBill creates a bill and sends it so the tenant can see it.
func (f *fixture) sentBill(t *testing.T, month string) *model.BillDetails {
	t.Helper()
	bill := f.createBill(t, month)
	_, err := f.svc.SendBill(context.Background(), f.admin, bill.ID)
	require.NoError(t, err)
	return bill
}

func payment(amount string) *model.PaymentInput {
	return &model.PaymentInput{
		Amount:          decimal.RequireFromString(amount),
		Method:          model.PaymentUPI,
		TransactionDate: time.Date(2026, 10, 3, 10, 0, 0, 0, time.UTC),
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

// ────────────────────────────────────────────────
// CreateBill
// ────────────────────────────────────────────────

func TestCreateBill_SeedsRentLineItem(t *testing.T) {
	f := newFixture(t)

	bill := f.createBill(t, "2026-10")

	assert.Equal(t, model.BillDraft, bill.Status)
	assert.True(t, bill.TotalAmount.Equal(decimal.NewFromInt(12000)))
	assert.Equal(t, f.tenant.BedID, bill.BedID)
	require.Len(t, bill.LineItems, 1)
	assert.Equal(t, model.LineItemRent, bill.LineItems[0].Type)
	assert.Equal(t, "Rent for 2026-10", bill.LineItems[0].Description)
	assert.Equal(t, 1, bill.LineItems[0].Position)
	assert.Equal(t, []string{events.BillCreated}, f.recorder.Types())
}

func TestCreateBill_Rejections(t *testing.T) {
	f := newFixture(t)
	f.createBill(t, "2026-10")

	tests := []struct {
		name  string
		p     auth.Principal
		input model.CreateBillInput
		code  string
	}{
		{
			name:  "duplicate month",
			p:     f.admin,
			input: model.CreateBillInput{TenantID: f.tenant.ID, BillingMonth: "2026-10", DueDate: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)},
			code:  apperrors.CodeConflict,
		},
		{
			name:  "tenant without bed",
			p:     f.admin,
			input: model.CreateBillInput{TenantID: f.homeless.ID, BillingMonth: "2026-10", DueDate: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)},
			code:  apperrors.CodePreconditionFailed,
		},
		{
			name:  "due before month",
			p:     f.admin,
			input: model.CreateBillInput{TenantID: f.tenant.ID, BillingMonth: "2026-11", DueDate: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)},
			code:  apperrors.CodeValidation,
		},
		{
			name:  "malformed month",
			p:     f.admin,
			input: model.CreateBillInput{TenantID: f.tenant.ID, BillingMonth: "2026/11", DueDate: time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)},
			code:  apperrors.CodeValidation,
		},
		{
			name:  "tenant principal",
			p:     f.resident,
			input: model.CreateBillInput{TenantID: f.tenant.ID, BillingMonth: "2026-12", DueDate: time.Date(2026, 12, 5, 0, 0, 0, 0, time.UTC)},
			code:  apperrors.CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateBill(context.Background(), tt.p, &tt.input)
			assertCode(t, err, tt.code)
		})
	}
}

// ────────────────────────────────────────────────
// Charges
// ────────────────────────────────────────────────

func TestAddElectricityCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.createBill(t, "2026-10")

	got, err := f.svc.AddElectricityCharge(ctx, f.admin, bill.ID, &model.ElectricityInput{
		PreviousReading: decimal.NewFromInt(100),
		CurrentReading:  decimal.NewFromInt(200),
		RatePerUnit:     decimal.NewFromInt(8),
	})
	require.NoError(t, err)

	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(12800)), "total %s", got.TotalAmount)
	require.Len(t, got.LineItems, 2)
	assert.Equal(t, model.LineItemElectricity, got.LineItems[1].Type)
	assert.Equal(t, 2, got.LineItems[1].Position)
	require.Len(t, got.ElectricityReadings, 1)
	assert.True(t, got.ElectricityReadings[0].UnitsConsumed.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, f.tenant.BedID, got.ElectricityReadings[0].BedID)

	_, err = f.svc.AddElectricityCharge(ctx, f.admin, bill.ID, &model.ElectricityInput{
		PreviousReading: decimal.NewFromInt(300),
		CurrentReading:  decimal.NewFromInt(200),
		RatePerUnit:     decimal.NewFromInt(8),
	})
	assertCode(t, err, apperrors.CodeValidation)
}

func TestRemoveLineItem_ThenReaddKeepsTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.createBill(t, "2026-10")

	meals := &model.LineItemInput{
		Type:        model.LineItemMeals,
		Description: "Dinner plan",
		Quantity:    decimal.NewFromInt(30),
		UnitPrice:   decimal.RequireFromString("85.50"),
	}
	withMeals, err := f.svc.AddLineItem(ctx, f.admin, bill.ID, meals)
	require.NoError(t, err)
	assert.True(t, withMeals.TotalAmount.Equal(decimal.RequireFromString("14565")))

	removed, err := f.svc.RemoveLineItem(ctx, f.admin, bill.ID, withMeals.LineItems[1].ID)
	require.NoError(t, err)
	assert.True(t, removed.TotalAmount.Equal(decimal.NewFromInt(12000)))

	readded, err := f.svc.AddLineItem(ctx, f.admin, bill.ID, meals)
	require.NoError(t, err)
	assert.True(t, readded.TotalAmount.Equal(withMeals.TotalAmount))
	assert.Equal(t, 2, readded.LineItems[1].Position)

	_, err = f.svc.RemoveLineItem(ctx, f.admin, bill.ID, uuid.NewString())
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestApplyLateFee_TracksAccumulator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.createBill(t, "2026-10")

	got, err := f.svc.ApplyLateFee(ctx, f.admin, bill.ID, &model.LateFeeInput{Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	assert.True(t, got.LateFeeApplied.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "Late fee for 2026-10", got.LineItems[1].Description)

	got, err = f.svc.RemoveLineItem(ctx, f.admin, bill.ID, got.LineItems[1].ID)
	require.NoError(t, err)
	assert.True(t, got.LateFeeApplied.IsZero())
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(12000)))
}

func TestApplyLateFee_KeepsOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.createBill(t, "2026-10")
	_, err := f.svc.SendBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(ctx, f.admin, bill.ID, payment("2000"))
	require.NoError(t, err)
	_, err = f.svc.MarkOverdue(ctx, f.admin, bill.ID)
	require.NoError(t, err)

	got, err := f.svc.ApplyLateFee(ctx, f.admin, bill.ID, &model.LateFeeInput{Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	assert.Equal(t, model.BillOverdue, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(12200)))

	_, err = f.svc.RecordPayment(ctx, f.admin, bill.ID, payment("1000"))
	require.NoError(t, err)
	partial, err := f.svc.GetBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillOverdue, partial.Status)

	_, err = f.svc.RecordPayment(ctx, f.admin, bill.ID, payment("9200"))
	require.NoError(t, err)
	paid, err := f.svc.GetBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillPaid, paid.Status)
}

// ────────────────────────────────────────────────
// Payments and transitions
// ────────────────────────────────────────────────

func TestRecordPayment_PartialThenPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.createBill(t, "2026-10")
	_, err := f.svc.SendBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(ctx, f.admin, bill.ID, payment("5000"))
	require.NoError(t, err)
	got, err := f.svc.GetBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillPartial, got.Status)
	assert.True(t, got.Outstanding().Equal(decimal.NewFromInt(7000)))

	_, err = f.svc.RecordPayment(ctx, f.admin, bill.ID, payment("7000.01"))
	assertCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.RecordPayment(ctx, f.admin, bill.ID, payment("7000"))
	require.NoError(t, err)
	got, err = f.svc.GetBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillPaid, got.Status)
	assert.Len(t, got.Payments, 2)

	_, err = f.svc.AddLineItem(ctx, f.admin, bill.ID, &model.LineItemInput{
		Type: model.LineItemOther, Description: "Key copy", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50),
	})
	assertCode(t, err, apperrors.CodePreconditionFailed)
}

func TestTenantPayment_CountsOnlyOnceConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.sentBill(t, "2026-10")

	pending, err := f.svc.RecordTenantPayment(ctx, f.resident, bill.ID, payment("12000"))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, pending.Status)

	got, err := f.svc.GetBill(ctx, f.resident, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillSent, got.Status)
	assert.True(t, got.PaidAmount.IsZero())

	confirmed, err := f.svc.ConfirmPayment(ctx, f.admin, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, confirmed.Status)
	assert.Equal(t, f.admin.UserID, confirmed.ConfirmedBy)

	got, err = f.svc.GetBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillPaid, got.Status)

	_, err = f.svc.ConfirmPayment(ctx, f.admin, pending.ID)
	assertCode(t, err, apperrors.CodePreconditionFailed)

	assert.Contains(t, f.recorder.Types(), events.PaymentRecorded)
	assert.Contains(t, f.recorder.Types(), events.PaymentConfirmed)
}

func TestRejectPayment_ClearsOverlappingPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.sentBill(t, "2026-10")

	// Each fits the outstanding amount on its own, together they do not.
	first, err := f.svc.RecordTenantPayment(ctx, f.resident, bill.ID, payment("8000"))
	require.NoError(t, err)
	second, err := f.svc.RecordTenantPayment(ctx, f.resident, bill.ID, payment("8000"))
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, f.admin, first.ID)
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, f.admin, second.ID)
	assertCode(t, err, apperrors.CodeValidation)

	rejected, err := f.svc.RejectPayment(ctx, f.admin, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRejected, rejected.Status)
	assert.Equal(t, f.admin.UserID, rejected.RejectedBy)
	require.NotNil(t, rejected.RejectedAt)

	got, err := f.svc.GetBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillPartial, got.Status)
	assert.True(t, got.PaidAmount.Equal(decimal.NewFromInt(8000)))
	require.Len(t, got.Payments, 2)
	assert.Equal(t, model.PaymentRejected, got.Payments[1].Status)

	_, err = f.svc.ConfirmPayment(ctx, f.admin, second.ID)
	assertCode(t, err, apperrors.CodePreconditionFailed)
	_, err = f.svc.RejectPayment(ctx, f.admin, second.ID)
	assertCode(t, err, apperrors.CodePreconditionFailed)
	_, err = f.svc.RejectPayment(ctx, f.admin, first.ID)
	assertCode(t, err, apperrors.CodePreconditionFailed)

	assert.Contains(t, f.recorder.Types(), events.PaymentRejected)
}

func TestRejectPayment_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.sentBill(t, "2026-10")
	pending, err := f.svc.RecordTenantPayment(ctx, f.resident, bill.ID, payment("500"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		principal auth.Principal
		paymentID string
		wantCode  string
	}{
		{"tenant cannot reject", f.resident, pending.ID, apperrors.CodeForbidden},
		{"anonymous", auth.Anonymous, pending.ID, apperrors.CodeUnauthorized},
		{"unknown payment", f.admin, uuid.NewString(), apperrors.CodeNotFound},
		{"malformed id", f.admin, "not-a-uuid", apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RejectPayment(ctx, tt.principal, tt.paymentID)
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestBillOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.createBill(t, "2026-10")
	stranger := auth.Principal{UserID: uuid.NewString(), Role: auth.RoleTenant, TenantID: uuid.NewString()}

	_, err := f.svc.GetBill(ctx, stranger, bill.ID)
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.RecordTenantPayment(ctx, stranger, bill.ID, payment("100"))
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.GetBill(ctx, auth.Anonymous, bill.ID)
	assertCode(t, err, apperrors.CodeUnauthorized)
}

func TestDraftBillsHiddenFromTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createBill(t, "2026-10")
	sent := f.sentBill(t, "2026-09")

	mine, total, err := f.svc.ListMyBills(ctx, f.resident, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, mine, 1)
	assert.Equal(t, sent.ID, mine[0].ID)

	_, err = f.svc.GetBill(ctx, f.resident, draft.ID)
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = f.svc.RecordTenantPayment(ctx, f.resident, draft.ID, payment("100"))
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.GetBill(ctx, f.admin, draft.ID)
	require.NoError(t, err)
	all, total, err := f.svc.ListBills(ctx, f.admin, model.BillFilter{TenantID: f.tenant.ID}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	_, err = f.svc.SendBill(ctx, f.admin, draft.ID)
	require.NoError(t, err)
	_, err = f.svc.GetBill(ctx, f.resident, draft.ID)
	require.NoError(t, err)
	_, total, err = f.svc.ListMyBills(ctx, f.resident, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.createBill(t, "2026-10")

	_, err := f.svc.MarkOverdue(ctx, f.admin, bill.ID)
	assertCode(t, err, apperrors.CodePreconditionFailed)

	sent, err := f.svc.SendBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillSent, sent.Status)
	assert.NotNil(t, sent.SentAt)

	_, err = f.svc.SendBill(ctx, f.admin, bill.ID)
	assertCode(t, err, apperrors.CodePreconditionFailed)

	overdue, err := f.svc.MarkOverdue(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillOverdue, overdue.Status)

	cancelled, err := f.svc.CancelBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillCancelled, cancelled.Status)

	_, err = f.svc.RecordPayment(ctx, f.admin, bill.ID, payment("100"))
	assertCode(t, err, apperrors.CodePreconditionFailed)
}

func TestCancelBill_WithPaymentsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.sentBill(t, "2026-10")

	pending, err := f.svc.RecordTenantPayment(ctx, f.resident, bill.ID, payment("100"))
	require.NoError(t, err)

	_, err = f.svc.CancelBill(ctx, f.admin, bill.ID)
	assertCode(t, err, apperrors.CodePreconditionFailed)
	assert.Equal(t, "Cannot cancel bill with recorded payments", apperrors.AsAppError(err).Message)

	// A rejected payment no longer holds the bill open.
	_, err = f.svc.RejectPayment(ctx, f.admin, pending.ID)
	require.NoError(t, err)
	cancelled, err := f.svc.CancelBill(ctx, f.admin, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillCancelled, cancelled.Status)
}

func TestListBills_InvalidMonth(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.ListBills(context.Background(), f.admin, model.BillFilter{BillingMonth: "October"}, 10, 0)
	assertCode(t, err, apperrors.CodeInvalidInput)
}
