package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	billingerrors "pgstay/internal/billing/errors"
	inventoryerrors "pgstay/internal/inventory/errors"
	usererrors "pgstay/internal/users/errors"
	"pgstay/pkg/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBed(roomID, number string) *model.Bed {
	return &model.Bed{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		BedNumber:   number,
		MonthlyRent: decimal.NewFromInt(9000),
		Status:      model.BedAvailable,
	}
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	roomID := uuid.NewString()
	kept := newBed(roomID, "A")
	require.NoError(t, store.Beds().Create(ctx, kept))

	failure := errors.New("bill insert failed")
	dropped := newBed(roomID, "B")
	err := store.TransactionManager().ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := store.Beds().Create(txCtx, dropped); err != nil {
			return err
		}
		if err := store.Beds().UpdateStatus(txCtx, kept.ID, model.BedAvailable, model.BedOccupied); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	_, err = store.Beds().FindByID(ctx, dropped.ID)
	assert.ErrorIs(t, err, inventoryerrors.ErrNotFound)

	bed, err := store.Beds().FindByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BedAvailable, bed.Status)
}

func TestTransaction_CommitsAndNests(t *testing.T) {
	store := New()
	ctx := context.Background()
	tx := store.TransactionManager()
	bed := newBed(uuid.NewString(), "A")

	err := tx.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		return tx.ExecuteTransaction(txCtx, func(inner context.Context) error {
			return store.Beds().Create(inner, bed)
		})
	})
	require.NoError(t, err)

	_, err = store.Beds().FindByID(ctx, bed.ID)
	assert.NoError(t, err)
}

func TestBeds_UniqueNumberPerRoom(t *testing.T) {
	store := New()
	ctx := context.Background()
	roomID := uuid.NewString()

	require.NoError(t, store.Beds().Create(ctx, newBed(roomID, "A")))
	assert.ErrorIs(t, store.Beds().Create(ctx, newBed(roomID, "A")), inventoryerrors.ErrDuplicate)
	assert.NoError(t, store.Beds().Create(ctx, newBed(uuid.NewString(), "A")))
}

func TestBeds_ConditionalStatusUpdate(t *testing.T) {
	store := New()
	ctx := context.Background()
	bed := newBed(uuid.NewString(), "A")
	require.NoError(t, store.Beds().Create(ctx, bed))

	require.NoError(t, store.Beds().UpdateStatus(ctx, bed.ID, model.BedAvailable, model.BedReserved))
	err := store.Beds().UpdateStatus(ctx, bed.ID, model.BedAvailable, model.BedReserved)
	assert.ErrorIs(t, err, inventoryerrors.ErrStatusChanged)
}

func TestUsers_UniquePhone(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := &model.User{ID: uuid.NewString(), Name: "Asha", Phone: "+919876543210"}
	second := &model.User{ID: uuid.NewString(), Name: "Ravi", Phone: "+919876543210"}
	require.NoError(t, store.Users().Create(ctx, first))
	assert.ErrorIs(t, store.Users().Create(ctx, second), usererrors.ErrDuplicatePhone)

	found, err := store.Users().FindByPhone(ctx, "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestBills_OnePerTenantAndMonth(t *testing.T) {
	store := New()
	ctx := context.Background()
	tenantID := uuid.NewString()

	bill := &model.Bill{ID: uuid.NewString(), TenantID: tenantID, BillingMonth: "2026-10", Status: model.BillDraft}
	require.NoError(t, store.Bills().Create(ctx, bill))

	again := &model.Bill{ID: uuid.NewString(), TenantID: tenantID, BillingMonth: "2026-10", Status: model.BillDraft}
	assert.ErrorIs(t, store.Bills().Create(ctx, again), billingerrors.ErrDuplicate)

	next := &model.Bill{ID: uuid.NewString(), TenantID: tenantID, BillingMonth: "2026-11", Status: model.BillDraft}
	assert.NoError(t, store.Bills().Create(ctx, next))
}

func TestBills_UpdateRequiresExpectedStatus(t *testing.T) {
	store := New()
	ctx := context.Background()
	bill := &model.Bill{ID: uuid.NewString(), TenantID: uuid.NewString(), BillingMonth: "2026-10", Status: model.BillDraft}
	require.NoError(t, store.Bills().Create(ctx, bill))

	bill.Status = model.BillSent
	require.NoError(t, store.Bills().Update(ctx, bill, model.BillDraft))

	bill.Status = model.BillCancelled
	assert.ErrorIs(t, store.Bills().Update(ctx, bill, model.BillDraft), billingerrors.ErrStatusChanged)

	stored, err := store.Bills().FindByID(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillSent, stored.Status)
}

func TestBills_InvalidID(t *testing.T) {
	_, err := New().Bills().FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, billingerrors.ErrInvalidID)
}

func TestPayments_ConfirmOnlyPending(t *testing.T) {
	store := New()
	ctx := context.Background()
	billID := uuid.NewString()
	payment := &model.Payment{
		ID:     uuid.NewString(),
		BillID: billID,
		Amount: decimal.NewFromInt(500),
		Status: model.PaymentPending,
	}
	require.NoError(t, store.Payments().Create(ctx, payment))

	at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Payments().Confirm(ctx, payment.ID, "admin-1", at))
	assert.ErrorIs(t, store.Payments().Confirm(ctx, payment.ID, "admin-1", at), billingerrors.ErrStatusChanged)

	stored, err := store.Payments().FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, stored.Status)
	assert.Equal(t, "admin-1", stored.ConfirmedBy)

	count, err := store.Payments().CountByBill(ctx, billID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPayments_RejectedNotCounted(t *testing.T) {
	store := New()
	ctx := context.Background()
	billID := uuid.NewString()
	kept := &model.Payment{ID: uuid.NewString(), BillID: billID, Amount: decimal.NewFromInt(500), Status: model.PaymentPending}
	dropped := &model.Payment{ID: uuid.NewString(), BillID: billID, Amount: decimal.NewFromInt(700), Status: model.PaymentPending}
	require.NoError(t, store.Payments().Create(ctx, kept))
	require.NoError(t, store.Payments().Create(ctx, dropped))

	at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Payments().Reject(ctx, dropped.ID, "admin-1", at))
	assert.ErrorIs(t, store.Payments().Reject(ctx, dropped.ID, "admin-1", at), billingerrors.ErrStatusChanged)
	assert.ErrorIs(t, store.Payments().Confirm(ctx, dropped.ID, "admin-1", at), billingerrors.ErrStatusChanged)
	assert.ErrorIs(t, store.Payments().Reject(ctx, uuid.NewString(), "admin-1", at), billingerrors.ErrNotFound)

	stored, err := store.Payments().FindByID(ctx, dropped.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRejected, stored.Status)
	assert.Equal(t, "admin-1", stored.RejectedBy)

	count, err := store.Payments().CountByBill(ctx, billID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTenants_ResidentOnAnyBookedBed(t *testing.T) {
	store := New()
	ctx := context.Background()
	primary, secondary := uuid.NewString(), uuid.NewString()
	tenant := &model.Tenant{
		ID:     uuid.NewString(),
		UserID: uuid.NewString(),
		BedID:  primary,
		BedIDs: []string{primary, secondary},
		Status: model.TenantActive,
	}
	require.NoError(t, store.Tenants().Create(ctx, tenant))

	for _, bedID := range []string{primary, secondary} {
		held, err := store.Tenants().ExistsResidentOnBed(ctx, bedID)
		require.NoError(t, err)
		assert.True(t, held, bedID)
	}
	held, err := store.Tenants().ExistsResidentOnBed(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, held)

	found, err := store.Tenants().Find(ctx, model.TenantFilter{BedID: secondary}, 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, tenant.ID, found[0].ID)

	found[0].BedIDs[1] = "changed"
	again, err := store.Tenants().FindByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, secondary, again.BedIDs[1])
}

func TestLineItems_OrderedByPosition(t *testing.T) {
	store := New()
	ctx := context.Background()
	billID := uuid.NewString()

	for _, pos := range []int{3, 1, 2} {
		require.NoError(t, store.LineItems().Create(ctx, &model.BillLineItem{ID: uuid.NewString(), BillID: billID, Position: pos}))
	}
	require.NoError(t, store.LineItems().Create(ctx, &model.BillLineItem{ID: uuid.NewString(), BillID: uuid.NewString(), Position: 1}))

	items, err := store.LineItems().FindByBill(ctx, billID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, i+1, item.Position)
	}
}

func TestReturnedRowsAreCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	bed := newBed(uuid.NewString(), "A")
	require.NoError(t, store.Beds().Create(ctx, bed))

	found, err := store.Beds().FindByID(ctx, bed.ID)
	require.NoError(t, err)
	found.Status = model.BedMaintenance

	again, err := store.Beds().FindByID(ctx, bed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BedAvailable, again.Status)
}
