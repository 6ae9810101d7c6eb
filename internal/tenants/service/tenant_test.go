package service

import (
	"context"
	"testing"
	"time"

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

// phoneBook finds or creates users keyed by phone.
type phoneBook map[string]*model.User

func (b phoneBook) FindOrCreateByPhone(_ context.Context, name, phone, email string) (*model.User, error) {
	if u, ok := b[phone]; ok {
		return u, nil
	}
	u := &model.User{ID: uuid.NewString(), Name: name, Phone: phone, Email: email, Role: string(auth.RoleTenant)}
	b[phone] = u
	return u, nil
}

var admin = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}

var checkIn = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (TenantService, *memstore.Store, *events.Recorder) {
	t.Helper()
	store := memstore.New()
	cfg := &config.Config{Log: logger.Discard(), PhoneRegion: "IN", DefaultNoticePeriodDays: 30}
	recorder := &events.Recorder{}
	svc := NewTenantService(
		store.Tenants(),
		phoneBook{},
		store.Beds(),
		store.TransactionManager(),
		validation.New(cfg.Log),
		recorder,
		cfg,
	)
	return svc, store, recorder
}

func seedBed(t *testing.T, store *memstore.Store, status model.BedStatus) *model.Bed {
	t.Helper()
	bed := &model.Bed{ID: uuid.NewString(), RoomID: uuid.NewString(), BedNumber: "1", MonthlyRent: decimal.NewFromInt(8000), Status: status}
	require.NoError(t, store.Beds().Create(context.Background(), bed))
	return bed
}

func tenantInput(phone, bedID string) *model.TenantInput {
	return &model.TenantInput{
		Name:        "Ravi Kumar",
		Phone:       phone,
		BedID:       bedID,
		CheckInDate: checkIn,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestTenantMachine(t *testing.T) {
	assert.True(t, TenantMachine.Can(model.TenantActive, TenantGiveNotice))
	assert.True(t, TenantMachine.Can(model.TenantActive, TenantCheckout))
	assert.True(t, TenantMachine.Can(model.TenantNoticePeriod, TenantCheckout))
	assert.False(t, TenantMachine.Can(model.TenantNoticePeriod, TenantGiveNotice))
	assert.False(t, TenantMachine.Can(model.TenantCheckedOut, TenantCheckout))
}

func TestCreate_AssignsBed(t *testing.T) {
	svc, store, recorder := newTestService(t)
	ctx := context.Background()
	bed := seedBed(t, store, model.BedAvailable)

	tenant, err := svc.Create(ctx, admin, tenantInput("+919812345678", bed.ID))
	require.NoError(t, err)
	assert.Equal(t, model.TenantActive, tenant.Status)
	assert.Equal(t, 30, tenant.NoticePeriodDays)

	stored, err := store.Beds().FindByID(ctx, bed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BedOccupied, stored.Status)
	assert.Equal(t, []string{events.TenantCreated}, recorder.Types())
}

func TestCreate_Rejections(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	reserved := seedBed(t, store, model.BedReserved)

	_, err := svc.Create(ctx, admin, tenantInput("+919812345678", reserved.ID))
	assertCode(t, err, apperrors.CodePreconditionFailed)

	_, err = svc.Create(ctx, admin, tenantInput("+919812345678", ""))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, tenantInput("+919812345678", ""))
	assertCode(t, err, apperrors.CodeConflict)

	in := tenantInput("+919800000001", "")
	early := checkIn.AddDate(0, 0, -1)
	in.ExpectedCheckout = &early
	_, err = svc.Create(ctx, admin, in)
	assertCode(t, err, apperrors.CodeValidation)

	_, err = svc.Create(ctx, auth.Anonymous, tenantInput("+919800000002", ""))
	assertCode(t, err, apperrors.CodeUnauthorized)

	// A failed create must not leave the reserved bed touched.
	stored, err := store.Beds().FindByID(ctx, reserved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BedReserved, stored.Status)
}

func TestGiveNoticeThenCheckout(t *testing.T) {
	svc, store, recorder := newTestService(t)
	ctx := context.Background()
	bed := seedBed(t, store, model.BedAvailable)

	tenant, err := svc.Create(ctx, admin, tenantInput("+919812345678", bed.ID))
	require.NoError(t, err)

	noticeDate := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)
	noticed, err := svc.GiveNotice(ctx, admin, tenant.ID, &model.NoticeInput{Date: &noticeDate})
	require.NoError(t, err)
	assert.Equal(t, model.TenantNoticePeriod, noticed.Status)
	require.NotNil(t, noticed.ExpectedCheckout)
	assert.Equal(t, time.Date(2026, 11, 9, 0, 0, 0, 0, time.UTC), *noticed.ExpectedCheckout)

	_, err = svc.GiveNotice(ctx, admin, tenant.ID, nil)
	assertCode(t, err, apperrors.CodePreconditionFailed)

	out := time.Date(2026, 11, 9, 0, 0, 0, 0, time.UTC)
	checkedOut, err := svc.Checkout(ctx, admin, tenant.ID, &model.CheckoutInput{Date: out})
	require.NoError(t, err)
	assert.Equal(t, model.TenantCheckedOut, checkedOut.Status)
	assert.Equal(t, out, *checkedOut.ActualCheckout)

	// Checkout leaves the bed for a manual release.
	stored, err := store.Beds().FindByID(ctx, bed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BedOccupied, stored.Status)

	_, err = svc.Checkout(ctx, admin, tenant.ID, &model.CheckoutInput{Date: out})
	assertCode(t, err, apperrors.CodePreconditionFailed)

	assert.Equal(t, []string{events.TenantCreated, events.TenantNoticeGiven, events.TenantCheckedOut}, recorder.Types())
}

func TestCheckout_BeforeCheckIn(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, admin, tenantInput("+919812345678", ""))
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, admin, tenant.ID, &model.CheckoutInput{Date: checkIn.AddDate(0, 0, -2)})
	assertCode(t, err, apperrors.CodeValidation)
}

func TestOnboardFromBooking(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	bedIDs := []string{uuid.NewString(), uuid.NewString()}

	booking := &model.Booking{
		ID:             uuid.NewString(),
		ApplicantName:  "Asha Rao",
		Phone:          "+919876543210",
		CheckInDate:    checkIn,
		DurationMonths: 3,
		BedIDs:         bedIDs,
		UserID:         uuid.NewString(),
		Meals:          model.Meals{Breakfast: true},
	}

	tenant, created, err := svc.OnboardFromBooking(ctx, booking)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, bedIDs[0], tenant.BedID)
	assert.Equal(t, bedIDs, tenant.BedIDs)
	assert.True(t, tenant.HoldsBed(bedIDs[1]))
	require.NotNil(t, tenant.ExpectedCheckout)

	// A second booking for the same user moves the existing profile.
	next := *booking
	next.ID = uuid.NewString()
	next.BedIDs = []string{uuid.NewString()}
	next.Meals = model.Meals{Dinner: true}
	moved, created, err := svc.OnboardFromBooking(ctx, &next)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tenant.ID, moved.ID)
	assert.Equal(t, next.BedIDs[0], moved.BedID)
	assert.Empty(t, moved.BedIDs)
	assert.True(t, moved.Meals.Breakfast)
	assert.True(t, moved.Meals.Dinner)

	_, err = svc.Checkout(ctx, admin, tenant.ID, &model.CheckoutInput{Date: checkIn.AddDate(0, 1, 0)})
	require.NoError(t, err)
	_, _, err = svc.OnboardFromBooking(ctx, &next)
	assertCode(t, err, apperrors.CodePreconditionFailed)
}

func TestGetByID_TenantSeesOnlySelf(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, admin, tenantInput("+919812345678", ""))
	require.NoError(t, err)

	self := auth.Principal{UserID: tenant.UserID, Role: auth.RoleTenant, TenantID: tenant.ID}
	_, err = svc.GetByID(ctx, self, tenant.ID)
	assert.NoError(t, err)

	other := auth.Principal{UserID: "u-2", Role: auth.RoleTenant, TenantID: uuid.NewString()}
	_, err = svc.GetByID(ctx, other, tenant.ID)
	assertCode(t, err, apperrors.CodeForbidden)
}
