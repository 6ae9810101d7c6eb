package service

import (
	"context"
	"testing"

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

var admin = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}

func newTestService(t *testing.T) (InventoryService, *memstore.Store, *events.Recorder) {
	t.Helper()
	store := memstore.New()
	cfg := &config.Config{Log: logger.Discard(), PhoneRegion: "IN"}
	recorder := &events.Recorder{}
	svc := NewInventoryService(
		store.Properties(),
		store.Rooms(),
		store.Beds(),
		store.Tenants(),
		store.TransactionManager(),
		validation.New(cfg.Log),
		recorder,
		cfg,
	)
	return svc, store, recorder
}

// seedRoom creates a property with one room renting at roomRent.
func seedRoom(t *testing.T, svc InventoryService, roomRent int64) *model.Room {
	t.Helper()
	ctx := context.Background()
	property, err := svc.CreateProperty(ctx, admin, &model.PropertyInput{Name: "Green Nest", Address: "12 Lake Road", City: "Pune"})
	require.NoError(t, err)
	room, err := svc.CreateRoom(ctx, admin, property.ID, &model.RoomInput{RoomNumber: "101", Floor: 1, MonthlyRent: decimal.NewFromInt(roomRent)})
	require.NoError(t, err)
	return room
}

func seedBed(t *testing.T, svc InventoryService, roomID, number string, rent int64) *model.Bed {
	t.Helper()
	bed, err := svc.CreateBed(context.Background(), admin, roomID, &model.BedInput{
		BedNumber:       number,
		MonthlyRent:     decimal.NewFromInt(rent),
		SecurityDeposit: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	return bed
}

func setStatus(t *testing.T, store *memstore.Store, bed *model.Bed, status model.BedStatus) {
	t.Helper()
	require.NoError(t, store.Beds().UpdateStatus(context.Background(), bed.ID, bed.Status, status))
	bed.Status = status
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

// ────────────────────────────────────────────────
// Bed rules
// ────────────────────────────────────────────────

func TestEffectiveRent(t *testing.T) {
	room := &model.Room{MonthlyRent: decimal.NewFromInt(9000)}

	tests := []struct {
		name string
		bed  *model.Bed
		room *model.Room
		want string
	}{
		{"bed rent wins", &model.Bed{MonthlyRent: decimal.NewFromInt(7500)}, room, "7500"},
		{"zero bed rent falls back to room", &model.Bed{MonthlyRent: decimal.Zero}, room, "9000"},
		{"no room and no bed rent", &model.Bed{}, nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveRent(tt.bed, tt.room)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestRentForBed_FallsBackToRoomRent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	room := seedRoom(t, svc, 9000)
	shared := seedBed(t, svc, room.ID, "A", 0)
	priced := seedBed(t, svc, room.ID, "B", 7500)

	rent, err := svc.RentForBed(ctx, shared.ID)
	require.NoError(t, err)
	assert.True(t, rent.Equal(decimal.NewFromInt(9000)))

	rent, err = svc.RentForBed(ctx, priced.ID)
	require.NoError(t, err)
	assert.True(t, rent.Equal(decimal.NewFromInt(7500)))

	_, err = svc.RentForBed(ctx, uuid.NewString())
	assertCode(t, err, apperrors.CodeNotFound)
}

// ────────────────────────────────────────────────
// Maintenance
// ────────────────────────────────────────────────

func TestMaintenance(t *testing.T) {
	tests := []struct {
		name       string
		from       model.BedStatus
		start      bool
		wantStatus model.BedStatus
		wantCode   string
	}{
		{"available bed goes under maintenance", model.BedAvailable, true, model.BedMaintenance, ""},
		{"occupied bed cannot go under maintenance", model.BedOccupied, true, model.BedOccupied, apperrors.CodePreconditionFailed},
		{"reserved bed cannot go under maintenance", model.BedReserved, true, model.BedReserved, apperrors.CodePreconditionFailed},
		{"maintenance ends back to available", model.BedMaintenance, false, model.BedAvailable, ""},
		{"available bed has no maintenance to end", model.BedAvailable, false, model.BedAvailable, apperrors.CodePreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			ctx := context.Background()
			room := seedRoom(t, svc, 9000)
			bed := seedBed(t, svc, room.ID, "A", 0)
			if tt.from != model.BedAvailable {
				setStatus(t, store, bed, tt.from)
			}

			var err error
			if tt.start {
				_, err = svc.StartMaintenance(ctx, admin, bed.ID)
			} else {
				_, err = svc.EndMaintenance(ctx, admin, bed.ID)
			}
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
			} else {
				require.NoError(t, err)
			}

			stored, err := svc.GetBed(ctx, bed.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.Status)
		})
	}
}

func TestMaintenance_RequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	room := seedRoom(t, svc, 9000)
	bed := seedBed(t, svc, room.ID, "A", 0)
	tenant := auth.Principal{UserID: "u-1", Role: auth.RoleTenant, TenantID: uuid.NewString()}

	_, err := svc.StartMaintenance(context.Background(), tenant, bed.ID)
	assertCode(t, err, apperrors.CodeForbidden)
}

// ────────────────────────────────────────────────
// ReleaseBed
// ────────────────────────────────────────────────

func TestReleaseBed_ResidentGuard(t *testing.T) {
	tests := []struct {
		name     string
		status   model.TenantStatus
		release  int // index into the tenant's beds
		wantCode string
	}{
		{"active tenant on primary bed", model.TenantActive, 0, apperrors.CodePreconditionFailed},
		{"active tenant on secondary bed", model.TenantActive, 1, apperrors.CodePreconditionFailed},
		{"tenant under notice on secondary bed", model.TenantNoticePeriod, 1, apperrors.CodePreconditionFailed},
		{"checked out tenant", model.TenantCheckedOut, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, recorder := newTestService(t)
			ctx := context.Background()
			room := seedRoom(t, svc, 9000)
			beds := []*model.Bed{seedBed(t, svc, room.ID, "A", 0), seedBed(t, svc, room.ID, "B", 0)}
			for _, b := range beds {
				setStatus(t, store, b, model.BedOccupied)
			}
			require.NoError(t, store.Tenants().Create(ctx, &model.Tenant{
				ID:     uuid.NewString(),
				UserID: uuid.NewString(),
				BedID:  beds[0].ID,
				BedIDs: []string{beds[0].ID, beds[1].ID},
				Status: tt.status,
			}))

			bed := beds[tt.release]
			released, err := svc.ReleaseBed(ctx, admin, bed.ID)
			stored, getErr := svc.GetBed(ctx, bed.ID)
			require.NoError(t, getErr)

			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				assert.Equal(t, model.BedOccupied, stored.Status)
				assert.Empty(t, recorder.Types())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.BedAvailable, released.Status)
			assert.Equal(t, model.BedAvailable, stored.Status)
			assert.Equal(t, []string{events.BedReleased}, recorder.Types())
		})
	}
}

func TestReleaseBed_Rejections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	room := seedRoom(t, svc, 9000)
	bed := seedBed(t, svc, room.ID, "A", 0)

	_, err := svc.ReleaseBed(ctx, admin, bed.ID)
	assertCode(t, err, apperrors.CodePreconditionFailed)

	_, err = svc.ReleaseBed(ctx, admin, uuid.NewString())
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = svc.ReleaseBed(ctx, auth.Anonymous, bed.ID)
	assertCode(t, err, apperrors.CodeUnauthorized)
}

// ────────────────────────────────────────────────
// Listings
// ────────────────────────────────────────────────

func TestListAvailableBeds(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	room := seedRoom(t, svc, 9000)
	shared := seedBed(t, svc, room.ID, "A", 0)
	priced := seedBed(t, svc, room.ID, "B", 7500)
	taken := seedBed(t, svc, room.ID, "C", 0)
	setStatus(t, store, taken, model.BedOccupied)
	repaired := seedBed(t, svc, room.ID, "D", 0)
	_, err := svc.StartMaintenance(ctx, admin, repaired.ID)
	require.NoError(t, err)

	listing, total, err := svc.ListAvailableBeds(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, listing, 2)

	byID := map[string]*model.AvailableBed{}
	for _, entry := range listing {
		byID[entry.BedID] = entry
	}
	require.Contains(t, byID, shared.ID)
	require.Contains(t, byID, priced.ID)
	assert.True(t, byID[shared.ID].MonthlyRent.Equal(decimal.NewFromInt(9000)))
	assert.True(t, byID[priced.ID].MonthlyRent.Equal(decimal.NewFromInt(7500)))
	assert.Equal(t, "101", byID[shared.ID].RoomNumber)
	assert.Equal(t, room.PropertyID, byID[shared.ID].PropertyID)
	assert.True(t, byID[shared.ID].Deposit.Equal(decimal.NewFromInt(5000)))

	page, total, err := svc.ListAvailableBeds(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)
}

func TestListBeds_InvalidStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	room := seedRoom(t, svc, 9000)

	_, err := svc.ListBeds(context.Background(), room.ID, "BROKEN")
	assertCode(t, err, apperrors.CodeInvalidInput)
}
