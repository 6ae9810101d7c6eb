package service

import (
	"context"
	"fmt"

	"pgstay/internal/inventory/repository"
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

type InventoryService interface {
	CreateProperty(ctx context.Context, p auth.Principal, in *model.PropertyInput) (*model.Property, error)
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	ListProperties(ctx context.Context, limit int, offset int64) ([]*model.Property, int64, error)

	CreateRoom(ctx context.Context, p auth.Principal, propertyID string, in *model.RoomInput) (*model.Room, error)
	ListRooms(ctx context.Context, propertyID string) ([]*model.Room, error)

	CreateBed(ctx context.Context, p auth.Principal, roomID string, in *model.BedInput) (*model.Bed, error)
	GetBed(ctx context.Context, id string) (*model.Bed, error)
	ListBeds(ctx context.Context, roomID string, status model.BedStatus) ([]*model.Bed, error)
	ListAvailableBeds(ctx context.Context, limit int, offset int64) ([]*model.AvailableBed, int64, error)
	RentForBed(ctx context.Context, bedID string) (decimal.Decimal, error)

	ReleaseBed(ctx context.Context, p auth.Principal, bedID string) (*model.Bed, error)
	StartMaintenance(ctx context.Context, p auth.Principal, bedID string) (*model.Bed, error)
	EndMaintenance(ctx context.Context, p auth.Principal, bedID string) (*model.Bed, error)
}

// ResidentLookup tells whether a tenant still living in the PG holds a bed.
type ResidentLookup interface {
	ExistsResidentOnBed(ctx context.Context, bedID string) (bool, error)
}

type inventoryService struct {
	properties repository.PropertyRepository
	rooms      repository.RoomRepository
	beds       repository.BedRepository
	residents  ResidentLookup
	txManager  mongotx.TransactionManager
	validator  *validation.Validator
	publisher  events.Publisher
	cfg        *config.Config
}

func NewInventoryService(
	properties repository.PropertyRepository,
	rooms repository.RoomRepository,
	beds repository.BedRepository,
	residents ResidentLookup,
	txManager mongotx.TransactionManager,
	validator *validation.Validator,
	publisher events.Publisher,
	cfg *config.Config,
) InventoryService {
	return &inventoryService{
		properties: properties,
		rooms:      rooms,
		beds:       beds,
		residents:  residents,
		txManager:  txManager,
		validator:  validator,
		publisher:  publisher,
		cfg:        cfg,
	}
}

func (s *inventoryService) CreateProperty(ctx context.Context, p auth.Principal, in *model.PropertyInput) (*model.Property, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	in.Name = sanitizer.NormalizeName(in.Name)
	in.Address = sanitizer.TrimAndNormalize(in.Address)
	in.City = sanitizer.NormalizeName(in.City)
	if err := s.validator.Struct(in); err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Property validation failed", "error", err)
		return nil, validation.ToAppError(err)
	}

	property := &model.Property{
		ID:      uuid.NewString(),
		Name:    in.Name,
		Address: in.Address,
		City:    in.City,
	}
	if err := s.properties.Create(ctx, property); err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to create property", "name", in.Name, "error", err)
		return nil, repoError(err, "Property", property.ID)
	}

	s.cfg.Log.Ctx(ctx).Info("Property created", "property_id", property.ID, "name", property.Name)
	return property, nil
}

func (s *inventoryService) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	property, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Property", id)
	}
	return property, nil
}

func (s *inventoryService) ListProperties(ctx context.Context, limit int, offset int64) ([]*model.Property, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	properties, err := s.properties.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list properties", err)
	}
	count, err := s.properties.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count properties", err)
	}
	return properties, count, nil
}

func (s *inventoryService) CreateRoom(ctx context.Context, p auth.Principal, propertyID string, in *model.RoomInput) (*model.Room, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	in.RoomNumber = sanitizer.TrimAndNormalize(in.RoomNumber)
	if err := s.validator.Struct(in); err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Room validation failed", "property_id", propertyID, "error", err)
		return nil, validation.ToAppError(err)
	}

	if _, err := s.properties.FindByID(ctx, propertyID); err != nil {
		return nil, repoError(err, "Property", propertyID)
	}

	room := &model.Room{
		ID:          uuid.NewString(),
		PropertyID:  propertyID,
		RoomNumber:  in.RoomNumber,
		Floor:       in.Floor,
		HasAC:       in.HasAC,
		MonthlyRent: in.MonthlyRent,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to create room", "property_id", propertyID, "error", err)
		return nil, repoError(err, fmt.Sprintf("Room %s", in.RoomNumber), room.ID)
	}

	s.cfg.Log.Ctx(ctx).Info("Room created", "room_id", room.ID, "property_id", propertyID, "room_number", room.RoomNumber)
	return room, nil
}

func (s *inventoryService) ListRooms(ctx context.Context, propertyID string) ([]*model.Room, error) {
	if _, err := s.properties.FindByID(ctx, propertyID); err != nil {
		return nil, repoError(err, "Property", propertyID)
	}
	rooms, err := s.rooms.FindByProperty(ctx, propertyID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list rooms", err)
	}
	return rooms, nil
}

func (s *inventoryService) CreateBed(ctx context.Context, p auth.Principal, roomID string, in *model.BedInput) (*model.Bed, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	in.BedNumber = sanitizer.TrimAndNormalize(in.BedNumber)
	if err := s.validator.Struct(in); err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Bed validation failed", "room_id", roomID, "error", err)
		return nil, validation.ToAppError(err)
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, repoError(err, "Room", roomID)
	}

	bed := &model.Bed{
		ID:              uuid.NewString(),
		RoomID:          room.ID,
		PropertyID:      room.PropertyID,
		BedNumber:       in.BedNumber,
		MonthlyRent:     in.MonthlyRent,
		SecurityDeposit: in.SecurityDeposit,
		Status:          model.BedAvailable,
	}
	if err := s.beds.Create(ctx, bed); err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to create bed", "room_id", roomID, "error", err)
		return nil, repoError(err, fmt.Sprintf("Bed %s", in.BedNumber), bed.ID)
	}

	s.cfg.Log.Ctx(ctx).Info("Bed created", "bed_id", bed.ID, "room_id", room.ID, "bed_number", bed.BedNumber)
	return bed, nil
}

func (s *inventoryService) GetBed(ctx context.Context, id string) (*model.Bed, error) {
	bed, err := s.beds.FindByID(ctx, id)
	if err != nil {
		return nil, BedError(err, id)
	}
	return bed, nil
}

func (s *inventoryService) ListBeds(ctx context.Context, roomID string, status model.BedStatus) ([]*model.Bed, error) {
	switch status {
	case "", model.BedAvailable, model.BedOccupied, model.BedMaintenance, model.BedReserved:
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status parameter: %s", status))
	}
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, repoError(err, "Room", roomID)
	}
	beds, err := s.beds.Find(ctx, model.BedFilter{RoomID: roomID, Status: status}, 0, 0)
	if err != nil {
		return nil, apperrors.Internal("Failed to list beds", err)
	}
	return beds, nil
}

func (s *inventoryService) ListAvailableBeds(ctx context.Context, limit int, offset int64) ([]*model.AvailableBed, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	filter := model.BedFilter{Status: model.BedAvailable}

	beds, err := s.beds.Find(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list available beds", err)
	}
	count, err := s.beds.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count available beds", err)
	}

	roomIDs := make([]string, 0, len(beds))
	for _, b := range beds {
		roomIDs = append(roomIDs, b.RoomID)
	}
	rooms, err := s.rooms.FindByIDs(ctx, roomIDs)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to load rooms", err)
	}
	roomByID := make(map[string]*model.Room, len(rooms))
	for _, r := range rooms {
		roomByID[r.ID] = r
	}

	listing := make([]*model.AvailableBed, 0, len(beds))
	for _, b := range beds {
		room := roomByID[b.RoomID]
		entry := &model.AvailableBed{
			BedID:       b.ID,
			BedNumber:   b.BedNumber,
			RoomID:      b.RoomID,
			PropertyID:  b.PropertyID,
			MonthlyRent: EffectiveRent(b, room),
			Deposit:     b.SecurityDeposit,
		}
		if room != nil {
			entry.RoomNumber = room.RoomNumber
			entry.HasAC = room.HasAC
		}
		listing = append(listing, entry)
	}
	return listing, count, nil
}

func (s *inventoryService) RentForBed(ctx context.Context, bedID string) (decimal.Decimal, error) {
	bed, err := s.beds.FindByID(ctx, bedID)
	if err != nil {
		return decimal.Zero, BedError(err, bedID)
	}
	room, err := s.rooms.FindByID(ctx, bed.RoomID)
	if err != nil {
		return decimal.Zero, repoError(err, "Room", bed.RoomID)
	}
	return EffectiveRent(bed, room), nil
}

func (s *inventoryService) ReleaseBed(ctx context.Context, p auth.Principal, bedID string) (*model.Bed, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	var bed *model.Bed
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		bed, err = s.beds.FindByID(txCtx, bedID)
		if err != nil {
			return BedError(err, bedID)
		}
		if err := BedMachine.Check(bed.Status, BedRelease); err != nil {
			return err
		}

		occupied, err := s.residents.ExistsResidentOnBed(txCtx, bedID)
		if err != nil {
			return apperrors.Internal("Failed to check bed residents", err)
		}
		if occupied {
			return apperrors.PreconditionFailed("Bed is still held by an active tenant; check the tenant out first")
		}

		return MoveBed(txCtx, s.beds, bed, BedRelease)
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to release bed", "bed_id", bedID, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Bed released", "bed_id", bedID, "actor", p.UserID)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.BedReleased, bedID, p.UserID, map[string]any{
		"room_id": bed.RoomID,
	}))
	return bed, nil
}

func (s *inventoryService) StartMaintenance(ctx context.Context, p auth.Principal, bedID string) (*model.Bed, error) {
	return s.moveStandalone(ctx, p, bedID, BedStartMaintenance)
}

func (s *inventoryService) EndMaintenance(ctx context.Context, p auth.Principal, bedID string) (*model.Bed, error) {
	return s.moveStandalone(ctx, p, bedID, BedEndMaintenance)
}

func (s *inventoryService) moveStandalone(ctx context.Context, p auth.Principal, bedID string, action BedAction) (*model.Bed, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	bed, err := s.beds.FindByID(ctx, bedID)
	if err != nil {
		return nil, BedError(err, bedID)
	}
	if err := MoveBed(ctx, s.beds, bed, action); err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Bed status change rejected", "bed_id", bedID, "action", action, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Bed status changed", "bed_id", bedID, "action", action, "status", bed.Status)
	return bed, nil
}
