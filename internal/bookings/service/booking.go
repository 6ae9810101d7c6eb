package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "pgstay/internal/bookings/errors"
	"pgstay/internal/bookings/repository"
	"pgstay/internal/bookings/validator"
	inventoryrepo "pgstay/internal/inventory/repository"
	inventory "pgstay/internal/inventory/service"
	"pgstay/pkg/auth"
	"pgstay/pkg/config"
	mongotx "pgstay/pkg/db/mongo"
	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/events"
	"pgstay/pkg/model"
	"pgstay/pkg/sanitizer"
	"pgstay/pkg/validation"

	"github.com/google/uuid"
)

type BookingService interface {
	// Create stores a booking submitted through the public form.
	Create(ctx context.Context, in *model.BookingInput) (*model.Booking, error)
	GetByID(ctx context.Context, p auth.Principal, id string) (*model.Booking, error)
	List(ctx context.Context, p auth.Principal, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, int64, error)
	Approve(ctx context.Context, p auth.Principal, id string, in *model.BookingDecision) (*model.Booking, error)
	Reject(ctx context.Context, p auth.Principal, id string, in *model.BookingDecision) (*model.Booking, error)
	Cancel(ctx context.Context, p auth.Principal, id string, in *model.BookingDecision) (*model.Booking, error)
	Convert(ctx context.Context, p auth.Principal, id string) (*Conversion, error)
}

// Conversion is the outcome of converting a booking.
type Conversion struct {
	Booking       *model.Booking `json:"booking"`
	Tenant        *model.Tenant  `json:"tenant"`
	TenantCreated bool           `json:"tenant_created"`
}

// UserDirectory finds or creates the account of an approved applicant.
type UserDirectory interface {
	FindOrCreateByPhone(ctx context.Context, name, phone, email string) (*model.User, error)
}

// TenantOnboarding turns the user of a converted booking into a tenant.
type TenantOnboarding interface {
	OnboardFromBooking(ctx context.Context, booking *model.Booking) (*model.Tenant, bool, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	beds      inventoryrepo.BedRepository
	users     UserDirectory
	tenants   TenantOnboarding
	txManager mongotx.TransactionManager
	validator *validator.BookingValidator
	phone     sanitizer.PhoneNormalizer
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	beds inventoryrepo.BedRepository,
	users UserDirectory,
	tenants TenantOnboarding,
	txManager mongotx.TransactionManager,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		beds:      beds,
		users:     users,
		tenants:   tenants,
		txManager: txManager,
		validator: validator,
		phone:     sanitizer.NewPhoneNormalizer(cfg.PhoneRegion),
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) Create(ctx context.Context, in *model.BookingInput) (*model.Booking, error) {
	s.sanitize(in)
	if err := s.validator.Validate(in); err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Booking validation failed", "error", err)
		return nil, validation.ToAppError(err)
	}

	bedIDs := in.Beds()
	beds, err := s.loadBeds(ctx, bedIDs)
	if err != nil {
		return nil, err
	}

	roomID := beds[0].RoomID
	for _, bed := range beds[1:] {
		if bed.RoomID != roomID {
			return nil, apperrors.Validation("All beds must be in the same room", map[string]any{"bed_ids": bedIDs})
		}
	}
	for _, bed := range beds {
		if bed.Status != model.BedAvailable {
			return nil, bedNotAvailable(bed)
		}
	}

	booking := &model.Booking{
		ID:             uuid.NewString(),
		ApplicantName:  in.ApplicantName,
		Phone:          in.Phone,
		Email:          in.Email,
		CheckInDate:    in.CheckInDate.UTC(),
		DurationMonths: in.DurationMonths,
		DurationDays:   in.DurationDays,
		WantsAC:        in.WantsAC,
		Meals:          in.Meals,
		AdvanceAmount:  in.AdvanceAmount,
		Status:         model.BookingPending,
		BedID:          bedIDs[0],
		BedIDs:         bedIDs,
		RoomID:         roomID,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to create booking", "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Ctx(ctx).Info("Booking created",
		"booking_id", booking.ID,
		"room_id", booking.RoomID,
		"beds", len(booking.BedIDs),
	)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.BookingCreated, booking.ID, "", map[string]any{
		"room_id": booking.RoomID,
		"bed_ids": booking.BedIDs,
	}))
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, p auth.Principal, id string) (*model.Booking, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, bookingError(err, id)
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, p auth.Principal, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, int64, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, 0, err
	}

	switch status {
	case "", model.BookingPending, model.BookingApproved, model.BookingRejected, model.BookingCancelled, model.BookingConverted:
	default:
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status parameter: %s", status))
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	filter := model.BookingFilter{Status: status}

	bookings, err := s.repo.Find(ctx, filter, limit, offset)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to list bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to list bookings", err)
	}
	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to count bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}
	return bookings, count, nil
}

// Approve reserves every bed of a pending booking and links the applicant's
// user account, creating it when the phone is new.
func (s *bookingService) Approve(ctx context.Context, p auth.Principal, id string, in *model.BookingDecision) (*model.Booking, error) {
	if err := s.checkDecision(p, in); err != nil {
		return nil, err
	}

	var booking *model.Booking
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		booking, err = s.repo.FindByID(txCtx, id)
		if err != nil {
			return bookingError(err, id)
		}
		from := booking.Status
		next, err := BookingMachine.Next(from, BookingApprove)
		if err != nil {
			return err
		}

		beds, err := s.loadBeds(txCtx, booking.ReferencedBedIDs())
		if err != nil {
			return err
		}
		for _, bed := range beds {
			if bed.Status != model.BedAvailable {
				return bedNotAvailable(bed)
			}
		}

		user, err := s.users.FindOrCreateByPhone(txCtx, booking.ApplicantName, booking.Phone, booking.Email)
		if err != nil {
			return err
		}

		for _, bed := range beds {
			if err := inventory.MoveBed(txCtx, s.beds, bed, inventory.BedReserve); err != nil {
				return err
			}
		}

		booking.UserID = user.ID
		s.decide(booking, next, in)
		return s.update(txCtx, booking, from, BookingApprove)
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Booking approval failed", "booking_id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Booking approved", "booking_id", id, "user_id", booking.UserID, "actor", p.UserID)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.BookingApproved, id, p.UserID, map[string]any{
		"user_id": booking.UserID,
		"bed_ids": booking.ReferencedBedIDs(),
	}))
	return booking, nil
}

func (s *bookingService) Reject(ctx context.Context, p auth.Principal, id string, in *model.BookingDecision) (*model.Booking, error) {
	if err := s.checkDecision(p, in); err != nil {
		return nil, err
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, bookingError(err, id)
	}
	from := booking.Status
	next, err := BookingMachine.Next(from, BookingReject)
	if err != nil {
		return nil, err
	}

	s.decide(booking, next, in)
	if err := s.update(ctx, booking, from, BookingReject); err != nil {
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Booking rejected", "booking_id", id, "actor", p.UserID)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.BookingRejected, id, p.UserID, nil))
	return booking, nil
}

// Cancel withdraws a pending or approved booking. Beds an approved booking
// reserved go back to AVAILABLE.
func (s *bookingService) Cancel(ctx context.Context, p auth.Principal, id string, in *model.BookingDecision) (*model.Booking, error) {
	if err := s.checkDecision(p, in); err != nil {
		return nil, err
	}

	var booking *model.Booking
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		booking, err = s.repo.FindByID(txCtx, id)
		if err != nil {
			return bookingError(err, id)
		}
		from := booking.Status
		next, err := BookingMachine.Next(from, BookingCancel)
		if err != nil {
			return err
		}

		if from == model.BookingApproved {
			beds, err := s.loadBeds(txCtx, booking.ReferencedBedIDs())
			if err != nil {
				return err
			}
			for _, bed := range beds {
				if bed.Status != model.BedReserved {
					continue
				}
				if err := inventory.MoveBed(txCtx, s.beds, bed, inventory.BedUnreserve); err != nil {
					return err
				}
			}
		}

		s.decide(booking, next, in)
		return s.update(txCtx, booking, from, BookingCancel)
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Booking cancellation failed", "booking_id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Booking cancelled", "booking_id", id, "actor", p.UserID)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.BookingCancelled, id, p.UserID, nil))
	return booking, nil
}

// Convert turns an approved booking into a tenant occupying its beds. The
// tenant points at the first listed bed.
func (s *bookingService) Convert(ctx context.Context, p auth.Principal, id string) (*Conversion, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	result := &Conversion{}
	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return bookingError(err, id)
		}
		from := booking.Status
		next, err := BookingMachine.Next(from, BookingConvert)
		if err != nil {
			return err
		}
		if booking.UserID == "" {
			return apperrors.PreconditionFailed("Booking has no linked user")
		}

		beds, err := s.loadBeds(txCtx, booking.ReferencedBedIDs())
		if err != nil {
			return err
		}
		for _, bed := range beds {
			if bed.Status != model.BedReserved {
				return apperrors.Validation(fmt.Sprintf("Bed %s is not reserved", bed.BedNumber), map[string]any{
					"bed_id": bed.ID,
					"status": bed.Status,
				})
			}
		}

		tenant, created, err := s.tenants.OnboardFromBooking(txCtx, booking)
		if err != nil {
			return err
		}

		for _, bed := range beds {
			if err := inventory.MoveBed(txCtx, s.beds, bed, inventory.BedOccupy); err != nil {
				return err
			}
		}

		booking.Status = next
		booking.ConvertedTenantID = tenant.ID
		if err := s.update(txCtx, booking, from, BookingConvert); err != nil {
			return err
		}

		result.Booking = booking
		result.Tenant = tenant
		result.TenantCreated = created
		return nil
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Booking conversion failed", "booking_id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Booking converted",
		"booking_id", id,
		"tenant_id", result.Tenant.ID,
		"tenant_created", result.TenantCreated,
		"actor", p.UserID,
	)
	if result.TenantCreated {
		events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.TenantCreated, result.Tenant.ID, p.UserID, map[string]any{
			"user_id":    result.Tenant.UserID,
			"bed_id":     result.Tenant.BedID,
			"booking_id": id,
		}))
	}
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.BookingConverted, id, p.UserID, map[string]any{
		"tenant_id": result.Tenant.ID,
		"bed_ids":   result.Booking.ReferencedBedIDs(),
	}))
	return result, nil
}

func (s *bookingService) checkDecision(p auth.Principal, in *model.BookingDecision) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	if in == nil {
		return nil
	}
	in.Notes = sanitizer.TrimAndNormalize(in.Notes)
	if err := s.validator.ValidateDecision(in); err != nil {
		return validation.ToAppError(err)
	}
	return nil
}

func (s *bookingService) decide(booking *model.Booking, next model.BookingStatus, in *model.BookingDecision) {
	decidedAt := s.now().Truncate(time.Millisecond)
	booking.Status = next
	booking.DecidedAt = &decidedAt
	if in != nil && in.Notes != "" {
		booking.AdminNotes = in.Notes
	}
}

// update stores booking conditioned on the status it was read with. A lost
// race reports the same failure the loser would have seen had it run second.
func (s *bookingService) update(ctx context.Context, booking *model.Booking, from model.BookingStatus, action BookingAction) error {
	err := s.repo.Update(ctx, booking, from)
	if err == nil {
		return nil
	}
	if errors.Is(err, bookingserrors.ErrStatusChanged) {
		current, findErr := s.repo.FindByID(ctx, booking.ID)
		if findErr != nil {
			return bookingError(findErr, booking.ID)
		}
		if checkErr := BookingMachine.Check(current.Status, action); checkErr != nil {
			return checkErr
		}
		return apperrors.PreconditionFailed("Booking changed concurrently, retry the request")
	}
	s.cfg.Log.Ctx(ctx).Error("Failed to update booking", "booking_id", booking.ID, "error", err)
	return bookingError(err, booking.ID)
}

// loadBeds returns the beds in the order of ids, failing when one is missing.
func (s *bookingService) loadBeds(ctx context.Context, ids []string) ([]*model.Bed, error) {
	if len(ids) == 0 {
		return nil, apperrors.PreconditionFailed("Booking references no beds")
	}
	beds, err := s.beds.FindByIDs(ctx, ids)
	if err != nil {
		return nil, inventory.BedError(err, "")
	}
	if len(beds) != len(ids) {
		found := make(map[string]bool, len(beds))
		for _, b := range beds {
			found[b.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, apperrors.NotFoundWithID("Bed", id)
			}
		}
	}
	return beds, nil
}

func (s *bookingService) sanitize(in *model.BookingInput) {
	in.ApplicantName = sanitizer.NormalizeName(in.ApplicantName)
	if phone := s.phone.Normalize(in.Phone); phone != "" {
		in.Phone = phone
	}
	in.Email = sanitizer.NormalizeEmail(in.Email)
	in.BedID = sanitizer.NormalizeID(in.BedID)
	in.BedIDs = sanitizer.NormalizeIDs(in.BedIDs)
}

func bedNotAvailable(bed *model.Bed) error {
	return apperrors.Validation(fmt.Sprintf("Bed %s is not available", bed.BedNumber), map[string]any{
		"bed_id": bed.ID,
		"status": bed.Status,
	})
}

func bookingError(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		return apperrors.Internal("Failed to access booking", err)
	}
}
