package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	inventory "pgstay/internal/inventory/service"
	inventoryrepo "pgstay/internal/inventory/repository"
	tenantserrors "pgstay/internal/tenants/errors"
	"pgstay/internal/tenants/repository"
	"pgstay/pkg/auth"
	"pgstay/pkg/config"
	mongotx "pgstay/pkg/db/mongo"
	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/events"
	"pgstay/pkg/model"
	"pgstay/pkg/sanitizer"
	"pgstay/pkg/statemachine"
	"pgstay/pkg/validation"

	"github.com/google/uuid"
)

type TenantAction string

const (
	TenantGiveNotice TenantAction = "give_notice"
	TenantCheckout   TenantAction = "checkout"
)

var TenantMachine = statemachine.New[model.TenantStatus, TenantAction]("tenant").
	Allow(TenantGiveNotice, model.TenantNoticePeriod, model.TenantActive).
	Allow(TenantCheckout, model.TenantCheckedOut, model.TenantActive, model.TenantNoticePeriod).
	Reject(TenantGiveNotice, "Only active tenants can give notice").
	Reject(TenantCheckout, "Tenant is already checked out")

type TenantService interface {
	Create(ctx context.Context, p auth.Principal, in *model.TenantInput) (*model.Tenant, error)
	GetByID(ctx context.Context, p auth.Principal, id string) (*model.Tenant, error)
	List(ctx context.Context, p auth.Principal, status model.TenantStatus, limit int, offset int64) ([]*model.Tenant, int64, error)
	GiveNotice(ctx context.Context, p auth.Principal, id string, in *model.NoticeInput) (*model.Tenant, error)
	Checkout(ctx context.Context, p auth.Principal, id string, in *model.CheckoutInput) (*model.Tenant, error)
	// OnboardFromBooking points the booking user's tenant profile at the
	// booking's first bed, creating the profile when there is none. It leaves
	// bed statuses to the caller and must run inside the caller's transaction.
	OnboardFromBooking(ctx context.Context, booking *model.Booking) (*model.Tenant, bool, error)
}

// UserDirectory resolves the account a tenant profile hangs off.
type UserDirectory interface {
	FindOrCreateByPhone(ctx context.Context, name, phone, email string) (*model.User, error)
}

type tenantService struct {
	repo      repository.TenantRepository
	users     UserDirectory
	beds      inventoryrepo.BedRepository
	txManager mongotx.TransactionManager
	validator *validation.Validator
	phone     sanitizer.PhoneNormalizer
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewTenantService(
	repo repository.TenantRepository,
	users UserDirectory,
	beds inventoryrepo.BedRepository,
	txManager mongotx.TransactionManager,
	validator *validation.Validator,
	publisher events.Publisher,
	cfg *config.Config,
) TenantService {
	return &tenantService{
		repo:      repo,
		users:     users,
		beds:      beds,
		txManager: txManager,
		validator: validator,
		phone:     sanitizer.NewPhoneNormalizer(cfg.PhoneRegion),
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *tenantService) Create(ctx context.Context, p auth.Principal, in *model.TenantInput) (*model.Tenant, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	s.sanitize(in)
	if err := s.validator.Struct(in); err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Tenant validation failed", "error", err)
		return nil, validation.ToAppError(err)
	}
	if in.ExpectedCheckout != nil && in.ExpectedCheckout.Before(in.CheckInDate) {
		return nil, validation.ToAppError(validation.Field("expected_checkout", "expected_checkout cannot be before check_in_date"))
	}

	noticeDays := s.cfg.DefaultNoticePeriodDays
	if in.NoticePeriodDays != nil {
		noticeDays = *in.NoticePeriodDays
	}

	tenant := &model.Tenant{
		ID:               uuid.NewString(),
		BedID:            in.BedID,
		Name:             in.Name,
		Phone:            in.Phone,
		Email:            in.Email,
		EmergencyContact: in.EmergencyContact,
		CheckInDate:      in.CheckInDate.UTC(),
		ExpectedCheckout: in.ExpectedCheckout,
		NoticePeriodDays: noticeDays,
		Status:           model.TenantActive,
		Meals:            in.Meals,
	}

	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		user, err := s.users.FindOrCreateByPhone(txCtx, in.Name, in.Phone, in.Email)
		if err != nil {
			return err
		}
		tenant.UserID = user.ID

		if _, err := s.repo.FindByUserID(txCtx, user.ID); err == nil {
			return apperrors.Conflict("User already has a tenant profile")
		} else if !errors.Is(err, tenantserrors.ErrNotFound) {
			return apperrors.Internal("Failed to look up tenant profile", err)
		}

		if tenant.BedID != "" {
			bed, err := s.beds.FindByID(txCtx, tenant.BedID)
			if err != nil {
				return inventory.BedError(err, tenant.BedID)
			}
			if err := inventory.MoveBed(txCtx, s.beds, bed, inventory.BedAssign); err != nil {
				return err
			}
		}

		return s.create(txCtx, tenant)
	})
	if err != nil {
		s.cfg.Log.Ctx(ctx).Warn("Failed to create tenant", "bed_id", in.BedID, "error", err)
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Tenant created", "tenant_id", tenant.ID, "user_id", tenant.UserID, "bed_id", tenant.BedID)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.TenantCreated, tenant.ID, p.UserID, map[string]any{
		"user_id": tenant.UserID,
		"bed_id":  tenant.BedID,
	}))
	return tenant, nil
}

func (s *tenantService) OnboardFromBooking(ctx context.Context, booking *model.Booking) (*model.Tenant, bool, error) {
	beds := booking.ReferencedBedIDs()
	if booking.UserID == "" || len(beds) == 0 {
		return nil, false, apperrors.PreconditionFailed("Booking has no linked user or beds")
	}
	primaryBed := beds[0]

	existing, err := s.repo.FindByUserID(ctx, booking.UserID)
	switch {
	case err == nil:
		if !existing.Resident() {
			return nil, false, apperrors.PreconditionFailed("The tenant profile of this user is checked out")
		}
		existing.BedID = primaryBed
		existing.BedIDs = bedIDsOf(beds)
		existing.Meals = existing.Meals.Merge(booking.Meals)
		if err := s.repo.Update(ctx, existing, existing.Status); err != nil {
			return nil, false, tenantError(err, existing.ID)
		}
		return existing, false, nil
	case !errors.Is(err, tenantserrors.ErrNotFound):
		return nil, false, apperrors.Internal("Failed to look up tenant profile", err)
	}

	tenant := &model.Tenant{
		ID:               uuid.NewString(),
		UserID:           booking.UserID,
		BedID:            primaryBed,
		BedIDs:           bedIDsOf(beds),
		Name:             booking.ApplicantName,
		Phone:            booking.Phone,
		Email:            booking.Email,
		CheckInDate:      booking.CheckInDate.UTC(),
		NoticePeriodDays: s.cfg.DefaultNoticePeriodDays,
		Status:           model.TenantActive,
		Meals:            booking.Meals,
	}
	if booking.DurationMonths > 0 || booking.DurationDays > 0 {
		checkout := booking.StayEnd().UTC()
		tenant.ExpectedCheckout = &checkout
	}
	if err := s.create(ctx, tenant); err != nil {
		return nil, false, err
	}
	return tenant, true, nil
}

// bedIDsOf copies the bed list of a multi-bed booking; a single-bed booking
// needs only BedID.
func bedIDsOf(beds []string) []string {
	if len(beds) < 2 {
		return nil
	}
	return append([]string(nil), beds...)
}

func (s *tenantService) create(ctx context.Context, tenant *model.Tenant) error {
	if err := s.repo.Create(ctx, tenant); err != nil {
		if errors.Is(err, tenantserrors.ErrDuplicate) {
			return apperrors.Conflict("User already has a tenant profile")
		}
		return apperrors.Internal("Failed to create tenant", err)
	}
	return nil
}

func (s *tenantService) GetByID(ctx context.Context, p auth.Principal, id string) (*model.Tenant, error) {
	if !p.IsAdmin() && !(p.IsTenant() && p.TenantID == id) {
		if err := p.RequireAdmin(); err != nil {
			return nil, err
		}
	}

	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, tenantError(err, id)
	}
	return tenant, nil
}

func (s *tenantService) List(ctx context.Context, p auth.Principal, status model.TenantStatus, limit int, offset int64) ([]*model.Tenant, int64, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, 0, err
	}

	switch status {
	case "", model.TenantActive, model.TenantNoticePeriod, model.TenantCheckedOut:
	default:
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status parameter: %s", status))
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)
	filter := model.TenantFilter{Status: status}

	tenants, err := s.repo.Find(ctx, filter, limit, offset)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to list tenants", "error", err)
		return nil, 0, apperrors.Internal("Failed to list tenants", err)
	}
	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to count tenants", "error", err)
		return nil, 0, apperrors.Internal("Failed to count tenants", err)
	}
	return tenants, count, nil
}

func (s *tenantService) GiveNotice(ctx context.Context, p auth.Principal, id string, in *model.NoticeInput) (*model.Tenant, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}

	noticeDate := s.today()
	if in != nil && in.Date != nil {
		noticeDate = in.Date.UTC()
	}

	tenant, err := s.transition(ctx, id, TenantGiveNotice, func(t *model.Tenant) error {
		if noticeDate.Before(t.CheckInDate) {
			return validation.ToAppError(validation.Field("date", "date cannot be before check_in_date"))
		}
		expected := noticeDate.AddDate(0, 0, t.NoticePeriodDays)
		t.NoticeGivenDate = &noticeDate
		t.ExpectedCheckout = &expected
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Tenant gave notice", "tenant_id", id, "expected_checkout", tenant.ExpectedCheckout)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.TenantNoticeGiven, id, p.UserID, map[string]any{
		"notice_given_date": noticeDate,
		"expected_checkout": tenant.ExpectedCheckout,
	}))
	return tenant, nil
}

// Checkout ends the stay. The bed stays OCCUPIED and the deposit held until
// an admin releases or refunds them.
func (s *tenantService) Checkout(ctx context.Context, p auth.Principal, id string, in *model.CheckoutInput) (*model.Tenant, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(in); err != nil {
		return nil, validation.ToAppError(err)
	}
	date := in.Date.UTC()

	tenant, err := s.transition(ctx, id, TenantCheckout, func(t *model.Tenant) error {
		if date.Before(t.CheckInDate) {
			return validation.ToAppError(validation.Field("date", "date cannot be before check_in_date"))
		}
		t.ActualCheckout = &date
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Ctx(ctx).Info("Tenant checked out", "tenant_id", id, "bed_id", tenant.BedID)
	events.Notify(ctx, s.publisher, s.cfg.Log, events.New(events.TenantCheckedOut, id, p.UserID, map[string]any{
		"bed_id":          tenant.BedID,
		"actual_checkout": date,
	}))
	return tenant, nil
}

// transition applies action through TenantMachine, lets mutate fill in the
// fields of the new status and stores the result conditioned on the status
// the tenant was read with.
func (s *tenantService) transition(ctx context.Context, id string, action TenantAction, mutate func(*model.Tenant) error) (*model.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, tenantError(err, id)
	}

	from := tenant.Status
	next, err := TenantMachine.Next(from, action)
	if err != nil {
		return nil, err
	}
	if err := mutate(tenant); err != nil {
		return nil, err
	}
	tenant.Status = next

	if err := s.repo.Update(ctx, tenant, from); err != nil {
		s.cfg.Log.Ctx(ctx).Error("Failed to update tenant", "tenant_id", id, "action", action, "error", err)
		return nil, tenantError(err, id)
	}
	return tenant, nil
}

func (s *tenantService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

func (s *tenantService) sanitize(in *model.TenantInput) {
	in.Name = sanitizer.NormalizeName(in.Name)
	if phone := s.phone.Normalize(in.Phone); phone != "" {
		in.Phone = phone
	}
	in.Email = sanitizer.NormalizeEmail(in.Email)
	in.BedID = sanitizer.NormalizeID(in.BedID)
	in.EmergencyContact.Name = sanitizer.NormalizeName(in.EmergencyContact.Name)
	in.EmergencyContact.Relation = sanitizer.TrimAndNormalize(in.EmergencyContact.Relation)
	if phone := s.phone.Normalize(in.EmergencyContact.Phone); phone != "" {
		in.EmergencyContact.Phone = phone
	}
}

func tenantError(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, tenantserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Tenant", id)
	case errors.Is(err, tenantserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid tenant ID format")
	case errors.Is(err, tenantserrors.ErrStatusChanged):
		return apperrors.PreconditionFailed("Tenant status changed concurrently")
	default:
		return apperrors.Internal("Failed to access tenant", err)
	}
}
