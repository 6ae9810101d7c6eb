package service

import (
	"context"
	"errors"

	userserrors "pgstay/internal/users/errors"
	"pgstay/internal/users/repository"
	"pgstay/pkg/auth"
	"pgstay/pkg/config"
	apperrors "pgstay/pkg/errors"
	"pgstay/pkg/model"
	"pgstay/pkg/sanitizer"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	// FindOrCreateByPhone returns the user owning phone, creating a tenant
	// account when there is none. Call it with a transaction context when the
	// caller's other writes must commit together with the new user.
	FindOrCreateByPhone(ctx context.Context, name, phone, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	phone sanitizer.PhoneNormalizer
	cfg   *config.Config
}

func NewUserService(repo repository.UserRepository, cfg *config.Config) UserService {
	return &userService{
		repo:  repo,
		phone: sanitizer.NewPhoneNormalizer(cfg.PhoneRegion),
		cfg:   cfg,
	}
}

func (s *userService) FindOrCreateByPhone(ctx context.Context, name, phone, email string) (*model.User, error) {
	normalized := s.phone.Normalize(phone)
	if normalized == "" {
		return nil, apperrors.Validation("phone must be a valid phone number", map[string]any{"field": "phone"})
	}

	existing, err := s.repo.FindByPhone(ctx, normalized)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, userserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	// The initial password is the phone number itself; the user is asked to
	// change it on first login.
	hash, err := bcrypt.GenerateFromPassword([]byte(normalized), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash initial password", err)
	}

	user := &model.User{
		ID:                 uuid.NewString(),
		Name:               sanitizer.NormalizeName(name),
		Phone:              normalized,
		Email:              sanitizer.NormalizeEmail(email),
		Role:               string(auth.RoleTenant),
		PasswordHash:       string(hash),
		MustChangePassword: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicatePhone) {
			return nil, apperrors.Conflict("A user with this phone was created concurrently, retry the request")
		}
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Ctx(ctx).Info("User created", "user_id", user.ID)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, userserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("User", id)
		case errors.Is(err, userserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid user ID format")
		default:
			return nil, apperrors.Internal("Failed to get user", err)
		}
	}
	return user, nil
}
