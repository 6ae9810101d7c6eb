package auth

import (
	"context"

	apperrors "pgstay/pkg/errors"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleTenant    Role = "tenant"
	RoleAnonymous Role = "anonymous"
)

// Principal is the acting identity passed explicitly to every service call.
type Principal struct {
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Anonymous is the principal of public, unauthenticated requests.
var Anonymous = Principal{Role: RoleAnonymous}

// System is used by operator tooling acting outside an HTTP request.
var System = Principal{UserID: "system", Role: RoleAdmin}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsTenant() bool {
	return p.Role == RoleTenant && p.TenantID != ""
}

func (p Principal) Authenticated() bool {
	return p.Role != RoleAnonymous && p.Role != "" && p.UserID != ""
}

// RequireAdmin is the guard used by admin-only service operations.
func (p Principal) RequireAdmin() error {
	if !p.Authenticated() {
		return apperrors.Unauthorized("Authentication required")
	}
	if !p.IsAdmin() {
		return apperrors.Forbidden("Admin access required")
	}
	return nil
}

// RequireTenant is the guard used by tenant self-service operations.
func (p Principal) RequireTenant() error {
	if !p.Authenticated() {
		return apperrors.Unauthorized("Authentication required")
	}
	if !p.IsTenant() {
		return apperrors.Forbidden("Tenant access required")
	}
	return nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal placed by the Authenticate middleware,
// or Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}
