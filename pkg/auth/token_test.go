package auth

import (
	"context"
	"testing"
	"time"

	apperrors "pgstay/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, "pgstay", time.Hour)

	tests := []struct {
		name string
		p    Principal
	}{
		{"admin", Principal{UserID: "u-admin", Role: RoleAdmin}},
		{"tenant", Principal{UserID: "u-1", Role: RoleTenant, TenantID: "t-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, err := tokens.Issue(tt.p)
			require.NoError(t, err)

			got, err := tokens.Parse(signed)
			require.NoError(t, err)
			assert.Equal(t, tt.p, got)
		})
	}
}

func TestTokens_Issue_Rejects(t *testing.T) {
	tokens := NewTokens(testSecret, "pgstay", time.Hour)

	_, err := tokens.Issue(Principal{Role: RoleAdmin})
	assert.Error(t, err, "missing user id")

	_, err = tokens.Issue(Principal{UserID: "u", Role: RoleTenant})
	assert.Error(t, err, "tenant without tenant id")

	_, err = tokens.Issue(Principal{UserID: "u", Role: RoleAnonymous})
	assert.Error(t, err, "anonymous role")
}

func TestTokens_Parse_Rejects(t *testing.T) {
	issuer := NewTokens(testSecret, "pgstay", time.Hour)
	signed, err := issuer.Issue(Principal{UserID: "u-admin", Role: RoleAdmin})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokens("ffffffffffffffffffffffffffffffff", "pgstay", time.Hour)
		_, err := other.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokens(testSecret, "someone-else", time.Hour)
		_, err := other.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokens(testSecret, "pgstay", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPrincipalGuards(t *testing.T) {
	admin := Principal{UserID: "a", Role: RoleAdmin}
	tenant := Principal{UserID: "u", Role: RoleTenant, TenantID: "t"}

	assert.NoError(t, admin.RequireAdmin())
	assert.True(t, apperrors.HasCode(tenant.RequireAdmin(), apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(Anonymous.RequireAdmin(), apperrors.CodeUnauthorized))

	assert.NoError(t, tenant.RequireTenant())
	assert.True(t, apperrors.HasCode(admin.RequireTenant(), apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(Anonymous.RequireTenant(), apperrors.CodeUnauthorized))
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Anonymous, FromContext(ctx))

	p := Principal{UserID: "u", Role: RoleTenant, TenantID: "t"}
	assert.Equal(t, p, FromContext(WithPrincipal(ctx, p)))
}
