package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what a principal token carries.
type Claims struct {
	Role     Role   `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for p with the configured lifetime.
func (t *Tokens) Issue(p Principal) (string, error) {
	if p.UserID == "" {
		return "", fmt.Errorf("principal user id is required")
	}
	if p.Role != RoleAdmin && p.Role != RoleTenant {
		return "", fmt.Errorf("unsupported role %q", p.Role)
	}
	if p.Role == RoleTenant && p.TenantID == "" {
		return "", fmt.Errorf("tenant tokens need a tenant id")
	}

	now := t.now()
	claims := &Claims{
		Role:     p.Role,
		TenantID: p.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates signature, issuer and expiry and returns the principal.
func (t *Tokens) Parse(tokenString string) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return Anonymous, ErrInvalidToken
	}

	p := Principal{UserID: claims.Subject, Role: claims.Role, TenantID: claims.TenantID}
	if !p.Authenticated() || (p.Role != RoleAdmin && p.Role != RoleTenant) {
		return Anonymous, ErrInvalidToken
	}
	return p, nil
}
