package middleware

import (
	"net/http"
	"strings"

	"pgstay/pkg/auth"
	apperrors "pgstay/pkg/errors"
	httputil "pgstay/pkg/http"
	"pgstay/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// TokenParser turns a bearer token into a principal.
type TokenParser interface {
	Parse(token string) (auth.Principal, error)
}

// Authenticate resolves the caller from the Authorization header. Requests
// without one continue as auth.Anonymous; a malformed or expired token is
// rejected.
func Authenticate(tokens TokenParser, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), auth.Anonymous)))
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				httputil.WriteError(w, apperrors.Unauthorized("Authorization header must be 'Bearer <token>'"))
				return
			}

			principal, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				log.Ctx(r.Context()).Warn("Rejected principal token",
					"path", r.URL.Path,
					"error", err,
				)
				httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin guards an admin route.
func RequireAdmin(h httprouter.Handle) httprouter.Handle {
	return require(h, auth.Principal.RequireAdmin)
}

// RequireTenant guards a tenant self-service route.
func RequireTenant(h httprouter.Handle) httprouter.Handle {
	return require(h, auth.Principal.RequireTenant)
}

func require(h httprouter.Handle, check func(auth.Principal) error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if err := check(auth.FromContext(r.Context())); err != nil {
			httputil.WriteError(w, err)
			return
		}
		h(w, r, ps)
	}
}
