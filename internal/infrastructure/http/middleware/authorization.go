package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sellerpromotions/admin-api/internal/core/identity"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
)

// Authorizer gates routes on the identity placed in the context by the
// authenticator. Every denial answers with the same blockade: the group's
// status and {"message":"unauthorized"}.
type Authorizer struct {
	status int
	log    *slog.Logger
}

// NewAuthorizer returns an authorizer whose blockade answers with status.
func NewAuthorizer(status int, log *slog.Logger) *Authorizer {
	return &Authorizer{status: status, log: log}
}

// Authenticated admits any request carrying an identity.
func (a *Authorizer) Authenticated(next http.Handler) http.Handler {
	return a.gate("authenticated", func(identity.User, *http.Request) bool { return true })(next)
}

// RequireScopes admits callers holding every scope.
func (a *Authorizer) RequireScopes(scopes ...string) func(http.Handler) http.Handler {
	return a.gate("scopes", func(user identity.User, _ *http.Request) bool {
		return user.HasScopes(scopes...)
	})
}

// RequireRoles admits callers holding at least one of the roles.
func (a *Authorizer) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return a.gate("roles", func(user identity.User, _ *http.Request) bool {
		return user.HasAnyRole(roles...)
	})
}

// RequireAction looks the required scopes up in actionScopes, by action when
// it is set or else by the actionId route parameter. Actions without an entry
// are denied.
func (a *Authorizer) RequireAction(actionScopes map[string][]string, action string) func(http.Handler) http.Handler {
	return a.gate("action", func(user identity.User, r *http.Request) bool {
		key := action
		if key == "" {
			key = chi.URLParam(r, "actionId")
		}
		scopes, ok := actionScopes[key]
		if !ok || len(scopes) == 0 {
			return false
		}
		return user.HasScopes(scopes...)
	})
}

func (a *Authorizer) gate(kind string, allow func(identity.User, *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := identity.FromContext(r.Context())
			if !ok || !allow(user, r) {
				a.log.WarnContext(r.Context(), "request blocked",
					"check", kind,
					"user", user.UserID,
					"method", r.Method,
					"path", r.URL.Path,
				)
				httpx.WriteError(w, a.status, "unauthorized", nil, a.log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
