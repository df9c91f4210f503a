package identity

import (
	"context"
	"strings"
)

// User is the authenticated caller attached to the request context by the
// authentication middleware. It is read-only for the rest of the request.
type User struct {
	UserID    string
	SessionID string
	Roles     []string
	Scopes    []string
}

// Scope carries the request inputs the upstream configuration depends on.
type Scope struct {
	QuerySiteID  string
	CookieSiteID string
	LabVersion   string
}

// RequestInfo describes the inbound request for audit purposes.
type RequestInfo struct {
	TraceID  string
	IP       string
	Endpoint string
	Method   string
}

type userKey struct{}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// FromContext returns the authenticated user, if any.
func FromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey{}).(User)
	return user, ok
}

// HasRole reports whether the user holds the exact role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the roles.
func (u User) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// HasScopes reports whether every scope is granted, either as a token scope
// or as a role with the same name.
func (u User) HasScopes(scopes ...string) bool {
	for _, scope := range scopes {
		if !u.grants(scope) {
			return false
		}
	}
	return true
}

func (u User) grants(scope string) bool {
	for _, s := range u.Scopes {
		if s == scope {
			return true
		}
	}
	return u.HasRole(scope)
}

// CountRolesContaining returns how many roles contain the given fragment.
func (u User) CountRolesContaining(fragment string) int {
	count := 0
	for _, r := range u.Roles {
		if strings.Contains(r, fragment) {
			count++
		}
	}
	return count
}
