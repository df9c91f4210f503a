package identity

import (
	"context"
	"testing"
)

func TestWithUser_RoundTrip(t *testing.T) {
	user := User{UserID: "42", SessionID: "s-1", Roles: []string{"SP_CENTRAL_TIERS"}}

	got, ok := FromContext(WithUser(context.Background(), user))
	if !ok {
		t.Fatal("expected user in context")
	}
	if got.UserID != "42" || got.SessionID != "s-1" {
		t.Errorf("unexpected user: %+v", got)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no user in empty context")
	}
}

func TestUser_HasScopes(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		scopes   []string
		expected bool
	}{
		{"granted as scope", User{Scopes: []string{"A", "B"}}, []string{"A", "B"}, true},
		{"granted as role", User{Roles: []string{"A"}}, []string{"A"}, true},
		{"mixed sources", User{Roles: []string{"A"}, Scopes: []string{"B"}}, []string{"A", "B"}, true},
		{"one missing", User{Scopes: []string{"A"}}, []string{"A", "B"}, false},
		{"nothing required", User{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasScopes(tt.scopes...); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestUser_HasAnyRole(t *testing.T) {
	user := User{Roles: []string{"PAYMENTS_FULL"}}

	if !user.HasAnyRole("DEVELOPMENT_FULL", "PAYMENTS_FULL") {
		t.Error("expected PAYMENTS_FULL to match")
	}
	if user.HasAnyRole("UNAUTHORIZED") {
		t.Error("expected UNAUTHORIZED not to match")
	}
}

func TestUser_CountRolesContaining(t *testing.T) {
	user := User{Roles: []string{"SP_CENTRAL_TIERS", "SP_CENTRAL_PROMOTION_CREATE", "OTHER"}}

	if got := user.CountRolesContaining("SP_CENTRAL"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}
