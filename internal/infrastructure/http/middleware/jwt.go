package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"sellerpromotions/admin-api/internal/core/identity"
	"sellerpromotions/admin-api/internal/infrastructure/config"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
)

// JWTAuthenticator validates bearer tokens against a remote JWKS and places
// the caller identity in the request context. When authentication is
// disabled every request runs as the configured development user.
type JWTAuthenticator struct {
	cfg        config.AuthSettings
	log        *slog.Logger
	keyfunc    jwt.Keyfunc
	cancel     context.CancelFunc
	bypassPath map[string]struct{}
}

func NewJWTAuthenticator(cfg config.AuthSettings, log *slog.Logger) (*JWTAuthenticator, error) {
	if !cfg.Enabled {
		return newAuthenticator(cfg, nil, log), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	override := keyfunc.Override{
		RefreshInterval: 6 * time.Hour,
		RefreshErrorHandlerFunc: func(url string) func(context.Context, error) {
			return func(c context.Context, err error) {
				log.Error("failed to refresh JWKS", "url", url, "error", err)
			}
		},
		HTTPTimeout: 10 * time.Second,
	}

	jwks, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{cfg.JWKSetURI}, override)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("unable to load JWKS: %w", err)
	}

	auth := newAuthenticator(cfg, jwks.Keyfunc, log)
	auth.cancel = cancel
	return auth, nil
}

// NewJWTAuthenticatorWithKeyfunc builds an authenticator that resolves
// signing keys with kf instead of a remote JWKS.
func NewJWTAuthenticatorWithKeyfunc(cfg config.AuthSettings, kf jwt.Keyfunc, log *slog.Logger) *JWTAuthenticator {
	return newAuthenticator(cfg, kf, log)
}

func newAuthenticator(cfg config.AuthSettings, kf jwt.Keyfunc, log *slog.Logger) *JWTAuthenticator {
	auth := &JWTAuthenticator{
		cfg:        cfg,
		log:        log,
		keyfunc:    kf,
		bypassPath: make(map[string]struct{}),
	}
	for _, path := range cfg.BypassPaths {
		if path != "" {
			auth.bypassPath[path] = struct{}{}
		}
	}
	return auth
}

// Middleware authenticates inbound requests.
func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.shouldBypass(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !a.cfg.Enabled {
			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), a.devUser())))
			return
		}

		tokenString, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", nil, a.log)
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, a.keyfunc,
			jwt.WithIssuer(a.cfg.IssuerURI),
			jwt.WithLeeway(a.cfg.ClockSkew),
			jwt.WithValidMethods([]string{
				jwt.SigningMethodRS256.Alg(),
				jwt.SigningMethodRS384.Alg(),
				jwt.SigningMethodRS512.Alg(),
				jwt.SigningMethodPS256.Alg(),
				jwt.SigningMethodES256.Alg(),
			}),
		)
		if err != nil || !token.Valid {
			a.log.WarnContext(r.Context(), "token validation failed", "error", err)
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", nil, a.log)
			return
		}

		user := userFromClaims(claims)
		if user.UserID == "" {
			a.log.WarnContext(r.Context(), "token without subject")
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", nil, a.log)
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
	})
}

// Close stops background JWKS refreshers.
func (a *JWTAuthenticator) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *JWTAuthenticator) shouldBypass(path string) bool {
	_, ok := a.bypassPath[path]
	return ok
}

func (a *JWTAuthenticator) devUser() identity.User {
	return identity.User{
		UserID:    a.cfg.DevUserID,
		SessionID: a.cfg.DevSessionID,
		Roles:     append([]string(nil), a.cfg.DevRoles...),
	}
}

// userFromClaims maps token claims to the caller identity. The user id is the
// user_id claim or the subject; roles and scopes accept arrays or
// space-separated strings.
func userFromClaims(claims jwt.MapClaims) identity.User {
	userID := claimString(claims, "user_id")
	if userID == "" {
		userID, _ = claims.GetSubject()
	}

	sessionID := claimString(claims, "session_id")
	if sessionID == "" {
		sessionID = claimString(claims, "sid")
	}

	scopes := claimList(claims, "scopes")
	if len(scopes) == 0 {
		scopes = claimList(claims, "scope")
	}

	return identity.User{
		UserID:    userID,
		SessionID: sessionID,
		Roles:     claimList(claims, "roles"),
		Scopes:    scopes,
	}
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func claimList(claims jwt.MapClaims, key string) []string {
	switch v := claims[key].(type) {
	case string:
		return strings.Fields(v)
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				values = append(values, s)
			}
		}
		return values
	default:
		return nil
	}
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid Authorization header format")
	}
	return parts[1], nil
}
