package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ngoctanz/party-management/internal/httpx"
)

type ctxKey string

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"

	claimsCtxKey = ctxKey("claims")
)

// WithClaims stores the authenticated identity in context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// ClaimsFromContext extracts the authenticated identity.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok
}

// TokenFromRequest pulls the access token from the session cookie, falling
// back to an Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// RequireAuth rejects requests without a valid access token and attaches the
// verified claims to the request context.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			httpx.Fail(w, http.StatusUnauthorized, "Unauthorized: No or invalid token")
			return
		}
		claims, err := m.ParseAccessToken(token)
		if err != nil {
			if err == ErrTokenExpired {
				httpx.Fail(w, http.StatusUnauthorized, "Unauthorized: Token expired")
				return
			}
			httpx.Fail(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole allows only the listed roles through. Must run inside RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				httpx.Fail(w, http.StatusUnauthorized, "Unauthorized: No or invalid token")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Fail(w, http.StatusForbidden, "Forbidden: You do not have permission")
		})
	}
}

// SetSessionCookies attaches both tokens as httpOnly cookies.
func SetSessionCookies(w http.ResponseWriter, access, refresh string, accessTTL, refreshTTL time.Duration, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name: AccessCookieName, Value: access, Path: "/",
		HttpOnly: true, Secure: secure, SameSite: sameSite,
		MaxAge: int(accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name: RefreshCookieName, Value: refresh, Path: "/",
		HttpOnly: true, Secure: secure, SameSite: sameSite,
		MaxAge: int(refreshTTL.Seconds()),
	})
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(w http.ResponseWriter, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name: name, Value: "", Path: "/",
			HttpOnly: true, Secure: secure, SameSite: sameSite,
			Expires: time.Unix(0, 0), MaxAge: -1,
		})
	}
}
