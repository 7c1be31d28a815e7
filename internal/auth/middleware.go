package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/parkhaus-cloud/parkhaus/internal/identity"
	"github.com/parkhaus-cloud/parkhaus/internal/platform/httpx"
)

// Middleware authenticates bearer tokens and attaches the principal to the
// request context.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequirePrincipal rejects requests without a valid bearer token. The user
// record behind the token is re-fetched on every request, so revoked accounts
// and role changes take effect without waiting for token expiry.
func (m *Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		claims, err := m.Service.VerifyToken(token)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}
		principal, err := m.Service.PrincipalFor(r.Context(), claims)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("principal lookup failed", slog.String("subject", claims.Subject))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}
		ctx := identity.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
