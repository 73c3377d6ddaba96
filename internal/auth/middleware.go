package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/redmonkez12/teamtasks/internal/httputil"
	"github.com/redmonkez12/teamtasks/internal/logging"
	"github.com/redmonkez12/teamtasks/internal/token"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const IdentityContextKey ContextKey = "identity"

// Middleware handles authentication for protected routes
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth resolves the bearer token into an identity.
// A missing or non-bearer Authorization header is a 401 challenge; a token
// that fails verification is a 400.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, ok := bearerToken(r)
		if !ok {
			httputil.RespondUnauthorized(w, "Not authenticated", httputil.CodeMissingAuth)
			return
		}

		identity, err := m.service.CurrentIdentity(r.Context(), bearer)
		if err != nil {
			logging.GetLoggerFromContext(r.Context()).Warn("token rejected", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Cannot validate token", httputil.CodeInvalidToken, http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, param, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	param = strings.TrimSpace(param)
	return param, param != ""
}

// GetIdentityFromContext extracts the authenticated identity from the request context
func GetIdentityFromContext(ctx context.Context) (*token.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(*token.Identity)
	return identity, ok
}
