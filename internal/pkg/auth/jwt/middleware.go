package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"userdash/internal/pkg/errs"
	"userdash/internal/pkg/logx"
	"userdash/internal/pkg/resp"
)

type contextKey string

// ContextUserIDKey stores the authenticated caller's id in the request context.
const ContextUserIDKey contextKey = "auth_user_id"

// Authenticator turns a raw bearer token into a caller id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// It returns "" when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the caller id in the context for the next handler.
func RequireAuth(authn Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authn.Authenticate(BearerToken(r))
			if err != nil {
				if errors.Is(err, ErrMissingToken) {
					resp.RespondError(w, r, errs.NewError(errs.ErrMissingToken))
					return
				}

				logx.Ctx(r.Context()).Warn().Err(err).Msg("rejected bearer token")
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidToken))
				return
			}

			ctx := context.WithValue(r.Context(), ContextUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the caller id stored by RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextUserIDKey).(string)
	return userID, ok && userID != ""
}
