package http

import (
	"context"
	"net/http"
	"strings"

	"quickchat/internal/domain"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// tokenVerifier resolves a bearer token to a user id.
type tokenVerifier interface {
	Verify(token string) (string, error)
}

// requireAuth rejects requests without a valid bearer token and stores the
// resolved user id in the request context. The legacy `token` header the
// browser client sends is accepted alongside the Authorization header.
func requireAuth(tokens tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, domain.ErrInvalidToken)
				return
			}
			userID, err := tokens.Verify(raw)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(h[len("Bearer "):])
		}
	}
	return strings.TrimSpace(r.Header.Get("token"))
}

func userIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserID).(string); ok {
		return v
	}
	return ""
}
