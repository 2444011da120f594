package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/BuzzLyutic/task-registry/pkg/respond"
)

type tokenKey struct{}

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// Middleware moves a bearer token into the request context. Requests without
// an Authorization header pass through; operations that need an identity
// fail later in the verifier.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			respond.Error(w, r, http.StatusUnauthorized, "invalid authorization header format, use: Bearer <token>")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			respond.Error(w, r, http.StatusUnauthorized, "token is required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
	})
}
