package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitly-tryon/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// Middleware rejects requests without a valid bearer token and stores the
// caller's Identity in the request context. EventSource clients cannot set
// headers, so the token may also come as ?access_token=.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var logMessageBuilder strings.Builder
			defer utils.FlushLog(&logMessageBuilder)

			token := extractToken(r)
			if token == "" {
				utils.AddToLogMessage(&logMessageBuilder, "[Auth] "+r.URL.Path)
				utils.RespondError(w, &logMessageBuilder, "missing authorization token", http.StatusUnauthorized)
				return
			}
			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				utils.AddToLogMessage(&logMessageBuilder, "[Auth] "+r.URL.Path)
				utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Token rejected: %v", err))
				utils.RespondError(w, &logMessageBuilder, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func extractToken(r *http.Request) string {
	bearerToken := r.Header.Get("Authorization")
	if strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimSpace(bearerToken[len("Bearer "):])
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentityFromContext returns the caller set by Middleware.
func GetIdentityFromContext(ctx context.Context) (*Identity, error) {
	id, ok := ctx.Value(identityKey).(*Identity)
	if !ok || id == nil || id.UserID == "" {
		return nil, errors.New("user not authenticated")
	}
	return id, nil
}

func GetUserIDFromContext(ctx context.Context) (string, error) {
	id, err := GetIdentityFromContext(ctx)
	if err != nil {
		return "", err
	}
	return id.UserID, nil
}
