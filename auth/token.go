// Package auth verifies bearer tokens and carries the caller's identity in
// the request context.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/raushankrgupta/fitly-tryon/config"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Open returns the verifier selected by AUTH_PROVIDER.
func Open(ctx context.Context) (TokenVerifier, error) {
	switch config.AuthProvider {
	case "jwt":
		v, err := NewJWTVerifier(config.JWTSecret)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "firebase":
		v, err := NewFirebaseVerifier(ctx, config.FirebaseProjectID, config.FirebaseCredentials)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", config.AuthProvider)
	}
}
