// Package auth resolves the caller's identity from a bearer token.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrUnauthorized is returned for a missing, malformed or rejected token.
var ErrUnauthorized = errors.New("Unauthorized: Authentication required")

// Firebase ID tokens are signed with these public keys.
const FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// Verifier returns the user id a token belongs to, or an error wrapping
// ErrUnauthorized.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// JWKSVerifier validates signed JWTs against a remote key set. The key set
// is cached and refreshed in the background to follow key rotation.
type JWKSVerifier struct {
	jwksURL  string
	cache    *jwk.Cache
	issuer   string
	audience string
}

// NewJWKSVerifier registers jwksURL and fetches it once so a bad URL fails
// at startup. The refresh goroutine stops when ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer, audience string) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL is required")
	}
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}
	return &JWKSVerifier{jwksURL: jwksURL, cache: cache, issuer: issuer, audience: audience}, nil
}

// NewFirebaseVerifier verifies Firebase ID tokens for projectID.
func NewFirebaseVerifier(ctx context.Context, projectID string) (*JWKSVerifier, error) {
	return NewJWKSVerifier(ctx, FirebaseJWKSURL, "https://securetoken.google.com/"+projectID, projectID)
}

func (v *JWKSVerifier) Verify(ctx context.Context, token string) (string, error) {
	keyset, err := v.cache.Get(ctx, v.jwksURL)
	if err != nil {
		return "", fmt.Errorf("failed to get JWKS: %w", err)
	}

	opts := []jwt.ParseOption{jwt.WithKeySet(keyset), jwt.WithValidate(true)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	parsed, err := jwt.Parse([]byte(token), opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if parsed.Subject() == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return parsed.Subject(), nil
}

// StaticVerifier accepts a single shared token. Used in demo mode.
type StaticVerifier struct {
	Token  string
	UserID string
}

func (v StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	if v.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(v.Token)) != 1 {
		return "", ErrUnauthorized
	}
	return v.UserID, nil
}
