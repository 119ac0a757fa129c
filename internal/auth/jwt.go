// Package auth provides JWT session tokens, bcrypt password hashing, the
// GitHub OAuth provider, and the middleware that protects the API routes.
//
// SESSION FLOW:
// 1. User registers or logs in (email/password or GitHub OAuth)
// 2. Server issues a signed JWT and stores it in an HttpOnly cookie
// 3. On each API call, middleware reads the cookie, validates the JWT,
//    and puts the userID in the request context
//
// JWT is stateless — everything needed to authenticate a request (userID,
// expiry) lives inside the signed token, so no session table and no DB
// lookup on validation. The HMAC signature means nobody can forge or alter
// a token without the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "trunky"

// TokenTTL is how long an issued session token stays valid. The cookie that
// carries the token uses the same lifetime.
const TokenTTL = 24 * time.Hour

// TokenService handles JWT creation and validation. It holds the HMAC secret
// used for both signing and verifying.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The standard "sub" (Subject) claim carries the
// internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new JWT for the given userID, valid for
// TokenTTL. Signing is HS256 — symmetric, one key for sign and verify, which
// is all a single-server deployment needs.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, TokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the userID from the
// "sub" claim.
//
// The jwt library checks the signature, expiry, and issuer. Pinning the
// algorithm with WithValidMethods blocks algorithm-confusion attacks where
// a token claims to be signed with "none".
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
