// Package token issues and verifies the signed session tokens handed out
// by the demo sign-in flow.
package token

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/yeojun7429/portfolio-api/internal/models"
)

// DefaultTTL is how long an issued session token stays valid.
const DefaultTTL = 24 * time.Hour

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewSigner creates a signer for the given shared secret and issuer.
func NewSigner(secret []byte, issuer string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue creates a signed session token for the user.
func (s *Signer) Issue(user *models.User) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(user.ID.String()).
		Issuer(s.issuer).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Claim("email", user.Email).
		Claim("name", user.Name).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Verify checks a session token's signature, expiry, and issuer, and
// extracts its claims.
func (s *Signer) Verify(tokenString string) (*models.JWTClaims, error) {
	tok, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	claims := &models.JWTClaims{
		Sub: tok.Subject(),
		Iss: tok.Issuer(),
	}
	if !tok.Expiration().IsZero() {
		claims.Exp = tok.Expiration().Unix()
	}
	if !tok.IssuedAt().IsZero() {
		claims.Iat = tok.IssuedAt().Unix()
	}
	if email, ok := tok.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if name, ok := tok.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}

	return claims, nil
}
