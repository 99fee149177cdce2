// Package auth verifies bearer credentials and reports the authenticated
// principal. The chat core trusts the username carried by a valid token
// as-is; issuing tokens is another service's job.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"roomchat-service/internal/models"
)

var (
	ErrMissingSigningKey = errors.New("verifier: signing key required")
	ErrMissingToken      = errors.New("verifier: token required")
	ErrInvalidToken      = errors.New("verifier: invalid token")
	ErrMissingUsername   = errors.New("verifier: username claim required")
)

// Claims mirrors the JWT payload issued by the account service.
type Claims struct {
	Username    string `json:"username"`
	AccessLevel string `json:"accessLevel"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens.
type Verifier struct {
	signingSecret []byte
	clock         func() time.Time
}

// VerifierConfig configures a Verifier.
type VerifierConfig struct {
	SigningSecret []byte
	Clock         func() time.Time
}

// NewVerifier constructs a Verifier with the provided configuration.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSigningKey
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Verifier{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		clock:         clock,
	}, nil
}

// Verify validates the token string and returns the principal it carries.
func (v *Verifier) Verify(tokenString string) (models.Principal, error) {
	if tokenString == "" {
		return models.Principal{}, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingSecret, nil
	}, jwt.WithTimeFunc(v.clock))
	if err != nil || !token.Valid {
		return models.Principal{}, ErrInvalidToken
	}
	if claims.Username == "" {
		return models.Principal{}, ErrMissingUsername
	}

	return models.Principal{
		Username:    claims.Username,
		AccessLevel: claims.AccessLevel,
	}, nil
}
