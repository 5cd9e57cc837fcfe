package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultSessionTTL = time.Hour

var (
	// ErrInvalidToken covers bad signature, malformed and expired session tokens.
	ErrInvalidToken = errors.New("auth: invalid session token")
	// ErrMissingSubject indicates a session token that decoded without a
	// subject claim to resolve an identity from.
	ErrMissingSubject = errors.New("auth: session token missing subject")

	errMissingSigningSecret = errors.New("auth: signing secret must be provided")
	errMissingSubjectInput  = errors.New("auth: subject email must be provided")
)

// TokenIssuerConfig configures the session token issuer.
type TokenIssuerConfig struct {
	SigningSecret []byte
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// TokenIssuer mints and validates the service's own HS256 session tokens.
// The subject claim carries the provider-verified email; expiry is
// absolute and embedded in the payload.
type TokenIssuer struct {
	signingSecret []byte
	tokenTTL      time.Duration
	clock         func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, errMissingSigningSecret
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		tokenTTL:      ttl,
		clock:         clock,
	}, nil
}

// Issue produces a signed session token for the verified email and
// returns it alongside its absolute expiry.
func (i *TokenIssuer) Issue(email string) (string, time.Time, error) {
	if strings.TrimSpace(email) == "" {
		return "", time.Time{}, errMissingSubjectInput
	}

	now := i.clock().UTC()
	expiresAt := now.Add(i.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Validate verifies the session token's signature and expiry against the
// issuer's own clock and returns the subject email.
func (i *TokenIssuer) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return i.signingSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed == nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}
