package server

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// tokenIssuer mints and validates the opaque session tokens handed to
// clients. Tokens are HS256 JWTs carrying the verified email and the device
// fingerprint they were issued for; validity is enforced entirely through
// the signature and the exp claim, so the server stays stateless.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func newTokenIssuer(secret string, ttl time.Duration) (*tokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("[newTokenIssuer] signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("[newTokenIssuer] token TTL must be positive")
	}
	return &tokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// mint issues a token for an email/device pair and returns it with its
// expiry timestamp.
func (t *tokenIssuer) mint(email, deviceID string) (string, time.Time, error) {
	now := NowTimeFunc()
	expiresAt := now.Add(t.ttl)

	claims := jwtlib.MapClaims{
		"sub":       email,
		"email":     email,
		"device_id": deviceID,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
		"jti":       uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "[tokenIssuer.mint] sign")
	}
	return signed, expiresAt, nil
}

// parse validates a token and returns the email and device fingerprint it
// was issued for. Expired or tampered tokens fail validation.
func (t *tokenIssuer) parse(raw string) (email, deviceID string, err error) {
	parsed, err := jwtlib.Parse(raw, func(token *jwtlib.Token) (any, error) {
		return t.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", errors.Wrap(err, "[tokenIssuer.parse] parse")
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return "", "", errors.New("[tokenIssuer.parse] unexpected claims type")
	}

	email, _ = claims["email"].(string)
	deviceID, _ = claims["device_id"].(string)
	if email == "" {
		return "", "", errors.New("[tokenIssuer.parse] token missing email claim")
	}
	return email, deviceID, nil
}
