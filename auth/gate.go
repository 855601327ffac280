package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/quaysidehq/go-bioauth/device"
	"github.com/quaysidehq/go-bioauth/tokencache"
)

// RequestFunc performs the actual protected call with the supplied token and
// device fingerprint attached, returning the response message.
type RequestFunc func(ctx context.Context, token, deviceID string) (string, error)

// Gate re-validates the cached token record before any protected call.
// It reads the token cache independently of the orchestrator and never
// writes to it: issuing and storing tokens stays the orchestrator's job.
type Gate struct {
	cache       *tokencache.Cache
	fingerprint device.FingerprintFunc
	nowTime     func() time.Time
}

// GateOption defines a function type to modify the Gate instance.
type GateOption func(*Gate)

// WithGateNowTime sets the now time function (primarily for testing)
func WithGateNowTime(nowFunc func() time.Time) GateOption {
	return func(g *Gate) {
		g.nowTime = nowFunc
	}
}

// NewGate initializes a Gate over the shared token cache.
func NewGate(cache *tokencache.Cache, fingerprint device.FingerprintFunc, options ...GateOption) (*Gate, error) {
	if cache == nil {
		return nil, errors.New("[NewGate] token cache is required")
	}
	if fingerprint == nil {
		return nil, errors.New("[NewGate] fingerprint provider is required")
	}

	gate := &Gate{
		cache:       cache,
		fingerprint: fingerprint,
		nowTime:     time.Now,
	}

	for _, opt := range options {
		opt(gate)
	}

	return gate, nil
}

// CallProtected checks the cached record for email and, when live, runs fn
// with the token and a freshly computed device fingerprint. With no record
// the request is never sent and ErrNotAuthenticated is returned.
func (g *Gate) CallProtected(ctx context.Context, email string, fn RequestFunc) (string, error) {
	if fn == nil {
		return "", errors.New("[Gate.CallProtected] request function is required")
	}

	record, err := g.cache.Lookup(email)
	if err != nil {
		return "", errors.Wrap(err, "[Gate.CallProtected] cache lookup")
	}
	if record == nil {
		return "", ErrNotAuthenticated
	}

	// Lookup already evicts expired entries, but the expiry may pass between
	// that read and this call. Re-check before spending a network round trip.
	if record.Expired(g.nowTime()) {
		return "", ErrTokenExpired
	}

	message, err := fn(ctx, record.Token, g.fingerprint())
	if err != nil {
		return "", errors.Wrap(err, "[Gate.CallProtected] request")
	}
	return message, nil
}
