package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/quaysidehq/go-bioauth/auth"
	"github.com/quaysidehq/go-bioauth/tokencache"
	"github.com/quaysidehq/go-bioauth/tokencache/kvfakes"
)

// capturingRequest records what the gate attached to the outbound call.
type capturingRequest struct {
	calls    int
	token    string
	deviceID string
	message  string
	err      error
}

func (c *capturingRequest) fn(ctx context.Context, token, deviceID string) (string, error) {
	c.calls++
	c.token = token
	c.deviceID = deviceID
	if c.err != nil {
		return "", c.err
	}
	return c.message, nil
}

type gateFixture struct {
	kv      *kvfakes.FakeKV
	cache   *tokencache.Cache
	gate    *auth.Gate
	request *capturingRequest
	now     time.Time
	gateNow time.Time
}

func setupGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	f := &gateFixture{
		kv:      kvfakes.NewFakeKV(),
		request: &capturingRequest{message: "hello"},
		now:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	f.gateNow = f.now

	cache, err := tokencache.New(f.kv, tokencache.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.cache = cache

	gate, err := auth.NewGate(f.cache,
		func() string { return testFingerprint },
		auth.WithGateNowTime(func() time.Time { return f.gateNow }),
	)
	require.NoError(t, err)
	f.gate = gate

	return f
}

func TestNewGateValidatesDependencies(t *testing.T) {
	f := setupGateFixture(t)

	_, err := auth.NewGate(nil, func() string { return testFingerprint })
	require.Error(t, err)

	_, err = auth.NewGate(f.cache, nil)
	require.Error(t, err)
}

func TestCallProtectedWithoutRecord(t *testing.T) {
	f := setupGateFixture(t)

	_, err := f.gate.CallProtected(context.Background(), testEmail, f.request.fn)
	require.Error(t, err)
	require.True(t, errors.Is(err, auth.ErrNotAuthenticated))

	// The request was never sent.
	require.Equal(t, 0, f.request.calls)
}

func TestCallProtectedAttachesTokenAndFingerprint(t *testing.T) {
	f := setupGateFixture(t)

	record := tokencache.TokenRecord{Token: "abc", ExpiresAt: f.now.Add(time.Hour)}
	require.NoError(t, f.cache.Store(testEmail, record))

	message, err := f.gate.CallProtected(context.Background(), testEmail, f.request.fn)
	require.NoError(t, err)
	require.Equal(t, "hello", message)
	require.Equal(t, 1, f.request.calls)
	require.Equal(t, "abc", f.request.token)
	require.Equal(t, testFingerprint, f.request.deviceID)
}

func TestCallProtectedDefensiveExpiryCheck(t *testing.T) {
	f := setupGateFixture(t)

	// The cache still considers the record live, but by the gate's clock the
	// expiry has passed between lookup and use.
	record := tokencache.TokenRecord{Token: "abc", ExpiresAt: f.now.Add(time.Hour)}
	require.NoError(t, f.cache.Store(testEmail, record))
	f.gateNow = f.now.Add(2 * time.Hour)

	_, err := f.gate.CallProtected(context.Background(), testEmail, f.request.fn)
	require.Error(t, err)
	require.True(t, errors.Is(err, auth.ErrTokenExpired))
	require.Equal(t, 0, f.request.calls)
}

func TestCallProtectedExpiredRecordEvicted(t *testing.T) {
	f := setupGateFixture(t)

	record := tokencache.TokenRecord{Token: "abc", ExpiresAt: f.now.Add(-time.Minute)}
	require.NoError(t, f.cache.Store(testEmail, record))

	_, err := f.gate.CallProtected(context.Background(), testEmail, f.request.fn)
	require.Error(t, err)
	require.True(t, errors.Is(err, auth.ErrNotAuthenticated))
	require.False(t, f.kv.Has(testEmail))
}

func TestCallProtectedServerRejection(t *testing.T) {
	f := setupGateFixture(t)
	f.request.err = &auth.RejectionError{StatusCode: 401, Reason: "token revoked"}

	record := tokencache.TokenRecord{Token: "abc", ExpiresAt: f.now.Add(time.Hour)}
	require.NoError(t, f.cache.Store(testEmail, record))

	_, err := f.gate.CallProtected(context.Background(), testEmail, f.request.fn)
	require.Error(t, err)

	var rejection *auth.RejectionError
	require.True(t, errors.As(err, &rejection))
	require.Equal(t, "token revoked", rejection.Reason)
}

func TestCallProtectedNeverWritesCache(t *testing.T) {
	f := setupGateFixture(t)

	record := tokencache.TokenRecord{Token: "abc", ExpiresAt: f.now.Add(time.Hour)}
	require.NoError(t, f.cache.Store(testEmail, record))

	_, err := f.gate.CallProtected(context.Background(), testEmail, f.request.fn)
	require.NoError(t, err)

	stored, err := f.cache.Lookup(testEmail)
	require.NoError(t, err)
	require.Equal(t, record.Token, stored.Token)
	require.Equal(t, 1, f.kv.Len())
}

func TestCallProtectedRequiresRequestFunc(t *testing.T) {
	f := setupGateFixture(t)

	_, err := f.gate.CallProtected(context.Background(), testEmail, nil)
	require.Error(t, err)
}
