// Package auth orchestrates the authentication ceremony and the token
// lifecycle. Given an email it consults the token cache first and only on a
// miss or expiry runs the biometric ceremony and the remote verification
// exchange, so a user is never re-prompted inside the validity window.
package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/quaysidehq/go-bioauth/ceremony"
	"github.com/quaysidehq/go-bioauth/device"
	"github.com/quaysidehq/go-bioauth/tokencache"
)

// CeremonyRunner runs one biometric ceremony. Implemented by
// *ceremony.Adapter.
type CeremonyRunner interface {
	Perform(ctx context.Context) error
}

// Verifier exchanges a completed ceremony for a server-issued token.
// Implemented by *verify.Client. A non-success backend response comes back
// as *RejectionError.
type Verifier interface {
	Verify(ctx context.Context, email, deviceID string) (*tokencache.TokenRecord, error)
}

// flowState names the positions of the authentication state machine. States
// only feed debug logging; the flow itself is linear within one call.
type flowState string

const (
	stateChecking       flowState = "checking"
	stateCachedValid    flowState = "cached_valid"
	stateCeremony       flowState = "ceremony"
	stateVerifying      flowState = "verifying"
	stateIssued         flowState = "issued"
	stateRejected       flowState = "rejected"
	stateCeremonyFailed flowState = "ceremony_failed"
)

// Deps holds all dependencies for the Service.
type Deps struct {
	Cache       *tokencache.Cache
	Ceremony    CeremonyRunner
	Fingerprint device.FingerprintFunc
	Verifier    Verifier
}

// Service is the authentication orchestrator.
type Service struct {
	deps    Deps
	nowTime func() time.Time
	log     zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithLogger routes state-transition debug logs to the given logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(deps Deps, options ...ServiceOption) (*Service, error) {
	if deps.Cache == nil {
		return nil, errors.New("[NewService] token cache is required")
	}
	if deps.Ceremony == nil {
		return nil, errors.New("[NewService] ceremony runner is required")
	}
	if deps.Fingerprint == nil {
		return nil, errors.New("[NewService] fingerprint provider is required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("[NewService] verifier is required")
	}

	service := &Service{
		deps:    deps,
		nowTime: time.Now,
		log:     zerolog.Nop(),
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Authenticate runs one authentication pass for email.
//
// A live cached record short-circuits the whole flow: the ceremony and the
// network are not touched and the outcome is StatusAlreadyVerified. On a
// cache miss the ceremony runs first; if it fails no network call is made.
// A backend rejection mutates nothing locally. Only a successful exchange
// writes the cache, so calling Authenticate twice in a row yields
// StatusAlreadyVerified the second time with no duplicate ceremony.
//
// Callers should not run two Authenticate calls for the same email
// concurrently: nothing prevents it, but the two passes may each trigger a
// ceremony and a network exchange. Disable the triggering control while a
// call is pending.
func (s *Service) Authenticate(ctx context.Context, email string) (*Outcome, error) {
	if email == "" {
		return nil, errors.New("[Service.Authenticate] email is required")
	}

	s.transition(email, stateChecking)
	record, err := s.deps.Cache.Lookup(email)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Authenticate] cache lookup")
	}
	if record != nil {
		s.transition(email, stateCachedValid)
		return &Outcome{
			Status:    StatusAlreadyVerified,
			Token:     record.Token,
			ExpiresAt: record.ExpiresAt,
		}, nil
	}

	s.transition(email, stateCeremony)
	if err := s.deps.Ceremony.Perform(ctx); err != nil {
		s.transition(email, stateCeremonyFailed)
		var cerr *ceremony.Error
		if errors.As(err, &cerr) && cerr.Kind == ceremony.KindNotSupported {
			return nil, errors.Wrap(ErrPlatformUnsupported, cerr.Error())
		}
		return nil, errors.Wrap(ErrBiometricFailed, err.Error())
	}

	s.transition(email, stateVerifying)
	deviceID := s.deps.Fingerprint()
	issued, err := s.deps.Verifier.Verify(ctx, email, deviceID)
	if err != nil {
		s.transition(email, stateRejected)
		return nil, errors.Wrap(err, "[Service.Authenticate] verify")
	}
	if issued == nil {
		s.transition(email, stateRejected)
		return nil, errors.New("[Service.Authenticate] verifier returned no token")
	}

	if err := s.deps.Cache.Store(email, *issued); err != nil {
		return nil, errors.Wrap(err, "[Service.Authenticate] cache store")
	}

	s.transition(email, stateIssued)
	return &Outcome{
		Status:    StatusVerifiedNow,
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

func (s *Service) transition(email string, state flowState) {
	s.log.Debug().Str("email", email).Str("state", string(state)).Msg("authentication flow")
}
