// Package ceremony wraps the platform's credential-creation and
// credential-assertion primitives into a single verified-or-failed outcome.
// One Perform call is one round of the authenticator protocol: a fresh
// challenge is issued, the platform prompts for biometric or local-PIN
// verification, and the result is normalized into a tagged error taxonomy.
package ceremony

import (
	"context"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultRPName   = "Email Auth"
	defaultUserName = "localuser"
)

// Credential is the opaque handle the platform returns for a completed
// ceremony. The adapter only ever checks it for presence; cryptographic
// verification of the underlying assertion happens in the authenticator and
// on the relying-party side, never here.
type Credential struct {
	ID   []byte
	Type string
}

// Authenticator is the injected platform credential primitive: the bridge to
// whatever hardware-backed authenticator the host exposes.
type Authenticator interface {
	// Available reports whether the platform has any authenticator capability
	Available() bool

	// HasPlatformCredential reports whether a platform credential was
	// previously registered on this device
	HasPlatformCredential() bool

	// Create runs a credential-creation ceremony with the given options
	Create(ctx context.Context, options *protocol.CredentialCreation) (*Credential, error)

	// Assert runs a credential-assertion ceremony with the given options
	Assert(ctx context.Context, options *protocol.CredentialAssertion) (*Credential, error)
}

// Adapter drives ceremonies against an injected Authenticator. Options are
// always constrained to a platform-bound authenticator with user verification
// required, and every ceremony gets a fresh random challenge.
type Adapter struct {
	wa            *webauthn.WebAuthn
	authenticator Authenticator
	timeout       time.Duration
	user          *localUser
}

// AdapterOption defines a function type to modify the Adapter instance.
type AdapterOption func(*settings)

type settings struct {
	rpName          string
	userName        string
	userDisplayName string
	timeout         time.Duration
}

// WithRPName overrides the relying-party display name.
func WithRPName(name string) AdapterOption {
	return func(s *settings) {
		s.rpName = name
	}
}

// WithUserIdentity overrides the local user identity presented to the
// authenticator during creation-mode ceremonies.
func WithUserIdentity(name, displayName string) AdapterOption {
	return func(s *settings) {
		s.userName = name
		s.userDisplayName = displayName
	}
}

// WithTimeout bounds how long a single ceremony may wait for the platform.
func WithTimeout(timeout time.Duration) AdapterOption {
	return func(s *settings) {
		s.timeout = timeout
	}
}

// New creates an Adapter for the given relying-party ID (the current origin
// host) and platform authenticator.
func New(rpID, origin string, authenticator Authenticator, options ...AdapterOption) (*Adapter, error) {
	if rpID == "" {
		return nil, errors.New("[ceremony.New] relying-party ID is required")
	}
	if origin == "" {
		return nil, errors.New("[ceremony.New] origin is required")
	}
	if authenticator == nil {
		return nil, errors.New("[ceremony.New] authenticator is required")
	}

	s := settings{
		rpName:          defaultRPName,
		userName:        defaultUserName,
		userDisplayName: "Local User",
		timeout:         defaultTimeout,
	}
	for _, opt := range options {
		opt(&s)
	}

	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: s.rpName,
		RPID:          rpID,
		RPOrigins:     []string{origin},
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.Platform,
			UserVerification:        protocol.VerificationRequired,
		},
		Timeouts: webauthn.TimeoutsConfig{
			Login: webauthn.TimeoutConfig{
				Enforce: true,
				Timeout: s.timeout,
			},
			Registration: webauthn.TimeoutConfig{
				Enforce: true,
				Timeout: s.timeout,
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "[ceremony.New] webauthn.New")
	}

	return &Adapter{
		wa:            wa,
		authenticator: authenticator,
		timeout:       s.timeout,
		user: &localUser{
			name:        s.userName,
			displayName: s.userDisplayName,
		},
	}, nil
}

// Perform runs one ceremony and returns nil iff the platform produced a
// credential. On the first use of a device it runs a creation-mode ceremony,
// registering a new platform credential as a byproduct; afterwards it runs
// assertion mode with an empty allow-list, accepting any previously
// registered platform credential. All failures come back as *Error.
func (a *Adapter) Perform(ctx context.Context) error {
	if !a.authenticator.Available() {
		return &Error{Kind: KindNotSupported}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		credential *Credential
		err        error
	)
	if a.authenticator.HasPlatformCredential() {
		credential, err = a.assert(ctx)
	} else {
		credential, err = a.create(ctx)
	}

	if err != nil {
		return classify(err)
	}
	if credential == nil {
		// Failure signaled as a nil credential instead of an error.
		return &Error{Kind: KindPlatform, cause: errors.New("no credential returned")}
	}
	return nil
}

func (a *Adapter) create(ctx context.Context) (*Credential, error) {
	options, _, err := a.wa.BeginRegistration(a.user,
		webauthn.WithCredentialParameters([]protocol.CredentialParameter{
			{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
			{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgRS256},
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Adapter.create] BeginRegistration")
	}
	return a.authenticator.Create(ctx, options)
}

func (a *Adapter) assert(ctx context.Context) (*Credential, error) {
	// A discoverable login carries no allow-list, so the platform may answer
	// with any credential it registered for this relying party.
	options, _, err := a.wa.BeginDiscoverableLogin()
	if err != nil {
		return nil, errors.Wrap(err, "[Adapter.assert] BeginDiscoverableLogin")
	}
	return a.authenticator.Assert(ctx, options)
}

func classify(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, cause: err}
	case errors.Is(err, ErrCancelled):
		return &Error{Kind: KindUserCancelled, cause: err}
	default:
		return &Error{Kind: KindPlatform, cause: err}
	}
}

// localUser is the fixed identity handed to creation-mode ceremonies. The
// backend never sees it; identity binding happens through the email sent to
// the verification endpoint, not through the authenticator user entry.
type localUser struct {
	name        string
	displayName string
}

var _ webauthn.User = (*localUser)(nil)

func (u *localUser) WebAuthnID() []byte {
	return make([]byte, 16)
}

func (u *localUser) WebAuthnName() string {
	return u.name
}

func (u *localUser) WebAuthnDisplayName() string {
	return u.displayName
}

func (u *localUser) WebAuthnIcon() string {
	return ""
}

func (u *localUser) WebAuthnCredentials() []webauthn.Credential {
	return nil
}
