package ceremonyfakes

import (
	"context"
	"sync"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/quaysidehq/go-bioauth/ceremony"
)

var _ ceremony.Authenticator = (*FakeAuthenticator)(nil)

// FakeAuthenticator is a scriptable platform authenticator for tests. It
// records the options each ceremony was invoked with so tests can assert on
// challenge freshness and selection constraints.
type FakeAuthenticator struct {
	Supported  bool
	Registered bool

	// CreateErr / AssertErr are returned instead of a credential when set
	CreateErr error
	AssertErr error

	// ReturnNil makes the fake answer with a nil credential and nil error,
	// mimicking the platform's null-instead-of-exception failure mode
	ReturnNil bool

	// Block makes ceremony calls wait until the context is cancelled
	Block bool

	CreateCalls int
	AssertCalls int
	Creations   []*protocol.CredentialCreation
	Assertions  []*protocol.CredentialAssertion

	lock sync.Mutex
}

func NewFakeAuthenticator() *FakeAuthenticator {
	return &FakeAuthenticator{Supported: true}
}

func (a *FakeAuthenticator) Available() bool {
	return a.Supported
}

func (a *FakeAuthenticator) HasPlatformCredential() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.Registered
}

func (a *FakeAuthenticator) Create(ctx context.Context, options *protocol.CredentialCreation) (*ceremony.Credential, error) {
	a.lock.Lock()
	a.CreateCalls++
	a.Creations = append(a.Creations, options)
	a.lock.Unlock()

	if a.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if a.CreateErr != nil {
		return nil, a.CreateErr
	}
	if a.ReturnNil {
		return nil, nil
	}

	a.lock.Lock()
	a.Registered = true
	a.lock.Unlock()
	return &ceremony.Credential{ID: []byte("fake-credential"), Type: "public-key"}, nil
}

func (a *FakeAuthenticator) Assert(ctx context.Context, options *protocol.CredentialAssertion) (*ceremony.Credential, error) {
	a.lock.Lock()
	a.AssertCalls++
	a.Assertions = append(a.Assertions, options)
	a.lock.Unlock()

	if a.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if a.AssertErr != nil {
		return nil, a.AssertErr
	}
	if a.ReturnNil {
		return nil, nil
	}
	return &ceremony.Credential{ID: []byte("fake-credential"), Type: "public-key"}, nil
}
