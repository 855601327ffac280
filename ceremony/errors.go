package ceremony

import "github.com/pkg/errors"

// ErrCancelled is the sentinel an Authenticator returns when the user
// declines the biometric prompt. The adapter maps it to KindUserCancelled so
// callers can offer a retry instead of treating it as a hard failure.
var ErrCancelled = errors.New("ceremony cancelled by user")

// ErrorKind classifies a failed ceremony.
type ErrorKind string

const (
	// KindNotSupported means the platform has no authenticator capability at
	// all. Fatal for this device; there is no fallback path.
	KindNotSupported ErrorKind = "not_supported"

	// KindUserCancelled means the user declined the prompt. Recoverable.
	KindUserCancelled ErrorKind = "user_cancelled"

	// KindTimeout means the bounded wait elapsed before the authenticator
	// responded. Recoverable.
	KindTimeout ErrorKind = "timeout"

	// KindPlatform covers authenticator errors and the nil-credential case.
	KindPlatform ErrorKind = "platform_error"
)

// Error is the single tagged failure type for a ceremony. The platform
// primitive signals failure sometimes as an error and sometimes as a nil
// credential; the adapter folds both into this type so callers never have to
// special-case the two.
type Error struct {
	Kind  ErrorKind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return "ceremony failed: " + string(e.Kind)
	}
	return "ceremony failed: " + string(e.Kind) + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Recoverable reports whether the user may simply retry the ceremony.
func (e *Error) Recoverable() bool {
	return e.Kind == KindUserCancelled || e.Kind == KindTimeout
}
