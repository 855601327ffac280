package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrPlatformUnsupported means the device has no biometric capability at
	// all. There is no fallback path; authentication cannot proceed here.
	ErrPlatformUnsupported = errors.New("platform does not support biometric verification")

	// ErrBiometricFailed means the user cancelled, the ceremony timed out, or
	// the authenticator errored. The user may retry.
	ErrBiometricFailed = errors.New("biometric verification failed")

	// ErrNotAuthenticated means no token record exists for the email.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrTokenExpired means the cached record lapsed between lookup and use.
	ErrTokenExpired = errors.New("token expired")
)

// RejectionError carries the server-supplied reason for a non-success
// response from the verification backend or a protected endpoint.
type RejectionError struct {
	StatusCode int
	Reason     string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Reason)
}
