package auth

import "time"

// Status tags the result of one authentication run.
type Status string

const (
	// StatusAlreadyVerified means a live cached token satisfied the request;
	// neither the ceremony nor the network was touched.
	StatusAlreadyVerified Status = "already_verified"

	// StatusVerifiedNow means a ceremony ran and the backend issued a fresh
	// token during this call.
	StatusVerifiedNow Status = "verified_now"
)

// Outcome is the transient result of a successful Authenticate call. Failed
// runs surface as errors instead; see the package error taxonomy.
type Outcome struct {
	Status    Status
	Token     string
	ExpiresAt time.Time
}
