package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - token issuance and email submission
	RouteAuthVerify = "/api/auth/verify"
	RouteAuthSubmit = "/api/auth/submit"

	// Protected resource
	RouteProtected = "/api/protected"

	// Operational
	RouteHealthz = "/healthz"
)
