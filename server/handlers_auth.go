package server

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"time"

	"github.com/rs/zerolog/log"
)

type verifyRequest struct {
	Email    string `json:"email"`
	DeviceID string `json:"device_id"`
}

type verifyResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type submitRequest struct {
	Token string `json:"token"`
}

type submitResponse struct {
	Email string `json:"email"`
}

type protectedResponse struct {
	Message string `json:"message"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// VerifyHandler issues a session token for an email/device pair
// (POST /api/auth/verify). The biometric ceremony itself ran client-side;
// this endpoint trusts the pairing and binds a short-lived token to it.
func (s *Server) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		if _, err := mail.ParseAddress(request.Email); err != nil {
			writeDetail(w, http.StatusBadRequest, "a valid email address is required")
			return
		}
		if request.DeviceID == "" {
			writeDetail(w, http.StatusBadRequest, "device_id is required")
			return
		}

		token, expiresAt, err := s.tokens.mint(request.Email, request.DeviceID)
		if err != nil {
			log.Err(err).Msg("Failed to mint verification token")
			writeDetail(w, http.StatusInternalServerError, "failed to issue token")
			return
		}

		log.Info().Str("email", request.Email).Time("expires_at", expiresAt).Msg("Issued verification token")
		writeJSON(w, http.StatusOK, verifyResponse{Token: token, ExpiresAt: expiresAt})
	}
}

// SubmitHandler finalizes email verification (POST /api/auth/submit): the
// client hands back the issued token and receives the email it was bound to.
func (s *Server) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request submitRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if request.Token == "" {
			writeDetail(w, http.StatusBadRequest, "token is required")
			return
		}

		email, _, err := s.tokens.parse(request.Token)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		log.Info().Str("email", email).Msg("Email verified")
		writeJSON(w, http.StatusOK, submitResponse{Email: email})
	}
}

// ProtectedHandler answers gated requests (GET /api/protected). The token
// and the device fingerprint arrive as query parameters; the fingerprint
// must match the one the token was issued for.
func (s *Server) ProtectedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		deviceID := r.URL.Query().Get("device_id")
		if token == "" || deviceID == "" {
			writeDetail(w, http.StatusBadRequest, "token and device_id are required")
			return
		}

		email, issuedDeviceID, err := s.tokens.parse(token)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if issuedDeviceID != deviceID {
			log.Warn().Str("email", email).Msg("Protected request with mismatched device fingerprint")
			writeDetail(w, http.StatusForbidden, "token was issued for a different device")
			return
		}

		writeJSON(w, http.StatusOK, protectedResponse{Message: "Access granted to protected resource"})
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to encode response body")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}
