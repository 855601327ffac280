package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quaysidehq/go-bioauth/internal/config"
	"github.com/quaysidehq/go-bioauth/server"
)

const testDeviceID = "device-fingerprint-1"

type serverFixture struct {
	ts *httptest.Server
}

func setupServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	srv, err := server.New(config.New())
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &serverFixture{ts: ts}
}

func (f *serverFixture) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	response, err := http.Post(f.ts.URL+path, "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)
	return response
}

func (f *serverFixture) verify(t *testing.T, email, deviceID string) (token string) {
	t.Helper()

	response := f.postJSON(t, server.RouteAuthVerify, map[string]string{
		"email":     email,
		"device_id": deviceID,
	})
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)

	var body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func decodeDetail(t *testing.T, response *http.Response) string {
	t.Helper()

	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	return body.Detail
}

func TestVerifyIssuesToken(t *testing.T) {
	f := setupServerFixture(t)

	token := f.verify(t, "john.doe@example.com", testDeviceID)
	require.NotEmpty(t, token)
}

func TestVerifyRejectsInvalidEmail(t *testing.T) {
	f := setupServerFixture(t)

	response := f.postJSON(t, server.RouteAuthVerify, map[string]string{
		"email":     "not-an-address",
		"device_id": testDeviceID,
	})
	defer response.Body.Close()

	require.Equal(t, http.StatusBadRequest, response.StatusCode)
	require.NotEmpty(t, decodeDetail(t, response))
}

func TestVerifyRequiresDeviceID(t *testing.T) {
	f := setupServerFixture(t)

	response := f.postJSON(t, server.RouteAuthVerify, map[string]string{
		"email": "john.doe@example.com",
	})
	defer response.Body.Close()

	require.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestSubmitRoundTrip(t *testing.T) {
	f := setupServerFixture(t)

	token := f.verify(t, "john.doe@example.com", testDeviceID)

	response := f.postJSON(t, server.RouteAuthSubmit, map[string]string{"token": token})
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)

	var body struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	require.Equal(t, "john.doe@example.com", body.Email)
}

func TestSubmitRejectsTamperedToken(t *testing.T) {
	f := setupServerFixture(t)

	response := f.postJSON(t, server.RouteAuthSubmit, map[string]string{"token": "not.a.jwt"})
	defer response.Body.Close()

	require.Equal(t, http.StatusUnauthorized, response.StatusCode)
}

func TestProtectedGrantsAccessWithMatchingDevice(t *testing.T) {
	f := setupServerFixture(t)

	token := f.verify(t, "john.doe@example.com", testDeviceID)

	url := fmt.Sprintf("%s%s?token=%s&device_id=%s", f.ts.URL, server.RouteProtected, token, testDeviceID)
	response, err := http.Get(url)
	require.NoError(t, err)
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	require.Equal(t, "Access granted to protected resource", body.Message)
}

func TestProtectedRejectsMismatchedDevice(t *testing.T) {
	f := setupServerFixture(t)

	token := f.verify(t, "john.doe@example.com", testDeviceID)

	url := fmt.Sprintf("%s%s?token=%s&device_id=%s", f.ts.URL, server.RouteProtected, token, "another-device")
	response, err := http.Get(url)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusForbidden, response.StatusCode)
	require.NotEmpty(t, decodeDetail(t, response))
}

func TestProtectedRejectsExpiredToken(t *testing.T) {
	f := setupServerFixture(t)

	// Mint a token in the past so its exp claim has already elapsed.
	server.NowTimeFunc = func() time.Time { return time.Now().Add(-24 * time.Hour) }
	token := f.verify(t, "john.doe@example.com", testDeviceID)
	server.NowTimeFunc = time.Now

	url := fmt.Sprintf("%s%s?token=%s&device_id=%s", f.ts.URL, server.RouteProtected, token, testDeviceID)
	response, err := http.Get(url)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusUnauthorized, response.StatusCode)
}

func TestProtectedRequiresQueryParameters(t *testing.T) {
	f := setupServerFixture(t)

	response, err := http.Get(f.ts.URL + server.RouteProtected)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestHealthz(t *testing.T) {
	f := setupServerFixture(t)

	response, err := http.Get(f.ts.URL + server.RouteHealthz)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)
}
