package verify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/quaysidehq/go-bioauth/auth"
	"github.com/quaysidehq/go-bioauth/verify"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := verify.NewClient("   ")
	require.Error(t, err)
}

func TestVerifySendsEmailAndDeviceID(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/verify", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@x.com", body["email"])
		require.Equal(t, "device-1", body["device_id"])

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"token":      "abc",
			"expires_at": expiresAt,
		}))
	}))
	defer ts.Close()

	client, err := verify.NewClient(ts.URL)
	require.NoError(t, err)

	record, err := client.Verify(context.Background(), "a@x.com", "device-1")
	require.NoError(t, err)
	require.Equal(t, "abc", record.Token)
	require.True(t, expiresAt.Equal(record.ExpiresAt))
}

func TestVerifyMapsRejectionDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"email not allowed"}`))
	}))
	defer ts.Close()

	client, err := verify.NewClient(ts.URL)
	require.NoError(t, err)

	_, err = client.Verify(context.Background(), "a@x.com", "device-1")
	require.Error(t, err)

	var rejection *auth.RejectionError
	require.True(t, errors.As(err, &rejection))
	require.Equal(t, http.StatusForbidden, rejection.StatusCode)
	require.Equal(t, "email not allowed", rejection.Reason)
}

func TestVerifyFallsBackToStatusOnOpaqueBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client, err := verify.NewClient(ts.URL)
	require.NoError(t, err)

	_, err = client.Verify(context.Background(), "a@x.com", "device-1")
	require.Error(t, err)

	var rejection *auth.RejectionError
	require.True(t, errors.As(err, &rejection))
	require.Equal(t, http.StatusBadGateway, rejection.StatusCode)
	require.NotEmpty(t, rejection.Reason)
}

func TestSubmitReturnsVerifiedEmail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/submit", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "abc", body["token"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"a@x.com"}`))
	}))
	defer ts.Close()

	client, err := verify.NewClient(ts.URL)
	require.NoError(t, err)

	email, err := client.Submit(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", email)
}

func TestProtectedAttachesQueryParameters(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/protected", r.URL.Path)
		require.Equal(t, "abc", r.URL.Query().Get("token"))
		require.Equal(t, "device-1", r.URL.Query().Get("device_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"granted"}`))
	}))
	defer ts.Close()

	client, err := verify.NewClient(ts.URL)
	require.NoError(t, err)

	message, err := client.Protected(context.Background(), "abc", "device-1")
	require.NoError(t, err)
	require.Equal(t, "granted", message)
}
