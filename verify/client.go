// Package verify is the typed HTTP client for the verification backend. The
// backend is an external collaborator with a fixed contract: verify issues a
// token for an email/device pair, submit finalizes the email with that token,
// and protected answers gated requests. This package only shapes requests
// and decodes responses; all policy lives in the auth package.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/quaysidehq/go-bioauth/auth"
	"github.com/quaysidehq/go-bioauth/tokencache"
)

const defaultRequestTimeout = 30 * time.Second

var _ auth.Verifier = (*Client)(nil)

// Client talks to one verification backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient substitutes the underlying HTTP client (primarily for testing)
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[verify.NewClient] base URL is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

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

// Verify exchanges a completed ceremony for a server-issued token record.
func (c *Client) Verify(ctx context.Context, email, deviceID string) (*tokencache.TokenRecord, error) {
	var response verifyResponse
	err := c.postJSON(ctx, "/api/auth/verify", verifyRequest{Email: email, DeviceID: deviceID}, &response)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Verify] post")
	}
	return &tokencache.TokenRecord{Token: response.Token, ExpiresAt: response.ExpiresAt}, nil
}

// Submit finalizes email verification with a previously issued token and
// returns the verified email.
func (c *Client) Submit(ctx context.Context, token string) (string, error) {
	var response submitResponse
	err := c.postJSON(ctx, "/api/auth/submit", submitRequest{Token: token}, &response)
	if err != nil {
		return "", errors.Wrap(err, "[Client.Submit] post")
	}
	return response.Email, nil
}

// Protected calls the protected endpoint with the token and device
// fingerprint attached as query parameters. Its signature matches
// auth.RequestFunc so it can be handed straight to a Gate.
func (c *Client) Protected(ctx context.Context, token, deviceID string) (string, error) {
	query := url.Values{}
	query.Set("token", token)
	query.Set("device_id", deviceID)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/protected?"+query.Encode(), nil)
	if err != nil {
		return "", errors.Wrap(err, "[Client.Protected] new request")
	}

	var response protectedResponse
	if err := c.do(request, &response); err != nil {
		return "", errors.Wrap(err, "[Client.Protected] do")
	}
	return response.Message, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	request.Header.Set("Content-Type", "application/json")

	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out any) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return errors.Wrap(err, "http do")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &auth.RejectionError{
			StatusCode: response.StatusCode,
			Reason:     rejectionReason(body, response.Status),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// rejectionReason pulls the server-supplied detail out of an error body,
// falling back to the raw body or HTTP status when the shape is unexpected.
func rejectionReason(body []byte, status string) string {
	var detail detailResponse
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return status
}
