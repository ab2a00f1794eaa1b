// Package api implements the HTTP client for the THOTH backend: login,
// registration, chat queries, file listing/upload, and device heartbeats.
// All authenticated calls take the bearer token explicitly; token lifecycle
// lives in internal/auth, not here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"thoth/internal/logging"
)

// DefaultBaseURL is the production THOTH deployment.
const DefaultBaseURL = "https://web-production-d7d37.up.railway.app"

// phonePattern enforces the registration form rule: exactly 11 digits.
var phonePattern = regexp.MustCompile(`^\d{11}$`)

// Config holds client construction options.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns sensible defaults for talking to production.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   60 * time.Second,
		UserAgent: "thoth-cli",
	}
}

// Client is the THOTH backend HTTP client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL. An empty baseURL falls
// back to the production deployment.
func NewClient(baseURL string) *Client {
	cfg := DefaultConfig()
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client with custom config.
func NewClientWithConfig(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// BaseURL returns the backend base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// AUTHENTICATION ENDPOINTS
// =============================================================================

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges a username/password pair for a bearer token via the
// form-encoded /token endpoint. Any non-2xx status means bad credentials.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.APIDebug("login rejected: status=%d user=%s", resp.StatusCode, username)
		return "", ErrInvalidCredentials
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return tok.AccessToken, nil
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// Register creates a new account. The phone number must be exactly 11
// digits; that rule is enforced locally before any request is made.
func (c *Client) Register(ctx context.Context, username, password, phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("phone number must be exactly 11 digits")
	}

	body, err := json.Marshal(registerRequest{Username: username, Password: password, PhoneNumber: phone})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("register request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.applicationError(resp)
	}
	return nil
}

// =============================================================================
// CHAT QUERY
// =============================================================================

// QueryRequest carries one chat turn to the backend. ChatID identifies the
// conversation context; the model parameters are fixed per client config.
type QueryRequest struct {
	Query       string  `json:"query"`
	ChatID      string  `json:"chat_id"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type queryResponse struct {
	Response string `json:"response"`
}

// Query sends a chat query and returns the model's reply text.
// A 401 maps to ErrSessionExpired; other non-2xx statuses map to *APIError.
func (c *Client) Query(ctx context.Context, token string, qr QueryRequest) (string, error) {
	body, err := json.Marshal(qr)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	c.setCommonHeaders(req)

	logging.APIDebug("query: chat_id=%s model=%s len=%d", qr.ChatID, qr.Model, len(qr.Query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode}
	}

	var qresp queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qresp); err != nil {
		return "", fmt.Errorf("failed to decode query response: %w", err)
	}
	return qresp.Response, nil
}

// =============================================================================
// FILES
// =============================================================================

// FileRecord is one server-side upload as reported by the list endpoint.
type FileRecord struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type wrappedFileList struct {
	Files []FileRecord `json:"files"`
}

// ListFiles fetches the authenticated user's file list. The backend has
// shipped two shapes for this response: a bare array and a {files: [...]}
// wrapper. Both are accepted; any other 2xx shape yields an empty list.
func (c *Client) ListFiles(ctx context.Context, token string) ([]FileRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list files request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return decodeFileList(body), nil
}

// decodeFileList tolerates the two known list shapes and treats anything
// else as empty rather than failing.
func decodeFileList(body []byte) []FileRecord {
	var bare []FileRecord
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare
	}

	var wrapped wrappedFileList
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Files != nil {
		return wrapped.Files
	}

	logging.APIDebug("unrecognized file list shape (%d bytes), treating as empty", len(body))
	return []FileRecord{}
}

// UploadFile sends one file as a multipart payload. The file list is not
// returned here; callers re-fetch it via ListFiles.
func (c *Client) UploadFile(ctx context.Context, token, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create multipart payload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to read file contents: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.applicationError(resp)
	}
	return nil
}

// =============================================================================
// HEARTBEAT
// =============================================================================

type heartbeatRequest struct {
	Timestamp int64 `json:"timestamp"`
}

// Heartbeat reports device liveness. The response body is ignored; callers
// treat any error as best-effort telemetry loss, never a user-facing fault.
func (c *Client) Heartbeat(ctx context.Context, token string) error {
	body, err := json.Marshal(heartbeatRequest{Timestamp: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/heartbeat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Client) setCommonHeaders(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// applicationError builds an *APIError from a non-2xx response, pulling the
// backend's {detail} message when one is present.
func (c *Client) applicationError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil {
		apiErr.Detail = detail.Detail
	}
	return apiErr
}
