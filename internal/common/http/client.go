// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	perrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/metrics"
)

// Session supplies the bearer token and is told when the server rejects it.
type Session interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// Request describes one call against the portal backend.
type Request struct {
	Method string
	Path   string
	Body   interface{}
	// Endpoint is the low-cardinality metric label, e.g. "applications.update".
	Endpoint string
	// Authenticated requests carry the session's bearer token.
	Authenticated bool
	// Mutation marks calls on an existing application; 403 then means not editable.
	Mutation      bool
	ApplicationID string
	// Accept overrides the default application/json, e.g. for document downloads.
	Accept string
}

// Response is a completed 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	logger     logger.Logger
}

// NewClient builds a client for baseURL. A zero timeout keeps the runtime default.
func NewClient(baseURL string, timeout time.Duration, session Session, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		session: session,
		logger:  logger.ForComponent(log, "api-client"),
	}
}

// Do sends req and maps every non-2xx status onto the portal error taxonomy.
// A 401 on an authenticated request invalidates the session first, whatever
// the body says. Unauthenticated calls such as login keep the server message.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Method + " " + req.Path
	}

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Authenticated {
		token, err := c.token(ctx)
		if err != nil || token == "" {
			c.invalidate(ctx)
			metrics.APIRequestsTotal.WithLabelValues(endpoint, "unauthorized").Inc()
			return nil, perrors.NewUnauthorizedError("no stored token")
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "network_failure").Inc()
		c.logger.Warn("request failed before completion", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err,
		})
		return nil, perrors.NewNetworkFailureError(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "network_failure").Inc()
		return nil, perrors.NewNetworkFailureError(endpoint, fmt.Errorf("read response body: %w", err))
	}

	c.logger.Debug("response received", map[string]interface{}{
		"endpoint":   endpoint,
		"statusCode": resp.StatusCode,
		"requestId":  httpReq.Header.Get("X-Request-ID"),
	})

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
	}

	stdErr := c.mapStatus(ctx, req, resp.StatusCode, body)
	metrics.APIRequestsTotal.WithLabelValues(endpoint, strings.ToLower(string(stdErr.Code))).Inc()
	return nil, stdErr
}

// DoJSON sends req and decodes the response's data payload into out (if non-nil).
func (c *Client) DoJSON(ctx context.Context, req Request, out interface{}) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := DecodeData(resp.Body, out); err != nil {
		endpoint := req.Endpoint
		if endpoint == "" {
			endpoint = req.Method + " " + req.Path
		}
		return perrors.NewDecodeFailedError(endpoint, err)
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, perrors.NewInvalidPayloadError(fmt.Sprintf("marshal body: %v", err))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, perrors.NewInvalidPayloadError(fmt.Sprintf("build request: %v", err))
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	return httpReq, nil
}

func (c *Client) mapStatus(ctx context.Context, req Request, status int, body []byte) *perrors.StandardError {
	msg := ServerMessage(body)

	switch {
	case status == http.StatusUnauthorized && req.Authenticated:
		c.invalidate(ctx)
		return perrors.NewUnauthorizedError(fmt.Sprintf("status %d", status))
	case status == http.StatusConflict,
		status == http.StatusForbidden && req.Mutation:
		return perrors.NewNotEditableError(req.ApplicationID, msg)
	case status == http.StatusNotFound,
		status == http.StatusForbidden && req.Authenticated:
		return perrors.NewNotFoundError(req.Path)
	case status >= 500:
		return perrors.NewServerError(status, msg)
	default:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return perrors.NewValidationRejectedError(status, msg)
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.session == nil {
		return "", fmt.Errorf("no session configured")
	}
	return c.session.Token(ctx)
}

func (c *Client) invalidate(ctx context.Context) {
	if c.session != nil {
		c.session.Invalidate(ctx)
	}
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// DecodeData decodes {"data": ...} envelopes, falling back to the bare body.
func DecodeData(body []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(body, out)
}

const maxMessageBytes = 200

// ServerMessage extracts a human-readable message from an error body.
func ServerMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxMessageBytes {
		cut := maxMessageBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
