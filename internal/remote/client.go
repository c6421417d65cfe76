package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrInvalidServerData marks a 2xx response whose payload is missing
// the server-assigned identifier or is otherwise unusable.
var ErrInvalidServerData = errors.New("invalid data received from server")

// APIError carries a server-rejected request: the backend's message,
// the HTTP status code, and the raw body so callers can branch.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// TokenSource supplies the bearer token attached to authenticated
// calls. Absent token means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// StaticToken is a fixed-token source, mostly for tests and scripts.
type StaticToken string

func (t StaticToken) Token(_ context.Context) (string, bool) {
	return string(t), t != ""
}

// TokenFunc adapts a function to a TokenSource.
type TokenFunc func(ctx context.Context) (string, bool)

func (f TokenFunc) Token(ctx context.Context) (string, bool) { return f(ctx) }

// NoToken never supplies a token.
type NoToken struct{}

func (NoToken) Token(_ context.Context) (string, bool) { return "", false }

// Client is a typed wrapper over the backend REST surface. Responses
// arrive in a {status, message, data} envelope; non-2xx responses
// surface as *APIError. Record identifiers are normalized from the
// backend's _id to the local id here, so no consumer ever sees the
// raw shape.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *logrus.Entry
}

func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if tokens == nil {
		tokens = NoToken{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     logrus.WithField("component", "remote"),
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do performs one JSON round trip. When out is non-nil the envelope's
// data field is decoded into it.
func (c *Client) do(ctx context.Context, method string, path string, query url.Values, body any, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token, ok := c.tokens.Token(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		message := "request failed"
		if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
			message = env.Message
		}
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn(message)
		return &APIError{StatusCode: resp.StatusCode, Message: message, Body: raw}
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServerData, err)
	}
	data := env.Data
	if len(data) == 0 || string(data) == "null" {
		// Some endpoints respond without the envelope.
		data = raw
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServerData, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
