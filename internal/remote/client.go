// Package remote is the client for the upstream health API. Every call
// forwards the caller's bearer token and checks the response status against
// the code the operation expects.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status from remote api")
	ErrInvalidPayload   = errors.New("invalid payload from remote api")
	ErrUnavailable      = errors.New("remote api unavailable")
)

// StatusError is returned when the remote answers with a status other than
// the expected one.
type StatusError struct {
	Op       string
	Status   int
	Expected []int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: remote returned status %d, expected %v", e.Op, e.Status, e.Expected)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// StatusOf reports the remote status carried by err, or 0.
func StatusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

type Client struct {
	http *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

type tokenKey struct{}

// WithToken attaches the bearer token that outgoing calls forward.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token := tokenFrom(ctx); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// Ping reports whether the remote answers at all. Any status below 500 counts
// as reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.request(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("ping remote failed: %w: %w", ErrUnavailable, err)
	}
	if res.StatusCode() >= http.StatusInternalServerError {
		return &StatusError{Op: "ping", Status: res.StatusCode(), Expected: []int{http.StatusOK}}
	}
	return nil
}

// do sends the request and verifies the status code.
func do(op string, req *resty.Request, method, path string, expected ...int) (*resty.Response, error) {
	res, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ErrUnavailable, err)
	}
	for _, code := range expected {
		if res.StatusCode() == code {
			return res, nil
		}
	}
	return res, &StatusError{Op: op, Status: res.StatusCode(), Expected: expected, Body: truncate(res.String(), 512)}
}

// Decode unmarshals a response body into out. Bodies wrapped in a
// {"data": ...} envelope (optionally with status/message/success/code
// siblings) are unwrapped first.
func Decode(body []byte, out any) error {
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}
	payload := unwrapEnvelope(body)
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func unwrapEnvelope(body []byte) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return body
	}
	data, ok := obj["data"]
	if !ok {
		return body
	}
	for key := range obj {
		switch key {
		case "data", "status", "message", "success", "code", "error":
		default:
			return body
		}
	}
	if string(data) == "null" {
		return body
	}
	return data
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
