// Package remote contains the HTTP clients for the telemetry (Remote ID),
// order and cargo services.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrUnauthorized is returned when the service rejects the credentials
	// (401/403). Callers should drop their token.
	ErrUnauthorized = errors.New("remote: unauthorized")
	// ErrTransient covers every other failure: transport errors, unexpected
	// status codes and undecodable bodies.
	ErrTransient = errors.New("remote: transient failure")
)

// DefaultTimeout bounds every request made by NewHTTPClient clients.
const DefaultTimeout = 5 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// NewHTTPClient returns an http.Client whose transport emits client spans.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// ResultRecorder observes the outcome of each request by operation name.
type ResultRecorder interface {
	ObserveRequest(operation string, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObserveRequest(string, error) {}

// baseClient holds what every service client shares.
type baseClient struct {
	baseURL  string
	http     *http.Client
	recorder ResultRecorder
}

// Option configures a service client.
type Option func(*baseClient)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *baseClient) {
		if c != nil {
			b.http = c
		}
	}
}

// WithResultRecorder reports each request outcome to r.
func WithResultRecorder(r ResultRecorder) Option {
	return func(b *baseClient) {
		if r != nil {
			b.recorder = r
		}
	}
}

func newBaseClient(baseURL string, opts []Option) baseClient {
	b := baseClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(&b)
	}
	if b.http == nil {
		b.http = NewHTTPClient(DefaultTimeout)
	}
	return b
}

type request struct {
	operation   string
	method      string
	path        string
	contentType string
	token       string
	body        []byte
}

// do sends req and returns the body of a 200 response.
func (b *baseClient) do(ctx context.Context, req request) (body []byte, err error) {
	defer func() { b.recorder.ObserveRequest(req.operation, err) }()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, b.baseURL+req.path, bytes.NewReader(req.body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: build request: %v", ErrTransient, req.operation, err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := b.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransient, req.operation, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrTransient, req.operation, err)
	}
	if err := statusError(req.operation, resp.StatusCode); err != nil {
		return nil, err
	}
	return body, nil
}

func statusError(operation string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s: status %d", ErrUnauthorized, operation, code)
	default:
		return fmt.Errorf("%w: %s: status %d", ErrTransient, operation, code)
	}
}
