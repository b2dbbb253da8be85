package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/signalsfoundry/delivery-aircraft-sim/internal/netrid"
)

// Operation names reported to the ResultRecorder.
const (
	OpLogin    = "login"
	OpIdentity = "identity"
	OpPosition = "position"
	OpOrders   = "orders"
	OpAck      = "acknowledge"
	OpScan     = "scan"
)

// TelemetryClient talks to the telemetry service. The base URL includes the
// service prefix, e.g. http://host:8080/telemetry.
type TelemetryClient struct {
	baseClient
}

// NewTelemetryClient returns a client rooted at baseURL.
func NewTelemetryClient(baseURL string, opts ...Option) *TelemetryClient {
	return &TelemetryClient{baseClient: newBaseClient(baseURL, opts)}
}

// AcquireToken logs in with identifier and returns the bearer token.
func (c *TelemetryClient) AcquireToken(ctx context.Context, identifier string) (string, error) {
	body, err := c.do(ctx, request{
		operation:   OpLogin,
		method:      http.MethodGet,
		path:        "/login",
		contentType: "text/plain",
		body:        []byte(identifier),
	})
	if err != nil {
		return "", err
	}
	token := strings.ReplaceAll(strings.TrimSpace(string(body)), `"`, "")
	if token == "" {
		return "", fmt.Errorf("%w: %s: empty token", ErrTransient, OpLogin)
	}
	return token, nil
}

// SendIdentity posts a Basic ID message.
func (c *TelemetryClient) SendIdentity(ctx context.Context, token string, msg netrid.BasicID) error {
	frame, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	return c.postFrame(ctx, OpIdentity, token, frame)
}

// SendPosition posts a Location message.
func (c *TelemetryClient) SendPosition(ctx context.Context, token string, msg netrid.Location) error {
	frame, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	return c.postFrame(ctx, OpPosition, token, frame)
}

func (c *TelemetryClient) postFrame(ctx context.Context, op, token string, frame []byte) error {
	_, err := c.do(ctx, request{
		operation:   op,
		method:      http.MethodPost,
		path:        "/netrid",
		contentType: "application/octet-stream",
		token:       token,
		body:        frame,
	})
	return err
}
