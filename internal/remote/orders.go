package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

// OrderClient polls the fleet-coordination service for flight plans.
type OrderClient struct {
	baseClient
}

// NewOrderClient returns a client rooted at baseURL.
func NewOrderClient(baseURL string, opts ...Option) *OrderClient {
	return &OrderClient{baseClient: newBaseClient(baseURL, opts)}
}

// GetOrders fetches the plans assigned to fleetUUID.
func (c *OrderClient) GetOrders(ctx context.Context, fleetUUID string) ([]*model.FlightPlan, error) {
	body, err := c.do(ctx, request{
		operation:   OpOrders,
		method:      http.MethodGet,
		path:        "/plans",
		contentType: "application/json",
		body:        []byte(fleetUUID),
	})
	if err != nil {
		return nil, err
	}

	var payloads []FlightPlanPayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", ErrTransient, OpOrders, err)
	}
	plans := make([]*model.FlightPlan, 0, len(payloads))
	for _, p := range payloads {
		plans = append(plans, p.ToFlightPlan())
	}
	return plans, nil
}

// AcknowledgeOrder confirms receipt of flightID.
func (c *OrderClient) AcknowledgeOrder(ctx context.Context, flightID string) error {
	body, err := json.Marshal(ackRequest{FlightID: flightID, Status: ackStatusConfirm})
	if err != nil {
		return fmt.Errorf("%w: %s: encode: %v", ErrTransient, OpAck, err)
	}
	_, err = c.do(ctx, request{
		operation:   OpAck,
		method:      http.MethodPost,
		path:        "/acknowledge",
		contentType: "application/json",
		body:        body,
	})
	return err
}
