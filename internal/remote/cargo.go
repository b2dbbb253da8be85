package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

// CargoClient reports parcel scans to the cargo service.
type CargoClient struct {
	baseClient
}

// NewCargoClient returns a client rooted at baseURL.
func NewCargoClient(baseURL string, opts ...Option) *CargoClient {
	return &CargoClient{baseClient: newBaseClient(baseURL, opts)}
}

// ScanParcel records a pickup or delivery scan.
func (c *CargoClient) ScanParcel(ctx context.Context, scan model.CargoScan) error {
	body, err := json.Marshal(scanRequest{
		ScannerID: scan.ScannerID,
		CargoID:   scan.CargoID,
		Latitude:  scan.Latitude,
		Longitude: scan.Longitude,
		Timestamp: scan.Timestamp.UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: encode: %v", ErrTransient, OpScan, err)
	}
	_, err = c.do(ctx, request{
		operation:   OpScan,
		method:      http.MethodPut,
		path:        "/scan",
		contentType: "application/json",
		body:        body,
	})
	return err
}
