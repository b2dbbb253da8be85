package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/signalsfoundry/delivery-aircraft-sim/internal/netrid"
	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	ctype  string
	body   []byte
}

// newServer answers every request with status and body, recording the last
// request it saw.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*rec = recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			ctype:  r.Header.Get("Content-Type"),
			body:   b,
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

type fakeRecorder struct {
	ops  []string
	errs []error
}

func (f *fakeRecorder) ObserveRequest(op string, err error) {
	f.ops = append(f.ops, op)
	f.errs = append(f.errs, err)
}

func TestAcquireTokenStripsQuotes(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `"abc123"`)
	c := NewTelemetryClient(srv.URL+"/telemetry", WithHTTPClient(srv.Client()))

	tok, err := c.AcquireToken(context.Background(), "AETH-00001")
	if err != nil {
		t.Fatalf("AcquireToken: %v", err)
	}
	if tok != "abc123" {
		t.Fatalf("token = %q, want abc123", tok)
	}
	if rec.method != http.MethodGet || rec.path != "/telemetry/login" {
		t.Fatalf("request = %s %s", rec.method, rec.path)
	}
	if string(rec.body) != "AETH-00001" {
		t.Fatalf("body = %q", rec.body)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusInternalServerError, ErrTransient},
		{http.StatusNotFound, ErrTransient},
	}
	for _, tc := range cases {
		srv, _ := newServer(t, tc.status, "")
		c := NewTelemetryClient(srv.URL, WithHTTPClient(srv.Client()))
		_, err := c.AcquireToken(context.Background(), "id")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "")
	url := srv.URL
	srv.Close()

	c := NewOrderClient(url, WithHTTPClient(&http.Client{Timeout: time.Second}))
	if _, err := c.GetOrders(context.Background(), "uuid"); !errors.Is(err, ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}

func TestSendIdentityPostsFrame(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, "")
	metrics := &fakeRecorder{}
	c := NewTelemetryClient(srv.URL, WithHTTPClient(srv.Client()), WithResultRecorder(metrics))

	msg := netrid.BasicID{IDType: netrid.IDTypeCAAAssigned, UAType: netrid.UATypeRotorcraft, UASID: "AETH-00001"}
	if err := c.SendIdentity(context.Background(), "tok", msg); err != nil {
		t.Fatalf("SendIdentity: %v", err)
	}
	if rec.method != http.MethodPost || rec.path != "/netrid" {
		t.Fatalf("request = %s %s", rec.method, rec.path)
	}
	if rec.auth != "Bearer tok" {
		t.Fatalf("auth = %q", rec.auth)
	}
	if rec.ctype != "application/octet-stream" {
		t.Fatalf("content type = %q", rec.ctype)
	}
	if len(rec.body) != netrid.MessageSize {
		t.Fatalf("frame length = %d", len(rec.body))
	}
	if len(metrics.ops) != 1 || metrics.ops[0] != OpIdentity || metrics.errs[0] != nil {
		t.Fatalf("recorded = %v %v", metrics.ops, metrics.errs)
	}
}

func TestSendPositionEncodeErrorSkipsRequest(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, "")
	c := NewTelemetryClient(srv.URL, WithHTTPClient(srv.Client()))

	err := c.SendPosition(context.Background(), "tok", netrid.Location{Latitude: 100, Timestamp: time.Unix(1, 0)})
	if !errors.Is(err, netrid.ErrEncode) {
		t.Fatalf("err = %v, want ErrEncode", err)
	}
	if rec.method != "" {
		t.Fatalf("request sent despite encode failure")
	}
}

func TestGetOrdersDecodesPlans(t *testing.T) {
	payload := `[{
		"flight_id": "f-1",
		"session_id": "s-1",
		"origin_timeslot_start": "2024-05-01T12:00:00Z",
		"origin_timeslot_end": "2024-05-01T12:05:00Z",
		"target_timeslot_start": "2024-05-01T12:20:00Z",
		"target_timeslot_end": "2024-05-01T12:25:00Z",
		"path": [
			{"longitude": 5.1, "latitude": 52.6, "altitude_meters": 0},
			{"longitude": 5.2, "latitude": 52.7, "altitude_meters": 30}
		],
		"acquire": [{"id": "p-1"}],
		"deliver": [{"id": "p-1"}]
	}]`
	srv, rec := newServer(t, http.StatusOK, payload)
	c := NewOrderClient(srv.URL, WithHTTPClient(srv.Client()))

	plans, err := c.GetOrders(context.Background(), "fleet-uuid")
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if rec.path != "/plans" || string(rec.body) != "fleet-uuid" {
		t.Fatalf("request = %s body %q", rec.path, rec.body)
	}
	if len(plans) != 1 {
		t.Fatalf("len(plans) = %d", len(plans))
	}
	fp := plans[0]
	if fp.FlightID != "f-1" || fp.SessionID != "s-1" {
		t.Fatalf("ids = %q %q", fp.FlightID, fp.SessionID)
	}
	if fp.Remaining() != 2 {
		t.Fatalf("Remaining = %d", fp.Remaining())
	}
	if want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC); !fp.OriginWindowStart.Equal(want) {
		t.Fatalf("origin start = %v", fp.OriginWindowStart)
	}
	if len(fp.Acquire) != 1 || fp.Deliver[0].ID != "p-1" {
		t.Fatalf("manifest = %+v %+v", fp.Acquire, fp.Deliver)
	}
	last := fp.Path()[1]
	if last.AltitudeMeters != 30 {
		t.Fatalf("altitude = %v", last.AltitudeMeters)
	}
}

func TestGetOrdersBadJSONIsTransient(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, "{not json")
	c := NewOrderClient(srv.URL, WithHTTPClient(srv.Client()))
	if _, err := c.GetOrders(context.Background(), "u"); !errors.Is(err, ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}

func TestEmptyPathPayloadIsComplete(t *testing.T) {
	fp := FlightPlanPayload{FlightID: "f", SessionID: "s"}.ToFlightPlan()
	if !fp.Complete() {
		t.Fatalf("plan without waypoints should be complete")
	}
}

func TestAcknowledgeOrderBody(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, "")
	c := NewOrderClient(srv.URL, WithHTTPClient(srv.Client()))

	if err := c.AcknowledgeOrder(context.Background(), "f-9"); err != nil {
		t.Fatalf("AcknowledgeOrder: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["fp_id"] != "f-9" || got["status"] != "Confirm" {
		t.Fatalf("body = %v", got)
	}
	if rec.method != http.MethodPost || rec.path != "/acknowledge" {
		t.Fatalf("request = %s %s", rec.method, rec.path)
	}
}

func TestScanParcelBody(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, "")
	c := NewCargoClient(srv.URL, WithHTTPClient(srv.Client()))

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := c.ScanParcel(context.Background(), model.CargoScan{
		AircraftID: "AETH-00001",
		ScannerID:  "scanner-1",
		CargoID:    "p-1",
		Latitude:   52.6,
		Longitude:  5.1,
		Timestamp:  ts,
	})
	if err != nil {
		t.Fatalf("ScanParcel: %v", err)
	}
	if rec.method != http.MethodPut || rec.path != "/scan" {
		t.Fatalf("request = %s %s", rec.method, rec.path)
	}
	var got scanRequest
	if err := json.Unmarshal(rec.body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.ScannerID != "scanner-1" || got.CargoID != "p-1" || !got.Timestamp.Equal(ts) {
		t.Fatalf("body = %+v", got)
	}
}
