package observability

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/delivery-aircraft-sim/internal/netrid"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/remote"
)

// Request result labels.
const (
	ResultOK           = "ok"
	ResultUnauthorized = "unauthorized"
	ResultTransient    = "transient"
	ResultEncode       = "encode_error"
	ResultError        = "error"
)

// AircraftCollector bundles the Prometheus metrics of a simulated aircraft.
// It satisfies the metrics recorder interfaces of the planner, session and
// remote packages so each can push values from its own code paths.
type AircraftCollector struct {
	gatherer prometheus.Gatherer

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram

	NetworkRequests *prometheus.CounterVec

	PlansActivated     prometheus.Counter
	PlansCompleted     prometheus.Counter
	OrdersReceived     *prometheus.CounterVec
	PendingPlans       prometheus.Gauge
	TokenAcquisitions  *prometheus.CounterVec
	TokenInvalidations prometheus.Counter

	GroundSpeed prometheus.Gauge
	Altitude    prometheus.Gauge
	Airborne    prometheus.Gauge
}

// NewAircraftCollector registers aircraft metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewAircraftCollector(reg prometheus.Registerer) (*AircraftCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aircraft_ticks_total",
		Help: "Total number of simulation ticks executed.",
	}), "aircraft_ticks_total")
	if err != nil {
		return nil, err
	}

	tickDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "aircraft_tick_duration_seconds",
		Help:    "Wall-clock time spent in a single simulation tick.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	}), "aircraft_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aircraft_network_requests_total",
		Help: "Requests to the telemetry, order and cargo services, labeled by operation and result.",
	}, []string{"operation", "result"})
	requests, err = registerCounterVec(reg, requests, "aircraft_network_requests_total")
	if err != nil {
		return nil, err
	}

	groundSpeed, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aircraft_ground_speed_meters_per_second",
		Help: "Current ground speed.",
	}), "aircraft_ground_speed_meters_per_second")
	if err != nil {
		return nil, err
	}
	altitude, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aircraft_altitude_meters",
		Help: "Current altitude.",
	}), "aircraft_altitude_meters")
	if err != nil {
		return nil, err
	}
	airborne, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aircraft_airborne",
		Help: "1 while a flight plan is being flown, 0 otherwise.",
	}), "aircraft_airborne")
	if err != nil {
		return nil, err
	}

	c := &AircraftCollector{
		gatherer:        gatherer,
		Ticks:           ticks,
		TickDuration:    tickDuration,
		NetworkRequests: requests,
		GroundSpeed:     groundSpeed,
		Altitude:        altitude,
		Airborne:        airborne,
	}
	if err := c.registerPlanMetrics(reg); err != nil {
		return nil, err
	}
	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *AircraftCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTick records one completed tick.
func (c *AircraftCollector) ObserveTick(d time.Duration) {
	if c == nil {
		return
	}
	if c.Ticks != nil {
		c.Ticks.Inc()
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
}

// SetFlightState updates the kinematic gauges.
func (c *AircraftCollector) SetFlightState(groundSpeed, altitude float64, airborne bool) {
	if c == nil {
		return
	}
	if c.GroundSpeed != nil {
		c.GroundSpeed.Set(groundSpeed)
	}
	if c.Altitude != nil {
		c.Altitude.Set(altitude)
	}
	if c.Airborne != nil {
		v := 0.0
		if airborne {
			v = 1
		}
		c.Airborne.Set(v)
	}
}

// ObserveRequest satisfies remote.ResultRecorder.
func (c *AircraftCollector) ObserveRequest(operation string, err error) {
	if c == nil || c.NetworkRequests == nil {
		return
	}
	c.NetworkRequests.WithLabelValues(operation, RequestResult(err)).Inc()
}

// RequestResult maps a request error onto a result label.
func RequestResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, remote.ErrUnauthorized):
		return ResultUnauthorized
	case errors.Is(err, remote.ErrTransient):
		return ResultTransient
	case errors.Is(err, netrid.ErrEncode):
		return ResultEncode
	default:
		return ResultError
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
