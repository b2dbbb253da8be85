package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// registerPlanMetrics adds the planner and session metrics to c.
func (c *AircraftCollector) registerPlanMetrics(reg prometheus.Registerer) error {
	activated, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aircraft_plans_activated_total",
		Help: "Flight plans promoted to current.",
	}), "aircraft_plans_activated_total")
	if err != nil {
		return err
	}
	completed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aircraft_plans_completed_total",
		Help: "Flight plans flown to their last waypoint.",
	}), "aircraft_plans_completed_total")
	if err != nil {
		return err
	}

	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aircraft_orders_received_total",
		Help: "Flight plans received from the order service, labeled by merge outcome.",
	}, []string{"outcome"})
	orders, err = registerCounterVec(reg, orders, "aircraft_orders_received_total")
	if err != nil {
		return err
	}

	pending, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aircraft_pending_plans",
		Help: "Flight plans waiting for their departure window.",
	}), "aircraft_pending_plans")
	if err != nil {
		return err
	}

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aircraft_token_acquisitions_total",
		Help: "Telemetry token acquisition attempts, labeled by result.",
	}, []string{"result"})
	tokens, err = registerCounterVec(reg, tokens, "aircraft_token_acquisitions_total")
	if err != nil {
		return err
	}
	invalidations, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aircraft_token_invalidations_total",
		Help: "Tokens dropped after a rejected report.",
	}), "aircraft_token_invalidations_total")
	if err != nil {
		return err
	}

	c.PlansActivated = activated
	c.PlansCompleted = completed
	c.OrdersReceived = orders
	c.PendingPlans = pending
	c.TokenAcquisitions = tokens
	c.TokenInvalidations = invalidations
	return nil
}

// IncPlansActivated increments the activation counter.
func (c *AircraftCollector) IncPlansActivated() {
	if c == nil || c.PlansActivated == nil {
		return
	}
	c.PlansActivated.Inc()
}

// IncPlansCompleted increments the completion counter.
func (c *AircraftCollector) IncPlansCompleted() {
	if c == nil || c.PlansCompleted == nil {
		return
	}
	c.PlansCompleted.Inc()
}

// IncOrders counts one received plan with its merge outcome.
func (c *AircraftCollector) IncOrders(outcome string) {
	if c == nil || c.OrdersReceived == nil {
		return
	}
	c.OrdersReceived.WithLabelValues(outcome).Inc()
}

// SetPendingPlans updates the pending queue depth gauge.
func (c *AircraftCollector) SetPendingPlans(n int) {
	if c == nil || c.PendingPlans == nil {
		return
	}
	if n < 0 {
		n = 0
	}
	c.PendingPlans.Set(float64(n))
}

// IncTokenAcquisitions counts one token acquisition attempt.
func (c *AircraftCollector) IncTokenAcquisitions(result string) {
	if c == nil || c.TokenAcquisitions == nil {
		return
	}
	c.TokenAcquisitions.WithLabelValues(result).Inc()
}

// IncTokenInvalidations counts one dropped token.
func (c *AircraftCollector) IncTokenInvalidations() {
	if c == nil || c.TokenInvalidations == nil {
		return
	}
	c.TokenInvalidations.Inc()
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
