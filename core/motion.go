package core

import (
	"time"

	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

const (
	// ArrivalRadiusMeters is the horizontal distance below which a waypoint
	// counts as reached.
	ArrivalRadiusMeters = 10.0

	// DefaultFallbackSpeed replaces a non-positive ground velocity when a leg
	// duration has to be derived from it (m/s).
	DefaultFallbackSpeed = 10.0
)

// Step describes what a single Advance call did to the aircraft.
type Step struct {
	// Elapsed is the integration interval.
	Elapsed time.Duration
	// Travelled is the horizontal distance covered in metres.
	Travelled float64
	// Arrived is set when the front waypoint was reached and popped.
	Arrived bool
	// Reached is the waypoint that was popped when Arrived is set.
	Reached model.Waypoint
	// Remaining is the number of waypoints left on the current plan.
	Remaining int
}

// MotionEngine integrates the aircraft along constant-velocity great-circle
// legs. Velocity is fixed per leg and only recomputed on arrival or when a plan
// is activated.
type MotionEngine struct {
	ArrivalRadius float64
	FallbackSpeed float64
}

// MotionOption customises a MotionEngine.
type MotionOption func(*MotionEngine)

// WithArrivalRadius overrides ArrivalRadiusMeters.
func WithArrivalRadius(meters float64) MotionOption {
	return func(m *MotionEngine) {
		if meters > 0 {
			m.ArrivalRadius = meters
		}
	}
}

// WithFallbackSpeed overrides DefaultFallbackSpeed.
func WithFallbackSpeed(mps float64) MotionOption {
	return func(m *MotionEngine) {
		if mps > 0 {
			m.FallbackSpeed = mps
		}
	}
}

// NewMotionEngine constructs an engine with default tuning.
func NewMotionEngine(opts ...MotionOption) *MotionEngine {
	m := &MotionEngine{
		ArrivalRadius: ArrivalRadiusMeters,
		FallbackSpeed: DefaultFallbackSpeed,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Advance moves the aircraft from its position at last to its position at now
// and handles arrival at the front waypoint. Without a current plan the
// aircraft holds position.
func (m *MotionEngine) Advance(s *model.AircraftState, now, last time.Time) Step {
	plan := s.CurrentPlan
	if plan == nil {
		return Step{}
	}

	elapsed := now.Sub(last)
	if elapsed < 0 {
		elapsed = 0
	}
	elapsedS := float64(elapsed.Milliseconds()) / 1000.0

	s.Position.AltitudeMeters += s.VerticalVelocity * elapsedS

	travelled := s.GroundVelocity * elapsedS
	next := Destination(s.Position, s.TrackAngle(), travelled)
	s.Position.Longitude = next.Longitude
	s.Position.Latitude = next.Latitude

	step := Step{Elapsed: elapsed, Travelled: travelled, Remaining: plan.Remaining()}

	target, ok := plan.Next()
	if !ok {
		return step
	}
	if DistanceMeters(s.Position, target) >= m.ArrivalRadius {
		return step
	}

	plan.PopNext()
	step.Arrived = true
	step.Reached = target
	step.Remaining = plan.Remaining()

	m.RecomputeVelocity(s)
	return step
}

// RecomputeVelocity points the aircraft at the front waypoint of the current
// plan. The leg duration is derived from the current ground velocity, so the
// horizontal speed carries over from the previous leg while vertical velocity
// is chosen to reach the waypoint altitude on arrival.
func (m *MotionEngine) RecomputeVelocity(s *model.AircraftState) {
	if s.CurrentPlan == nil {
		return
	}
	target, ok := s.CurrentPlan.Next()
	if !ok {
		return
	}

	if s.GroundVelocity <= 0 {
		s.GroundVelocity = m.fallbackSpeed()
	}

	distance := DistanceMeters(s.Position, target)
	if distance > 0 {
		timeToNextS := distance / s.GroundVelocity
		s.VerticalVelocity = (target.AltitudeMeters - s.Position.AltitudeMeters) / timeToNextS
	} else {
		s.VerticalVelocity = 0
	}

	s.SetTrackAngle(BearingDegrees(s.Position, target))
}

func (m *MotionEngine) fallbackSpeed() float64 {
	if m.FallbackSpeed > 0 {
		return m.FallbackSpeed
	}
	return DefaultFallbackSpeed
}
