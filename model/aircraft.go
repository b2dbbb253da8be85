package model

import (
	"math"
	"time"
)

// OperationalStatus is the Remote ID flight status of the aircraft.
type OperationalStatus int

const (
	StatusUndeclared OperationalStatus = iota
	StatusGround
	StatusAirborne
)

func (s OperationalStatus) String() string {
	switch s {
	case StatusGround:
		return "ground"
	case StatusAirborne:
		return "airborne"
	default:
		return "undeclared"
	}
}

// AircraftState is the live record of the simulated aircraft. It has a single
// owner (the tick loop) and is never shared between goroutines.
type AircraftState struct {
	ID        string
	ScannerID string

	// CurrentPlan is the plan being flown. At most one plan is current.
	CurrentPlan *FlightPlan

	Position         Position
	GroundVelocity   float64 // m/s
	VerticalVelocity float64 // m/s

	trackAngle float64 // degrees in [0, 360)

	LastIdentityUpdate time.Time
	LastPositionUpdate time.Time
	LastOrderPoll      time.Time
	LastTick           time.Time
}

// NewAircraftState returns an idle aircraft parked at pos.
func NewAircraftState(id, scannerID string, pos Position) *AircraftState {
	return &AircraftState{
		ID:        id,
		ScannerID: scannerID,
		Position:  pos,
	}
}

// TrackAngle returns the heading over ground in degrees, in [0, 360).
func (s *AircraftState) TrackAngle() float64 {
	return s.trackAngle
}

// SetTrackAngle stores deg normalized to [0, 360).
func (s *AircraftState) SetTrackAngle(deg float64) {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		s.trackAngle = 0
		return
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	s.trackAngle = deg
}

// Status derives the operational status from whether a plan is being flown.
func (s *AircraftState) Status() OperationalStatus {
	if s.CurrentPlan != nil {
		return StatusAirborne
	}
	return StatusGround
}

// Halt zeroes both velocity components.
func (s *AircraftState) Halt() {
	s.GroundVelocity = 0
	s.VerticalVelocity = 0
}

// MarkIdentityUpdate records a successful identity broadcast.
func (s *AircraftState) MarkIdentityUpdate(t time.Time) { advance(&s.LastIdentityUpdate, t) }

// MarkPositionUpdate records a successful position broadcast.
func (s *AircraftState) MarkPositionUpdate(t time.Time) { advance(&s.LastPositionUpdate, t) }

// MarkOrderPoll records a successful order poll.
func (s *AircraftState) MarkOrderPoll(t time.Time) { advance(&s.LastOrderPoll, t) }

// MarkTick records the end of a tick.
func (s *AircraftState) MarkTick(t time.Time) { advance(&s.LastTick, t) }

// advance moves *dst forward to t; cadence timestamps never go backwards.
func advance(dst *time.Time, t time.Time) {
	if t.After(*dst) {
		*dst = t
	}
}
