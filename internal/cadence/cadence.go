// Package cadence holds the fixed-period reporting triggers evaluated on every
// tick against wall-clock deltas.
package cadence

import "time"

const (
	// IdentityPeriod is the minimum gap between identity broadcasts.
	IdentityPeriod = 2000 * time.Millisecond
	// PositionPeriod is the minimum gap between position broadcasts.
	PositionPeriod = 500 * time.Millisecond
	// OrderPollPeriod is the minimum gap between order service polls.
	OrderPollPeriod = 15000 * time.Millisecond
)

// Trigger fires once at least Period has passed since the last success. It
// holds no state of its own: the last-fired timestamp lives with the caller
// and is only advanced after the triggered call succeeds.
type Trigger struct {
	Name   string
	Period time.Duration
}

// Due reports whether the trigger should fire at now given the last success.
// A zero last always fires.
func (t Trigger) Due(last, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= t.Period
}

// Schedule is the set of triggers evaluated every tick.
type Schedule struct {
	Identity  Trigger
	Position  Trigger
	OrderPoll Trigger
}

// DefaultSchedule returns the standard reporting periods.
func DefaultSchedule() Schedule {
	return Schedule{
		Identity:  Trigger{Name: "identity", Period: IdentityPeriod},
		Position:  Trigger{Name: "position", Period: PositionPeriod},
		OrderPoll: Trigger{Name: "order_poll", Period: OrderPollPeriod},
	}
}

// ApplyDefaults fills non-positive periods with the standard ones.
func (s Schedule) ApplyDefaults() Schedule {
	d := DefaultSchedule()
	if s.Identity.Period <= 0 {
		s.Identity = d.Identity
	}
	if s.Position.Period <= 0 {
		s.Position = d.Position
	}
	if s.OrderPoll.Period <= 0 {
		s.OrderPoll = d.OrderPoll
	}
	if s.Identity.Name == "" {
		s.Identity.Name = d.Identity.Name
	}
	if s.Position.Name == "" {
		s.Position.Name = d.Position.Name
	}
	if s.OrderPoll.Name == "" {
		s.OrderPoll.Name = d.OrderPoll.Name
	}
	return s
}
