package model

import "time"

// Parcel is a single cargo item on a pickup or delivery manifest.
type Parcel struct {
	ID string
}

// FlightPlan is a delivery assignment: an ordered path of waypoints plus the
// cargo to collect at departure and drop at arrival.
//
// The path is consumed strictly from the front and never grows after
// construction. A plan is complete exactly when its path is empty.
type FlightPlan struct {
	FlightID  string
	SessionID string

	// OriginWindowStart/End bound when the plan may depart. Pending plans are
	// ordered by OriginWindowStart; a plan becomes eligible once
	// OriginWindowEnd has passed.
	OriginWindowStart time.Time
	OriginWindowEnd   time.Time

	// TargetWindowStart is when the cargo is due at the destination.
	TargetWindowStart time.Time
	TargetWindowEnd   time.Time

	Acquire []Parcel
	Deliver []Parcel

	path []Waypoint
}

// NewFlightPlan builds a plan over a private copy of path.
func NewFlightPlan(flightID, sessionID string, path []Waypoint) *FlightPlan {
	p := make([]Waypoint, len(path))
	copy(p, path)
	return &FlightPlan{
		FlightID:  flightID,
		SessionID: sessionID,
		path:      p,
	}
}

// Next returns the front waypoint without removing it.
func (fp *FlightPlan) Next() (Waypoint, bool) {
	if fp == nil || len(fp.path) == 0 {
		return Waypoint{}, false
	}
	return fp.path[0], true
}

// PopNext removes and returns the front waypoint.
func (fp *FlightPlan) PopNext() (Waypoint, bool) {
	if fp == nil || len(fp.path) == 0 {
		return Waypoint{}, false
	}
	wp := fp.path[0]
	fp.path = fp.path[1:]
	return wp, true
}

// Remaining returns the number of waypoints still ahead.
func (fp *FlightPlan) Remaining() int {
	if fp == nil {
		return 0
	}
	return len(fp.path)
}

// Complete reports whether every waypoint has been consumed.
func (fp *FlightPlan) Complete() bool {
	return fp.Remaining() == 0
}

// Path returns a copy of the remaining waypoints, front first.
func (fp *FlightPlan) Path() []Waypoint {
	if fp == nil {
		return nil
	}
	out := make([]Waypoint, len(fp.path))
	copy(out, fp.path)
	return out
}

// CargoScan is a single parcel scan reported to the cargo service when a
// manifest item is picked up or delivered.
type CargoScan struct {
	AircraftID string
	ScannerID  string
	CargoID    string
	Latitude   float64
	Longitude  float64
	Timestamp  time.Time
}
