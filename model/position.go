package model

import "fmt"

// Position is a geographic point in degrees with altitude in metres.
type Position struct {
	Longitude      float64
	Latitude       float64
	AltitudeMeters float64
}

// Waypoint is a single 3-D target along a flight plan path.
type Waypoint = Position

func (p Position) String() string {
	return fmt.Sprintf("(lon=%.6f lat=%.6f alt=%.1fm)", p.Longitude, p.Latitude, p.AltitudeMeters)
}
