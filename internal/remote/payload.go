package remote

import (
	"time"

	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

// PointPayload is a waypoint as served by the order service.
type PointPayload struct {
	Longitude      float64 `json:"longitude"`
	Latitude       float64 `json:"latitude"`
	AltitudeMeters float64 `json:"altitude_meters"`
}

// ParcelPayload is a manifest entry.
type ParcelPayload struct {
	ID string `json:"id"`
}

// FlightPlanPayload is the order service's representation of a plan.
type FlightPlanPayload struct {
	FlightID            string          `json:"flight_id"`
	SessionID           string          `json:"session_id"`
	OriginTimeslotStart time.Time       `json:"origin_timeslot_start"`
	OriginTimeslotEnd   time.Time       `json:"origin_timeslot_end"`
	TargetTimeslotStart time.Time       `json:"target_timeslot_start"`
	TargetTimeslotEnd   time.Time       `json:"target_timeslot_end"`
	Path                []PointPayload  `json:"path"`
	Acquire             []ParcelPayload `json:"acquire"`
	Deliver             []ParcelPayload `json:"deliver"`
}

// ToFlightPlan converts the payload. A payload without waypoints yields a
// plan that is already complete.
func (p FlightPlanPayload) ToFlightPlan() *model.FlightPlan {
	path := make([]model.Waypoint, 0, len(p.Path))
	for _, pt := range p.Path {
		path = append(path, model.Waypoint{
			Longitude:      pt.Longitude,
			Latitude:       pt.Latitude,
			AltitudeMeters: pt.AltitudeMeters,
		})
	}

	fp := model.NewFlightPlan(p.FlightID, p.SessionID, path)
	fp.OriginWindowStart = p.OriginTimeslotStart
	fp.OriginWindowEnd = p.OriginTimeslotEnd
	fp.TargetWindowStart = p.TargetTimeslotStart
	fp.TargetWindowEnd = p.TargetTimeslotEnd
	fp.Acquire = toParcels(p.Acquire)
	fp.Deliver = toParcels(p.Deliver)
	return fp
}

func toParcels(in []ParcelPayload) []model.Parcel {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Parcel, len(in))
	for i, p := range in {
		out[i] = model.Parcel{ID: p.ID}
	}
	return out
}

type ackRequest struct {
	FlightID string `json:"fp_id"`
	Status   string `json:"status"`
}

const ackStatusConfirm = "Confirm"

type scanRequest struct {
	ScannerID string    `json:"scanner_id"`
	CargoID   string    `json:"cargo_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}
