package core

import (
	"math"

	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

// EarthRadiusMeters is the mean Earth radius used for all great-circle
// calculations (metres).
const EarthRadiusMeters = 6371008.8

func toRadians(deg float64) float64 { return deg * math.Pi / 180.0 }
func toDegrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// DistanceMeters returns the haversine great-circle distance between two
// points. Altitude is ignored.
func DistanceMeters(p1, p2 model.Position) float64 {
	lat1 := toRadians(p1.Latitude)
	lat2 := toRadians(p2.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(p2.Longitude - p1.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Min(1, math.Sqrt(a)))
	return EarthRadiusMeters * c
}

// BearingDegrees returns the initial great-circle bearing from p1 towards p2
// in (-180, 180]. 0° is north, 90° is east.
func BearingDegrees(p1, p2 model.Position) float64 {
	lat1 := toRadians(p1.Latitude)
	lat2 := toRadians(p2.Latitude)
	dLon := toRadians(p2.Longitude - p1.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := toDegrees(math.Atan2(y, x))
	if deg == -180 {
		return 180
	}
	return deg
}

// Destination returns the point reached by travelling distanceMeters from p
// along an initial bearing of bearingDeg. Altitude is carried over unchanged.
func Destination(p model.Position, bearingDeg, distanceMeters float64) model.Position {
	if distanceMeters == 0 {
		return p
	}
	lat1 := toRadians(p.Latitude)
	lon1 := toRadians(p.Longitude)
	theta := toRadians(bearingDeg)
	delta := distanceMeters / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return model.Position{
		Longitude:      normalizeLongitude(toDegrees(lon2)),
		Latitude:       toDegrees(lat2),
		AltitudeMeters: p.AltitudeMeters,
	}
}

// NormalizeDegrees maps any angle onto [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon == -180 {
		return 180
	}
	return lon
}

// PathLengthMeters sums the great-circle distances between consecutive
// waypoints.
func PathLengthMeters(path []model.Waypoint) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += DistanceMeters(path[i-1], path[i])
	}
	return total
}
