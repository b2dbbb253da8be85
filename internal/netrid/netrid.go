// Package netrid encodes Remote ID broadcast messages (ASTM F3411 layout).
//
// Every message is 25 bytes: one header byte carrying the message type in the
// high nibble and the protocol version in the low nibble, followed by 24
// bytes of payload.
package netrid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

// MessageSize is the length of every encoded message.
const MessageSize = 25

// ProtocolVersion is written into every header.
const ProtocolVersion = 2

// IDLength is the fixed width of the UAS id field.
const IDLength = 20

// ErrEncode marks a value that cannot be represented on the wire. It signals
// an internal invariant violation rather than a transient condition.
var ErrEncode = errors.New("netrid: encode")

// MessageType identifies the payload that follows the header.
type MessageType uint8

const (
	MessageBasicID  MessageType = 0x0
	MessageLocation MessageType = 0x1
)

// IDType describes what the UAS id field holds.
type IDType uint8

const (
	IDTypeNone            IDType = 0
	IDTypeSerialNumber    IDType = 1
	IDTypeCAAAssigned     IDType = 2
	IDTypeUTMAssigned     IDType = 3
	IDTypeSpecificSession IDType = 4
)

// UAType is the airframe category.
type UAType uint8

const (
	UATypeNone       UAType = 0
	UATypeAeroplane  UAType = 1
	UATypeRotorcraft UAType = 2
)

// Status values for the location message.
const (
	statusUndeclared uint8 = 0
	statusGround     uint8 = 1
	statusAirborne   uint8 = 2
)

// Accuracy codes sent with every location message. The simulated position is
// exact, so the tightest categories are used.
const (
	horizontalAccuracyLt1m uint8  = 12
	verticalAccuracyLt1m   uint8  = 6
	speedAccuracyLt03mps   uint8  = 4
	heightTypeAboveTakeoff uint8  = 0
	heightTypeAboveGround  uint8  = 1
	maxEncodedSpeed        uint8  = 254
	maxVerticalSpeed              = 62.0
	altitudeOffsetMeters          = 1000.0
	altitudeResolution            = 0.5
	latLonScale                   = 1e7
	speedStepLow                  = 0.25
	speedStepHigh                 = 0.75
	speedLowRangeMax              = 255 * speedStepLow
	timestampTenthsPerHour uint16 = 36000
)

func header(t MessageType) byte {
	return byte(t)<<4 | ProtocolVersion
}

// BasicID is the identification message.
type BasicID struct {
	IDType IDType
	UAType UAType
	UASID  string
}

// PadID right-aligns id in a 20-byte space-padded field.
func PadID(id string) ([IDLength]byte, error) {
	var out [IDLength]byte
	if len(id) > IDLength {
		return out, fmt.Errorf("%w: id %q longer than %d bytes", ErrEncode, id, IDLength)
	}
	copy(out[:], strings.Repeat(" ", IDLength-len(id))+id)
	return out, nil
}

// MarshalBinary encodes the message.
func (m BasicID) MarshalBinary() ([]byte, error) {
	if m.IDType > 0x0F || m.UAType > 0x0F {
		return nil, fmt.Errorf("%w: id type %d / ua type %d out of range", ErrEncode, m.IDType, m.UAType)
	}
	id, err := PadID(m.UASID)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, MessageSize)
	buf[0] = header(MessageBasicID)
	buf[1] = byte(m.IDType)<<4 | byte(m.UAType)
	copy(buf[2:2+IDLength], id[:])
	return buf, nil
}

// Location is the position/velocity message.
type Location struct {
	Status            model.OperationalStatus
	TrackDegrees      float64
	GroundSpeed       float64 // m/s
	VerticalSpeed     float64 // m/s, positive up
	Latitude          float64
	Longitude         float64
	AltitudeMeters    float64
	HeightAboveGround bool
	Timestamp         time.Time
}

// LocationFromState builds a location message from the aircraft state.
func LocationFromState(s *model.AircraftState, ts time.Time) Location {
	return Location{
		Status:            s.Status(),
		TrackDegrees:      s.TrackAngle(),
		GroundSpeed:       s.GroundVelocity,
		VerticalSpeed:     s.VerticalVelocity,
		Latitude:          s.Position.Latitude,
		Longitude:         s.Position.Longitude,
		AltitudeMeters:    s.Position.AltitudeMeters,
		HeightAboveGround: true,
		Timestamp:         ts,
	}
}

// MarshalBinary encodes the message.
func (m Location) MarshalBinary() ([]byte, error) {
	ew, track, err := EncodeDirection(m.TrackDegrees)
	if err != nil {
		return nil, err
	}
	mult, speed, err := EncodeSpeed(m.GroundSpeed)
	if err != nil {
		return nil, err
	}
	lat, err := EncodeLatLon(m.Latitude, 90)
	if err != nil {
		return nil, err
	}
	lon, err := EncodeLatLon(m.Longitude, 180)
	if err != nil {
		return nil, err
	}
	alt := EncodeAltitude(m.AltitudeMeters)
	ts, err := EncodeTimestamp(m.Timestamp)
	if err != nil {
		return nil, err
	}

	heightType := heightTypeAboveTakeoff
	if m.HeightAboveGround {
		heightType = heightTypeAboveGround
	}

	buf := make([]byte, MessageSize)
	buf[0] = header(MessageLocation)
	buf[1] = encodeStatus(m.Status)<<4 | heightType<<2 | ew<<1 | mult
	buf[2] = track
	buf[3] = speed
	buf[4] = byte(EncodeVerticalSpeed(m.VerticalSpeed))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(lat))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(lon))
	binary.LittleEndian.PutUint16(buf[13:15], alt) // pressure altitude
	binary.LittleEndian.PutUint16(buf[15:17], alt) // geodetic altitude
	binary.LittleEndian.PutUint16(buf[17:19], alt) // height
	buf[19] = verticalAccuracyLt1m<<4 | horizontalAccuracyLt1m
	buf[20] = verticalAccuracyLt1m<<4 | speedAccuracyLt03mps
	binary.LittleEndian.PutUint16(buf[21:23], ts)
	buf[23] = 0 // timestamp accuracy unknown
	return buf, nil
}

func encodeStatus(s model.OperationalStatus) uint8 {
	switch s {
	case model.StatusGround:
		return statusGround
	case model.StatusAirborne:
		return statusAirborne
	default:
		return statusUndeclared
	}
}

// EncodeDirection splits a track angle in [0, 360) into the east/west flag and
// the 0-179 direction byte.
func EncodeDirection(deg float64) (ew uint8, dir uint8, err error) {
	if math.IsNaN(deg) || deg < 0 || deg >= 360 {
		return 0, 0, fmt.Errorf("%w: track %v outside [0, 360)", ErrEncode, deg)
	}
	d := int(deg)
	if d >= 180 {
		return 1, uint8(d - 180), nil
	}
	return 0, uint8(d), nil
}

// EncodeSpeed encodes a ground speed, switching to the coarse multiplier above
// 63.75 m/s and saturating at the maximum representable value.
func EncodeSpeed(mps float64) (multiplier uint8, speed uint8, err error) {
	if math.IsNaN(mps) || mps < 0 {
		return 0, 0, fmt.Errorf("%w: speed %v", ErrEncode, mps)
	}
	if mps <= speedLowRangeMax {
		return 0, uint8(math.Round(mps / speedStepLow)), nil
	}
	v := math.Round((mps - speedLowRangeMax) / speedStepHigh)
	if v > float64(maxEncodedSpeed) {
		v = float64(maxEncodedSpeed)
	}
	return 1, uint8(v), nil
}

// EncodeVerticalSpeed encodes a climb rate in 0.5 m/s steps, clamped to
// ±62 m/s.
func EncodeVerticalSpeed(mps float64) int8 {
	if math.IsNaN(mps) {
		return 0
	}
	mps = math.Max(-maxVerticalSpeed, math.Min(maxVerticalSpeed, mps))
	return int8(math.Round(mps / 0.5))
}

// EncodeLatLon encodes a coordinate as degrees × 1e7.
func EncodeLatLon(deg, limit float64) (int32, error) {
	if math.IsNaN(deg) || math.Abs(deg) > limit {
		return 0, fmt.Errorf("%w: coordinate %v outside ±%v", ErrEncode, deg, limit)
	}
	return int32(math.Round(deg * latLonScale)), nil
}

// EncodeAltitude encodes metres as (alt + 1000) / 0.5, clamped to the field.
func EncodeAltitude(meters float64) uint16 {
	if math.IsNaN(meters) {
		return 0
	}
	v := math.Round((meters + altitudeOffsetMeters) / altitudeResolution)
	if v < 0 {
		return 0
	}
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

// EncodeTimestamp returns tenths of seconds since the start of the UTC hour.
func EncodeTimestamp(ts time.Time) (uint16, error) {
	if ts.IsZero() {
		return 0, fmt.Errorf("%w: zero timestamp", ErrEncode)
	}
	ts = ts.UTC()
	hour := ts.Truncate(time.Hour)
	tenths := uint16(ts.Sub(hour) / (100 * time.Millisecond))
	if tenths >= timestampTenthsPerHour {
		return 0, fmt.Errorf("%w: timestamp %v", ErrEncode, ts)
	}
	return tenths, nil
}
