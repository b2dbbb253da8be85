package netrid

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

func TestBasicIDLayout(t *testing.T) {
	msg := BasicID{IDType: IDTypeCAAAssigned, UAType: UATypeRotorcraft, UASID: "AETH-00042"}
	buf, err := msg.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(buf) != MessageSize {
		t.Fatalf("len = %d, want %d", len(buf), MessageSize)
	}
	if buf[0] != 0x02 {
		t.Fatalf("header = %#x, want 0x02", buf[0])
	}
	if buf[1] != 0x22 {
		t.Fatalf("id/ua byte = %#x, want 0x22", buf[1])
	}
	id := string(buf[2 : 2+IDLength])
	if want := strings.Repeat(" ", 10) + "AETH-00042"; id != want {
		t.Fatalf("id = %q, want %q", id, want)
	}
}

func TestBasicIDRejectsLongID(t *testing.T) {
	msg := BasicID{IDType: IDTypeSpecificSession, UAType: UATypeRotorcraft, UASID: strings.Repeat("x", 21)}
	if _, err := msg.MarshalBinary(); !errors.Is(err, ErrEncode) {
		t.Fatalf("err = %v, want ErrEncode", err)
	}
}

func TestLocationLayout(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 3, 4, 500_000_000, time.UTC)
	msg := Location{
		Status:            model.StatusAirborne,
		TrackDegrees:      270.4,
		GroundSpeed:       10,
		VerticalSpeed:     -1,
		Latitude:          52.64,
		Longitude:         5.167,
		AltitudeMeters:    10,
		HeightAboveGround: true,
		Timestamp:         ts,
	}
	buf, err := msg.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if buf[0] != 0x12 {
		t.Fatalf("header = %#x, want 0x12", buf[0])
	}
	// airborne=2, height above ground=1, east/west=1, multiplier=0
	if want := byte(2<<4 | 1<<2 | 1<<1); buf[1] != want {
		t.Fatalf("flags = %#x, want %#x", buf[1], want)
	}
	if buf[2] != 90 {
		t.Fatalf("direction = %d, want 90", buf[2])
	}
	if buf[3] != 40 {
		t.Fatalf("speed = %d, want 40", buf[3])
	}
	if int8(buf[4]) != -2 {
		t.Fatalf("vertical speed = %d, want -2", int8(buf[4]))
	}
	if lat := int32(binary.LittleEndian.Uint32(buf[5:9])); lat != 526400000 {
		t.Fatalf("lat = %d", lat)
	}
	if lon := int32(binary.LittleEndian.Uint32(buf[9:13])); lon != 51670000 {
		t.Fatalf("lon = %d", lon)
	}
	if alt := binary.LittleEndian.Uint16(buf[15:17]); alt != 2020 {
		t.Fatalf("altitude = %d, want 2020", alt)
	}
	if tenths := binary.LittleEndian.Uint16(buf[21:23]); tenths != 1845 {
		t.Fatalf("timestamp = %d, want 1845", tenths)
	}
}

func TestEncodeSpeedRanges(t *testing.T) {
	cases := []struct {
		in       float64
		mult, sp uint8
	}{
		{0, 0, 0},
		{63.75, 0, 255},
		{64.5, 1, 1},
		{1000, 1, 254},
	}
	for _, c := range cases {
		mult, sp, err := EncodeSpeed(c.in)
		if err != nil {
			t.Fatalf("EncodeSpeed(%v): %v", c.in, err)
		}
		if mult != c.mult || sp != c.sp {
			t.Fatalf("EncodeSpeed(%v) = (%d, %d), want (%d, %d)", c.in, mult, sp, c.mult, c.sp)
		}
	}
	if _, _, err := EncodeSpeed(-1); !errors.Is(err, ErrEncode) {
		t.Fatalf("negative speed err = %v", err)
	}
}

func TestEncodeVerticalSpeedClamps(t *testing.T) {
	if got := EncodeVerticalSpeed(100); got != 124 {
		t.Fatalf("clamp up = %d, want 124", got)
	}
	if got := EncodeVerticalSpeed(-100); got != -124 {
		t.Fatalf("clamp down = %d, want -124", got)
	}
}

func TestEncodeDirectionRejectsOutOfRange(t *testing.T) {
	if _, _, err := EncodeDirection(360); !errors.Is(err, ErrEncode) {
		t.Fatalf("err = %v, want ErrEncode", err)
	}
	ew, d, err := EncodeDirection(179.9)
	if err != nil || ew != 0 || d != 179 {
		t.Fatalf("EncodeDirection(179.9) = %d, %d, %v", ew, d, err)
	}
}

func TestLocationRejectsBadLatitude(t *testing.T) {
	msg := Location{Latitude: 91, Timestamp: time.Unix(1, 0)}
	if _, err := msg.MarshalBinary(); !errors.Is(err, ErrEncode) {
		t.Fatalf("err = %v, want ErrEncode", err)
	}
}

func TestLocationFromStateUsesStatus(t *testing.T) {
	st := model.NewAircraftState("AETH-00001", "scanner", model.Position{Longitude: 1, Latitude: 2, AltitudeMeters: 3})
	loc := LocationFromState(st, time.Unix(10, 0))
	if loc.Status != model.StatusGround {
		t.Fatalf("status = %v, want ground", loc.Status)
	}
	if loc.Latitude != 2 || loc.Longitude != 1 || loc.AltitudeMeters != 3 {
		t.Fatalf("position not copied: %+v", loc)
	}
}
