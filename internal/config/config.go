// Package config holds the aircraft process configuration.
//
// Values come from command-line flags whose defaults are taken from the
// environment, which may itself be seeded from a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/signalsfoundry/delivery-aircraft-sim/core"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/planner"
)

// Environment variable names.
const (
	EnvHost             = "HOST"
	EnvTelemetryPort    = "TELEMETRY_HOST_PORT_REST"
	EnvOrderPort        = "ATC_HOST_PORT_REST"
	EnvCargoPort        = "CARGO_HOST_PORT_REST"
	EnvAircraftName     = "AIRCRAFT_NAME"
	EnvAircraftUUID     = "AIRCRAFT_UUID"
	EnvScannerID        = "SCANNER_ID"
	EnvInitialLongitude = "INITIAL_LONGITUDE"
	EnvInitialLatitude  = "INITIAL_LATITUDE"
)

// Defaults.
const (
	DefaultTickInterval   = 50 * time.Millisecond
	DefaultRequestTimeout = 5 * time.Second
	DefaultMetricsAddr    = ":9090"
)

// Config is the full process configuration.
type Config struct {
	// Host is the hostname shared by the telemetry, order and cargo services.
	Host          string
	TelemetryPort int
	OrderPort     int
	CargoPort     int

	// AircraftName is the callsign; it doubles as the Remote ID when idle.
	AircraftName string
	// AircraftUUID identifies the aircraft to the order service.
	AircraftUUID string
	ScannerID    string

	InitialLongitude float64
	InitialLatitude  float64

	TickInterval    time.Duration
	RequestTimeout  time.Duration
	ArrivalRadius   float64
	FallbackSpeed   float64
	HistoryCapacity int

	// MetricsAddr is where /metrics is served. Empty disables the server.
	MetricsAddr string
}

// LoadDotEnv seeds the process environment from the given files (default
// ".env"). Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv overlays the environment-backed fields onto base using lookup
// (os.LookupEnv in production). Fields not present keep their base value.
func FromEnv(base Config, lookup func(string) (string, bool)) (Config, error) {
	var (
		c    = base
		errs []error
	)
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	str(EnvHost, &c.Host)
	num(EnvTelemetryPort, &c.TelemetryPort)
	num(EnvOrderPort, &c.OrderPort)
	num(EnvCargoPort, &c.CargoPort)
	str(EnvAircraftName, &c.AircraftName)
	str(EnvAircraftUUID, &c.AircraftUUID)
	str(EnvScannerID, &c.ScannerID)
	float(EnvInitialLongitude, &c.InitialLongitude)
	float(EnvInitialLatitude, &c.InitialLatitude)

	return c, errors.Join(errs...)
}

// BindFlags registers flags on fs, using the current field values as flag
// defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "hostname of the telemetry, order and cargo services")
	fs.IntVar(&c.TelemetryPort, "telemetry-port", c.TelemetryPort, "telemetry service REST port")
	fs.IntVar(&c.OrderPort, "order-port", c.OrderPort, "order (ATC) service REST port")
	fs.IntVar(&c.CargoPort, "cargo-port", c.CargoPort, "cargo service REST port")
	fs.StringVar(&c.AircraftName, "name", c.AircraftName, "aircraft callsign")
	fs.StringVar(&c.AircraftUUID, "uuid", c.AircraftUUID, "aircraft UUID used to poll orders")
	fs.StringVar(&c.ScannerID, "scanner-id", c.ScannerID, "cargo scanner id")
	fs.Float64Var(&c.InitialLongitude, "longitude", c.InitialLongitude, "initial longitude in degrees")
	fs.Float64Var(&c.InitialLatitude, "latitude", c.InitialLatitude, "initial latitude in degrees")
	fs.DurationVar(&c.TickInterval, "tick", c.TickInterval, "simulation tick interval")
	fs.DurationVar(&c.RequestTimeout, "request-timeout", c.RequestTimeout, "timeout for each service request")
	fs.Float64Var(&c.ArrivalRadius, "arrival-radius", c.ArrivalRadius, "waypoint arrival radius in metres")
	fs.Float64Var(&c.FallbackSpeed, "fallback-speed", c.FallbackSpeed, "cruise speed in m/s when a plan's timing is unusable")
	fs.IntVar(&c.HistoryCapacity, "history", c.HistoryCapacity, "number of completed sessions remembered")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "HTTP address for Prometheus /metrics (empty disables)")
}

// ApplyDefaults fills zero-valued fields. MetricsAddr is left alone so an
// explicit empty value can disable the server; use Default for a fully
// populated starting point.
func (c Config) ApplyDefaults() Config {
	if c.AircraftName == "" {
		c.AircraftName = fmt.Sprintf("AETH-%05d", rand.IntN(100000))
	}
	if c.AircraftUUID == "" {
		c.AircraftUUID = uuid.NewString()
	}
	if c.ScannerID == "" {
		c.ScannerID = c.AircraftUUID
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ArrivalRadius <= 0 {
		c.ArrivalRadius = core.ArrivalRadiusMeters
	}
	if c.FallbackSpeed <= 0 {
		c.FallbackSpeed = core.DefaultFallbackSpeed
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = planner.DefaultHistoryCapacity
	}
	return c
}

// Default returns a config with every default applied except identity,
// which ApplyDefaults generates.
func Default() Config {
	return Config{
		TickInterval:    DefaultTickInterval,
		RequestTimeout:  DefaultRequestTimeout,
		ArrivalRadius:   core.ArrivalRadiusMeters,
		FallbackSpeed:   core.DefaultFallbackSpeed,
		HistoryCapacity: planner.DefaultHistoryCapacity,
		MetricsAddr:     DefaultMetricsAddr,
	}
}

// Validate reports every problem found.
func (c Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvHost))
	}
	for _, p := range []struct {
		name string
		port int
	}{
		{EnvTelemetryPort, c.TelemetryPort},
		{EnvOrderPort, c.OrderPort},
		{EnvCargoPort, c.CargoPort},
	} {
		if p.port <= 0 || p.port > 65535 {
			errs = append(errs, fmt.Errorf("%s must be in 1-65535, got %d", p.name, p.port))
		}
	}
	if c.InitialLatitude < -90 || c.InitialLatitude > 90 {
		errs = append(errs, fmt.Errorf("%s out of range: %v", EnvInitialLatitude, c.InitialLatitude))
	}
	if c.InitialLongitude < -180 || c.InitialLongitude > 180 {
		errs = append(errs, fmt.Errorf("%s out of range: %v", EnvInitialLongitude, c.InitialLongitude))
	}
	if len(c.AircraftName) > 20 {
		errs = append(errs, fmt.Errorf("%s longer than 20 bytes: %q", EnvAircraftName, c.AircraftName))
	}
	if c.AircraftUUID != "" {
		if _, err := uuid.Parse(c.AircraftUUID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvAircraftUUID, err))
		}
	}
	return errors.Join(errs...)
}

// TelemetryURL is the telemetry service base, including its path prefix.
func (c Config) TelemetryURL() string {
	return fmt.Sprintf("http://%s:%d/telemetry", c.Host, c.TelemetryPort)
}

// OrderURL is the order service base.
func (c Config) OrderURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.OrderPort)
}

// CargoURL is the cargo service base.
func (c Config) CargoURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.CargoPort)
}
