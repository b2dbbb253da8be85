package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/delivery-aircraft-sim/core"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/aircraft"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/config"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/logging"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/observability"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/planner"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/remote"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/session"
	"github.com/signalsfoundry/delivery-aircraft-sim/model"
	"github.com/signalsfoundry/delivery-aircraft-sim/timectrl"
)

func main() {
	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], log)
	stop()
	if err != nil {
		log.Error(context.Background(), "aircraft simulator stopped", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(args []string) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.FromEnv(config.Default(), os.LookupEnv)
	if err != nil {
		return config.Config{}, fmt.Errorf("read environment: %w", err)
	}

	fs := flag.NewFlagSet("aircraft-sim", flag.ContinueOnError)
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg = cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, log logging.Logger) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	log = log.With(logging.String("aircraft", cfg.AircraftName))

	tracingCfg := observability.TracingConfigFromEnv()
	tracingCfg.AircraftID = cfg.AircraftName
	shutdownTracing, err := observability.InitTracing(ctx, tracingCfg, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewAircraftCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	ac, err := buildAircraft(cfg, collector, log)
	if err != nil {
		return err
	}

	tc := timectrl.NewTimeController(cfg.TickInterval, timectrl.WallClock{})
	tc.AddListener(ac.Tick)

	log.Info(ctx, "starting aircraft",
		logging.String("uuid", cfg.AircraftUUID),
		logging.String("telemetry", cfg.TelemetryURL()),
		logging.String("orders", cfg.OrderURL()),
		logging.String("cargo", cfg.CargoURL()),
		logging.Duration("tick", cfg.TickInterval),
		logging.Float("longitude", cfg.InitialLongitude),
		logging.Float("latitude", cfg.InitialLatitude),
	)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		serveMetrics(gctx, g, cfg.MetricsAddr, collector, log)
	}
	g.Go(func() error {
		return tc.Run(gctx)
	})

	err = g.Wait()
	log.Info(context.Background(), "aircraft stopped", logging.Any("ticks", ac.Ticks()))
	return err
}

func buildAircraft(cfg config.Config, collector *observability.AircraftCollector, log logging.Logger) (*aircraft.Aircraft, error) {
	clientOpts := []remote.Option{
		remote.WithHTTPClient(remote.NewHTTPClient(cfg.RequestTimeout)),
		remote.WithResultRecorder(collector),
	}
	telemetry := remote.NewTelemetryClient(cfg.TelemetryURL(), clientOpts...)
	orders := remote.NewOrderClient(cfg.OrderURL(), clientOpts...)
	cargo := remote.NewCargoClient(cfg.CargoURL(), clientOpts...)

	motion := core.NewMotionEngine(
		core.WithArrivalRadius(cfg.ArrivalRadius),
		core.WithFallbackSpeed(cfg.FallbackSpeed),
	)
	history, err := planner.NewHistory(cfg.HistoryCapacity)
	if err != nil {
		return nil, err
	}
	sched := planner.NewScheduler(motion, cargo, log,
		planner.WithHistory(history),
		planner.WithMetricsRecorder(collector),
	)
	sess := session.New(cfg.AircraftName, telemetry, log, session.WithMetricsRecorder(collector))

	state := model.NewAircraftState(cfg.AircraftName, cfg.ScannerID, model.Position{
		Longitude: cfg.InitialLongitude,
		Latitude:  cfg.InitialLatitude,
	})
	return aircraft.New(state, motion, sched, sess, telemetry, orders, log,
		aircraft.WithFleetUUID(cfg.AircraftUUID),
		aircraft.WithMetricsRecorder(collector),
	), nil
}

// serveMetrics runs the /metrics server until ctx ends. A listen failure is
// logged and does not stop the aircraft.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, collector *observability.AircraftCollector, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info(ctx, "serving Prometheus metrics", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, "metrics server exited", logging.Err(err))
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
