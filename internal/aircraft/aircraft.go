// Package aircraft drives a single simulated delivery aircraft one tick at a
// time: motion, plan lifecycle, token upkeep and the reporting cadences.
package aircraft

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/delivery-aircraft-sim/core"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/cadence"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/logging"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/netrid"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/observability"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/planner"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/session"
	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

// Telemetry is the Remote ID service.
type Telemetry interface {
	session.TokenSource
	SendIdentity(ctx context.Context, token string, msg netrid.BasicID) error
	SendPosition(ctx context.Context, token string, msg netrid.Location) error
}

// Orders is the fleet-coordination service.
type Orders interface {
	GetOrders(ctx context.Context, fleetUUID string) ([]*model.FlightPlan, error)
	AcknowledgeOrder(ctx context.Context, flightID string) error
}

// MetricsRecorder receives per-tick measurements.
type MetricsRecorder interface {
	ObserveTick(d time.Duration)
	SetFlightState(groundSpeed, altitude float64, airborne bool)
}

// Aircraft owns the aircraft state and every collaborator that mutates it.
// Tick must not be called concurrently.
type Aircraft struct {
	State     *model.AircraftState
	Motion    *core.MotionEngine
	Scheduler *planner.Scheduler
	Session   *session.Session

	// FleetUUID identifies the aircraft to the order service.
	FleetUUID string
	Schedule  cadence.Schedule

	telemetry Telemetry
	orders    Orders
	log       logging.Logger
	metrics   MetricsRecorder
	ticks     uint64
}

// Option customises an Aircraft.
type Option func(*Aircraft)

// WithSchedule overrides the reporting periods.
func WithSchedule(s cadence.Schedule) Option {
	return func(a *Aircraft) { a.Schedule = s.ApplyDefaults() }
}

// WithFleetUUID sets the id used to poll orders.
func WithFleetUUID(id string) Option {
	return func(a *Aircraft) { a.FleetUUID = id }
}

// WithMetricsRecorder wires tick metrics.
func WithMetricsRecorder(r MetricsRecorder) Option {
	return func(a *Aircraft) { a.metrics = r }
}

// New assembles an aircraft. The session must use telemetry as its token
// source.
func New(state *model.AircraftState, motion *core.MotionEngine, scheduler *planner.Scheduler, sess *session.Session, telemetry Telemetry, orders Orders, log logging.Logger, opts ...Option) *Aircraft {
	if log == nil {
		log = logging.Noop()
	}
	if motion == nil {
		motion = core.NewMotionEngine()
	}
	a := &Aircraft{
		State:     state,
		Motion:    motion,
		Scheduler: scheduler,
		Session:   sess,
		Schedule:  cadence.DefaultSchedule(),
		telemetry: telemetry,
		orders:    orders,
		log:       log.With(logging.String("aircraft", state.ID)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ticks returns how many ticks have run.
func (a *Aircraft) Ticks() uint64 { return a.ticks }

// Tick runs one simulation step at now. Steps run in a fixed order: motion,
// plan completion, plan activation, token upkeep, then the identity, position
// and order-poll cadences. Only fatal conditions are returned: token
// exhaustion and frames that cannot be encoded.
func (a *Aircraft) Tick(ctx context.Context, now time.Time) error {
	start := time.Now()
	a.ticks++
	ctx = logging.ContextWithTick(ctx, a.ticks)
	ctx = logging.ContextWithLogger(ctx, a.log)
	st := a.State

	last := st.LastTick
	if last.IsZero() {
		last = now
	}
	step := a.Motion.Advance(st, now, last)
	st.MarkTick(now)
	if step.Arrived {
		a.log.Debug(ctx, "waypoint reached",
			logging.String("waypoint", step.Reached.String()),
			logging.Int("remaining", step.Remaining),
		)
	}

	a.Scheduler.CheckCompletion(ctx, st, now)
	a.Scheduler.TryActivateNext(ctx, st, now)

	token, err := a.Session.Ensure(ctx, now)
	if err != nil {
		return err
	}

	if token != "" {
		if err := a.report(ctx, token, now); err != nil {
			return err
		}
	}

	if a.Schedule.OrderPoll.Due(st.LastOrderPoll, now) {
		a.pollOrders(ctx, now)
	}

	if a.metrics != nil {
		a.metrics.SetFlightState(st.GroundVelocity, st.Position.AltitudeMeters, st.CurrentPlan != nil)
		a.metrics.ObserveTick(time.Since(start))
	}
	return nil
}

// report runs the identity and position cadences. A failed report drops the
// token and skips the rest of the reporting for this tick.
func (a *Aircraft) report(ctx context.Context, token string, now time.Time) error {
	st := a.State

	if a.Schedule.Identity.Due(st.LastIdentityUpdate, now) {
		err := a.sendIdentity(ctx, token)
		if errors.Is(err, netrid.ErrEncode) {
			return err
		}
		if err != nil {
			a.Session.Invalidate(ctx, err)
			return nil
		}
		st.MarkIdentityUpdate(now)
	}

	if a.Schedule.Position.Due(st.LastPositionUpdate, now) {
		err := a.sendPosition(ctx, token, now)
		if errors.Is(err, netrid.ErrEncode) {
			return err
		}
		if err != nil {
			a.Session.Invalidate(ctx, err)
			return nil
		}
		st.MarkPositionUpdate(now)
	}
	return nil
}

// Identity returns the Basic ID message for the current activity: the
// aircraft id while idle, the session id while flying a plan.
func (a *Aircraft) Identity() netrid.BasicID {
	msg := netrid.BasicID{
		IDType: netrid.IDTypeCAAAssigned,
		UAType: netrid.UATypeRotorcraft,
		UASID:  a.State.ID,
	}
	if plan := a.State.CurrentPlan; plan != nil {
		msg.IDType = netrid.IDTypeSpecificSession
		msg.UASID = plan.SessionID
	}
	return msg
}

func (a *Aircraft) sendIdentity(ctx context.Context, token string) (err error) {
	msg := a.Identity()
	ctx, span := observability.StartSpan(ctx, "aircraft.identity", a.State.ID,
		attribute.String("uas.id", msg.UASID),
		attribute.Int("uas.id_type", int(msg.IDType)),
	)
	defer func() { observability.EndSpan(span, err) }()

	return a.telemetry.SendIdentity(ctx, token, msg)
}

func (a *Aircraft) sendPosition(ctx context.Context, token string, now time.Time) (err error) {
	msg := netrid.LocationFromState(a.State, now)
	ctx, span := observability.StartSpan(ctx, "aircraft.position", a.State.ID,
		attribute.Float64("position.latitude", msg.Latitude),
		attribute.Float64("position.longitude", msg.Longitude),
		attribute.Float64("position.altitude_m", msg.AltitudeMeters),
	)
	defer func() { observability.EndSpan(span, err) }()

	return a.telemetry.SendPosition(ctx, token, msg)
}

// pollOrders fetches, merges and acknowledges plans. A failed poll is logged
// and retried on the next tick; acknowledgement failures do not fail the poll.
func (a *Aircraft) pollOrders(ctx context.Context, now time.Time) {
	var err error
	ctx, span := observability.StartSpan(ctx, "aircraft.order_poll", a.State.ID)
	defer func() { observability.EndSpan(span, err) }()

	log := logging.FromContext(ctx, a.log)
	plans, err := a.orders.GetOrders(ctx, a.FleetUUID)
	if err != nil {
		log.Warn(ctx, "order poll failed", logging.Err(err))
		return
	}
	a.State.MarkOrderPoll(now)
	if len(plans) == 0 {
		return
	}

	res := a.Scheduler.Merge(ctx, a.State, plans)
	span.SetAttributes(
		attribute.Int("orders.received", len(plans)),
		attribute.Int("orders.added", res.Added),
		attribute.Int("orders.updated", res.Updated),
		attribute.Int("orders.skipped", res.Skipped),
		attribute.Int("orders.rejected", res.Rejected),
	)
	log.Info(ctx, "orders received",
		logging.Int("received", len(plans)),
		logging.Int("added", res.Added),
		logging.Int("updated", res.Updated),
		logging.Int("skipped", res.Skipped),
		logging.Int("rejected", res.Rejected),
	)

	for _, plan := range plans {
		if plan == nil {
			continue
		}
		if ackErr := a.orders.AcknowledgeOrder(ctx, plan.FlightID); ackErr != nil {
			log.Warn(ctx, "order acknowledgement failed",
				logging.String("flight_id", plan.FlightID),
				logging.Err(ackErr),
			)
		}
	}
}
