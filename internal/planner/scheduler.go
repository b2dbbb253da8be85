package planner

import (
	"context"
	"time"

	"github.com/signalsfoundry/delivery-aircraft-sim/core"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/logging"
	"github.com/signalsfoundry/delivery-aircraft-sim/internal/netrid"
	"github.com/signalsfoundry/delivery-aircraft-sim/model"
)

// CargoScanner reports parcel scans to the cargo service.
type CargoScanner interface {
	ScanParcel(ctx context.Context, scan model.CargoScan) error
}

// MetricsRecorder receives scheduler events. A nil recorder is allowed.
type MetricsRecorder interface {
	IncPlansActivated()
	IncPlansCompleted()
	IncOrders(outcome string)
	SetPendingPlans(n int)
}

// Outcome is how an announced order was handled on ingestion.
type Outcome string

const (
	OutcomeAdded            Outcome = "added"
	OutcomeUpdated          Outcome = "updated"
	OutcomeSkippedCurrent   Outcome = "skipped_current"
	OutcomeSkippedCompleted Outcome = "skipped_completed"
	// OutcomeRejected marks a plan whose session id cannot be broadcast as
	// a Remote ID UAS id.
	OutcomeRejected Outcome = "rejected"
)

// MergeResult summarises one Merge call.
type MergeResult struct {
	Outcomes map[string]Outcome // keyed by session id
	Added    int
	Updated  int
	Skipped  int
	Rejected int
}

// Scheduler admits pending flight plans one at a time, in origin window
// order, and retires them once their path is consumed.
type Scheduler struct {
	Pending *PendingOrderSet
	History *History
	Motion  *core.MotionEngine
	Cargo   CargoScanner

	log     logging.Logger
	metrics MetricsRecorder
}

// SchedulerOption customises a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMetricsRecorder wires scheduler events into recorder.
func WithMetricsRecorder(recorder MetricsRecorder) SchedulerOption {
	return func(s *Scheduler) { s.metrics = recorder }
}

// WithHistory replaces the default recent-history set.
func WithHistory(h *History) SchedulerOption {
	return func(s *Scheduler) {
		if h != nil {
			s.History = h
		}
	}
}

// NewScheduler creates a Scheduler with an empty pending set and a history of
// DefaultHistoryCapacity.
func NewScheduler(motion *core.MotionEngine, cargo CargoScanner, log logging.Logger, opts ...SchedulerOption) *Scheduler {
	if log == nil {
		log = logging.Noop()
	}
	if motion == nil {
		motion = core.NewMotionEngine()
	}
	history, _ := NewHistory(DefaultHistoryCapacity)
	s := &Scheduler{
		Pending: NewPendingOrderSet(),
		History: history,
		Motion:  motion,
		Cargo:   cargo,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TryActivateNext promotes the earliest pending plan to the current plan once
// its origin window has elapsed. It does nothing while a plan is current. The
// activated plan is returned, or nil when nothing was activated.
func (s *Scheduler) TryActivateNext(ctx context.Context, st *model.AircraftState, now time.Time) *model.FlightPlan {
	if st.CurrentPlan != nil {
		return nil
	}
	next := s.Pending.Peek()
	if next == nil || next.OriginWindowEnd.After(now) {
		return nil
	}

	plan := s.Pending.Pop()
	s.setPending()
	s.InitPlan(ctx, st, plan, now)
	if st.CurrentPlan == nil {
		return nil
	}
	return plan
}

// InitPlan activates plan: it scans the pickup manifest, snaps the aircraft to
// the first waypoint, sizes the ground speed so the whole path is flown by the
// target window start, and aims at the next waypoint. A plan without
// waypoints is retired immediately instead of being installed.
func (s *Scheduler) InitPlan(ctx context.Context, st *model.AircraftState, plan *model.FlightPlan, now time.Time) {
	log := logging.FromContext(ctx, s.log).With(
		logging.String("flight_id", plan.FlightID),
		logging.String("session_id", plan.SessionID),
	)
	log.Info(ctx, "activating flight plan",
		logging.Int("waypoints", plan.Remaining()),
		logging.Int("acquire", len(plan.Acquire)),
	)

	s.scanAll(ctx, st, plan.Acquire, "acquire", now)

	path := plan.Path()
	totalDistance := core.PathLengthMeters(path)

	first, ok := plan.PopNext()
	if !ok {
		log.Warn(ctx, "flight plan has no waypoints; treating as complete")
		s.finish(ctx, st, plan, now)
		return
	}

	// Ground repositioning is instantaneous.
	st.Position = first

	duration := plan.TargetWindowStart.Sub(now)
	if duration > 0 {
		st.GroundVelocity = totalDistance / duration.Seconds()
	} else {
		log.Warn(ctx, "target window already open; using fallback speed",
			logging.Time("target_window_start", plan.TargetWindowStart),
		)
		st.GroundVelocity = s.Motion.FallbackSpeed
	}
	st.VerticalVelocity = 0

	st.CurrentPlan = plan
	s.Motion.RecomputeVelocity(st)

	if s.metrics != nil {
		s.metrics.IncPlansActivated()
	}
	log.Info(ctx, "flight plan active",
		logging.Float("path_m", totalDistance),
		logging.Float("ground_velocity_mps", st.GroundVelocity),
		logging.Float("vertical_velocity_mps", st.VerticalVelocity),
		logging.Float("track_deg", st.TrackAngle()),
	)
}

// CheckCompletion ends the current plan when its path is empty and reports
// whether it did so.
func (s *Scheduler) CheckCompletion(ctx context.Context, st *model.AircraftState, now time.Time) bool {
	if st.CurrentPlan == nil || !st.CurrentPlan.Complete() {
		return false
	}
	s.EndPlan(ctx, st, now)
	return true
}

// EndPlan scans the delivery manifest, clears the current plan, stops the
// aircraft and remembers the plan's session id.
func (s *Scheduler) EndPlan(ctx context.Context, st *model.AircraftState, now time.Time) {
	plan := st.CurrentPlan
	if plan == nil {
		s.log.Warn(ctx, "tried to end a non-existent plan", logging.String("aircraft", st.ID))
		return
	}
	s.finish(ctx, st, plan, now)
}

func (s *Scheduler) finish(ctx context.Context, st *model.AircraftState, plan *model.FlightPlan, now time.Time) {
	s.scanAll(ctx, st, plan.Deliver, "deliver", now)

	st.CurrentPlan = nil
	st.Halt()
	s.History.Add(plan.SessionID)

	if s.metrics != nil {
		s.metrics.IncPlansCompleted()
	}
	logging.FromContext(ctx, s.log).Info(ctx, "flight plan complete",
		logging.String("flight_id", plan.FlightID),
		logging.String("session_id", plan.SessionID),
		logging.Int("delivered", len(plan.Deliver)),
	)
}

// Merge folds announced plans into the pending set. Plans whose session id
// does not fit the UAS id field are rejected. Plans for the current session
// or a recently finished one are ignored; a plan already pending is replaced
// in place; anything else is inserted.
func (s *Scheduler) Merge(ctx context.Context, st *model.AircraftState, plans []*model.FlightPlan) MergeResult {
	res := MergeResult{Outcomes: make(map[string]Outcome, len(plans))}
	for _, plan := range plans {
		if plan == nil {
			continue
		}
		var outcome Outcome
		switch {
		case len(plan.SessionID) > netrid.IDLength:
			outcome = OutcomeRejected
			res.Rejected++
			logging.FromContext(ctx, s.log).Warn(ctx, "rejecting flight plan: session id too long for remote id",
				logging.String("flight_id", plan.FlightID),
				logging.String("session_id", plan.SessionID),
				logging.Int("max_len", netrid.IDLength),
			)
		case st.CurrentPlan != nil && st.CurrentPlan.SessionID == plan.SessionID:
			outcome = OutcomeSkippedCurrent
			res.Skipped++
		case s.History.Contains(plan.SessionID):
			outcome = OutcomeSkippedCompleted
			res.Skipped++
		case s.Pending.Upsert(plan):
			outcome = OutcomeUpdated
			res.Updated++
		default:
			outcome = OutcomeAdded
			res.Added++
		}
		res.Outcomes[plan.SessionID] = outcome
		if s.metrics != nil {
			s.metrics.IncOrders(string(outcome))
		}
		logging.FromContext(ctx, s.log).Debug(ctx, "order merged",
			logging.String("session_id", plan.SessionID),
			logging.String("outcome", string(outcome)),
		)
	}
	s.setPending()
	return res
}

// scanAll reports every parcel. Failures are logged and otherwise ignored.
func (s *Scheduler) scanAll(ctx context.Context, st *model.AircraftState, parcels []model.Parcel, stage string, now time.Time) {
	if s.Cargo == nil {
		return
	}
	for _, parcel := range parcels {
		err := s.Cargo.ScanParcel(ctx, model.CargoScan{
			AircraftID: st.ID,
			ScannerID:  st.ScannerID,
			CargoID:    parcel.ID,
			Latitude:   st.Position.Latitude,
			Longitude:  st.Position.Longitude,
			Timestamp:  now,
		})
		if err != nil {
			logging.FromContext(ctx, s.log).Warn(ctx, "parcel scan failed",
				logging.String("stage", stage),
				logging.String("cargo_id", parcel.ID),
				logging.Err(err),
			)
		}
	}
}

func (s *Scheduler) setPending() {
	if s.metrics != nil {
		s.metrics.SetPendingPlans(s.Pending.Len())
	}
}
