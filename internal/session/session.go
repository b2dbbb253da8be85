// Package session tracks the Remote ID authorization token: acquisition with
// bounded retries, and invalidation whenever a dependent call fails.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/signalsfoundry/delivery-aircraft-sim/internal/logging"
)

const (
	// DefaultMaxRetries is how many consecutive acquisition failures are
	// tolerated. The next failure is fatal.
	DefaultMaxRetries = 5
	// DefaultRetryInterval is the fixed wait between acquisition attempts.
	DefaultRetryInterval = 5 * time.Second
)

// ErrTokenExhausted means the token could not be acquired within the retry
// bound. An aircraft without identification authority must stop.
var ErrTokenExhausted = errors.New("token acquisition retries exhausted")

// TokenSource issues authorization tokens.
type TokenSource interface {
	AcquireToken(ctx context.Context, identifier string) (string, error)
}

// MetricsRecorder receives token lifecycle events. A nil recorder is allowed.
type MetricsRecorder interface {
	IncTokenAcquisitions(result string)
	IncTokenInvalidations()
}

// State is the lifecycle state of the token.
type State int

const (
	NoToken State = iota
	HasToken
)

func (s State) String() string {
	if s == HasToken {
		return "has_token"
	}
	return "no_token"
}

// Session holds the token for one aircraft identifier. It is owned by the
// tick loop and not safe for concurrent use.
type Session struct {
	identifier string
	source     TokenSource
	backoff    backoff.BackOff
	maxRetries int

	token       string
	retries     int
	nextAttempt time.Time

	log     logging.Logger
	metrics MetricsRecorder
}

// Option customises a Session.
type Option func(*Session)

// WithBackOff sets the policy that spaces acquisition attempts. Returning
// backoff.Stop from the policy is treated as exhaustion.
func WithBackOff(b backoff.BackOff) Option {
	return func(s *Session) {
		if b != nil {
			s.backoff = b
		}
	}
}

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithMetricsRecorder wires token events into recorder.
func WithMetricsRecorder(r MetricsRecorder) Option {
	return func(s *Session) { s.metrics = r }
}

// New creates a session in the NoToken state.
func New(identifier string, source TokenSource, log logging.Logger, opts ...Option) *Session {
	if log == nil {
		log = logging.Noop()
	}
	s := &Session{
		identifier: identifier,
		source:     source,
		backoff:    backoff.NewConstantBackOff(DefaultRetryInterval),
		maxRetries: DefaultMaxRetries,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports whether a token is held.
func (s *Session) State() State {
	if s.token != "" {
		return HasToken
	}
	return NoToken
}

// Token returns the current token, if any.
func (s *Session) Token() (string, bool) {
	return s.token, s.token != ""
}

// Retries returns the number of consecutive failed acquisitions.
func (s *Session) Retries() int { return s.retries }

// Ensure returns the held token, acquiring one when none is held and the
// retry wait has elapsed. An empty token with a nil error means no token is
// available this cycle. The only error returned wraps ErrTokenExhausted.
func (s *Session) Ensure(ctx context.Context, now time.Time) (string, error) {
	if s.token != "" {
		return s.token, nil
	}
	if now.Before(s.nextAttempt) {
		return "", nil
	}

	log := logging.FromContext(ctx, s.log)
	token, err := s.source.AcquireToken(ctx, s.identifier)
	if err == nil && token == "" {
		err = errors.New("empty token")
	}
	if err != nil {
		s.retries++
		s.record("failure")
		if s.retries > s.maxRetries {
			return "", fmt.Errorf("%w after %d attempts: %w", ErrTokenExhausted, s.retries, err)
		}
		wait := s.backoff.NextBackOff()
		if wait == backoff.Stop {
			return "", fmt.Errorf("%w: backoff policy stopped after %d attempts: %w", ErrTokenExhausted, s.retries, err)
		}
		s.nextAttempt = now.Add(wait)
		log.Warn(ctx, "token acquisition failed",
			logging.String("identifier", s.identifier),
			logging.Int("retries", s.retries),
			logging.Duration("retry_in", wait),
			logging.Err(err),
		)
		return "", nil
	}

	s.token = token
	s.retries = 0
	s.nextAttempt = time.Time{}
	s.backoff.Reset()
	s.record("success")
	log.Info(ctx, "acquired token", logging.String("identifier", s.identifier))
	return token, nil
}

// Invalidate drops the held token so the next Ensure acquires a fresh one.
func (s *Session) Invalidate(ctx context.Context, reason error) {
	if s.token == "" {
		return
	}
	s.token = ""
	if s.metrics != nil {
		s.metrics.IncTokenInvalidations()
	}
	logging.FromContext(ctx, s.log).Warn(ctx, "token invalidated",
		logging.String("identifier", s.identifier),
		logging.Err(reason),
	)
}

func (s *Session) record(result string) {
	if s.metrics != nil {
		s.metrics.IncTokenAcquisitions(result)
	}
}
