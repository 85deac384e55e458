// Package scheduler drives the engagement window state machine.
//
// The machine moves Idle -> Open -> Closing -> Idle. Opens are triggered by a
// polling tick matching configured wall-clock instants, or on demand; closes
// by a per-session deferred timer, or on demand. One mutex guards every
// transition, so a racing timer and administrative command cannot double-open
// or double-close: whichever fires first wins and the other is rejected (or,
// for a stale timer from an earlier session, silently dropped by comparing
// its captured generation against the current one).
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/raidline/internal/adapters/chat"
	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/internal/domain/report"
	"github.com/okian/raidline/internal/domain/session"
	"github.com/okian/raidline/pkg/logger"
	"github.com/okian/raidline/pkg/metrics"
)

// Default scheduling constants.
const (
	defaultDuration = 60 * time.Minute
	defaultTick     = time.Minute
)

// State is the scheduler's lifecycle state.
type State int

// Machine states.
const (
	Idle State = iota
	Open
	Closing
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// OpenTime is a daily wall-clock instant (UTC) at which a window opens.
type OpenTime struct {
	Hour   int
	Minute int
}

// ParseOpenTimes parses "HH:MM" specs into open instants.
func ParseOpenTimes(specs []string) ([]OpenTime, error) {
	out := make([]OpenTime, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(strings.TrimSpace(spec), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOpenTime, spec)
		}
		hour, err := strconv.Atoi(parts[0])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOpenTime, spec)
		}
		minute, err := strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOpenTime, spec)
		}
		out = append(out, OpenTime{Hour: hour, Minute: minute})
	}
	return out, nil
}

// Scorer turns a drained snapshot into ranked records.
type Scorer interface {
	ScoreSession(ctx context.Context, snap session.Snapshot) []model.ScoreRecord
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithOpenTimes sets the daily automatic open instants (UTC).
func WithOpenTimes(times []OpenTime) Option {
	return func(s *Scheduler) {
		s.openTimes = times
	}
}

// WithDuration sets how long a window stays open.
func WithDuration(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithTick sets the polling granularity of the automatic-open check.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithChunkLimit sets the report message size limit.
func WithChunkLimit(limit int) Option {
	return func(s *Scheduler) {
		if limit > 0 {
			s.chunkLimit = limit
		}
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the scheduler.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scheduler owns the session state and runs the open/close lifecycle.
type Scheduler struct {
	mu           sync.Mutex
	state        State
	generation   uint64
	sessionID    string
	openedAt     time.Time
	lastAutoOpen time.Time

	session *session.State
	scorer  Scorer
	gateway chat.Gateway

	openTimes  []OpenTime
	duration   time.Duration
	tick       time.Duration
	chunkLimit int
	now        func() time.Time

	logger logger.Logger
}

// New creates a Scheduler owning st. Nothing runs until Run is called or a
// window is opened on demand.
func New(st *session.State, scorer Scorer, gateway chat.Gateway, opts ...Option) *Scheduler {
	s := &Scheduler{
		session:    st,
		scorer:     scorer,
		gateway:    gateway,
		duration:   defaultDuration,
		tick:       defaultTick,
		chunkLimit: report.DefaultChunkLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Run polls for automatic opens until ctx is canceled. The tick never blocks
// on a window: the close runs off a deferred timer, and scoring happens on
// whichever goroutine triggered the close.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info(ctx, "scheduler running",
		logger.Int("open_times", len(s.openTimes)),
		logger.Any("duration", s.duration),
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.maybeAutoOpen(ctx)
		}
	}
}

// maybeAutoOpen opens a window when the current minute matches a configured
// open instant. A minute that already triggered is not retried, so an
// on-demand close within the same minute does not bounce the window back open.
func (s *Scheduler) maybeAutoOpen(ctx context.Context) {
	now := s.now().UTC()
	minute := now.Truncate(time.Minute)
	for _, ot := range s.openTimes {
		if now.Hour() != ot.Hour || now.Minute() != ot.Minute {
			continue
		}
		s.mu.Lock()
		repeat := s.lastAutoOpen.Equal(minute)
		if !repeat {
			s.lastAutoOpen = minute
		}
		s.mu.Unlock()
		if repeat {
			return
		}
		if err := s.OpenWindow(ctx); err != nil {
			s.logger.Warn(ctx, "automatic open rejected", logger.Error(err))
		}
		return
	}
}

// OpenWindow opens a new session. Rejected with ErrSessionActive unless the
// machine is Idle.
func (s *Scheduler) OpenWindow(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrSessionActive, s.state)
	}
	s.generation++
	gen := s.generation
	s.sessionID = uuid.NewString()
	s.openedAt = s.now().UTC()
	s.session.Open(s.openedAt)
	s.state = Open
	id := s.sessionID
	s.mu.Unlock()

	metrics.RecordSessionOpened()
	s.logger.Info(ctx, "window opened",
		logger.String("session", id),
		logger.Any("duration", s.duration),
	)
	if err := s.gateway.SetPostable(ctx, true); err != nil {
		s.logger.Warn(ctx, "failed to raise postable", logger.Error(err))
	}
	if err := s.gateway.Announce(ctx, "Session open: post your link and reply to the others."); err != nil {
		s.logger.Warn(ctx, "failed to announce open", logger.Error(err))
	}

	// Deferred close for this session only. It captures the generation so a
	// timer surviving an on-demand close/reopen cannot touch a later session.
	time.AfterFunc(s.duration, func() {
		s.autoClose(context.Background(), gen)
	})
	return nil
}

// CloseWindow closes the open session on demand, scoring it to completion
// before returning. Rejected with ErrNoActiveSession unless a window is open.
func (s *Scheduler) CloseWindow(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Open {
		s.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrNoActiveSession, s.state)
	}
	s.closeLocked(ctx)
	return nil
}

// autoClose is the deferred-timer close. A stale generation or a state other
// than Open means an on-demand close won the race; this becomes a no-op.
func (s *Scheduler) autoClose(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if s.generation != gen || s.state != Open {
		s.mu.Unlock()
		return
	}
	s.closeLocked(ctx)
}

// closeLocked runs the Closing transition. Called with the mutex held; it
// releases the mutex itself. Scoring failures are isolated so the machine
// always returns to Idle and the polling tick keeps running.
func (s *Scheduler) closeLocked(ctx context.Context) {
	s.state = Closing
	id := s.sessionID
	snap := s.session.CloseAndDrain()
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "scoring panicked", logger.Any("panic", r), logger.String("session", id))
		}
		metrics.RecordSessionClosed()
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
	}()

	if err := s.gateway.SetPostable(ctx, false); err != nil {
		s.logger.Warn(ctx, "failed to lower postable", logger.Error(err))
	}

	if len(snap.Targets) == 0 {
		s.logger.Info(ctx, "window closed with no links", logger.String("session", id))
		if err := s.gateway.Announce(ctx, "Session ended. No links posted."); err != nil {
			s.logger.Warn(ctx, "failed to announce close", logger.Error(err))
		}
		return
	}

	records := s.scorer.ScoreSession(ctx, snap)
	text := report.Build(s.now(), len(snap.Targets), records)
	if err := s.gateway.Announce(ctx, "Session closed."); err != nil {
		s.logger.Warn(ctx, "failed to announce close", logger.Error(err))
	}
	for _, chunk := range report.Chunk(text, s.chunkLimit) {
		if err := s.gateway.Send(ctx, chunk); err != nil {
			s.logger.Error(ctx, "failed to send report chunk", logger.Error(err))
		}
	}
	s.logger.Info(ctx, "window scored",
		logger.String("session", id),
		logger.Int("targets", len(snap.Targets)),
		logger.Int("participants", len(records)),
	)
}

// Submit routes a message into the current session.
func (s *Scheduler) Submit(ctx context.Context, member model.MemberID, text string) (model.TargetID, bool) {
	id, recorded := s.session.Submit(member, text)
	if recorded {
		metrics.RecordSubmissionAccepted()
	} else {
		metrics.RecordSubmissionIgnored()
	}
	return id, recorded
}

// Status is a point-in-time view of the machine for observability.
type Status struct {
	State        State
	SessionID    string
	OpenedAt     time.Time
	Targets      int
	Participants int
}

// Status returns the current machine status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := Status{
		State:     s.state,
		SessionID: s.sessionID,
		OpenedAt:  s.openedAt,
	}
	s.mu.Unlock()
	if st.State == Open {
		st.Targets, st.Participants = s.session.Counts()
	}
	return st
}
