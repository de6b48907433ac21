package pushups

import (
	"fmt"
	"math"
	"time"

	"github.com/2beens/powerpush/internal/pose"
)

//go:generate mockgen -source=$GOFILE -destination=session_mocks_test.go -package=pushups_test

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// Recorder receives a record for every counted repetition.
// Implementations must not block the caller.
type Recorder interface {
	Record(rec Record)
}

// Notifier is told about every milestone, exactly once per milestone and session.
type Notifier interface {
	MilestoneReached(sessionID string, ev MilestoneEvent)
}

type Option func(s *Session)

func WithClock(clock Clock) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Session) {
		s.recorder = recorder
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Session) {
		s.notifier = notifier
	}
}

// Session holds all the state of one push-up session. It is meant to be
// driven by a single owner, one frame at a time, and is not safe for
// concurrent use.
type Session struct {
	id         string
	cfg        Config
	clock      Clock
	recorder   Recorder
	notifier   Notifier
	counter    *Counter
	pace       *PaceTracker
	metrics    *SessionMetrics
	milestones *MilestoneTracker
}

func NewSession(id string, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new session %s: %w", id, err)
	}

	s := &Session{
		id:    id,
		cfg:   cfg,
		clock: RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.counter = NewCounter(cfg)
	s.pace = NewPaceTracker(cfg.FastRepInterval)
	s.metrics = NewSessionMetrics(s.clock.Now(), cfg.BodyWeightKg, cfg.MET)
	s.milestones = NewMilestoneTracker(cfg.Milestones)

	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Config() Config {
	return s.cfg
}

func (s *Session) StartedAt() time.Time {
	return s.metrics.Start()
}

func (s *Session) Count() int {
	return s.counter.Count()
}

func (s *Session) Stage() Stage {
	return s.counter.Stage()
}

func (s *Session) PaceHistoryLen() int {
	return s.pace.Len()
}

func (s *Session) Intervals() []time.Duration {
	return s.pace.Intervals()
}

func (s *Session) LastInterval() time.Duration {
	return s.pace.LastInterval()
}

// ProcessFrame measures both elbow angles from the frame landmarks and feeds them
// to the repetition state machine. A frame in which either arm cannot be measured
// leaves the session state untouched.
func (s *Session) ProcessFrame(frame pose.Frame) FrameResult {
	angles := frame.ArmAngles(s.cfg.MinVisibility)
	res := s.ProcessAngles(angles.Left, angles.Right)
	res.Seq = frame.Seq
	return res
}

// ProcessAngles runs one frame worth of already measured elbow angles.
// NaN marks an arm that was not measured.
func (s *Session) ProcessAngles(left, right float64) FrameResult {
	now := s.clock.Now()
	cr := s.counter.Update(left, right)

	res := FrameResult{
		Skipped:    cr.Skipped,
		LeftAngle:  finiteOrNil(left),
		RightAngle: finiteOrNil(right),
	}

	if cr.Incomplete {
		res.Warnings = append(res.Warnings, FormWarning{Kind: WarningIncomplete})
	}

	if cr.Counted {
		count := s.counter.Count()
		res.Repetition = &RepetitionEvent{Timestamp: now, Count: count}

		if tooFast := s.pace.Add(now); tooFast {
			res.Warnings = append(res.Warnings, FormWarning{Kind: WarningTooFast})
		}

		if milestone, ok := s.milestones.Check(count); ok {
			res.Milestone = &milestone
			if s.notifier != nil {
				s.notifier.MilestoneReached(s.id, milestone)
			}
		}

		if s.recorder != nil {
			elapsed := s.metrics.Elapsed(now)
			s.recorder.Record(NewRecord(
				s.id, now, count,
				CaloriesBurned(s.cfg.MET, s.cfg.BodyWeightKg, elapsed),
				elapsed,
			))
		}
	}

	res.Stage = s.counter.Stage()
	res.Count = s.counter.Count()
	res.Snapshot = s.snapshotAt(now)

	return res
}

func (s *Session) Snapshot() MetricsSnapshot {
	return s.snapshotAt(s.clock.Now())
}

func (s *Session) snapshotAt(now time.Time) MetricsSnapshot {
	elapsed := s.metrics.Elapsed(now)
	return MetricsSnapshot{
		SessionID:          s.id,
		Count:              s.counter.Count(),
		Stage:              s.counter.Stage(),
		ElapsedSeconds:     elapsed.Seconds(),
		Calories:           CaloriesBurned(s.cfg.MET, s.cfg.BodyWeightKg, elapsed),
		AveragePaceSeconds: s.pace.AveragePace().Seconds(),
		Timer:              FormatTimer(elapsed),
		Milestones:         s.milestones.Reached(),
	}
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
