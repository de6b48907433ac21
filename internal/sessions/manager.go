package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/2beens/powerpush/internal/pose"
	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/telemetry/metrics"
	"github.com/2beens/powerpush/internal/telemetry/tracing"
	"github.com/2beens/powerpush/pkg"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrSessionNotFound = errors.New("session not found")

// frame results are kept for retried requests for this long
const frameCacheTTLSeconds = 120

type StartParams struct {
	// BodyWeightKg overrides the configured body weight when positive.
	BodyWeightKg float64 `json:"bodyWeightKg"`
}

type SessionInfo struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"startedAt"`
	BodyWeightKg float64   `json:"bodyWeightKg"`
}

type NewManagerParams struct {
	Config           pushups.Config
	Recorder         pushups.Recorder
	Clock            pushups.Clock
	Metrics          *metrics.Manager
	FrameCacheSizeMB int
	IDGenerator      func() (string, error)
}

// Manager owns the live sessions. Each session is only ever touched while
// holding its own lock, so frames of one session are processed one at a time,
// while different sessions progress independently.
type Manager struct {
	cfg         pushups.Config
	recorder    pushups.Recorder
	clock       pushups.Clock
	metrics     *metrics.Manager
	frameCache  *freecache.Cache
	idGenerator func() (string, error)

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

type liveSession struct {
	mu      sync.Mutex
	session *pushups.Session
	// set by Finish, a frame that looked the session up before that must not touch it
	finished bool
}

func NewManager(params NewManagerParams) (*Manager, error) {
	if err := params.Config.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:         params.Config,
		recorder:    params.Recorder,
		clock:       params.Clock,
		metrics:     params.Metrics,
		idGenerator: params.IDGenerator,
		sessions:    make(map[string]*liveSession),
	}
	if m.clock == nil {
		m.clock = pushups.RealClock{}
	}
	if m.idGenerator == nil {
		m.idGenerator = func() (string, error) {
			return pkg.GenerateRandomString(12)
		}
	}
	if m.metrics == nil {
		m.metrics = metrics.NewTestManager()
	}

	cacheSizeMB := params.FrameCacheSizeMB
	if cacheSizeMB <= 0 {
		cacheSizeMB = 16
	}
	m.frameCache = freecache.NewCache(cacheSizeMB * 1024 * 1024)

	return m, nil
}

func (m *Manager) Start(ctx context.Context, params StartParams) (_ *SessionInfo, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "sessions.manager.start")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cfg := m.cfg
	if params.BodyWeightKg > 0 {
		cfg.BodyWeightKg = params.BodyWeightKg
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	id, err := m.idGenerator()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	opts := []pushups.Option{
		pushups.WithClock(m.clock),
		pushups.WithNotifier(m),
	}
	if m.recorder != nil {
		opts = append(opts, pushups.WithRecorder(m.recorder))
	}
	session, err := pushups.NewSession(id, cfg, opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = &liveSession{session: session}
	m.mu.Unlock()

	m.metrics.GaugeActiveSessions.Inc()
	span.SetAttributes(attribute.String("session", id))
	log.WithField("session", id).Infof("session started, body weight %.1f kg", cfg.BodyWeightKg)

	return &SessionInfo{
		ID:           id,
		StartedAt:    session.StartedAt(),
		BodyWeightKg: cfg.BodyWeightKg,
	}, nil
}

// ProcessFrame feeds the frame to the session. A frame with a positive seq that
// was already processed for the session is answered from cache and not fed again,
// as long as its result is still cached (frameCacheTTLSeconds, bounded cache size).
func (m *Manager) ProcessFrame(ctx context.Context, id string, frame pose.Frame) (_ *pushups.FrameResult, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "sessions.manager.frame")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("session", id),
		attribute.Int64("seq", frame.Seq),
	)

	ls, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return m.processFrame(id, ls, frame)
}

func (m *Manager) processFrame(id string, ls *liveSession, frame pose.Frame) (*pushups.FrameResult, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.finished {
		return nil, ErrSessionNotFound
	}

	cacheKey := frameCacheKey(id, frame.Seq)
	if frame.Seq > 0 {
		if cached, err := m.frameCache.Get(cacheKey); err == nil {
			var res pushups.FrameResult
			if err := json.Unmarshal(cached, &res); err == nil {
				m.metrics.CounterFrameReplays.Inc()
				return &res, nil
			}
		}
	}

	res := ls.session.ProcessFrame(frame)
	m.observe(ls.session, res)

	if frame.Seq > 0 {
		if encoded, err := json.Marshal(res); err != nil {
			log.WithField("session", id).Errorf("marshal frame result %d: %s", frame.Seq, err)
		} else if err := m.frameCache.Set(cacheKey, encoded, frameCacheTTLSeconds); err != nil {
			log.WithField("session", id).Debugf("cache frame result %d: %s", frame.Seq, err)
		}
	}

	return &res, nil
}

func (m *Manager) Snapshot(ctx context.Context, id string) (_ pushups.MetricsSnapshot, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "sessions.manager.snapshot")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ls, err := m.get(id)
	if err != nil {
		return pushups.MetricsSnapshot{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.finished {
		return pushups.MetricsSnapshot{}, ErrSessionNotFound
	}
	return ls.session.Snapshot(), nil
}

// Finish ends the session and returns its final metrics.
func (m *Manager) Finish(ctx context.Context, id string) (_ pushups.MetricsSnapshot, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "sessions.manager.finish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	m.mu.Lock()
	ls, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return pushups.MetricsSnapshot{}, ErrSessionNotFound
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.finished = true

	m.metrics.GaugeActiveSessions.Dec()
	snapshot := ls.session.Snapshot()
	log.WithField("session", id).Infof(
		"session finished: %d push-ups in %s, %.2f kcal, avg pace %.2fs",
		snapshot.Count, snapshot.Timer, snapshot.Calories, snapshot.AveragePaceSeconds,
	)

	return snapshot, nil
}

func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) MilestoneReached(sessionID string, ev pushups.MilestoneEvent) {
	m.metrics.CounterMilestones.Inc()
	log.WithFields(log.Fields{
		"session": sessionID,
		"count":   ev.Count,
	}).Infof("milestone reached: %s", ev.Label)
}

func (m *Manager) get(id string) (*liveSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ls, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls, nil
}

func (m *Manager) observe(session *pushups.Session, res pushups.FrameResult) {
	if res.Skipped {
		m.metrics.CounterFrames.WithLabelValues("skipped").Inc()
	} else {
		m.metrics.CounterFrames.WithLabelValues("processed").Inc()
	}

	for _, w := range res.Warnings {
		m.metrics.CounterFormWarnings.WithLabelValues(string(w.Kind)).Inc()
	}

	if res.Repetition == nil {
		return
	}
	m.metrics.CounterRepetitions.Inc()
	if interval := session.LastInterval(); interval > 0 {
		m.metrics.HistRepInterval.Observe(interval.Seconds())
	}
	log.WithFields(log.Fields{
		"session": session.ID(),
		"count":   res.Repetition.Count,
	}).Debug("push-up counted")
}

func frameCacheKey(sessionID string, seq int64) []byte {
	return []byte(sessionID + ":" + strconv.FormatInt(seq, 10))
}
