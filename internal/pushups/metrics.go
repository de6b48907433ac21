package pushups

import (
	"fmt"
	"time"
)

// SessionMetrics derives the time based session values from the session start.
// Nothing but the start and the furthest elapsed time seen is stored, so
// values computed for a clock that stepped backwards never regress.
type SessionMetrics struct {
	start        time.Time
	bodyWeightKg float64
	met          float64
	maxElapsed   time.Duration
}

func NewSessionMetrics(start time.Time, bodyWeightKg, met float64) *SessionMetrics {
	return &SessionMetrics{
		start:        start,
		bodyWeightKg: bodyWeightKg,
		met:          met,
	}
}

func (m *SessionMetrics) Start() time.Time {
	return m.start
}

func (m *SessionMetrics) Elapsed(now time.Time) time.Duration {
	elapsed := now.Sub(m.start)
	if elapsed < m.maxElapsed {
		return m.maxElapsed
	}
	m.maxElapsed = elapsed
	return elapsed
}

// Calories burned so far: MET * weight[kg] * elapsed[h].
func (m *SessionMetrics) Calories(now time.Time) float64 {
	return CaloriesBurned(m.met, m.bodyWeightKg, m.Elapsed(now))
}

// TimerDisplay formats the elapsed whole seconds as mm:ss.
func (m *SessionMetrics) TimerDisplay(now time.Time) string {
	return FormatTimer(m.Elapsed(now))
}

func CaloriesBurned(met, bodyWeightKg float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return met * bodyWeightKg * elapsed.Hours()
}

func FormatTimer(elapsed time.Duration) string {
	secs := int64(elapsed / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
