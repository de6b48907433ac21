package pushups

import (
	"math"
	"time"
)

type RepetitionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// WarningKind can be one of:
//   - incomplete (arms stopped between the down and the up position)
//   - too-fast (the last repetition followed the previous one too quickly)
type WarningKind string

const (
	WarningIncomplete WarningKind = "incomplete"
	WarningTooFast    WarningKind = "too-fast"
)

type FormWarning struct {
	Kind WarningKind `json:"kind"`
}

type MilestoneEvent struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

type MetricsSnapshot struct {
	SessionID          string  `json:"sessionId"`
	Count              int     `json:"count"`
	Stage              Stage   `json:"stage"`
	ElapsedSeconds     float64 `json:"elapsedSeconds"`
	Calories           float64 `json:"calories"`
	AveragePaceSeconds float64 `json:"averagePaceSeconds"`
	Timer              string  `json:"timer"`
	Milestones         []int   `json:"milestones"`
}

// Record is the persisted row written for every counted repetition.
type Record struct {
	SessionID      string    `json:"sessionId"`
	Timestamp      time.Time `json:"timestamp"`
	Count          int       `json:"count"`
	Calories       float64   `json:"calories"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
}

func NewRecord(sessionID string, ts time.Time, count int, calories float64, elapsed time.Duration) Record {
	return Record{
		SessionID:      sessionID,
		Timestamp:      ts,
		Count:          count,
		Calories:       math.Round(calories*100) / 100,
		ElapsedSeconds: int(elapsed / time.Second),
	}
}

// FrameResult is everything a single processed frame produced.
// Angles are nil when the arm could not be measured.
type FrameResult struct {
	Seq        int64            `json:"seq"`
	Skipped    bool             `json:"skipped"`
	LeftAngle  *float64         `json:"leftAngle,omitempty"`
	RightAngle *float64         `json:"rightAngle,omitempty"`
	Stage      Stage            `json:"stage"`
	Count      int              `json:"count"`
	Repetition *RepetitionEvent `json:"repetition,omitempty"`
	Warnings   []FormWarning    `json:"warnings,omitempty"`
	Milestone  *MilestoneEvent  `json:"milestone,omitempty"`
	Snapshot   MetricsSnapshot  `json:"snapshot"`
}

func (r FrameResult) HasWarning(kind WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
