package pushups

import (
	"fmt"
	"math"
)

// Stage is the arm position the counter currently believes in.
type Stage int

const (
	StageNone Stage = iota
	StageUp
	StageDown
)

func (s Stage) String() string {
	switch s {
	case StageUp:
		return "up"
	case StageDown:
		return "down"
	default:
		return "none"
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	switch string(text) {
	case "up":
		*s = StageUp
	case "down":
		*s = StageDown
	case "none", "":
		*s = StageNone
	default:
		return fmt.Errorf("unknown stage: %s", text)
	}
	return nil
}

type CounterResult struct {
	// Skipped is set when an angle was missing, the state was not touched.
	Skipped    bool
	Counted    bool
	Incomplete bool
}

// Counter is the up/down repetition state machine. A repetition is counted
// only on a down transition that follows an up position, with both arms agreeing.
type Counter struct {
	lower          float64
	upper          float64
	incompleteLow  float64
	incompleteHigh float64
	stage          Stage
	count          int
}

func NewCounter(cfg Config) *Counter {
	return &Counter{
		lower:          cfg.LowerAngle,
		upper:          cfg.UpperAngle,
		incompleteLow:  cfg.LowerAngle + cfg.IncompleteBandStart,
		incompleteHigh: cfg.LowerAngle + cfg.IncompleteBandWidth,
	}
}

func (c *Counter) Stage() Stage {
	return c.stage
}

func (c *Counter) Count() int {
	return c.count
}

// Update feeds the left and right elbow angles of one frame. A NaN angle
// means the arm was not measured in that frame.
func (c *Counter) Update(left, right float64) CounterResult {
	if math.IsNaN(left) || math.IsNaN(right) {
		return CounterResult{Skipped: true}
	}

	var res CounterResult
	if left > c.upper && right > c.upper {
		c.stage = StageUp
	}
	if left < c.lower && right < c.lower && c.stage == StageUp {
		c.stage = StageDown
		c.count++
		res.Counted = true
	}

	res.Incomplete = c.inIncompleteBand(left) || c.inIncompleteBand(right)
	return res
}

func (c *Counter) inIncompleteBand(angle float64) bool {
	return angle > c.incompleteLow && angle < c.incompleteHigh
}
