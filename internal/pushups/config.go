package pushups

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidConfig = errors.New("invalid pushups config")

const MaxBodyWeightKg = 500

type Milestone struct {
	Count int    `toml:"count" json:"count"`
	Label string `toml:"label" json:"label"`
}

type Config struct {
	// LowerAngle and UpperAngle are the elbow angle thresholds, in degrees,
	// for the down and up positions. Both comparisons are strict.
	LowerAngle float64 `toml:"lower_angle"`
	UpperAngle float64 `toml:"upper_angle"`
	// The incomplete repetition band is (LowerAngle+IncompleteBandStart, LowerAngle+IncompleteBandWidth).
	// Note that IncompleteBandWidth is the offset of the band upper edge, not the band size.
	IncompleteBandStart float64 `toml:"incomplete_band_start"`
	IncompleteBandWidth float64 `toml:"incomplete_band_width"`

	FastRepInterval time.Duration `toml:"fast_rep_interval"`
	BodyWeightKg    float64       `toml:"body_weight_kg"`
	MET             float64       `toml:"met"`
	MinVisibility   float64       `toml:"min_visibility"`
	Milestones      []Milestone   `toml:"milestones"`
}

func DefaultConfig() Config {
	return Config{
		LowerAngle:          90,
		UpperAngle:          160,
		IncompleteBandStart: 10,
		IncompleteBandWidth: 40,
		FastRepInterval:     500 * time.Millisecond,
		BodyWeightKg:        70,
		MET:                 8,
		MinVisibility:       0.5,
		Milestones: []Milestone{
			{Count: 10, Label: "Keep Going!"},
			{Count: 20, Label: "Strong!"},
			{Count: 50, Label: "Champion!"},
		},
	}
}

func (c Config) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"lower angle", c.LowerAngle},
		{"upper angle", c.UpperAngle},
		{"incomplete band start", c.IncompleteBandStart},
		{"incomplete band width", c.IncompleteBandWidth},
		{"body weight", c.BodyWeightKg},
		{"MET", c.MET},
		{"min visibility", c.MinVisibility},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number, got %v", ErrInvalidConfig, v.name, v.value)
		}
	}

	if c.LowerAngle < 0 || c.UpperAngle > 180 {
		return fmt.Errorf("%w: angle thresholds must be within [0, 180], got lower=%v upper=%v",
			ErrInvalidConfig, c.LowerAngle, c.UpperAngle)
	}
	if c.LowerAngle >= c.UpperAngle {
		return fmt.Errorf("%w: lower angle %v must be below upper angle %v",
			ErrInvalidConfig, c.LowerAngle, c.UpperAngle)
	}
	if c.IncompleteBandStart >= c.IncompleteBandWidth {
		return fmt.Errorf("%w: incomplete band start %v must be below band width %v",
			ErrInvalidConfig, c.IncompleteBandStart, c.IncompleteBandWidth)
	}
	if c.FastRepInterval < 0 {
		return fmt.Errorf("%w: negative fast repetition interval %s", ErrInvalidConfig, c.FastRepInterval)
	}
	if c.BodyWeightKg <= 0 || c.BodyWeightKg > MaxBodyWeightKg {
		return fmt.Errorf("%w: body weight must be within (0, %d] kg, got %v", ErrInvalidConfig, MaxBodyWeightKg, c.BodyWeightKg)
	}
	if c.MET <= 0 {
		return fmt.Errorf("%w: MET must be positive, got %v", ErrInvalidConfig, c.MET)
	}
	if c.MinVisibility < 0 || c.MinVisibility > 1 {
		return fmt.Errorf("%w: min visibility must be within [0, 1], got %v", ErrInvalidConfig, c.MinVisibility)
	}

	seen := make(map[int]bool, len(c.Milestones))
	for _, m := range c.Milestones {
		if m.Count <= 0 {
			return fmt.Errorf("%w: milestone count must be positive, got %d", ErrInvalidConfig, m.Count)
		}
		if seen[m.Count] {
			return fmt.Errorf("%w: duplicate milestone %d", ErrInvalidConfig, m.Count)
		}
		seen[m.Count] = true
	}

	return nil
}
