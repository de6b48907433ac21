package pushups

import "time"

// PaceTracker keeps the timestamps of all counted repetitions in a session.
type PaceTracker struct {
	fastThreshold time.Duration
	times         []time.Time
}

func NewPaceTracker(fastThreshold time.Duration) *PaceTracker {
	return &PaceTracker{
		fastThreshold: fastThreshold,
		times:         make([]time.Time, 0, 64),
	}
}

// Add records a repetition and reports whether the interval since the previous
// one is shorter than the fast threshold. The first repetition is never too fast.
func (p *PaceTracker) Add(ts time.Time) (tooFast bool) {
	p.times = append(p.times, ts)
	if len(p.times) < 2 {
		return false
	}
	return p.times[len(p.times)-1].Sub(p.times[len(p.times)-2]) < p.fastThreshold
}

func (p *PaceTracker) Len() int {
	return len(p.times)
}

func (p *PaceTracker) Intervals() []time.Duration {
	if len(p.times) < 2 {
		return nil
	}
	intervals := make([]time.Duration, 0, len(p.times)-1)
	for i := 0; i < len(p.times)-1; i++ {
		intervals = append(intervals, p.times[i+1].Sub(p.times[i]))
	}
	return intervals
}

// LastInterval is zero until two repetitions were recorded.
func (p *PaceTracker) LastInterval() time.Duration {
	if len(p.times) < 2 {
		return 0
	}
	return p.times[len(p.times)-1].Sub(p.times[len(p.times)-2])
}

// AveragePace is the mean interval between consecutive repetitions,
// zero with fewer than two repetitions.
func (p *PaceTracker) AveragePace() time.Duration {
	if len(p.times) < 2 {
		return 0
	}
	// mean of consecutive intervals telescopes to (last - first) / n
	total := p.times[len(p.times)-1].Sub(p.times[0])
	return total / time.Duration(len(p.times)-1)
}
