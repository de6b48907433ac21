package pushups

import "sort"

type MilestoneTracker struct {
	labels  map[int]string
	reached map[int]struct{}
}

func NewMilestoneTracker(milestones []Milestone) *MilestoneTracker {
	labels := make(map[int]string, len(milestones))
	for _, m := range milestones {
		labels[m.Count] = m.Label
	}
	return &MilestoneTracker{
		labels:  labels,
		reached: make(map[int]struct{}),
	}
}

// Check returns the milestone for count the first time it is seen.
// Any later call with the same count returns false.
func (t *MilestoneTracker) Check(count int) (MilestoneEvent, bool) {
	label, ok := t.labels[count]
	if !ok {
		return MilestoneEvent{}, false
	}
	if _, done := t.reached[count]; done {
		return MilestoneEvent{}, false
	}
	t.reached[count] = struct{}{}
	return MilestoneEvent{Count: count, Label: label}, true
}

// Reached lists the milestones announced so far, ascending.
func (t *MilestoneTracker) Reached() []int {
	reached := make([]int, 0, len(t.reached))
	for c := range t.reached {
		reached = append(reached, c)
	}
	sort.Ints(reached)
	return reached
}
