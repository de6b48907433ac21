package pose

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Angle returns the angle in degrees at vertex b, formed by the rays b->a and b->c.
// The result is in [0, 180]. It is NaN when a or c coincides with b, or when any
// coordinate is not finite, since no direction can be derived in that case.
func Angle(a, b, c Point) float64 {
	if !a.finite() || !b.finite() || !c.finite() {
		return math.NaN()
	}
	if a == b || c == b {
		return math.NaN()
	}

	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360.0 - angle
	}
	return angle
}
