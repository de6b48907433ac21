package pose

import (
	"math"
	"time"
)

// LandmarkName follows the pose estimator naming (lower snake case).
type LandmarkName string

const (
	LeftShoulder  LandmarkName = "left_shoulder"
	LeftElbow     LandmarkName = "left_elbow"
	LeftWrist     LandmarkName = "left_wrist"
	RightShoulder LandmarkName = "right_shoulder"
	RightElbow    LandmarkName = "right_elbow"
	RightWrist    LandmarkName = "right_wrist"
)

type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Frame is a single pose estimation result. Landmarks not detected by the
// estimator are simply missing from the map.
// When Width and Height are set, landmark coordinates are treated as normalized
// and scaled to pixels before any geometry is computed.
type Frame struct {
	Seq       int64                     `json:"seq"`
	Timestamp time.Time                 `json:"ts"`
	Width     int                       `json:"width,omitempty"`
	Height    int                       `json:"height,omitempty"`
	Landmarks map[LandmarkName]Landmark `json:"landmarks"`
}

// Point returns the landmark position, or false if the landmark is missing
// or its visibility is below minVisibility.
func (f Frame) Point(name LandmarkName, minVisibility float64) (Point, bool) {
	lm, ok := f.Landmarks[name]
	if !ok {
		return Point{}, false
	}
	if minVisibility > 0 && lm.Visibility < minVisibility {
		return Point{}, false
	}

	p := Point{X: lm.X, Y: lm.Y}
	if f.Width > 0 && f.Height > 0 {
		p.X *= float64(f.Width)
		p.Y *= float64(f.Height)
	}
	return p, true
}

// ArmAngles holds the elbow angles of both arms. An arm that could not be
// measured has a NaN angle.
type ArmAngles struct {
	Left  float64
	Right float64
}

func (a ArmAngles) Complete() bool {
	return !math.IsNaN(a.Left) && !math.IsNaN(a.Right)
}

// ArmAngles computes the shoulder-elbow-wrist angle for both arms.
func (f Frame) ArmAngles(minVisibility float64) ArmAngles {
	return ArmAngles{
		Left:  f.elbowAngle(LeftShoulder, LeftElbow, LeftWrist, minVisibility),
		Right: f.elbowAngle(RightShoulder, RightElbow, RightWrist, minVisibility),
	}
}

func (f Frame) elbowAngle(shoulder, elbow, wrist LandmarkName, minVisibility float64) float64 {
	s, ok := f.Point(shoulder, minVisibility)
	if !ok {
		return math.NaN()
	}
	e, ok := f.Point(elbow, minVisibility)
	if !ok {
		return math.NaN()
	}
	w, ok := f.Point(wrist, minVisibility)
	if !ok {
		return math.NaN()
	}
	return Angle(s, e, w)
}
