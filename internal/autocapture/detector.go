// Package autocapture decides when faces in a camera preview are sharp and
// steady enough to trigger a capture.
package autocapture

import (
	"math"
	"sync"
)

const (
	DefaultFocusThreshold  = 0.85
	DefaultStabilityFrames = 3

	// smallFaceArea marks faces likely too far from the camera.
	smallFaceArea       = 10000
	smallFacePenalty    = 0.7
	eyesDetectedBonus   = 1.2
	maxStableMovement   = 20
	rollAngleConfidence = 1.0
	baseConfidence      = 0.5
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Bounds struct {
	Origin Point `json:"origin"`
	Size   Size  `json:"size"`
}

// Face is one detection from the camera's face detector. Optional
// attributes are nil when the detector did not report them.
type Face struct {
	Bounds           *Bounds  `json:"bounds,omitempty"`
	RollAngle        *float64 `json:"roll_angle,omitempty"`
	LeftEyePosition  *Point   `json:"left_eye_position,omitempty"`
	RightEyePosition *Point   `json:"right_eye_position,omitempty"`
}

// Detector tracks focus scores across consecutive frames.
type Detector struct {
	mu              sync.Mutex
	focusThreshold  float64
	stabilityFrames int
	history         []float64
}

func NewDetector() *Detector {
	return &Detector{
		focusThreshold:  DefaultFocusThreshold,
		stabilityFrames: DefaultStabilityFrames,
	}
}

// CheckFocus records the frame's focus score and reports true once the last
// StabilityFrames scores all clear the threshold. History resets on an
// empty frame and after a positive result.
func (d *Detector) CheckFocus(faces []Face) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(faces) == 0 {
		d.history = d.history[:0]
		return false
	}

	d.history = append(d.history, CalculateFocusScore(faces))
	if len(d.history) > d.stabilityFrames {
		d.history = d.history[len(d.history)-d.stabilityFrames:]
	}

	if len(d.history) < d.stabilityFrames {
		return false
	}
	for _, score := range d.history {
		if score < d.focusThreshold {
			return false
		}
	}
	d.history = d.history[:0]
	return true
}

// History returns a copy of the retained focus scores.
func (d *Detector) History() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]float64, len(d.history))
	copy(out, d.history)
	return out
}

func (d *Detector) Reset() {
	d.mu.Lock()
	d.history = d.history[:0]
	d.mu.Unlock()
}

// CalculateFocusScore scores the most confident face in [0,1].
func CalculateFocusScore(faces []Face) float64 {
	var best *Face
	bestConfidence := 0.0
	for i := range faces {
		confidence := baseConfidence
		if faces[i].RollAngle != nil {
			confidence = rollAngleConfidence
		}
		if confidence > bestConfidence {
			bestConfidence = confidence
			best = &faces[i]
		}
	}
	if best == nil {
		return 0
	}

	score := bestConfidence
	area := 0.0
	if best.Bounds != nil {
		area = best.Bounds.Size.Width * best.Bounds.Size.Height
	}
	if area < smallFaceArea {
		score *= smallFacePenalty
	}
	if best.LeftEyePosition != nil && best.RightEyePosition != nil {
		score = math.Min(1, score*eyesDetectedBonus)
	}
	return score
}

// CheckStability reports whether every face moved at most 20 points on
// each axis since the previous frame. Faces without bounds are ignored. A
// nil frame on either side is never stable; empty frames are.
func CheckStability(faces, previous []Face) bool {
	if faces == nil || previous == nil || len(faces) != len(previous) {
		return false
	}
	for i := range faces {
		cur, prev := faces[i].Bounds, previous[i].Bounds
		if cur == nil || prev == nil {
			continue
		}
		if math.Abs(cur.Origin.X-prev.Origin.X) > maxStableMovement ||
			math.Abs(cur.Origin.Y-prev.Origin.Y) > maxStableMovement {
			return false
		}
	}
	return true
}
