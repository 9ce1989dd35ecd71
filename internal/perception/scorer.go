package perception

import (
	"context"
	"time"

	"droneops-scout/internal/grid"
)

// Frame is what the vehicle captured at one pose.
type Frame struct {
	Pose      grid.Pose `json:"pose"`
	Battery   float64   `json:"battery_pct"`
	Timestamp time.Time `json:"ts"`
	Image     []byte    `json:"-"`
}

// Detection is one labelled object in a frame. BBox is x1, y1, x2, y2 in
// normalized image coordinates.
type Detection struct {
	Object string     `json:"object" yaml:"object"`
	Score  float64    `json:"score" yaml:"score"`
	BBox   [4]float64 `json:"bbox" yaml:"bbox"`
}

// Observation is the scored result for a frame.
type Observation struct {
	// Score is the value score in [0, 1] for the scene ahead.
	Score float64 `json:"score" yaml:"score"`
	// ObstacleRange is the distance to the nearest obstacle along boresight in
	// cells, or zero when none was seen.
	ObstacleRange float64 `json:"obstacle_range,omitempty" yaml:"obstacle_range,omitempty"`
	// OffsetXCm and OffsetYCm locate the scored point relative to the vehicle.
	OffsetXCm  float64     `json:"offset_x_cm,omitempty" yaml:"offset_x_cm,omitempty"`
	OffsetYCm  float64     `json:"offset_y_cm,omitempty" yaml:"offset_y_cm,omitempty"`
	Detections []Detection `json:"detections,omitempty" yaml:"detections,omitempty"`
	// Plan holds follow-up commands suggested by the scorer.
	Plan []Command `json:"plan,omitempty" yaml:"plan,omitempty"`
}

// Scorer turns frames into observations.
type Scorer interface {
	Score(ctx context.Context, f Frame) (Observation, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, f Frame) (Observation, error)

// Score calls fn.
func (fn ScorerFunc) Score(ctx context.Context, f Frame) (Observation, error) {
	return fn(ctx, f)
}

// Best returns the highest scoring detection and false when there is none.
func (o Observation) Best() (Detection, bool) {
	if len(o.Detections) == 0 {
		return Detection{}, false
	}
	best := o.Detections[0]
	for _, d := range o.Detections[1:] {
		if d.Score > best.Score {
			best = d
		}
	}
	return best, true
}
