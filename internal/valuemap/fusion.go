package valuemap

import (
	"math"

	"droneops-scout/internal/grid"
)

// Fuse folds one observation with confidence c into prev and returns the new estimate.
//
// The first meaningful observation sets value = score·c and confidence = c.
// Later ones keep a running mean of the raw score, rescaled by the latest
// confidence, and merge confidences as (c² + c_prev²) / (c + c_prev).
func Fuse(prev Estimate, score, c float64) Estimate {
	n := prev.Count + 1
	if prev.Confidence <= coldStartEpsilon {
		return Estimate{Value: score * c, Confidence: c, Count: n}
	}
	fn := float64(n)
	v := (((fn-1)/fn)*prev.Value + (1/fn)*score) * c
	conf := (c*c + prev.Confidence*prev.Confidence) / (c + prev.Confidence)
	return Estimate{Value: v, Confidence: conf, Count: n}
}

// Update fuses a value score into every cell inside the viewing cone around pose.
// Cells outside the cone, Obstacle cells when the mask is on, and cells on the
// FOV edge (zero confidence) keep their prior state.
func (m *Map) Update(score float64, pose grid.Pose, v View) grid.Outcome {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return grid.Outcome{Status: grid.Failed, Err: ErrInvalidScore}
	}
	cone := v.Cone(pose)
	if err := cone.Validate(); err != nil {
		return grid.Outcome{Status: grid.Failed, Err: err}
	}
	if _, err := m.observedCell(pose, v); err != nil {
		return grid.Outcome{Status: grid.Failed, Err: err}
	}

	fov := cone.FOV
	updated := 0
	err := m.g.ScanCone(cone, func(s grid.Sample) {
		if v.UseObstacleMask && m.g.At(s.X, s.Y) == grid.Obstacle {
			return
		}
		c := AngleConfidence(s.Theta, fov)
		if c <= coldStartEpsilon {
			return
		}
		i := m.g.Index(s.X, s.Y)
		est := Fuse(Estimate{Value: m.value[i], Confidence: m.conf[i], Count: m.count[i]}, score, c)
		m.value[i] = est.Value
		m.conf[i] = est.Confidence
		m.count[i] = est.Count
		updated++
	})
	if err != nil {
		return grid.Outcome{Status: grid.Failed, Err: err}
	}
	if updated == 0 {
		return grid.Outcome{Status: grid.Skipped}
	}
	return grid.Outcome{Status: grid.Applied, Cells: updated}
}
