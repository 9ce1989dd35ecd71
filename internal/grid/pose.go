package grid

import "math"

// Pose is the vehicle position in cell units plus heading in radians.
// X and Y keep sub-cell precision so repeated small moves do not drift.
type Pose struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Yaw float64 `json:"yaw"`
}

// Delta is a relative motion expressed in the vehicle frame at the time of the move.
// X is lateral and Y is forward, both in centimeters; Yaw is in radians.
type Delta struct {
	X   float64 `json:"dx_cm"`
	Y   float64 `json:"dy_cm"`
	Yaw float64 `json:"dyaw_rad"`
}

// IsZero reports whether the delta carries no motion.
func (d Delta) IsZero() bool {
	return d.X == 0 && d.Y == 0 && d.Yaw == 0
}

// WrapAngle normalizes an angle in radians to (-π, π].
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	r := math.Remainder(a, 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return r
}

// Integrate applies a vehicle-frame delta to the current pose and returns the new pose.
// The translation is rotated by the yaw held before the update, converted from
// centimeters to cells, and clamped to the grid; the yaw delta is added afterwards.
func (g *Grid) Integrate(d Delta) Pose {
	dxM := d.X * 0.01
	dyM := d.Y * 0.01

	cos := math.Cos(g.pose.Yaw)
	sin := math.Sin(g.pose.Yaw)
	dxWorld := dxM*cos - dyM*sin
	dyWorld := dxM*sin + dyM*cos

	g.pose.X = clamp(g.pose.X+dxWorld/g.cellSize, 0, float64(g.n-1))
	g.pose.Y = clamp(g.pose.Y+dyWorld/g.cellSize, 0, float64(g.n-1))
	g.pose.Yaw = WrapAngle(g.pose.Yaw + d.Yaw)
	return g.pose
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
