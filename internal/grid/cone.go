package grid

import (
	"fmt"
	"math"
)

// degenerateHalfFOV is the half-angle below which a field of view is treated as empty.
const degenerateHalfFOV = 1e-9

// Cone is the viewing geometry of one perception cycle.
type Cone struct {
	// Pose is the vehicle pose the window is centered on.
	Pose Pose
	// FOV is the full angular width in radians.
	FOV float64
	// Range is the viewing distance. The scan covers ceil(Range) cells around Pose.
	Range float64
}

// Sample is one in-cone cell visited by ScanCone.
type Sample struct {
	X, Y int
	// Dist is the distance from the vehicle in cells.
	Dist float64
	// Theta is the absolute bearing offset from the heading in radians.
	Theta float64
}

// Validate checks the cone for degenerate geometry.
func (c Cone) Validate() error {
	if math.IsNaN(c.FOV) || c.FOV/2 <= degenerateHalfFOV {
		return fmt.Errorf("fov %v: %w", c.FOV, ErrDegenerateFOV)
	}
	if !(c.Range > 0) || math.IsInf(c.Range, 0) {
		return fmt.Errorf("range %v: %w", c.Range, ErrInvalidRange)
	}
	return nil
}

// RangeCells is the integer radius of the scan window.
func (c Cone) RangeCells() int {
	return int(math.Ceil(c.Range))
}

// ScanCone calls fn for every cell inside the cone, in row-major order
// (y ascending, then x ascending). Bearings are measured clockwise from the
// +y axis, so a zero offset lies straight ahead of a zero yaw.
func (g *Grid) ScanCone(c Cone, fn func(Sample)) error {
	if err := c.Validate(); err != nil {
		return err
	}
	half := c.FOV / 2
	r := c.RangeCells()
	rf := float64(r)

	px := int(c.Pose.X)
	py := int(c.Pose.Y)
	xMin := max(0, px-r)
	xMax := min(g.n-1, px+r)
	yMin := max(0, py-r)
	yMax := min(g.n-1, py+r)

	for y := yMin; y <= yMax; y++ {
		for x := xMin; x <= xMax; x++ {
			dx := (float64(x) + 0.5) - (c.Pose.X + 0.5)
			dy := (float64(y) + 0.5) - (c.Pose.Y + 0.5)
			dist := math.Hypot(dx, dy)
			if dist > rf {
				continue
			}
			bearing := math.Atan2(dx, dy)
			theta := math.Abs(WrapAngle(bearing - c.Pose.Yaw))
			if theta > half {
				continue
			}
			fn(Sample{X: x, Y: y, Dist: dist, Theta: theta})
		}
	}
	return nil
}
