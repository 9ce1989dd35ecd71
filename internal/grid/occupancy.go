package grid

import "math"

// MarkObservation classifies the cells seen in one perception cycle.
//
// obstacleRange is the distance along boresight to the nearest obstacle, in the
// same units as c.Range; zero or negative means nothing was seen. Cells closer
// than the obstacle become Free unless already Visited or Obstacle. Cells within
// half a cell of the obstacle distance and inside the central third of the cone
// become Obstacle unless the vehicle has already traversed them.
func (g *Grid) MarkObservation(c Cone, obstacleRange float64) Outcome {
	if math.IsNaN(obstacleRange) {
		obstacleRange = 0
	}
	limit := float64(c.RangeCells())
	hit := obstacleRange > 0 && obstacleRange <= limit
	third := c.FOV / 6

	changed := 0
	err := g.ScanCone(c, func(s Sample) {
		i := g.Index(s.X, s.Y)
		cur := g.cells[i]
		if cur == Obstacle || cur == Visited {
			return
		}
		switch {
		case hit && math.Abs(s.Dist-obstacleRange) <= 0.5 && s.Theta <= third:
			g.cells[i] = Obstacle
			changed++
		case hit && s.Dist >= obstacleRange-0.5:
			// behind or beside the obstacle: unobserved
		case cur == Unknown:
			g.cells[i] = Free
			changed++
		}
	})
	if err != nil {
		return failed(err)
	}
	return applied(changed)
}
