package perception

import (
	"math"

	"droneops-scout/internal/grid"
)

// Toward returns the lateral and forward moves that carry a vehicle at from to
// the center of cell to. The displacement is rotated into the vehicle frame
// with the inverse of the pose integration rotation. Components shorter than
// half the minimum move are dropped so the clamp never overshoots badly.
func Toward(from grid.Pose, to grid.Cell, cellSize float64, l Limits) []Command {
	wx := (float64(to.X) - from.X) * cellSize * 100
	wy := (float64(to.Y) - from.Y) * cellSize * 100
	cos := math.Cos(from.Yaw)
	sin := math.Sin(from.Yaw)
	lateral := wx*cos + wy*sin
	forward := -wx*sin + wy*cos

	var out []Command
	if c, ok := axisMove(forward, MoveForward, MoveBackward, l); ok {
		out = append(out, c)
	}
	if c, ok := axisMove(lateral, MoveRight, MoveLeft, l); ok {
		out = append(out, c)
	}
	return out
}

func axisMove(d float64, pos, neg Action, l Limits) (Command, bool) {
	if math.Abs(d) < l.MinCm/2 {
		return Command{}, false
	}
	a := pos
	if d < 0 {
		a = neg
	}
	return Command{Action: a, Amount: math.Round(math.Abs(d))}.Clamp(l), true
}
