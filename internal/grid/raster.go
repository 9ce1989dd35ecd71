package grid

// Line returns the cells of the integer line from a to b inclusive.
func Line(a, b Cell) []Cell {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	sx, sy := -1, -1
	if a.X < b.X {
		sx = 1
	}
	if a.Y < b.Y {
		sy = 1
	}
	err := dx - dy
	x, y := a.X, a.Y
	out := make([]Cell, 0, max(dx, dy)+1)
	for {
		out = append(out, Cell{X: x, Y: y})
		if x == b.X && y == b.Y {
			return out
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// Rasterize marks every cell on the straight path between two poses as Visited.
// Obstacle cells are left alone. The path is always traced from the lower
// (x, then y) endpoint so both travel directions mark the same cells.
func (g *Grid) Rasterize(prev, next Pose) Outcome {
	a, ok := g.WorldToCells(prev.X, prev.Y)
	if !ok {
		return failed(ErrOutOfBounds)
	}
	b, ok := g.WorldToCells(next.X, next.Y)
	if !ok {
		return failed(ErrOutOfBounds)
	}
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	marked := 0
	for _, c := range Line(a, b) {
		i := g.Index(c.X, c.Y)
		if g.cells[i] == Obstacle {
			continue
		}
		g.cells[i] = Visited
		marked++
	}
	return applied(marked)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
