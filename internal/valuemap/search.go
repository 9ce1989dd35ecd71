package valuemap

import (
	"math"

	"droneops-scout/internal/grid"
)

// Best returns the cell with the strictly greatest value inside the viewing cone
// around pose. Ties keep the first cell in row-major order. When no cell
// qualifies it returns the grid center and false.
func (m *Map) Best(pose grid.Pose, v View) (grid.Cell, bool) {
	best := m.g.Center()
	bestValue := math.Inf(-1)
	found := false
	err := m.g.ScanCone(v.Cone(pose), func(s grid.Sample) {
		val := m.value[m.g.Index(s.X, s.Y)]
		if val > bestValue {
			bestValue = val
			best = grid.Cell{X: s.X, Y: s.Y}
			found = true
		}
	})
	if err != nil {
		return m.g.Center(), false
	}
	return best, found
}
