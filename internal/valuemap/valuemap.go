// Package valuemap accumulates perception value scores per grid cell and picks
// the most promising cell to fly toward next.
package valuemap

import (
	"errors"
	"fmt"
	"math"

	"droneops-scout/internal/grid"
)

var (
	// ErrObservationOutOfGrid is reported when the observed point falls outside the grid.
	ErrObservationOutOfGrid = errors.New("observation point outside grid")
	// ErrInvalidScore is reported for NaN or infinite value scores.
	ErrInvalidScore = errors.New("value score is not finite")
)

// coldStartEpsilon is the confidence below which a cell counts as never observed.
const coldStartEpsilon = 1e-9

// Estimate is the fused state of one cell.
type Estimate struct {
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
	Count      int32   `json:"count"`
}

// Map holds value, confidence and observation count for every cell of a grid.
// It shares the grid's indexing and reads its cell states but never writes them.
// Like the grid it is not safe for concurrent use.
type Map struct {
	g     *grid.Grid
	value []float64
	conf  []float64
	count []int32
}

// New creates an empty value map over g.
func New(g *grid.Grid) *Map {
	n := g.Size() * g.Size()
	return &Map{
		g:     g,
		value: make([]float64, n),
		conf:  make([]float64, n),
		count: make([]int32, n),
	}
}

// Size returns the number of cells along one side.
func (m *Map) Size() int { return m.g.Size() }

// At returns the estimate for (x, y); out-of-bounds cells read as zero.
func (m *Map) At(x, y int) Estimate {
	if !m.g.InBounds(x, y) {
		return Estimate{}
	}
	i := m.g.Index(x, y)
	return Estimate{Value: m.value[i], Confidence: m.conf[i], Count: m.count[i]}
}

// Observed returns how many cells have at least one fused observation.
func (m *Map) Observed() int {
	n := 0
	for _, c := range m.count {
		if c > 0 {
			n++
		}
	}
	return n
}

// Reset clears every estimate.
func (m *Map) Reset() {
	clear(m.value)
	clear(m.conf)
	clear(m.count)
}

// View is the perception geometry of one observation.
type View struct {
	// FOVDeg is the full field of view in degrees.
	FOVDeg float64 `json:"fov_deg" yaml:"fov_deg"`
	// MaxRange bounds the window; it is applied in cell units.
	MaxRange float64 `json:"max_range_m" yaml:"max_range_m"`
	// UseObstacleMask excludes Obstacle cells from fusion.
	UseObstacleMask bool `json:"use_obstacle_mask" yaml:"use_obstacle_mask"`
	// OffsetXCm and OffsetYCm locate the observed point relative to the
	// vehicle's cell; the point must fall inside the grid.
	OffsetXCm float64 `json:"offset_x_cm,omitempty" yaml:"offset_x_cm,omitempty"`
	OffsetYCm float64 `json:"offset_y_cm,omitempty" yaml:"offset_y_cm,omitempty"`
}

// DefaultView returns the 82° / 4 range view with the obstacle mask on.
func DefaultView() View {
	return View{FOVDeg: 82, MaxRange: 4, UseObstacleMask: true}
}

// FOV returns the field of view in radians.
func (v View) FOV() float64 { return v.FOVDeg * math.Pi / 180 }

// Cone returns the scan geometry of the view centered on pose.
func (v View) Cone(pose grid.Pose) grid.Cone {
	return grid.Cone{Pose: pose, FOV: v.FOV(), Range: v.MaxRange}
}

func (m *Map) observedCell(pose grid.Pose, v View) (grid.Cell, error) {
	cs := m.g.CellSize()
	x := int(v.OffsetXCm*0.01/cs + float64(int(pose.X)) + 1e-9)
	y := int(v.OffsetYCm*0.01/cs + float64(int(pose.Y)) + 1e-9)
	if !m.g.InBounds(x, y) {
		return grid.Cell{}, fmt.Errorf("cell (%d,%d): %w", x, y, ErrObservationOutOfGrid)
	}
	return grid.Cell{X: x, Y: y}, nil
}
