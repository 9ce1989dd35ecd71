// Package grid holds the fixed-size occupancy grid, the vehicle pose inside it,
// and the geometry shared by the value map.
package grid

import (
	"fmt"
	"math"
)

// Grid is a square occupancy grid centered on the mission start point.
// It is not safe for concurrent use; callers serialize access.
type Grid struct {
	width, height float64
	cellSize      float64
	n             int
	centerOffset  int
	originX       float64
	originY       float64
	pose          Pose
	cells         []State
}

// New builds a grid covering twice the larger of width and height on each side.
// originX and originY are the world position of the center cell in meters.
func New(width, height, cellSize, originX, originY float64) (*Grid, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("new grid: %w (got %v)", ErrInvalidCellSize, cellSize)
	}
	n := int(math.Round(2 * math.Max(width, height) / cellSize))
	if n <= 0 {
		return nil, fmt.Errorf("new grid: %w (%vx%v at %v)", ErrInvalidDimensions, width, height, cellSize)
	}
	g := &Grid{
		width:        width,
		height:       height,
		cellSize:     cellSize,
		n:            n,
		centerOffset: n / 2,
		originX:      originX,
		originY:      originY,
		cells:        make([]State, n*n),
	}
	g.pose = Pose{X: float64(g.centerOffset), Y: float64(g.centerOffset)}
	return g, nil
}

// Size returns the number of cells along one side.
func (g *Grid) Size() int { return g.n }

// CellSize returns the edge length of one cell in meters.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Dimensions returns the width and height the grid was built from.
func (g *Grid) Dimensions() (float64, float64) { return g.width, g.height }

// Origin returns the world position of the center cell in meters.
func (g *Grid) Origin() (float64, float64) { return g.originX, g.originY }

// Center returns the cell holding the world origin.
func (g *Grid) Center() Cell { return Cell{X: g.centerOffset, Y: g.centerOffset} }

// Pose returns the current vehicle pose.
func (g *Grid) Pose() Pose { return g.pose }

// SetPose replaces the vehicle pose, clamping the position into the grid.
func (g *Grid) SetPose(p Pose) {
	g.pose = Pose{
		X:   clamp(p.X, 0, float64(g.n-1)),
		Y:   clamp(p.Y, 0, float64(g.n-1)),
		Yaw: WrapAngle(p.Yaw),
	}
}

// InBounds reports whether (x, y) is a valid cell index.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.n && y >= 0 && y < g.n
}

// Index returns the flat row-major index of (x, y). The cell must be in bounds.
func (g *Grid) Index(x, y int) int { return y*g.n + x }

// At returns the state of (x, y), or Unknown when out of bounds.
func (g *Grid) At(x, y int) State {
	if !g.InBounds(x, y) {
		return Unknown
	}
	return g.cells[g.Index(x, y)]
}

// Set writes the state of (x, y).
func (g *Grid) Set(x, y int, s State) error {
	if !g.InBounds(x, y) {
		return fmt.Errorf("set (%d,%d): %w", x, y, ErrOutOfBounds)
	}
	g.cells[g.Index(x, y)] = s
	return nil
}

// WorldToCells rounds a position already expressed in cell space to the nearest cell.
// Halfway values round to even.
func (g *Grid) WorldToCells(x, y float64) (Cell, bool) {
	cx := math.RoundToEven(x)
	cy := math.RoundToEven(y)
	if math.IsNaN(cx) || math.IsNaN(cy) {
		return Cell{}, false
	}
	if cx < 0 || cx >= float64(g.n) || cy < 0 || cy >= float64(g.n) {
		return Cell{}, false
	}
	return Cell{X: int(cx), Y: int(cy)}, true
}

// CellsToWorld returns the world position of a cell center in centimeters,
// rounded to three decimals.
func (g *Grid) CellsToWorld(cx, cy int) (float64, float64) {
	x := (g.originX + (float64(cx-g.centerOffset)+0.5)*g.cellSize) * 100
	y := (g.originY + (float64(cy-g.centerOffset)+0.5)*g.cellSize) * 100
	return round3(x), round3(y)
}

// PoseToWorld returns the world position of a pose in meters, treating the
// pose like a cell center. It reads only immutable geometry.
func (g *Grid) PoseToWorld(p Pose) (float64, float64) {
	x := g.originX + (p.X-float64(g.centerOffset)+0.5)*g.cellSize
	y := g.originY + (p.Y-float64(g.centerOffset)+0.5)*g.cellSize
	return x, y
}

// CellAtWorld returns the cell containing a world position given in centimeters.
func (g *Grid) CellAtWorld(xCm, yCm float64) (Cell, bool) {
	fx := math.Floor((xCm/100-g.originX)/g.cellSize) + float64(g.centerOffset)
	fy := math.Floor((yCm/100-g.originY)/g.cellSize) + float64(g.centerOffset)
	if math.IsNaN(fx) || math.IsNaN(fy) || fx < 0 || fy < 0 || fx >= float64(g.n) || fy >= float64(g.n) {
		return Cell{}, false
	}
	return Cell{X: int(fx), Y: int(fy)}, true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// States returns a copy of all cell states in row-major order.
func (g *Grid) States() []State {
	out := make([]State, len(g.cells))
	copy(out, g.cells)
	return out
}

// LoadStates replaces all cell states; len(states) must equal Size()².
func (g *Grid) LoadStates(states []State) error {
	if len(states) != len(g.cells) {
		return fmt.Errorf("load states: got %d cells, want %d", len(states), len(g.cells))
	}
	copy(g.cells, states)
	return nil
}

// Window returns the states of the square of side 2r+1 centered on c, row-major
// with y ascending. Cells outside the grid read as Unknown.
func (g *Grid) Window(c Cell, r int) [][]State {
	if r < 0 {
		r = 0
	}
	rows := make([][]State, 0, 2*r+1)
	for y := c.Y - r; y <= c.Y+r; y++ {
		row := make([]State, 0, 2*r+1)
		for x := c.X - r; x <= c.X+r; x++ {
			row = append(row, g.At(x, y))
		}
		rows = append(rows, row)
	}
	return rows
}

// Count returns how many cells are in state s.
func (g *Grid) Count(s State) int {
	n := 0
	for _, c := range g.cells {
		if c == s {
			n++
		}
	}
	return n
}

// PoseCell returns the cell the vehicle currently occupies.
func (g *Grid) PoseCell() Cell {
	c, _ := g.WorldToCells(g.pose.X, g.pose.Y)
	return c
}
