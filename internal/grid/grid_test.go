package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := New(50, 50, 0.1, 0, 0)
	require.NoError(t, err)
	return g
}

func TestNewGridDimensions(t *testing.T) {
	g := newTestGrid(t)
	assert.Equal(t, 1000, g.Size())
	assert.Equal(t, Cell{X: 500, Y: 500}, g.Center())
	assert.Equal(t, Pose{X: 500, Y: 500, Yaw: 0}, g.Pose())
	assert.Equal(t, Unknown, g.At(10, 10))
	assert.Equal(t, "N", g.Sector())
}

func TestNewGridRejectsBadInput(t *testing.T) {
	_, err := New(50, 50, 0, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidCellSize))

	_, err = New(50, 50, -1, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidCellSize))

	_, err = New(0, 0, 0.1, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidDimensions))
}

func TestIntegrateForwardAtZeroYaw(t *testing.T) {
	g := newTestGrid(t)
	p := g.Integrate(Delta{X: 0, Y: 30, Yaw: 0})

	assert.InDelta(t, 500+30*0.01/0.1, p.Y, 1e-9)
	assert.Equal(t, 500.0, p.X)
	assert.Equal(t, 0.0, p.Yaw)
}

func TestIntegrateUsesYawBeforeUpdate(t *testing.T) {
	g := newTestGrid(t)

	// Rotation and translation in one delta: the translation uses yaw 0.
	p := g.Integrate(Delta{Y: 30, Yaw: math.Pi / 2})
	assert.InDelta(t, 503, p.Y, 1e-9)
	assert.InDelta(t, 500, p.X, 1e-9)
	assert.InDelta(t, math.Pi/2, p.Yaw, 1e-12)

	// The next move is rotated by the new yaw.
	p = g.Integrate(Delta{Y: 30})
	assert.InDelta(t, 497, p.X, 1e-9)
	assert.InDelta(t, 503, p.Y, 1e-9)
}

func TestIntegrateClampsToGrid(t *testing.T) {
	g := newTestGrid(t)
	p := g.Integrate(Delta{X: -1e7, Y: 1e7})
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 999.0, p.Y)
}

func TestWrapAngle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi / 2, math.Pi / 2},
		{2 * math.Pi, 0},
		{math.Pi / 4, math.Pi / 4},
		{-math.Pi / 4, -math.Pi / 4},
	}
	for _, tc := range cases {
		got := WrapAngle(tc.in)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("WrapAngle(%v)=%v, want %v", tc.in, got, tc.want)
		}
		if got <= -math.Pi || got > math.Pi {
			t.Errorf("WrapAngle(%v)=%v outside (-π, π]", tc.in, got)
		}
	}
}

func TestSector(t *testing.T) {
	deg := func(d float64) float64 { return d * math.Pi / 180 }
	cases := []struct {
		yaw  float64
		want string
	}{
		{0, "N"},
		{deg(11), "N"},
		{deg(12), "NNE"},
		{deg(45), "NE"},
		{deg(90), "E"},
		{deg(135), "SE"},
		{math.Pi, "S"},
		{deg(-90), "W"},
		{deg(-12), "NNW"},
		{deg(-11), "N"},
		{deg(-45), "NW"},
		{deg(200), "SSW"},
	}
	for _, tc := range cases {
		if got := Sector(tc.yaw); got != tc.want {
			t.Errorf("Sector(%.3f)=%s, want %s", tc.yaw, got, tc.want)
		}
	}
}

func TestWorldToCells(t *testing.T) {
	g := newTestGrid(t)

	c, ok := g.WorldToCells(500.4, 499.6)
	require.True(t, ok)
	assert.Equal(t, Cell{X: 500, Y: 500}, c)

	_, ok = g.WorldToCells(-0.6, 10)
	assert.False(t, ok)
	_, ok = g.WorldToCells(10, 999.6)
	assert.False(t, ok)
	_, ok = g.WorldToCells(math.NaN(), 10)
	assert.False(t, ok)
}

func TestCellsToWorld(t *testing.T) {
	g := newTestGrid(t)
	x, y := g.CellsToWorld(500, 500)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 5.0, y)

	x, y = g.CellsToWorld(0, 999)
	assert.Equal(t, -4995.0, x)
	assert.Equal(t, 4995.0, y)
}

func TestCellsToWorldRoundTrip(t *testing.T) {
	g, err := New(5, 5, 0.25, 1.5, -2)
	require.NoError(t, err)
	for cy := 0; cy < g.Size(); cy += 3 {
		for cx := 0; cx < g.Size(); cx += 3 {
			wx, wy := g.CellsToWorld(cx, cy)
			back, ok := g.CellAtWorld(wx, wy)
			require.True(t, ok, "cell (%d,%d)", cx, cy)
			assert.Equal(t, Cell{X: cx, Y: cy}, back)

			// The world point is the cell center, within half a cell of the index.
			sx := (wx/100-1.5)/0.25 + float64(g.Center().X)
			assert.InDelta(t, float64(cx), sx, 0.5+1e-9)
		}
	}
}

func TestSetAndWindow(t *testing.T) {
	g := newTestGrid(t)
	require.NoError(t, g.Set(501, 500, Obstacle))
	assert.True(t, errors.Is(g.Set(-1, 0, Visited), ErrOutOfBounds))

	w := g.Window(Cell{X: 500, Y: 500}, 1)
	require.Len(t, w, 3)
	assert.Equal(t, Obstacle, w[1][2])
	assert.Equal(t, 1, g.Count(Obstacle))

	edge := g.Window(Cell{X: 0, Y: 0}, 1)
	assert.Equal(t, Unknown, edge[0][0])
}

func TestSetPoseClamps(t *testing.T) {
	g := newTestGrid(t)
	g.SetPose(Pose{X: -5, Y: 2000, Yaw: 3 * math.Pi})
	p := g.Pose()
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 999.0, p.Y)
	assert.InDelta(t, math.Pi, p.Yaw, 1e-12)
}

func TestPoseToWorld(t *testing.T) {
	g, err := New(5, 5, 0.25, 1.5, -2)
	require.NoError(t, err)
	x, y := g.PoseToWorld(g.Pose())
	assert.InDelta(t, 1.5+0.125, x, 1e-12)
	assert.InDelta(t, -2+0.125, y, 1e-12)

	cx, cy := g.CellsToWorld(22, 17)
	x, y = g.PoseToWorld(Pose{X: 22, Y: 17})
	assert.InDelta(t, cx/100, x, 1e-9)
	assert.InDelta(t, cy/100, y, 1e-9)
}
