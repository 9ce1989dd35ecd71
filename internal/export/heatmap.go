package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"droneops-scout/internal/telemetry"
	"droneops-scout/internal/valuemap"
)

// valueGrid exposes a window of the value map as a plotter.GridXYZ in world meters.
type valueGrid struct {
	s          valuemap.Snapshot
	x0, y0     int
	cols, rows int
}

func (g valueGrid) Dims() (int, int) { return g.cols, g.rows }

func (g valueGrid) Z(c, r int) float64 {
	return g.s.Value[(g.y0+r)*g.s.Size+g.x0+c]
}

func (g valueGrid) X(c int) float64 {
	return g.s.OriginX + (float64(g.x0+c-g.s.Size/2)+0.5)*g.s.CellSize
}

func (g valueGrid) Y(r int) float64 {
	return g.s.OriginY + (float64(g.y0+r-g.s.Size/2)+0.5)*g.s.CellSize
}

// observedWindow returns the bounding box of observed cells grown by margin,
// clipped to the grid. Without observations it is a window around the pose.
func observedWindow(s valuemap.Snapshot, margin int) valueGrid {
	minX, minY, maxX, maxY := s.Size, s.Size, -1, -1
	for i, n := range s.Count {
		if n == 0 {
			continue
		}
		x, y := i%s.Size, i/s.Size
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	if maxX < 0 {
		px, py := int(s.Pose.X), int(s.Pose.Y)
		minX, maxX, minY, maxY = px, px, py, py
	}
	minX, minY = max(0, minX-margin), max(0, minY-margin)
	maxX, maxY = min(s.Size-1, maxX+margin), min(s.Size-1, maxY+margin)
	return valueGrid{s: s, x0: minX, y0: minY, cols: maxX - minX + 1, rows: maxY - minY + 1}
}

// HeatMapOptions controls the rendered image.
type HeatMapOptions struct {
	Title  string
	Margin int
	Size   vg.Length
	// Poses, when set, are drawn over the heat map as the flown path.
	Poses []telemetry.PoseRow
}

// HeatMap renders the value map of s. The output format follows the file
// extension of path (png, svg, pdf).
func HeatMap(s valuemap.Snapshot, path string, opts HeatMapOptions) error {
	if len(s.Value) != s.Size*s.Size || len(s.Count) != s.Size*s.Size {
		return fmt.Errorf("heat map: %w", valuemap.ErrSnapshotMismatch)
	}
	if opts.Margin <= 0 {
		opts.Margin = 5
	}
	if opts.Size <= 0 {
		opts.Size = 6 * vg.Inch
	}
	p, err := heatMapPlot(s, opts)
	if err != nil {
		return err
	}
	if err := p.Save(opts.Size, opts.Size, path); err != nil {
		return fmt.Errorf("save heat map: %w", err)
	}
	return nil
}

func heatMapPlot(s valuemap.Snapshot, opts HeatMapOptions) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = "Value map"
	}
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	g := observedWindow(s, opts.Margin)
	hm := plotter.NewHeatMap(g, palette.Heat(16, 1))
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	if len(opts.Poses) > 1 {
		pts := make(plotter.XYs, 0, len(opts.Poses))
		for _, r := range opts.Poses {
			pts = append(pts, plotter.XY{X: r.WorldXM, Y: r.WorldYM})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("trajectory line: %w", err)
		}
		line.Color = color.RGBA{B: 255, A: 255}
		line.Width = vg.Points(1)
		p.Add(line)
	}
	return p, nil
}
