package export

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"droneops-scout/internal/grid"
	"droneops-scout/internal/telemetry"
	"droneops-scout/internal/valuemap"
)

// Feature kinds set in the "kind" property.
const (
	KindTrajectory = "trajectory"
	KindCell       = "cell"
	KindTarget     = "target"
	KindBest       = "best"
)

// Trajectory returns the flown path in world meters. A tolerance > 0
// simplifies the line with Douglas-Peucker. It returns nil with fewer than
// two poses.
func Trajectory(poses []telemetry.PoseRow, tolerance float64) *geojson.Feature {
	if len(poses) < 2 {
		return nil
	}
	ls := make(orb.LineString, 0, len(poses))
	for _, p := range poses {
		pt := orb.Point{p.WorldXM, p.WorldYM}
		if n := len(ls); n > 0 && ls[n-1] == pt {
			continue
		}
		ls = append(ls, pt)
	}
	length := planar.Length(ls)
	if tolerance > 0 && len(ls) > 2 {
		if s, ok := simplify.DouglasPeucker(tolerance).Simplify(ls.Clone()).(orb.LineString); ok {
			ls = s
		}
	}
	f := geojson.NewFeature(ls)
	f.Properties["kind"] = KindTrajectory
	f.Properties["mission_id"] = poses[0].MissionID
	f.Properties["poses"] = len(poses)
	f.Properties["length_m"] = length
	f.Properties["battery_end"] = poses[len(poses)-1].Battery
	return f
}

// cellRing returns the square outline of cell (cx, cy) in world meters.
func cellRing(s valuemap.Snapshot, cx, cy int) orb.Ring {
	half := s.Size / 2
	x0 := s.OriginX + float64(cx-half)*s.CellSize
	y0 := s.OriginY + float64(cy-half)*s.CellSize
	x1, y1 := x0+s.CellSize, y0+s.CellSize
	return orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
}

// Cells returns a polygon feature for every known cell: visited, free and
// obstacle cells, plus any cell with an estimate. Unknown unobserved cells
// are left out.
func Cells(s valuemap.Snapshot) ([]*geojson.Feature, error) {
	total := s.Size * s.Size
	if len(s.Cells) != total || len(s.Value) != total || len(s.Confidence) != total || len(s.Count) != total {
		return nil, fmt.Errorf("cells: %w", valuemap.ErrSnapshotMismatch)
	}
	var out []*geojson.Feature
	for i, c := range s.Cells {
		st := grid.State(c)
		if st == grid.Unknown && s.Count[i] == 0 {
			continue
		}
		cx, cy := i%s.Size, i/s.Size
		f := geojson.NewFeature(orb.Polygon{cellRing(s, cx, cy)})
		f.Properties["kind"] = KindCell
		f.Properties["state"] = st.String()
		f.Properties["x"] = cx
		f.Properties["y"] = cy
		if s.Count[i] > 0 {
			f.Properties["value"] = s.Value[i]
			f.Properties["confidence"] = s.Confidence[i]
			f.Properties["count"] = s.Count[i]
		}
		out = append(out, f)
	}
	return out, nil
}

// Targets returns a point feature per target.
func Targets(rows []telemetry.TargetRow) []*geojson.Feature {
	out := make([]*geojson.Feature, 0, len(rows))
	for _, t := range rows {
		f := geojson.NewFeature(orb.Point{t.XM, t.YM})
		f.Properties["kind"] = KindTarget
		f.Properties["target_id"] = t.TargetID
		f.Properties["target_kind"] = t.Kind
		f.Properties["value"] = t.Value
		out = append(out, f)
	}
	return out
}

// Best returns a point feature at the best observed cell of the snapshot, or
// nil when nothing was observed. Unlike the in-flight search it is not
// restricted to the viewing cone.
func Best(s valuemap.Snapshot) *geojson.Feature {
	best := -1
	for i, n := range s.Count {
		if n == 0 {
			continue
		}
		if best < 0 || s.Value[i] > s.Value[best] {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	c := orb.Polygon{cellRing(s, best%s.Size, best/s.Size)}.Bound().Center()
	f := geojson.NewFeature(c)
	f.Properties["kind"] = KindBest
	f.Properties["value"] = s.Value[best]
	f.Properties["confidence"] = s.Confidence[best]
	return f
}

// Collection assembles all features. snap and l may each be nil.
func Collection(snap *valuemap.Snapshot, l *Log, tolerance float64) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	if l != nil {
		if f := Trajectory(l.Poses, tolerance); f != nil {
			fc.Append(f)
		}
		for _, f := range Targets(l.Targets) {
			fc.Append(f)
		}
	}
	if snap != nil {
		cells, err := Cells(*snap)
		if err != nil {
			return nil, err
		}
		for _, f := range cells {
			fc.Append(f)
		}
		if f := Best(*snap); f != nil {
			fc.Append(f)
		}
	}
	return fc, nil
}

// WriteGeoJSON writes fc to path.
func WriteGeoJSON(path string, fc *geojson.FeatureCollection) error {
	b, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
