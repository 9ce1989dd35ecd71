package valuemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"droneops-scout/internal/grid"
)

var (
	// ErrSnapshotMismatch is returned when a snapshot's arrays do not fit its grid.
	ErrSnapshotMismatch = errors.New("snapshot arrays do not match grid size")
	// ErrSnapshotInvalid is returned when a snapshot holds a cell no fusion could produce.
	ErrSnapshotInvalid = errors.New("snapshot cell out of range")
)

// Snapshot is a flat copy of a grid and its value map, suitable for JSON.
type Snapshot struct {
	Width      float64   `json:"width_m"`
	Height     float64   `json:"height_m"`
	CellSize   float64   `json:"cell_size_m"`
	OriginX    float64   `json:"origin_x_m"`
	OriginY    float64   `json:"origin_y_m"`
	Size       int       `json:"size"`
	Pose       grid.Pose `json:"pose"`
	Cells      []byte    `json:"cells"`
	Value      []float64 `json:"value"`
	Confidence []float64 `json:"confidence"`
	Count      []int32   `json:"count"`
}

// Snapshot copies the grid state and every estimate.
func (m *Map) Snapshot() Snapshot {
	w, h := m.g.Dimensions()
	ox, oy := m.g.Origin()
	states := m.g.States()
	cells := make([]byte, len(states))
	for i, s := range states {
		cells[i] = byte(s)
	}
	return Snapshot{
		Width:      w,
		Height:     h,
		CellSize:   m.g.CellSize(),
		OriginX:    ox,
		OriginY:    oy,
		Size:       m.g.Size(),
		Pose:       m.g.Pose(),
		Cells:      cells,
		Value:      append([]float64(nil), m.value...),
		Confidence: append([]float64(nil), m.conf...),
		Count:      append([]int32(nil), m.count...),
	}
}

// Restore rebuilds a grid and its value map from s.
func Restore(s Snapshot) (*grid.Grid, *Map, error) {
	g, err := grid.New(s.Width, s.Height, s.CellSize, s.OriginX, s.OriginY)
	if err != nil {
		return nil, nil, fmt.Errorf("restore: %w", err)
	}
	total := g.Size() * g.Size()
	if g.Size() != s.Size || len(s.Cells) != total || len(s.Value) != total ||
		len(s.Confidence) != total || len(s.Count) != total {
		return nil, nil, fmt.Errorf("restore: %w (size %d, grid %d)", ErrSnapshotMismatch, s.Size, g.Size())
	}
	if err := s.validate(); err != nil {
		return nil, nil, fmt.Errorf("restore: %w", err)
	}
	states := make([]grid.State, total)
	for i, c := range s.Cells {
		states[i] = grid.State(c)
	}
	if err := g.LoadStates(states); err != nil {
		return nil, nil, fmt.Errorf("restore: %w", err)
	}
	g.SetPose(s.Pose)
	m := New(g)
	copy(m.value, s.Value)
	copy(m.conf, s.Confidence)
	copy(m.count, s.Count)
	return g, m, nil
}

// validate checks every cell against the value map invariants. The array
// lengths must already match.
func (s Snapshot) validate() error {
	if !finite(s.Pose.X) || !finite(s.Pose.Y) || !finite(s.Pose.Yaw) {
		return fmt.Errorf("%w: pose %+v", ErrSnapshotInvalid, s.Pose)
	}
	for i := range s.Cells {
		if st := grid.State(s.Cells[i]); !st.Valid() {
			return fmt.Errorf("%w: cell %d has %v", ErrSnapshotInvalid, i, st)
		}
		v, c, n := s.Value[i], s.Confidence[i], s.Count[i]
		switch {
		case n < 0:
			return fmt.Errorf("%w: cell %d count %d", ErrSnapshotInvalid, i, n)
		case !finite(v) || !finite(c) || c < 0 || c > 1+coldStartEpsilon:
			return fmt.Errorf("%w: cell %d value %v confidence %v", ErrSnapshotInvalid, i, v, c)
		case n == 0 && (c != 0 || v != 0):
			return fmt.Errorf("%w: cell %d unobserved with value %v confidence %v", ErrSnapshotInvalid, i, v, c)
		case n > 0 && c == 0:
			return fmt.Errorf("%w: cell %d observed %d times with zero confidence", ErrSnapshotInvalid, i, n)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// SaveSnapshot writes s as JSON to path.
func SaveSnapshot(path string, s Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// LoadSnapshot reads a JSON snapshot from path.
func LoadSnapshot(path string) (Snapshot, error) {
	var s Snapshot
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return s, nil
}
