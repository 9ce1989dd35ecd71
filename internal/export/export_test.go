package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droneops-scout/internal/config"
	"droneops-scout/internal/mission"
	"droneops-scout/internal/script"
	"droneops-scout/internal/telemetry"
	"droneops-scout/internal/valuemap"
)

func runCorridor(t *testing.T) (*mission.Mission, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Grid.Width = 10
	cfg.Grid.Height = 10
	cfg.Mission.ID = "export-test"
	cfg.Mission.Tick = 0
	var buf bytes.Buffer
	m, err := mission.New(cfg, mission.NewJSONWriter(&buf))
	require.NoError(t, err)
	s := script.BuiltIn()["corridor"]
	require.NoError(t, m.Run(context.Background(), &s))
	return m, &buf
}

func TestReadLog(t *testing.T) {
	_, buf := runCorridor(t)
	l, err := ReadLog(buf)
	require.NoError(t, err)
	assert.Len(t, l.Poses, 3)
	assert.Len(t, l.Observations, 3)
	assert.Empty(t, l.Targets)
}

func TestReadLogKeepsLatestTargetPosition(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	var buf bytes.Buffer
	w := mission.NewJSONWriter(&buf)
	require.NoError(t, w.WriteTargets([]telemetry.TargetRow{{TargetID: "a", XM: 1, Timestamp: ts}, {TargetID: "b", XM: 2, Timestamp: ts}}))
	require.NoError(t, w.WriteTargets([]telemetry.TargetRow{{TargetID: "a", XM: 3, Timestamp: ts}}))

	l, err := ReadLog(&buf)
	require.NoError(t, err)
	require.Len(t, l.Targets, 2)
	assert.Equal(t, "a", l.Targets[0].TargetID)
	assert.Equal(t, 3.0, l.Targets[0].XM)
}

func TestReadLogBadLine(t *testing.T) {
	_, err := ReadLog(strings.NewReader("{\"type\":\"pose\"}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestTrajectory(t *testing.T) {
	_, buf := runCorridor(t)
	l, err := ReadLog(buf)
	require.NoError(t, err)

	f := Trajectory(l.Poses, 0)
	require.NotNil(t, f)
	ls, ok := f.Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, ls, 2, "hover repeats the last point")
	assert.InDelta(t, 0.5, f.Properties["length_m"].(float64), 1e-9)
	assert.Equal(t, "export-test", f.Properties["mission_id"])

	assert.Nil(t, Trajectory(l.Poses[:1], 0))
}

func TestTrajectorySimplifies(t *testing.T) {
	var poses []telemetry.PoseRow
	for i := 0; i <= 10; i++ {
		poses = append(poses, telemetry.PoseRow{WorldXM: float64(i), WorldYM: 0.001 * float64(i%2)})
	}
	f := Trajectory(poses, 0.01)
	ls := f.Geometry.(orb.LineString)
	assert.Len(t, ls, 2)
	assert.InDelta(t, 10, f.Properties["length_m"].(float64), 0.01)
}

func TestCollection(t *testing.T) {
	m, buf := runCorridor(t)
	l, err := ReadLog(buf)
	require.NoError(t, err)
	snap := m.Snapshot()
	l.Targets = []telemetry.TargetRow{{TargetID: "t1", Kind: "person", XM: 0.1, YM: 0.4, Value: 1}}

	fc, err := Collection(&snap, l, 0)
	require.NoError(t, err)

	kinds := map[string]int{}
	states := map[string]int{}
	for _, f := range fc.Features {
		k := f.Properties["kind"].(string)
		kinds[k]++
		if k == KindCell {
			states[f.Properties["state"].(string)]++
		}
	}
	assert.Equal(t, 1, kinds[KindTrajectory])
	assert.Equal(t, 1, kinds[KindTarget])
	assert.Equal(t, 1, kinds[KindBest])
	assert.Greater(t, states["obstacle"], 0)
	assert.Greater(t, states["visited"], 0)

	path := filepath.Join(t.TempDir(), "mission.geojson")
	require.NoError(t, WriteGeoJSON(path, fc))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	back, err := geojson.UnmarshalFeatureCollection(b)
	require.NoError(t, err)
	assert.Len(t, back.Features, len(fc.Features))
}

func TestCellsRejectsMismatchedSnapshot(t *testing.T) {
	_, err := Cells(valuemap.Snapshot{Size: 4, Cells: make([]byte, 3)})
	assert.ErrorIs(t, err, valuemap.ErrSnapshotMismatch)
	fc, err := Collection(nil, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestCellRingMatchesCellCenters(t *testing.T) {
	m, _ := runCorridor(t)
	snap := m.Snapshot()
	r := cellRing(snap, 100, 100)
	xCm, yCm := m.Grid().CellsToWorld(100, 100)
	c := orb.Polygon{r}.Bound().Center()
	assert.InDelta(t, xCm/100, c[0], 1e-9)
	assert.InDelta(t, yCm/100, c[1], 1e-9)
}

func TestHeatMap(t *testing.T) {
	m, buf := runCorridor(t)
	l, err := ReadLog(buf)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "values.png")
	require.NoError(t, HeatMap(m.Snapshot(), path, HeatMapOptions{Title: "corridor", Poses: l.Poses}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")), "expected a PNG file")
}

func TestHeatMapUnobserved(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Width = 2
	cfg.Grid.Height = 2
	m, err := mission.New(cfg, nil)
	require.NoError(t, err)

	g := observedWindow(m.Snapshot(), 3)
	cols, rows := g.Dims()
	assert.Equal(t, 7, cols)
	assert.Equal(t, 7, rows)
	require.NoError(t, HeatMap(m.Snapshot(), filepath.Join(t.TempDir(), "empty.png"), HeatMapOptions{}))
}

func TestObservedWindowClipsToGrid(t *testing.T) {
	m, _ := runCorridor(t)
	snap := m.Snapshot()
	g := observedWindow(snap, 1000)
	cols, rows := g.Dims()
	assert.Equal(t, snap.Size, cols)
	assert.Equal(t, snap.Size, rows)
	assert.InDelta(t, g.X(0)+snap.CellSize, g.X(1), 1e-9)
}

func TestRenderDashboardsMissingEnv(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "")
	if err := RenderDashboards(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing env vars")
	}
}

func TestRenderDashboards(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")
	dir := t.TempDir()
	require.NoError(t, RenderDashboards(dir))

	b, err := os.ReadFile(filepath.Join(dir, "scout-dashboard.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "uid1")
	assert.Contains(t, string(b), telemetry.StateTableName)
	var v map[string]any
	require.NoError(t, json.Unmarshal(b, &v), "rendered dashboard must be valid JSON")
}
