package mission

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"droneops-scout/internal/config"
	"droneops-scout/internal/telemetry"
)

type collectWriter struct {
	mu      sync.Mutex
	poses   []telemetry.PoseRow
	obs     []telemetry.ObservationRow
	targets [][]telemetry.TargetRow
	states  []telemetry.MissionStateRow
	frames  []GridFrame
}

func (c *collectWriter) WritePose(r telemetry.PoseRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.poses = append(c.poses, r)
	return nil
}

func (c *collectWriter) WriteObservation(r telemetry.ObservationRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = append(c.obs, r)
	return nil
}

func (c *collectWriter) WriteTargets(rows []telemetry.TargetRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = append(c.targets, rows)
	return nil
}

func (c *collectWriter) WriteState(r telemetry.MissionStateRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, r)
	return nil
}

func (c *collectWriter) WriteFrame(f GridFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func testConfig() *config.MissionConfig {
	cfg := config.Default()
	cfg.Grid.Width = 10
	cfg.Grid.Height = 10
	cfg.Mission.ID = "test-mission"
	cfg.Mission.Tick = 0
	return cfg
}

func fixedClock() func() time.Time {
	ts := time.Unix(1700000000, 0).UTC()
	return func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}
}

func newTestMission(t *testing.T, w Writer, opts ...Option) *Mission {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock())}, opts...)
	m, err := New(testConfig(), w, opts...)
	require.NoError(t, err)
	return m
}
