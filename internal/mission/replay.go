package mission

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"droneops-scout/internal/grid"
	"droneops-scout/internal/perception"
	"droneops-scout/internal/telemetry"
)

// Replay feeds a JSONL mission log back into m. Pose records re-apply their
// recorded delta and observation records re-fuse their score at the replayed
// pose, so a fresh mission ends with the same maps. Battery gating is not
// applied. A speed > 0 paces records by their timestamps; speed <= 0 replays
// without delay.
func Replay(ctx context.Context, r io.Reader, m *Mission, speed float64) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var prev time.Time
	n := 0
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if len(sc.Bytes()) == 0 {
			continue
		}
		rec, err := telemetry.DecodeRecord(sc.Bytes())
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		ts, ok := recordTime(rec)
		if !ok {
			continue
		}
		if !prev.IsZero() && speed > 0 {
			if diff := time.Duration(float64(ts.Sub(prev)) / speed); diff > 0 {
				select {
				case <-ctx.Done():
					return n, ctx.Err()
				case <-time.After(diff):
				}
			}
		}
		prev = ts

		switch rec.Type {
		case telemetry.RecordPose:
			p := rec.Pose
			m.apply(ctx, p.Command, grid.Delta{X: p.DxCm, Y: p.DyCm, Yaw: p.DyawRad})
			if p.Battery > 0 {
				m.vehicle.SetBattery(p.Battery)
			}
		case telemetry.RecordObservation:
			o := rec.Observation
			m.Observe(ctx, perception.Observation{
				Score:         o.Score,
				ObstacleRange: o.ObstacleRange,
				OffsetXCm:     o.OffsetXCm,
				OffsetYCm:     o.OffsetYCm,
			})
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, err
	}
	return n, nil
}

func recordTime(r telemetry.Record) (time.Time, bool) {
	switch r.Type {
	case telemetry.RecordPose:
		return r.Pose.Timestamp, true
	case telemetry.RecordObservation:
		return r.Observation.Timestamp, true
	}
	return time.Time{}, false
}

// ReplayFile opens path and replays it into m.
func ReplayFile(ctx context.Context, path string, m *Mission, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Replay(ctx, f, m, speed)
}
