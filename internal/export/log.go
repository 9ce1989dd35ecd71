// Package export turns mission logs and snapshots into files for offline
// review: GeoJSON for map tools, a PNG value heat map and Grafana dashboards.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"droneops-scout/internal/telemetry"
)

// Log holds the records of a JSONL mission log.
type Log struct {
	Poses        []telemetry.PoseRow
	Observations []telemetry.ObservationRow
	// Targets keeps the last reported position of each target, in first-seen order.
	Targets []telemetry.TargetRow
}

// ReadLog parses a mission log written by the file writer.
func ReadLog(r io.Reader) (*Log, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	out := &Log{}
	seen := map[string]int{}
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		rec, err := telemetry.DecodeRecord(sc.Bytes())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		switch rec.Type {
		case telemetry.RecordPose:
			out.Poses = append(out.Poses, *rec.Pose)
		case telemetry.RecordObservation:
			out.Observations = append(out.Observations, *rec.Observation)
		case telemetry.RecordTarget:
			if rec.Target == nil {
				continue
			}
			if i, ok := seen[rec.Target.TargetID]; ok {
				out.Targets[i] = *rec.Target
				continue
			}
			seen[rec.Target.TargetID] = len(out.Targets)
			out.Targets = append(out.Targets, *rec.Target)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadLogFile opens and parses path.
func ReadLogFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLog(f)
}
