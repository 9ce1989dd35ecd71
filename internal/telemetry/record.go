package telemetry

import (
	"encoding/json"
	"fmt"
)

// Record kinds in the JSONL mission log.
const (
	RecordPose        = "pose"
	RecordObservation = "observation"
	RecordTarget      = "target"
	RecordState       = "state"
)

// Record is one line of the JSONL mission log. Exactly one payload is set.
type Record struct {
	Type        string           `json:"type"`
	Pose        *PoseRow         `json:"pose,omitempty"`
	Observation *ObservationRow  `json:"observation,omitempty"`
	Target      *TargetRow       `json:"target,omitempty"`
	State       *MissionStateRow `json:"state,omitempty"`
}

// DecodeRecord parses one log line.
func DecodeRecord(line []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return r, fmt.Errorf("decode record: %w", err)
	}
	switch r.Type {
	case RecordPose:
		if r.Pose == nil {
			return r, fmt.Errorf("decode record: pose record without payload")
		}
	case RecordObservation:
		if r.Observation == nil {
			return r, fmt.Errorf("decode record: observation record without payload")
		}
	case RecordTarget, RecordState:
	default:
		return r, fmt.Errorf("decode record: unknown type %q", r.Type)
	}
	return r, nil
}
