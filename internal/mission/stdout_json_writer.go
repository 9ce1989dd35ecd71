package mission

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"droneops-scout/internal/telemetry"
)

// JSONStdoutWriter prints mission records as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return NewJSONWriter(os.Stdout)
}

// NewJSONWriter creates a writer encoding records to out.
func NewJSONWriter(out io.Writer) *JSONStdoutWriter {
	return &JSONStdoutWriter{enc: json.NewEncoder(out)}
}

func (w *JSONStdoutWriter) encode(r telemetry.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(r)
}

// WritePose outputs a pose record.
func (w *JSONStdoutWriter) WritePose(row telemetry.PoseRow) error {
	return w.encode(telemetry.Record{Type: telemetry.RecordPose, Pose: &row})
}

// WriteObservation outputs an observation record.
func (w *JSONStdoutWriter) WriteObservation(row telemetry.ObservationRow) error {
	return w.encode(telemetry.Record{Type: telemetry.RecordObservation, Observation: &row})
}

// WriteTargets outputs one record per target.
func (w *JSONStdoutWriter) WriteTargets(rows []telemetry.TargetRow) error {
	for i := range rows {
		if err := w.encode(telemetry.Record{Type: telemetry.RecordTarget, Target: &rows[i]}); err != nil {
			return err
		}
	}
	return nil
}

// WriteState outputs a state record.
func (w *JSONStdoutWriter) WriteState(row telemetry.MissionStateRow) error {
	return w.encode(telemetry.Record{Type: telemetry.RecordState, State: &row})
}
