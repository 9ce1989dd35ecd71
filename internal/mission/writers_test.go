package mission

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"droneops-scout/internal/telemetry"
)

type mockGreptimeClient struct {
	tables []*table.Table
	err    error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.tables = append(m.tables, tables...)
	return &gpb.GreptimeResponse{}, m.err
}

func TestGreptimeWriterPose(t *testing.T) {
	m := &mockGreptimeClient{}
	w := newGreptimeDBWriter(m)
	row := telemetry.PoseRow{
		MissionID: "m1", Seq: 3, Command: "move_forward 50", DyCm: 50,
		X: 100, Y: 105, Sector: "N", Battery: 99.5, Status: "applied", Cells: 6,
		Timestamp: time.Unix(10, 0).UTC(),
	}
	if err := w.WritePose(row); err != nil {
		t.Fatalf("WritePose: %v", err)
	}
	if len(m.tables) != 1 {
		t.Fatalf("expected one table, got %d", len(m.tables))
	}
	rows := m.tables[0].GetRows()
	if len(rows.Schema) != len(poseColumns) {
		t.Fatalf("schema has %d columns, want %d", len(rows.Schema), len(poseColumns))
	}
	if rows.Schema[0].SemanticType != gpb.SemanticType_TAG {
		t.Fatalf("mission_id should be a tag, got %v", rows.Schema[0].SemanticType)
	}
	vals := rows.Rows[0].Values
	if got := vals[0].GetStringValue(); got != "m1" {
		t.Fatalf("mission_id = %q", got)
	}
	if got := vals[1].GetI64Value(); got != 3 {
		t.Fatalf("seq = %d", got)
	}
	if got := vals[7].GetF64Value(); got != 105 {
		t.Fatalf("y = %v", got)
	}
	if got := vals[14].GetI64Value(); got != 6 {
		t.Fatalf("cells = %d", got)
	}
}

func TestGreptimeWriterObservationAndState(t *testing.T) {
	m := &mockGreptimeClient{}
	w := newGreptimeDBWriter(m)
	obs := telemetry.ObservationRow{MissionID: "m1", ObservationID: "o1", Score: 0.7, BestFound: true, TopObject: "person", Timestamp: time.Unix(10, 0).UTC()}
	if err := w.WriteObservation(obs); err != nil {
		t.Fatalf("WriteObservation: %v", err)
	}
	st := telemetry.MissionStateRow{MissionID: "m1", Obstacles: 4, MeanValue: 0.25, Timestamp: time.Unix(10, 0).UTC()}
	if err := w.WriteState(st); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if len(m.tables) != 2 {
		t.Fatalf("expected two tables, got %d", len(m.tables))
	}
	ov := m.tables[0].GetRows().Rows[0].Values
	if ov[3].GetF64Value() != 0.7 || !ov[16].GetBoolValue() || ov[18].GetStringValue() != "person" {
		t.Fatalf("unexpected observation values: %v", ov)
	}
	sv := m.tables[1].GetRows().Rows[0].Values
	if sv[5].GetI64Value() != 4 || sv[7].GetF64Value() != 0.25 {
		t.Fatalf("unexpected state values: %v", sv)
	}
}

func TestGreptimeWriterTargets(t *testing.T) {
	m := &mockGreptimeClient{}
	w := newGreptimeDBWriter(m)
	if err := w.WriteTargets(nil); err != nil || len(m.tables) != 0 {
		t.Fatalf("empty targets should not write: %v", err)
	}
	rows := []telemetry.TargetRow{
		{MissionID: "m1", TargetID: "t1", Kind: "person", XM: 1, Timestamp: time.Unix(1, 0)},
		{MissionID: "m1", TargetID: "t2", Kind: "drone", YM: 2, Timestamp: time.Unix(1, 0)},
	}
	if err := w.WriteTargets(rows); err != nil {
		t.Fatalf("WriteTargets: %v", err)
	}
	if got := len(m.tables[0].GetRows().Rows); got != 2 {
		t.Fatalf("expected 2 rows in one table, got %d", got)
	}
}

func TestGreptimeWriterError(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := newGreptimeDBWriter(m)
	err := w.WritePose(telemetry.PoseRow{MissionID: "m1", Timestamp: time.Unix(1, 0)})
	if err == nil || !strings.Contains(err.Error(), "unavailable") {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.msgs = append(p.msgs, published{topic: topic, payload: payload.([]byte)})
	return &fakeToken{err: p.err}
}

func TestMQTTWriterTopics(t *testing.T) {
	p := &fakePublisher{}
	w := newMQTTWriter(p, "")
	if err := w.WritePose(telemetry.PoseRow{MissionID: "m1", Seq: 1}); err != nil {
		t.Fatalf("WritePose: %v", err)
	}
	if err := w.WriteObservation(telemetry.ObservationRow{MissionID: "m1", Score: 0.5}); err != nil {
		t.Fatalf("WriteObservation: %v", err)
	}
	if err := w.WriteTargets([]telemetry.TargetRow{{MissionID: "m1", TargetID: "t1"}}); err != nil {
		t.Fatalf("WriteTargets: %v", err)
	}
	if err := w.WriteState(telemetry.MissionStateRow{MissionID: "m1"}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	want := []string{"scout/m1/pose", "scout/m1/observation", "scout/m1/targets", "scout/m1/state"}
	if len(p.msgs) != len(want) {
		t.Fatalf("published %d messages, want %d", len(p.msgs), len(want))
	}
	for i, topic := range want {
		if p.msgs[i].topic != topic {
			t.Fatalf("message %d topic = %s, want %s", i, p.msgs[i].topic, topic)
		}
	}
	var obs telemetry.ObservationRow
	if err := json.Unmarshal(p.msgs[1].payload, &obs); err != nil || obs.Score != 0.5 {
		t.Fatalf("bad observation payload %s: %v", p.msgs[1].payload, err)
	}
}

func TestMQTTWriterPublishError(t *testing.T) {
	p := &fakePublisher{err: errors.New("not connected")}
	w := newMQTTWriter(p, "fleet")
	err := w.WritePose(telemetry.PoseRow{MissionID: "m1"})
	if err == nil || !strings.Contains(err.Error(), "fleet/m1/pose") {
		t.Fatalf("expected topic in error, got %v", err)
	}
}

type poseOnlyWriter struct{ n int }

func (p *poseOnlyWriter) WritePose(telemetry.PoseRow) error               { p.n++; return nil }
func (p *poseOnlyWriter) WriteObservation(telemetry.ObservationRow) error { return errors.New("obs down") }

type closingWriter struct {
	collectWriter
	closed bool
}

func (c *closingWriter) Close() error { c.closed = true; return nil }

func TestMultiWriterForwardsOptionalInterfaces(t *testing.T) {
	basic := &poseOnlyWriter{}
	full := &closingWriter{}
	mw := NewMultiWriter(basic, full)

	if err := mw.WritePose(telemetry.PoseRow{}); err != nil {
		t.Fatalf("WritePose: %v", err)
	}
	if err := mw.WriteObservation(telemetry.ObservationRow{}); err == nil || !strings.Contains(err.Error(), "obs down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if err := mw.WriteTargets([]telemetry.TargetRow{{TargetID: "t"}}); err != nil {
		t.Fatalf("WriteTargets: %v", err)
	}
	if err := mw.WriteState(telemetry.MissionStateRow{}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if err := mw.WriteFrame(GridFrame{Radius: 1}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if basic.n != 1 || len(full.poses) != 1 || len(full.obs) != 1 {
		t.Fatalf("rows not fanned out: basic=%d full=%d/%d", basic.n, len(full.poses), len(full.obs))
	}
	if len(full.targets) != 1 || len(full.states) != 1 || len(full.frames) != 1 {
		t.Fatalf("optional rows not forwarded")
	}
	if !full.closed {
		t.Fatalf("closer not called")
	}
}

func TestFileWriterWritesReplayableLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mission.jsonl")
	fw, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	ts := time.Unix(0, 0).UTC()
	if err := fw.WritePose(telemetry.PoseRow{MissionID: "m1", Command: "hover", Timestamp: ts}); err != nil {
		t.Fatalf("WritePose: %v", err)
	}
	if err := fw.WriteTargets([]telemetry.TargetRow{{TargetID: "a"}, {TargetID: "b"}}); err != nil {
		t.Fatalf("WriteTargets: %v", err)
	}
	if err := fw.WriteState(telemetry.MissionStateRow{MissionID: "m1", Visited: 2}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), data)
	}
	wantTypes := []string{telemetry.RecordPose, telemetry.RecordTarget, telemetry.RecordTarget, telemetry.RecordState}
	for i, l := range lines {
		rec, err := telemetry.DecodeRecord([]byte(l))
		if err != nil {
			t.Fatalf("line %d: %v", i+1, err)
		}
		if rec.Type != wantTypes[i] {
			t.Fatalf("line %d type = %s, want %s", i+1, rec.Type, wantTypes[i])
		}
	}
}
