package mission

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"droneops-scout/internal/script"
)

func TestReplayReproducesMaps(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMission(t, NewJSONWriter(&buf))
	sq := script.BuiltIn()["square"]
	require.NoError(t, m.Run(context.Background(), &sq))
	corridor := script.BuiltIn()["corridor"]
	require.NoError(t, m.Run(context.Background(), &corridor))

	fresh := newTestMission(t, nil)
	n, err := Replay(context.Background(), &buf, fresh, 0)
	require.NoError(t, err)
	if n != 17 {
		t.Fatalf("replayed %d records, want 17", n)
	}
	if diff := cmp.Diff(m.Snapshot(), fresh.Snapshot()); diff != "" {
		t.Fatalf("replayed maps differ (-want +got):\n%s", diff)
	}
}

func TestReplayReportsBadLine(t *testing.T) {
	m := newTestMission(t, nil)
	in := strings.NewReader(`{"type":"pose","pose":{"command":"hover"}}` + "\n" + `{"type":"bogus"}` + "\n")
	n, err := Replay(context.Background(), in, m, 0)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record applied, got %d", n)
	}
}
