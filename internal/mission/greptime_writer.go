package mission

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"droneops-scout/internal/telemetry"
)

// greptimeClient is the part of the ingester client the writer uses.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes mission rows to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client      greptimeClient
	timeout     time.Duration
	poseTable   string
	obsTable    string
	targetTable string
	stateTable  string
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port") and database.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port := endpoint, 0
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptime endpoint %q: bad port: %w", endpoint, err)
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if port > 0 {
		cfg = cfg.WithPort(port)
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return newGreptimeDBWriter(client), nil
}

func newGreptimeDBWriter(c greptimeClient) *GreptimeDBWriter {
	return &GreptimeDBWriter{
		client:      c,
		timeout:     5 * time.Second,
		poseTable:   telemetry.PoseTableName,
		obsTable:    telemetry.ObservationTableName,
		targetTable: telemetry.TargetTableName,
		stateTable:  telemetry.StateTableName,
	}
}

func (w *GreptimeDBWriter) write(tbl *table.Table) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write: %w", err)
	}
	return nil
}

type column struct {
	name string
	kind string // tag, field or ts
	typ  types.ColumnType
}

func newTable(name string, cols []column) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		switch c.kind {
		case "tag":
			err = tbl.AddTagColumn(c.name, c.typ)
		case "ts":
			err = tbl.AddTimestampColumn(c.name, c.typ)
		default:
			err = tbl.AddFieldColumn(c.name, c.typ)
		}
		if err != nil {
			return nil, fmt.Errorf("table %s column %s: %w", name, c.name, err)
		}
	}
	return tbl, nil
}

var poseColumns = []column{
	{"mission_id", "tag", types.STRING},
	{"seq", "field", types.INT64},
	{"command", "field", types.STRING},
	{"dx_cm", "field", types.FLOAT64},
	{"dy_cm", "field", types.FLOAT64},
	{"dyaw_rad", "field", types.FLOAT64},
	{"x", "field", types.FLOAT64},
	{"y", "field", types.FLOAT64},
	{"yaw", "field", types.FLOAT64},
	{"world_x_m", "field", types.FLOAT64},
	{"world_y_m", "field", types.FLOAT64},
	{"sector", "field", types.STRING},
	{"battery", "field", types.FLOAT64},
	{"status", "field", types.STRING},
	{"cells", "field", types.INT64},
	{"ts", "ts", types.TIMESTAMP_MILLISECOND},
}

// WritePose inserts a pose row.
func (w *GreptimeDBWriter) WritePose(r telemetry.PoseRow) error {
	tbl, err := newTable(w.poseTable, poseColumns)
	if err != nil {
		return err
	}
	if err := tbl.AddRow(r.MissionID, r.Seq, r.Command, r.DxCm, r.DyCm, r.DyawRad,
		r.X, r.Y, r.Yaw, r.WorldXM, r.WorldYM, r.Sector, r.Battery, r.Status,
		int64(r.Cells), r.Timestamp); err != nil {
		return err
	}
	return w.write(tbl)
}

var observationColumns = []column{
	{"mission_id", "tag", types.STRING},
	{"observation_id", "tag", types.STRING},
	{"seq", "field", types.INT64},
	{"score", "field", types.FLOAT64},
	{"obstacle_range", "field", types.FLOAT64},
	{"offset_x_cm", "field", types.FLOAT64},
	{"offset_y_cm", "field", types.FLOAT64},
	{"x", "field", types.FLOAT64},
	{"y", "field", types.FLOAT64},
	{"yaw", "field", types.FLOAT64},
	{"status", "field", types.STRING},
	{"cells", "field", types.INT64},
	{"error", "field", types.STRING},
	{"occupancy_cells", "field", types.INT64},
	{"best_x", "field", types.INT64},
	{"best_y", "field", types.INT64},
	{"best_found", "field", types.BOOLEAN},
	{"best_value", "field", types.FLOAT64},
	{"top_object", "field", types.STRING},
	{"top_score", "field", types.FLOAT64},
	{"ts", "ts", types.TIMESTAMP_MILLISECOND},
}

// WriteObservation inserts an observation row.
func (w *GreptimeDBWriter) WriteObservation(r telemetry.ObservationRow) error {
	tbl, err := newTable(w.obsTable, observationColumns)
	if err != nil {
		return err
	}
	if err := tbl.AddRow(r.MissionID, r.ObservationID, r.Seq, r.Score, r.ObstacleRange,
		r.OffsetXCm, r.OffsetYCm, r.X, r.Y, r.Yaw, r.Status, int64(r.Cells), r.Error,
		int64(r.OccupancyCell), int64(r.BestX), int64(r.BestY), r.BestFound, r.BestValue,
		r.TopObject, r.TopScore, r.Timestamp); err != nil {
		return err
	}
	return w.write(tbl)
}

var targetColumns = []column{
	{"mission_id", "tag", types.STRING},
	{"target_id", "tag", types.STRING},
	{"kind", "field", types.STRING},
	{"x_m", "field", types.FLOAT64},
	{"y_m", "field", types.FLOAT64},
	{"value", "field", types.FLOAT64},
	{"ts", "ts", types.TIMESTAMP_MILLISECOND},
}

// WriteTargets inserts target rows in one request.
func (w *GreptimeDBWriter) WriteTargets(rows []telemetry.TargetRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := newTable(w.targetTable, targetColumns)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.MissionID, r.TargetID, r.Kind, r.XM, r.YM, r.Value, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl)
}

var stateColumns = []column{
	{"mission_id", "tag", types.STRING},
	{"battery", "field", types.FLOAT64},
	{"vehicle_status", "field", types.STRING},
	{"visited", "field", types.INT64},
	{"free", "field", types.INT64},
	{"obstacles", "field", types.INT64},
	{"observed", "field", types.INT64},
	{"mean_value", "field", types.FLOAT64},
	{"mean_confidence", "field", types.FLOAT64},
	{"max_value", "field", types.FLOAT64},
	{"ts", "ts", types.TIMESTAMP_MILLISECOND},
}

// WriteState inserts a mission state row.
func (w *GreptimeDBWriter) WriteState(r telemetry.MissionStateRow) error {
	tbl, err := newTable(w.stateTable, stateColumns)
	if err != nil {
		return err
	}
	if err := tbl.AddRow(r.MissionID, r.Battery, r.VehicleStatus, int64(r.Visited),
		int64(r.Free), int64(r.Obstacles), int64(r.Observed), r.MeanValue,
		r.MeanConfidence, r.MaxValue, r.Timestamp); err != nil {
		return err
	}
	return w.write(tbl)
}
