// Telemetry structs with greptime tags
package telemetry

import (
	"os"
	"time"
)

// PoseRow records the vehicle pose after one command.
type PoseRow struct {
	MissionID string    `json:"mission_id"` // TAG
	Seq       int64     `json:"seq"`        // FIELD
	Command   string    `json:"command"`    // FIELD
	DxCm      float64   `json:"dx_cm"`      // FIELD
	DyCm      float64   `json:"dy_cm"`      // FIELD
	DyawRad   float64   `json:"dyaw_rad"`   // FIELD
	X         float64   `json:"x"`          // FIELD, cells
	Y         float64   `json:"y"`          // FIELD, cells
	Yaw       float64   `json:"yaw"`        // FIELD
	WorldXM   float64   `json:"world_x_m"`  // FIELD
	WorldYM   float64   `json:"world_y_m"`  // FIELD
	Sector    string    `json:"sector"`     // FIELD
	Battery   float64   `json:"battery"`    // FIELD
	Status    string    `json:"status"`     // FIELD, rasterize outcome
	Cells     int       `json:"cells"`      // FIELD
	Timestamp time.Time `json:"ts"`         // TIME INDEX
}

// ObservationRow records one fused perception result.
type ObservationRow struct {
	MissionID     string    `json:"mission_id"`     // TAG
	ObservationID string    `json:"observation_id"` // TAG
	Seq           int64     `json:"seq"`
	Score         float64   `json:"score"`
	ObstacleRange float64   `json:"obstacle_range"`
	OffsetXCm     float64   `json:"offset_x_cm"`
	OffsetYCm     float64   `json:"offset_y_cm"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	Yaw           float64   `json:"yaw"`
	Status        string    `json:"status"` // fusion outcome
	Cells         int       `json:"cells"`
	Error         string    `json:"error,omitempty"`
	OccupancyCell int       `json:"occupancy_cells"`
	BestX         int       `json:"best_x"`
	BestY         int       `json:"best_y"`
	BestFound     bool      `json:"best_found"`
	BestValue     float64   `json:"best_value"`
	TopObject     string    `json:"top_object,omitempty"`
	TopScore      float64   `json:"top_score,omitempty"`
	Timestamp     time.Time `json:"ts"`
}

// TargetRow records a simulated target position.
type TargetRow struct {
	MissionID string    `json:"mission_id"` // TAG
	TargetID  string    `json:"target_id"`  // TAG
	Kind      string    `json:"kind"`
	XM        float64   `json:"x_m"`
	YM        float64   `json:"y_m"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"ts"`
}

// MissionStateRow captures per-tick map summary metrics.
type MissionStateRow struct {
	MissionID      string    `json:"mission_id"` // TAG
	Battery        float64   `json:"battery"`
	VehicleStatus  string    `json:"vehicle_status"`
	Visited        int       `json:"visited"`
	Free           int       `json:"free"`
	Obstacles      int       `json:"obstacles"`
	Observed       int       `json:"observed"`
	MeanValue      float64   `json:"mean_value"`
	MeanConfidence float64   `json:"mean_confidence"`
	MaxValue       float64   `json:"max_value"`
	Timestamp      time.Time `json:"ts"`
}

func tableName(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Table names used when writing to GreptimeDB. Each can be overridden with
// the GREPTIMEDB_<KIND>_TABLE environment variable.
var (
	PoseTableName        = tableName("GREPTIMEDB_POSE_TABLE", "scout_pose")
	ObservationTableName = tableName("GREPTIMEDB_OBSERVATION_TABLE", "scout_observation")
	TargetTableName      = tableName("GREPTIMEDB_TARGET_TABLE", "scout_target")
	StateTableName       = tableName("GREPTIMEDB_STATE_TABLE", "scout_mission_state")
)

func (PoseRow) TableName() string         { return PoseTableName }
func (ObservationRow) TableName() string  { return ObservationTableName }
func (TargetRow) TableName() string       { return TargetTableName }
func (MissionStateRow) TableName() string { return StateTableName }
