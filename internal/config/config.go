// YAML config loader with CUE validation integration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"droneops-scout/internal/perception"
	"droneops-scout/internal/target"
	"droneops-scout/internal/valuemap"
)

//go:embed schema.cue
var missionSchema []byte

// Schema returns the embedded mission CUE schema.
func Schema() []byte { return missionSchema }

// Grid sizes the occupancy grid.
type Grid struct {
	Width    float64 `yaml:"width_m"`
	Height   float64 `yaml:"height_m"`
	CellSize float64 `yaml:"cell_size_m"`
	OriginX  float64 `yaml:"origin_x_m"`
	OriginY  float64 `yaml:"origin_y_m"`
}

// Vehicle holds movement limits and battery thresholds.
type Vehicle struct {
	perception.Limits `yaml:",inline"`
	BatteryMinPct     float64 `yaml:"battery_min_pct"`
	BatteryDrainPct   float64 `yaml:"battery_drain_pct"`
	SceneChangeCm     float64 `yaml:"scene_change_cm"`
}

// Mission identifies the run and paces it.
type Mission struct {
	ID           string        `yaml:"id"`
	Tick         time.Duration `yaml:"tick"`
	ExploreSteps int           `yaml:"explore_steps"`
}

// MissionConfig is the root configuration.
type MissionConfig struct {
	Grid       Grid          `yaml:"grid"`
	Perception valuemap.View `yaml:"perception"`
	Vehicle    Vehicle       `yaml:"vehicle"`
	Target     target.Config `yaml:"target"`
	Mission    Mission       `yaml:"mission"`
}

// Default returns a 50 m × 50 m mission with the stock perception and vehicle settings.
func Default() *MissionConfig {
	cfg := newMissionConfig()
	cfg.Grid = Grid{Width: 50, Height: 50}
	cfg.ApplyDefaults()
	return cfg
}

// newMissionConfig presets the settings for which zero is a valid choice.
// The decoder only overwrites keys present in the file, so an explicit zero
// survives while an absent key keeps its stock value.
func newMissionConfig() *MissionConfig {
	return &MissionConfig{
		Perception: valuemap.View{UseObstacleMask: true},
		Vehicle: Vehicle{
			BatteryMinPct: 20,
			SceneChangeCm: 120,
		},
		Mission: Mission{ExploreSteps: 10},
	}
}

// Load loads YAML config and validates it against a CUE schema.
// An empty cueSchemaPath uses the embedded schema.
func Load(configPath, cueSchemaPath string) (*MissionConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := newMissionConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", configPath, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero values with the stock settings for the fields
// where zero is not a usable setting.
func (c *MissionConfig) ApplyDefaults() {
	if c.Grid.CellSize == 0 {
		c.Grid.CellSize = 0.1
	}
	if c.Perception.FOVDeg == 0 {
		c.Perception.FOVDeg = 82
	}
	if c.Perception.MaxRange == 0 {
		c.Perception.MaxRange = 4
	}
	if c.Vehicle.MinCm == 0 {
		c.Vehicle.MinCm = perception.DefaultLimits.MinCm
	}
	if c.Vehicle.MaxCm == 0 {
		c.Vehicle.MaxCm = perception.DefaultLimits.MaxCm
	}
	if c.Mission.Tick == 0 {
		c.Mission.Tick = time.Second
	}
}

// ApplyEnv overrides settings from the environment.
func (c *MissionConfig) ApplyEnv() error {
	if v := os.Getenv("MISSION_ID"); v != "" {
		c.Mission.ID = v
	}
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
		}
		c.Mission.Tick = d
	}
	return nil
}
