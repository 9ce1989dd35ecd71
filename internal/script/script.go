// Package script loads mission scripts: ordered vehicle commands and
// observations that drive a mission without a live vehicle.
package script

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"droneops-scout/internal/config"
	"droneops-scout/internal/perception"
)

//go:embed schema.cue
var scriptSchema []byte

// ErrInvalidStep is returned for steps that do not name exactly one action.
var ErrInvalidStep = errors.New("invalid script step")

// Script is a named list of steps.
type Script struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is one script entry. Exactly one of Command, Observe, Scan or Explore
// is set; Battery may accompany any of them or stand alone.
type Step struct {
	Command       string                 `yaml:"command,omitempty"`
	Observe       *float64               `yaml:"observe,omitempty"`
	Scan          bool                   `yaml:"scan,omitempty"`
	Explore       int                    `yaml:"explore,omitempty"`
	ObstacleRange float64                `yaml:"obstacle_range,omitempty"`
	OffsetXCm     float64                `yaml:"offset_x_cm,omitempty"`
	OffsetYCm     float64                `yaml:"offset_y_cm,omitempty"`
	Battery       *float64               `yaml:"battery,omitempty"`
	Detections    []perception.Detection `yaml:"detections,omitempty"`
}

// Kind names the action of a step.
type Kind string

const (
	KindCommand Kind = "command"
	KindObserve Kind = "observe"
	KindScan    Kind = "scan"
	KindExplore Kind = "explore"
	KindBattery Kind = "battery"
)

// Kind returns the step's action.
func (s Step) Kind() (Kind, error) {
	var kinds []Kind
	if s.Command != "" {
		kinds = append(kinds, KindCommand)
	}
	if s.Observe != nil {
		kinds = append(kinds, KindObserve)
	}
	if s.Scan {
		kinds = append(kinds, KindScan)
	}
	if s.Explore > 0 {
		kinds = append(kinds, KindExplore)
	}
	switch {
	case len(kinds) == 1:
		return kinds[0], nil
	case len(kinds) == 0 && s.Battery != nil:
		return KindBattery, nil
	case len(kinds) == 0:
		return "", fmt.Errorf("%w: no action", ErrInvalidStep)
	}
	return "", fmt.Errorf("%w: multiple actions %v", ErrInvalidStep, kinds)
}

// Observation returns the fixed observation carried by an observe step.
func (s Step) Observation() perception.Observation {
	o := perception.Observation{
		ObstacleRange: s.ObstacleRange,
		OffsetXCm:     s.OffsetXCm,
		OffsetYCm:     s.OffsetYCm,
		Detections:    s.Detections,
	}
	if s.Observe != nil {
		o.Score = *s.Observe
	}
	return o
}

// Load reads and validates a YAML script from disk.
func Load(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(path, b)
}

// Parse validates data against the script schema and decodes it.
func Parse(name string, data []byte) (*Script, error) {
	if err := config.ValidateBytes(name, data, scriptSchema, "#Script"); err != nil {
		return nil, fmt.Errorf("validate script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step names one action and every command parses.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: script has no steps", ErrInvalidStep)
	}
	for i, st := range s.Steps {
		k, err := st.Kind()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if k == KindCommand {
			if _, err := perception.ParseCommand(st.Command); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
	}
	return nil
}
