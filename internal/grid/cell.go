package grid

import (
	"encoding/json"
	"fmt"
	"strings"
)

// State is the occupancy state of one grid cell.
type State uint8

const (
	Unknown State = iota
	Free
	Visited
	Obstacle
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Free:
		return "free"
	case Visited:
		return "visited"
	case Obstacle:
		return "obstacle"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool { return s <= Obstacle }

// Symbol returns the single-rune rendering used by text views of the grid.
func (s State) Symbol() rune {
	switch s {
	case Free:
		return ' '
	case Visited:
		return 'X'
	case Obstacle:
		return '#'
	default:
		return '·'
	}
}

// ParseState converts a state name into a State.
func ParseState(v string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "unknown":
		return Unknown, nil
	case "free":
		return Free, nil
	case "visited":
		return Visited, nil
	case "obstacle":
		return Obstacle, nil
	default:
		return Unknown, fmt.Errorf("unknown cell state %q", v)
	}
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either a state name or its numeric value.
func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		parsed, err := ParseState(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n uint8
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if !State(n).Valid() {
		return fmt.Errorf("cell state %d out of range", n)
	}
	*s = State(n)
	return nil
}

// Cell addresses one grid element by integer index.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}
