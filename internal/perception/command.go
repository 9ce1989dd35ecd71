// Package perception models what the vision service hands back to the vehicle:
// motion commands, value scores and object detections.
package perception

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"droneops-scout/internal/grid"
)

// Action is the verb of a vehicle command.
type Action string

const (
	MoveForward  Action = "move_forward"
	MoveBackward Action = "move_backward"
	MoveLeft     Action = "move_left"
	MoveRight    Action = "move_right"
	MoveUp       Action = "move_up"
	MoveDown     Action = "move_down"
	TurnCW       Action = "turn_cw"
	TurnCCW      Action = "turn_ccw"
	Hover        Action = "hover"
	Stop         Action = "stop"
)

// ErrUnknownCommand is returned for verbs outside the command grammar.
var ErrUnknownCommand = errors.New("unknown command")

// ErrMissingAmount is returned when a move or turn has no argument.
var ErrMissingAmount = errors.New("missing command amount")

// Command is one parsed vehicle instruction. Amount is centimeters for moves
// and degrees for turns; it is zero for hover and stop.
type Command struct {
	Action Action  `json:"action" yaml:"action"`
	Amount float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// Limits bounds horizontal and vertical move distances.
type Limits struct {
	MinCm float64 `yaml:"movement_min_cm" json:"movement_min_cm"`
	MaxCm float64 `yaml:"movement_max_cm" json:"movement_max_cm"`
}

// DefaultLimits matches the vehicle's accepted move range.
var DefaultLimits = Limits{MinCm: 20, MaxCm: 300}

func (a Action) takesAmount() bool {
	switch a {
	case Hover, Stop:
		return false
	}
	return true
}

func (a Action) valid() bool {
	switch a {
	case MoveForward, MoveBackward, MoveLeft, MoveRight, MoveUp, MoveDown, TurnCW, TurnCCW, Hover, Stop:
		return true
	}
	return false
}

// IsTurn reports whether the action rotates the vehicle.
func (a Action) IsTurn() bool { return a == TurnCW || a == TurnCCW }

// ParseCommand parses "verb [amount]", e.g. "move_forward 50" or "turn_cw 90".
func ParseCommand(s string) (Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("parse command %q: %w", s, ErrUnknownCommand)
	}
	a := Action(fields[0])
	if !a.valid() {
		return Command{}, fmt.Errorf("parse command %q: %w", s, ErrUnknownCommand)
	}
	if !a.takesAmount() {
		return Command{Action: a}, nil
	}
	if len(fields) < 2 {
		return Command{}, fmt.Errorf("parse command %q: %w", s, ErrMissingAmount)
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Command{}, fmt.Errorf("parse command %q: bad amount %q", s, fields[1])
	}
	return Command{Action: a, Amount: math.Abs(v)}, nil
}

// ParsePlan parses a multi-command reply. Commands are separated by newlines,
// semicolons or commas; blank entries are ignored.
func ParsePlan(text string) ([]Command, error) {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ';' || r == ','
	})
	var out []Command
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		c, err := ParseCommand(p)
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (c Command) String() string {
	if !c.Action.takesAmount() {
		return string(c.Action)
	}
	return fmt.Sprintf("%s %s", c.Action, strconv.FormatFloat(c.Amount, 'f', -1, 64))
}

// Clamp limits move distances to l. Turns, hover and stop are returned unchanged.
func (c Command) Clamp(l Limits) Command {
	if !c.Action.takesAmount() || c.Action.IsTurn() {
		return c
	}
	c.Amount = math.Min(math.Max(c.Amount, l.MinCm), l.MaxCm)
	return c
}

// Delta converts the command into a planar vehicle-frame delta after clamping
// with l. Clockwise turns are positive yaw; vertical moves carry no planar motion.
func (c Command) Delta(l Limits) grid.Delta {
	c = c.Clamp(l)
	switch c.Action {
	case MoveForward:
		return grid.Delta{Y: c.Amount}
	case MoveBackward:
		return grid.Delta{Y: -c.Amount}
	case MoveRight:
		return grid.Delta{X: c.Amount}
	case MoveLeft:
		return grid.Delta{X: -c.Amount}
	case TurnCW:
		return grid.Delta{Yaw: c.Amount * math.Pi / 180}
	case TurnCCW:
		return grid.Delta{Yaw: -c.Amount * math.Pi / 180}
	}
	return grid.Delta{}
}
