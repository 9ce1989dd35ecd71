package script

func score(v float64) *float64 { return &v }

// BuiltIn returns predefined scripts usable without a file.
func BuiltIn() map[string]Script {
	return map[string]Script{
		"square": {
			Name:        "Square",
			Description: "Fly a 1 m square, scoring the view after every leg.",
			Steps: []Step{
				{Command: "move_forward 100"},
				{Observe: score(0.4)},
				{Command: "turn_cw 90"},
				{Command: "move_forward 100"},
				{Observe: score(0.6)},
				{Command: "turn_cw 90"},
				{Command: "move_forward 100"},
				{Observe: score(0.2)},
				{Command: "turn_cw 90"},
				{Command: "move_forward 100"},
				{Observe: score(0.3)},
			},
		},
		"corridor": {
			Name:        "Corridor",
			Description: "Advance down a corridor until a wall is reported ahead.",
			Steps: []Step{
				{Observe: score(0.5), ObstacleRange: 4},
				{Command: "move_forward 50"},
				{Observe: score(0.7), ObstacleRange: 3},
				{Command: "move_forward 50"},
				{Observe: score(0.9), ObstacleRange: 2},
				{Command: "hover"},
			},
		},
		"survey": {
			Name:        "Survey",
			Description: "Scan the surroundings with the live scorer, then explore toward the best cell.",
			Steps: []Step{
				{Scan: true},
				{Command: "turn_cw 90"},
				{Scan: true},
				{Command: "turn_cw 90"},
				{Scan: true},
				{Command: "turn_cw 90"},
				{Scan: true},
				{Command: "turn_cw 90"},
				{Explore: 5},
			},
		},
	}
}
