package target

// Kind represents what a simulated target is.
type Kind string

const (
	KindPerson   Kind = "person"
	KindVehicle  Kind = "vehicle"
	KindDrone    Kind = "drone"
	KindObstacle Kind = "obstacle"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPerson, KindVehicle, KindDrone, KindObstacle:
		return true
	}
	return false
}

// Target is one simulated object in world coordinates (meters).
type Target struct {
	ID   string  `json:"id"`
	Kind Kind    `json:"kind"`
	X    float64 `json:"x_m"`
	Y    float64 `json:"y_m"`
	// Value is the intrinsic interest of the target in [0, 1].
	Value float64 `json:"value"`
}

// Spec places a target in the configuration file.
type Spec struct {
	Kind  Kind    `yaml:"kind" json:"kind"`
	X     float64 `yaml:"x_m" json:"x_m"`
	Y     float64 `yaml:"y_m" json:"y_m"`
	Value float64 `yaml:"value" json:"value"`
}

// Config drives the engine.
type Config struct {
	Targets []Spec `yaml:"targets" json:"targets"`
	// Random adds this many targets at random positions within RadiusM of the origin.
	Random  int     `yaml:"random" json:"random"`
	RadiusM float64 `yaml:"radius_m" json:"radius_m"`
	// Noise is the standard deviation of the score noise.
	Noise float64 `yaml:"noise" json:"noise"`
	// StepM bounds the random walk of mobile targets per step.
	StepM float64 `yaml:"step_m" json:"step_m"`
	Seed  int64   `yaml:"seed" json:"seed"`
}
