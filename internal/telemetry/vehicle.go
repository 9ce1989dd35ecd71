package telemetry

import "sync"

// Vehicle status constants.
const (
	StatusOK         = "ok"
	StatusLowBattery = "low_battery"
	StatusFailure    = "failed"
)

// Vehicle tracks the battery of the flying vehicle. It is safe for concurrent use.
type Vehicle struct {
	mu       sync.Mutex
	battery  float64
	minPct   float64
	drainPct float64
}

// NewVehicle starts a vehicle at a full battery. Below minPct it reports
// low_battery; drainPct is consumed per meter flown.
func NewVehicle(minPct, drainPct float64) *Vehicle {
	return &Vehicle{battery: 100, minPct: minPct, drainPct: drainPct}
}

// Battery returns the current charge in percent.
func (v *Vehicle) Battery() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.battery
}

// SetBattery records a reported charge, clamped to [0, 100].
func (v *Vehicle) SetBattery(pct float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.battery = min(max(pct, 0), 100)
}

// Fly drains the battery for a move of cm centimeters and returns the new charge.
func (v *Vehicle) Fly(cm float64) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if cm < 0 {
		cm = -cm
	}
	v.battery = max(0, v.battery-v.drainPct*cm/100)
	return v.battery
}

// Status derives the vehicle status from the battery level.
func (v *Vehicle) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case v.battery <= 5:
		return StatusFailure
	case v.battery < v.minPct:
		return StatusLowBattery
	}
	return StatusOK
}

// CanFly reports whether the battery is at or above the mission minimum.
func (v *Vehicle) CanFly() bool {
	return v.Status() == StatusOK
}
