package grid

import "math"

var sectorLabels = [16]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// SectorIndex maps a yaw to one of 16 sectors of 22.5°, with North centered on 0.
func SectorIndex(yaw float64) int {
	deg := math.Mod(WrapAngle(yaw)*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Floor((deg+11.25)/22.5)) % 16
	return idx
}

// Sector returns the compass label for yaw.
func Sector(yaw float64) string {
	return sectorLabels[SectorIndex(yaw)]
}

// Sector returns the compass label of the current heading.
func (g *Grid) Sector() string {
	return Sector(g.pose.Yaw)
}
