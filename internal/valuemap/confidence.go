package valuemap

import "math"

// AngleConfidence scores how trustworthy an observation of a cell is given its
// bearing offset theta from the heading and the full field of view fov, both in
// radians. It is 1 on boresight and falls off as cos² to 0 at the FOV edge.
func AngleConfidence(theta, fov float64) float64 {
	half := fov / 2
	if !(half > 1e-9) {
		return 0
	}
	t := math.Abs(theta) / half
	if t >= 1 {
		return 0
	}
	c := math.Cos(t * (math.Pi / 2))
	return c * c
}
