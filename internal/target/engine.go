// Package target simulates objects of interest around the vehicle and scores
// frames against them, standing in for the perception service offline.
package target

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"droneops-scout/internal/grid"
	"droneops-scout/internal/perception"
	"droneops-scout/internal/valuemap"
)

// Geometry converts a pose into world meters.
type Geometry interface {
	PoseToWorld(p grid.Pose) (float64, float64)
	CellSize() float64
}

// Engine maintains simulated targets and implements perception.Scorer.
type Engine struct {
	mu      sync.Mutex
	geom    Geometry
	view    valuemap.View
	cfg     Config
	targets []*Target
	rand    *rand.Rand
}

// NewEngine creates an engine with the configured and random targets.
// A nil rng is seeded from cfg.Seed.
func NewEngine(cfg Config, geom Geometry, view valuemap.View, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	e := &Engine{geom: geom, view: view, cfg: cfg, rand: rng}
	for _, s := range cfg.Targets {
		e.targets = append(e.targets, &Target{ID: uuid.NewString(), Kind: s.Kind, X: s.X, Y: s.Y, Value: s.Value})
	}
	for i := 0; i < cfg.Random; i++ {
		angle := rng.Float64() * 2 * math.Pi
		r := rng.Float64() * cfg.RadiusM
		e.targets = append(e.targets, &Target{
			ID:    uuid.NewString(),
			Kind:  randomKind(rng),
			X:     r * math.Sin(angle),
			Y:     r * math.Cos(angle),
			Value: 0.5 + rng.Float64()*0.5,
		})
	}
	return e
}

func randomKind(rng *rand.Rand) Kind {
	kinds := []Kind{KindPerson, KindVehicle, KindDrone}
	return kinds[rng.Intn(len(kinds))]
}

// Targets returns a copy of the current targets.
func (e *Engine) Targets() []Target {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Target, len(e.targets))
	for i, t := range e.targets {
		out[i] = *t
	}
	return out
}

// Step moves all mobile targets with a bounded random walk.
func (e *Engine) Step() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.StepM <= 0 {
		return
	}
	for _, t := range e.targets {
		if t.Kind == KindObstacle {
			continue
		}
		t.X += (e.rand.Float64()*2 - 1) * e.cfg.StepM
		t.Y += (e.rand.Float64()*2 - 1) * e.cfg.StepM
	}
}

type sighting struct {
	t      *Target
	dist   float64
	signed float64
	score  float64
}

// Score rates the frame against every target inside the viewing cone. The
// observation score is the best target score; obstacles inside the central
// third of the cone report their distance as ObstacleRange.
func (e *Engine) Score(ctx context.Context, f perception.Frame) (perception.Observation, error) {
	if err := ctx.Err(); err != nil {
		return perception.Observation{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	fov := e.view.FOV()
	half := fov / 2
	cs := e.geom.CellSize()
	vx, vy := e.geom.PoseToWorld(f.Pose)

	var seen []sighting
	var obs perception.Observation
	for _, t := range e.targets {
		dx := t.X - vx
		dy := t.Y - vy
		dist := math.Hypot(dx, dy) / cs
		if dist > e.view.MaxRange {
			continue
		}
		signed := 0.0
		if dist > 0 {
			signed = grid.WrapAngle(math.Atan2(dx, dy) - f.Pose.Yaw)
		}
		if math.Abs(signed) > half {
			continue
		}
		if t.Kind == KindObstacle {
			if math.Abs(signed) <= fov/6 && (obs.ObstacleRange == 0 || dist < obs.ObstacleRange) {
				obs.ObstacleRange = math.Max(dist, 0.5)
			}
			continue
		}
		s := t.Value * valuemap.AngleConfidence(signed, fov) * (1 - dist/(e.view.MaxRange+1))
		if e.cfg.Noise > 0 {
			s += e.rand.NormFloat64() * e.cfg.Noise
		}
		seen = append(seen, sighting{t: t, dist: dist, signed: signed, score: clamp01(s)})
	}

	sort.SliceStable(seen, func(i, j int) bool { return seen[i].score > seen[j].score })
	for _, s := range seen {
		cx := 0.5 + s.signed/fov
		w := math.Min(0.5, 0.5/math.Max(s.dist, 1))
		obs.Detections = append(obs.Detections, perception.Detection{
			Object: string(s.t.Kind),
			Score:  s.score,
			BBox:   [4]float64{clamp01(cx - w/2), 0.3, clamp01(cx + w/2), 0.7},
		})
	}
	if len(seen) > 0 {
		obs.Score = seen[0].score
	}
	return obs, nil
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

var _ perception.Scorer = (*Engine)(nil)
