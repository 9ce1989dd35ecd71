package mission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"droneops-scout/internal/grid"
	"droneops-scout/internal/logging"
	"droneops-scout/internal/perception"
	"droneops-scout/internal/script"
	"droneops-scout/internal/telemetry"
)

// Run executes s step by step at the configured tick. With a nil script it
// explores autonomously for the configured number of steps. It returns nil
// when the work is done or the mission was stopped, and ctx.Err() on
// cancellation.
func (m *Mission) Run(ctx context.Context, s *script.Script) error {
	log := logging.FromContext(ctx).With("mission_id", m.id)
	ctx = logging.NewContext(ctx, log)
	log.Info("mission starting", "tick", m.tick, "scripted", s != nil)

	var err error
	if s != nil {
		err = m.RunScript(ctx, s)
	} else {
		err = m.Explore(ctx, m.exploreSteps)
	}
	switch {
	case errors.Is(err, ErrStopped):
		log.Info("mission stopped by command")
		return nil
	case errors.Is(err, ErrBatteryLow):
		log.Warn("mission ended on low battery", "battery", m.vehicle.Battery())
		return nil
	case err != nil:
		return err
	}
	log.Info("mission complete")
	return nil
}

// RunScript executes each step of s, waiting one tick between steps.
func (m *Mission) RunScript(ctx context.Context, s *script.Script) error {
	if err := s.Validate(); err != nil {
		return err
	}
	log := logging.FromContext(ctx)
	for i, st := range s.Steps {
		if i > 0 {
			if err := m.wait(ctx); err != nil {
				return err
			}
		}
		if st.Battery != nil {
			m.vehicle.SetBattery(*st.Battery)
		}
		if !m.vehicle.CanFly() {
			return fmt.Errorf("step %d: %w (%.1f%%)", i, ErrBatteryLow, m.vehicle.Battery())
		}
		if err := m.runStep(ctx, st); err != nil {
			if errors.Is(err, ErrStopped) || errors.Is(err, ErrBatteryLow) || ctx.Err() != nil {
				return err
			}
			log.Warn("script step failed", "step", i, "err", err)
		}
		m.report(ctx)
	}
	return nil
}

func (m *Mission) runStep(ctx context.Context, st script.Step) error {
	kind, err := st.Kind()
	if err != nil {
		return err
	}
	switch kind {
	case script.KindCommand:
		cmd, err := perception.ParseCommand(st.Command)
		if err != nil {
			return err
		}
		_, err = m.Move(ctx, cmd)
		return err
	case script.KindObserve:
		res := m.Observe(ctx, st.Observation())
		if res.Fusion.Status == grid.Failed {
			return res.Fusion.Err
		}
	case script.KindScan:
		_, _, err := m.Scan(ctx)
		return err
	case script.KindExplore:
		return m.Explore(ctx, st.Explore)
	}
	return nil
}

// Explore scans and steers toward the best cell for steps iterations. A new
// scan is taken on the first iteration, after every turn and whenever the
// vehicle has flown further than the scene change distance.
func (m *Mission) Explore(ctx context.Context, steps int) error {
	if m.scorer == nil {
		return ErrNoScorer
	}
	log := logging.FromContext(ctx)
	turned := true
	for i := 0; i < steps; i++ {
		if i > 0 {
			if err := m.wait(ctx); err != nil {
				return err
			}
		}
		if !m.vehicle.CanFly() {
			return fmt.Errorf("explore step %d: %w (%.1f%%)", i, ErrBatteryLow, m.vehicle.Battery())
		}

		var plan []perception.Command
		if turned || m.travelledSinceScan() >= m.sceneChangeCm {
			obs, _, err := m.Scan(ctx)
			if err != nil {
				return err
			}
			plan = obs.Plan
		}
		if len(plan) == 0 {
			plan = m.planTowardBest()
		}
		turned = false
		for _, cmd := range plan {
			if _, err := m.Move(ctx, cmd); err != nil {
				return err
			}
			if cmd.Action.IsTurn() {
				turned = true
			}
		}
		log.Debug("explore step", "step", i, "commands", len(plan))
		m.report(ctx)
	}
	return nil
}

// planTowardBest steers at the best cell in view, or turns to look elsewhere
// when the vehicle is already there.
func (m *Mission) planTowardBest() []perception.Command {
	m.mu.Lock()
	pose := m.grid.Pose()
	best, ok := m.values.Best(pose, m.view)
	cs := m.grid.CellSize()
	m.mu.Unlock()
	var plan []perception.Command
	if ok {
		plan = perception.Toward(pose, best, cs, m.limits)
	}
	if len(plan) == 0 {
		plan = []perception.Command{{Action: perception.TurnCW, Amount: 90}}
	}
	return plan
}

func (m *Mission) travelledSinceScan() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sinceScanCm
}

func (m *Mission) wait(ctx context.Context) error {
	if m.tick <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.tick)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// report advances the simulated targets and emits targets, state and the
// grid frame to the writers that accept them.
func (m *Mission) report(ctx context.Context) {
	log := logging.FromContext(ctx)
	if m.targets != nil {
		m.targets.Step()
		if tw, ok := m.writer.(TargetWriter); ok {
			ts := m.now()
			var rows []telemetry.TargetRow
			for _, t := range m.targets.Targets() {
				rows = append(rows, telemetry.TargetRow{
					MissionID: m.id, TargetID: t.ID, Kind: string(t.Kind),
					XM: t.X, YM: t.Y, Value: t.Value, Timestamp: ts,
				})
			}
			if err := tw.WriteTargets(rows); err != nil {
				log.Error("write targets failed", "err", err)
			}
		}
	}
	if sw, ok := m.writer.(StateWriter); ok {
		if err := sw.WriteState(m.State()); err != nil {
			log.Error("write state failed", "err", err)
		}
	}
	if fw, ok := m.writer.(FrameWriter); ok {
		if err := fw.WriteFrame(m.Frame(m.frameRadius)); err != nil {
			log.Error("write frame failed", "err", err)
		}
	}
}
