package mission

import (
	"errors"
	"io"

	"droneops-scout/internal/telemetry"
)

// MultiWriter fans rows out to multiple writers. Optional interfaces are
// forwarded to the writers that implement them.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// WritePose sends a pose row to all writers.
func (mw *MultiWriter) WritePose(row telemetry.PoseRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WritePose(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteObservation sends an observation row to all writers.
func (mw *MultiWriter) WriteObservation(row telemetry.ObservationRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteObservation(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteTargets sends target rows to the writers that accept them.
func (mw *MultiWriter) WriteTargets(rows []telemetry.TargetRow) error {
	var errs []error
	for _, w := range mw.writers {
		if tw, ok := w.(TargetWriter); ok {
			if err := tw.WriteTargets(rows); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteState sends a state row to the writers that accept it.
func (mw *MultiWriter) WriteState(row telemetry.MissionStateRow) error {
	var errs []error
	for _, w := range mw.writers {
		if sw, ok := w.(StateWriter); ok {
			if err := sw.WriteState(row); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteFrame sends a grid frame to the writers that accept it.
func (mw *MultiWriter) WriteFrame(f GridFrame) error {
	var errs []error
	for _, w := range mw.writers {
		if fw, ok := w.(FrameWriter); ok {
			if err := fw.WriteFrame(f); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every writer that is an io.Closer.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
