// Package host plays the role of the platform shell: it owns the clock,
// forwards orientation changes to a RenderingEngine and drives its
// UpdateAnimation/Render cycle, either in fixed steps for offline recording
// or on a wall-clock ticker.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cone-renderer/internal/animation"
	"cone-renderer/internal/engine"
)

// Frame describes one rendered frame.
type Frame struct {
	Index       int
	Time        float64 // seconds since the driver started
	Orientation animation.Orientation
	State       animation.State
	Progress    float64
}

// Driver runs an engine against a Script.
type Driver struct {
	eng    engine.RenderingEngine
	script Script
	log    *slog.Logger

	next  int
	clock float64
	index int
}

// NewDriver validates script and returns a driver at time zero. A nil logger
// uses slog.Default().
func NewDriver(e engine.RenderingEngine, script Script, logger *slog.Logger) (*Driver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := append(Script(nil), script...)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Driver{eng: e, script: s, log: logger}, nil
}

// Clock returns the current driver time in seconds.
func (d *Driver) Clock() float64 { return d.clock }

// Step fires the cues that are due, advances the animation by dt and renders.
func (d *Driver) Step(dt float64) Frame {
	for d.next < len(d.script) && d.script[d.next].At <= d.clock {
		c := d.script[d.next]
		d.log.Debug("cue", "at", c.At, "orientation", c.Orientation, "clock", d.clock)
		d.eng.OnRotate(c.Orientation)
		d.next++
	}
	d.eng.UpdateAnimation(dt)
	d.eng.Render()

	a := d.eng.Animation()
	f := Frame{
		Index:       d.index,
		Time:        d.clock,
		Orientation: d.eng.Target(),
		State:       a.State(),
		Progress:    a.Progress(),
	}
	d.index++
	d.clock += dt
	return f
}

// RunFixed renders frames steps of 1/fps seconds, calling onFrame after each.
// It stops early when ctx is done or onFrame fails.
func (d *Driver) RunFixed(ctx context.Context, frames int, fps float64, onFrame func(Frame) error) error {
	if fps <= 0 {
		return fmt.Errorf("host: invalid fps %v", fps)
	}
	dt := 1 / fps
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := d.Step(dt)
		if onFrame != nil {
			if err := onFrame(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunRealtime ticks hz times per second and steps by the measured wall-clock
// interval. It returns after frames frames, or runs until ctx is done when
// frames is zero.
func (d *Driver) RunRealtime(ctx context.Context, hz, frames int, onFrame func(Frame) error) error {
	if hz <= 0 {
		hz = 60
	}
	period := time.Second / time.Duration(hz)
	if period <= 0 {
		return fmt.Errorf("host: invalid hz %d", hz)
	}
	t := time.NewTicker(period)
	defer t.Stop()

	last := time.Now()
	done := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			dt := now.Sub(last).Seconds()
			last = now
			f := d.Step(dt)
			if onFrame != nil {
				if err := onFrame(f); err != nil {
					return err
				}
			}
			done++
			if frames > 0 && done >= frames {
				return nil
			}
		}
	}
}
