package sim

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/models"
	"go.uber.org/zap"
)

// DefaultHorizon is the simulated time span shown and evaluated.
const DefaultHorizon = 20.0

type State int

const (
	PausedClean State = iota
	PausedDirty
	Running
)

func (s State) String() string {
	switch s {
	case PausedDirty:
		return "paused (dirty)"
	case Running:
		return "running"
	default:
		return "paused"
	}
}

// TickReport describes what a tick did.
type TickReport struct {
	Action  Action
	Models  []models.ID
	Samples int
}

type Option func(*Driver)

func WithHorizon(h float64) Option {
	return func(d *Driver) { d.horizon = h }
}

func WithLogger(log *zap.Logger) Option {
	return func(d *Driver) {
		if log != nil {
			d.log = log
		}
	}
}

// Driver owns the run flag and decides, once per frame, whether models are
// stepped in real time, re-evaluated in batch, or left alone.
type Driver struct {
	reg     *experiment.Registry
	horizon float64
	running bool
	log     *zap.Logger
}

func NewDriver(reg *experiment.Registry, opts ...Option) (*Driver, error) {
	d := &Driver{
		reg:     reg,
		horizon: DefaultHorizon,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if reg == nil {
		return nil, fmt.Errorf("driver: nil registry")
	}
	if !dynamo.Finite(d.horizon) || d.horizon <= 0 {
		return nil, &dynamo.ConfigError{Field: "horizon", Value: d.horizon, Wrapped: dynamo.ErrParameterBounds}
	}
	return d, nil
}

func (d *Driver) Registry() *experiment.Registry { return d.reg }
func (d *Driver) Horizon() float64               { return d.horizon }
func (d *Driver) Running() bool                  { return d.running }

// State reports PausedDirty only when the next tick would recompute.
func (d *Driver) State() State {
	switch {
	case d.running:
		return Running
	case Plan(d.reg.Pending(), false, d.reg.IDs()).Action == ActionBatch:
		return PausedDirty
	default:
		return PausedClean
	}
}

// SetRunning switches between real-time and paused mode. Histories are left
// as they are in both directions.
func (d *Driver) SetRunning(running bool) {
	if d.running == running {
		return
	}
	d.running = running
	d.log.Debug("run state changed", zap.Bool("running", running))
}

// ResetSimulation restarts every model from rest and clears all histories.
// It is only valid while running.
func (d *Driver) ResetSimulation() error {
	if !d.running {
		d.log.Warn("reset rejected while paused")
		return dynamo.ErrNotRunning
	}
	for _, m := range d.reg.Models() {
		m.Reset()
	}
	d.reg.ClearHistories()
	d.log.Debug("simulation reset", zap.Int("models", d.reg.Len()))
	return nil
}

// Tick performs one frame of work. It never blocks. A failed batch puts the
// drained changes back so the models stay dirty.
func (d *Driver) Tick() (TickReport, error) {
	changes := d.reg.DrainChanges()
	plan := Plan(changes, d.running, d.reg.IDs())

	switch plan.Action {
	case ActionRealtime:
		return d.advance(timestepChanged(changes))
	case ActionBatch:
		rep, err := d.recompute(plan.Models)
		if err != nil {
			d.reg.Requeue(changes)
			d.log.Warn("batch recompute failed", zap.Error(err))
		}
		return rep, err
	default:
		return TickReport{Action: ActionIdle}, nil
	}
}

func timestepChanged(cs experiment.ChangeSet) bool {
	for _, ch := range cs.Changes() {
		if ch.IsEnvironment() && ch.Param == dynamo.ParamTimestep {
			return true
		}
	}
	return false
}

func (d *Driver) advance(retime bool) (TickReport, error) {
	env := d.reg.Environment()
	if err := env.Validate(); err != nil {
		return TickReport{Action: ActionRealtime}, fmt.Errorf("realtime step: %w", err)
	}

	rep := TickReport{Action: ActionRealtime}
	dt := env.Timestep
	for _, m := range d.reg.Models() {
		m.Step(env, dt)
		h, _ := d.reg.History(m.ID())
		if retime {
			h = Thin(h, dt)
		}
		h, moved := Slide(h, dynamo.Sample{T: m.Elapsed(), V: m.Value()}, d.horizon)
		if moved {
			m.SetElapsed(d.horizon)
		}
		d.reg.SetHistory(m.ID(), h)
		rep.Models = append(rep.Models, m.ID())
		rep.Samples++
	}
	return rep, nil
}

func (d *Driver) recompute(ids []models.ID) (TickReport, error) {
	env := d.reg.Environment()
	rep := TickReport{Action: ActionBatch}
	for _, id := range ids {
		m, ok := d.reg.Model(id)
		if !ok {
			continue
		}
		m.Reset()
		series, err := m.Evaluate(d.horizon, env)
		if err != nil {
			return rep, fmt.Errorf("batch recompute: %w", err)
		}
		d.reg.SetHistory(id, series)
		rep.Models = append(rep.Models, id)
		rep.Samples += len(series)
	}
	d.log.Debug("batch recompute",
		zap.Int("models", len(rep.Models)),
		zap.Int("samples", rep.Samples),
		zap.Float64("setpoint", env.Setpoint))
	return rep, nil
}
