package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/models"
)

type Config struct {
	Horizon float64
	// Metrics builds a fresh metric set for one model run.
	Metrics func(env dynamo.Environment) []metrics.Metric
}

// Result holds the batch evaluation of every model in a registry.
type Result struct {
	Setpoint float64
	Traces   []Trace
	Metrics  map[models.ID]map[string]float64
}

// Experiment evaluates a registry headlessly, outside the interactive driver.
type Experiment struct {
	cfg Config
	reg *Registry
}

func New(cfg Config, reg *Registry) *Experiment {
	return &Experiment{cfg: cfg, reg: reg}
}

// Run resets every model, evaluates it over the horizon, stores the result
// as its history and scores it with the configured metrics.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.reg == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	env := e.reg.Environment()
	result := &Result{
		Setpoint: env.Setpoint,
		Metrics:  make(map[models.ID]map[string]float64),
	}

	for _, m := range e.reg.Models() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		m.Reset()
		series, err := m.Evaluate(e.cfg.Horizon, env)
		if err != nil {
			return result, err
		}
		e.reg.SetHistory(m.ID(), series)

		if e.cfg.Metrics != nil {
			result.Metrics[m.ID()] = metrics.Evaluate(series, e.cfg.Metrics(env)...)
		}
	}

	// histories are now current for every model
	e.reg.DrainChanges()
	result.Traces = e.reg.Traces()

	return result, nil
}

// Candidate evaluates a fresh model tuned with params from rest and scores
// it with the default metrics. Params may name any model parameter.
func Candidate(env dynamo.Environment, horizon float64, params map[string]float64) (dynamo.Series, map[string]float64, error) {
	m := models.New(0, "candidate")
	for name, v := range params {
		if err := m.SetParam(name, v); err != nil {
			return nil, nil, fmt.Errorf("candidate: %w", err)
		}
	}
	series, err := m.Evaluate(horizon, env)
	if err != nil {
		return nil, nil, err
	}
	return series, metrics.Evaluate(series, metrics.Default(env)...), nil
}
