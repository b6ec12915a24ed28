package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/models"
	"go.uber.org/zap"
)

// ParameterSweep varies one model or environment parameter over a range
// while everything else keeps its base value.
type ParameterSweep struct {
	Param       string
	Min         float64
	Max         float64
	NumSteps    int
	Gains       map[string]float64
	Environment dynamo.Environment
	Horizon     float64
}

// SweepResult holds the response for one value of the swept parameter.
type SweepResult struct {
	ParamValue float64
	Final      float64
	Peak       float64
	Metrics    map[string]float64
}

// target reports whether name is a model parameter or an environment one.
func target(name string) (onModel bool, err error) {
	if _, ok := models.New(0, "").GetParams()[name]; ok {
		return true, nil
	}
	if _, ok := dynamo.DefaultEnvironment().GetParams()[name]; ok {
		return false, nil
	}
	return false, fmt.Errorf("sweep %q: %w", name, dynamo.ErrUnknownParam)
}

// RunSweep evaluates one fresh model per parameter value. A name shared by
// the model and the environment (max_accel) is swept on the model.
func RunSweep(ctx context.Context, sweep *ParameterSweep, log *zap.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep %s: need at least one step", sweep.Param)
	}
	if log == nil {
		log = zap.NewNop()
	}

	onModel, err := target(sweep.Param)
	if err != nil {
		return nil, err
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		paramVal := sweep.Min + float64(i)*paramStep

		env := sweep.Environment
		gains := make(map[string]float64, len(sweep.Gains)+1)
		for k, v := range sweep.Gains {
			gains[k] = v
		}
		if onModel {
			gains[sweep.Param] = paramVal
		} else if err := env.SetParam(sweep.Param, paramVal); err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.Param, paramVal, err)
		}

		series, scores, err := experiment.Candidate(env, sweep.Horizon, gains)
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.Param, paramVal, err)
		}

		res := SweepResult{ParamValue: paramVal, Metrics: scores}
		if last, ok := series.Last(); ok {
			res.Final = last.V
			res.Peak = last.V
		}
		for _, s := range series {
			res.Peak = max(res.Peak, s.V)
		}
		results = append(results, res)

		log.Debug("sweep step",
			zap.String("param", sweep.Param),
			zap.Float64("value", paramVal),
			zap.Int("step", i+1),
			zap.Int("of", sweep.NumSteps))
	}

	return results, nil
}
