package metrics

import (
	"github.com/san-kum/pidlab/internal/dynamo"
)

// NotReached is reported by time metrics when the response never got there.
const NotReached = -1.0

type Metric interface {
	Name() string
	Observe(s dynamo.Sample)
	Value() float64
	Reset()
}

// Default returns the step-response metrics for the environment's setpoint.
func Default(env dynamo.Environment) []Metric {
	return []Metric{
		NewOvershoot(env.Setpoint),
		NewRiseTime(env.Setpoint),
		NewSettlingTime(env.Setpoint, DefaultBand),
		NewIAE(env.Setpoint),
	}
}

// Evaluate resets each metric, feeds it the series and collects the values.
func Evaluate(series dynamo.Series, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for _, s := range series {
			m.Observe(s)
		}
		out[m.Name()] = m.Value()
	}
	return out
}
