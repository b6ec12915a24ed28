package dynamo

import (
	"math"
)

// Sample is one plotted point of a model's history.
type Sample struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

type Series []Sample

func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	c := make(Series, len(s))
	copy(c, s)
	return c
}

func (s Series) Times() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.T
	}
	return out
}

func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.V
	}
	return out
}

func (s Series) IsValid() bool {
	for _, p := range s {
		if !finite(p.T) || !finite(p.V) {
			return false
		}
	}
	return true
}

// Last returns the most recent sample, or false for an empty series.
func (s Series) Last() (Sample, bool) {
	if len(s) == 0 {
		return Sample{}, false
	}
	return s[len(s)-1], true
}

// Range is a closed interval of safe values for a tunable parameter.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool { return finite(v) }
