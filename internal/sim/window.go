package sim

import (
	"github.com/san-kum/pidlab/internal/dynamo"
)

// Slide appends s to history. Once s lies past the horizon every earlier
// sample is shifted back by the excess, s is placed exactly on the horizon,
// and samples outside (0, horizon] are dropped. With the clock pinned at the
// horizon the excess is one step. It reports whether the window moved.
func Slide(history dynamo.Series, s dynamo.Sample, horizon float64) (dynamo.Series, bool) {
	if s.T <= horizon {
		return append(history, s), false
	}

	shift := s.T - horizon
	kept := history[:0]
	for _, p := range history {
		p.T -= shift
		if p.T <= 0 || p.T > horizon {
			continue
		}
		kept = append(kept, p)
	}
	return append(kept, dynamo.Sample{T: horizon, V: s.V}), true
}

// Thin keeps the newest sample and then only samples at least dt before the
// last one kept, so the window holds no more than horizon/dt+1 samples after
// the timestep grows.
func Thin(history dynamo.Series, dt float64) dynamo.Series {
	if len(history) < 2 {
		return history
	}
	gap := dt * (1 - 1e-9)
	kept := dynamo.Series{history[len(history)-1]}
	for i := len(history) - 2; i >= 0; i-- {
		if kept[len(kept)-1].T-history[i].T >= gap {
			kept = append(kept, history[i])
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
