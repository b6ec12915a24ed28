package metrics

import (
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// DefaultBand is the settling tolerance as a fraction of the setpoint.
const DefaultBand = 0.02

// Overshoot is the peak excursion past the setpoint in percent of the
// setpoint. Models start at rest at zero.
type Overshoot struct {
	name     string
	setpoint float64
	peak     float64
	samples  int
}

func NewOvershoot(setpoint float64) *Overshoot {
	return &Overshoot{
		name:     "overshoot_pct",
		setpoint: setpoint,
		peak:     math.Inf(-1),
	}
}

func (o *Overshoot) Name() string { return o.name }

func (o *Overshoot) Observe(s dynamo.Sample) {
	o.peak = math.Max(o.peak, s.V)
	o.samples++
}

func (o *Overshoot) Value() float64 {
	if o.samples == 0 || o.setpoint <= 0 {
		return 0
	}
	return math.Max(0, o.peak-o.setpoint) / o.setpoint * 100
}

func (o *Overshoot) Reset() {
	o.peak = math.Inf(-1)
	o.samples = 0
}

// RiseTime is the time taken to go from 10% to 90% of the setpoint.
type RiseTime struct {
	name     string
	setpoint float64
	t10      float64
	t90      float64
}

func NewRiseTime(setpoint float64) *RiseTime {
	r := &RiseTime{name: "rise_time", setpoint: setpoint}
	r.Reset()
	return r
}

func (r *RiseTime) Name() string { return r.name }

func (r *RiseTime) Observe(s dynamo.Sample) {
	if r.t10 < 0 && s.V >= 0.1*r.setpoint {
		r.t10 = s.T
	}
	if r.t90 < 0 && s.V >= 0.9*r.setpoint {
		r.t90 = s.T
	}
}

func (r *RiseTime) Value() float64 {
	if r.t10 < 0 || r.t90 < 0 {
		return NotReached
	}
	return r.t90 - r.t10
}

func (r *RiseTime) Reset() {
	r.t10 = NotReached
	r.t90 = NotReached
}

// SettlingTime is the earliest time after which the response stays within
// band of the setpoint.
type SettlingTime struct {
	name     string
	setpoint float64
	band     float64
	settled  float64
	inside   bool
	samples  int
}

func NewSettlingTime(setpoint, band float64) *SettlingTime {
	return &SettlingTime{
		name:     "settling_time",
		setpoint: setpoint,
		band:     band * math.Max(math.Abs(setpoint), 1),
		settled:  NotReached,
	}
}

func (st *SettlingTime) Name() string { return st.name }

func (st *SettlingTime) Observe(s dynamo.Sample) {
	st.samples++
	if math.Abs(s.V-st.setpoint) <= st.band {
		if !st.inside {
			st.inside = true
			st.settled = s.T
		}
		return
	}
	st.inside = false
	st.settled = NotReached
}

func (st *SettlingTime) Value() float64 {
	return st.settled
}

func (st *SettlingTime) Reset() {
	st.settled = NotReached
	st.inside = false
	st.samples = 0
}

// IAE integrates the absolute tracking error over the series.
type IAE struct {
	name     string
	setpoint float64
	sum      float64
	lastT    float64
}

func NewIAE(setpoint float64) *IAE {
	return &IAE{name: "iae", setpoint: setpoint}
}

func (a *IAE) Name() string { return a.name }

func (a *IAE) Observe(s dynamo.Sample) {
	dt := s.T - a.lastT
	if dt > 0 {
		a.sum += math.Abs(a.setpoint-s.V) * dt
	}
	a.lastT = s.T
}

func (a *IAE) Value() float64 {
	return a.sum
}

func (a *IAE) Reset() {
	a.sum = 0
	a.lastT = 0
}
