package models

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/dynamo"
)

func newTuned(id ID, kp, ki, kd float64) *Model {
	m := New(id, "test")
	m.Controller().Kp = kp
	m.Controller().Ki = ki
	m.Controller().Kd = kd
	return m
}

func TestModel_ZeroGainsNoMotion(t *testing.T) {
	env := dynamo.Environment{Damping: 0, AppliedForce: 0, Timestep: 0.016, Setpoint: 100, MaxAccel: 10}

	for _, dt := range []float64{0.001, 0.016, 0.1, 1.0} {
		m := New(1, "flat")
		for i := 0; i < 200; i++ {
			m.Step(env, dt)
		}
		p := m.Plant()
		if p.Value != 0 || p.Vel != 0 || p.Accel != 0 {
			t.Errorf("dt=%v: model moved: %+v", dt, p)
		}
	}
}

func TestModel_EvaluateDeterministic(t *testing.T) {
	env := dynamo.DefaultEnvironment()
	a := newTuned(1, 1.3, 0.02, 0.4)
	b := newTuned(2, 1.3, 0.02, 0.4)

	// dirty a's state first, then reset it
	if _, err := a.Evaluate(3, env); err != nil {
		t.Fatal(err)
	}
	a.Reset()

	sa, err := a.Evaluate(20, env)
	if err != nil {
		t.Fatal(err)
	}
	sb, err := b.Evaluate(20, env)
	if err != nil {
		t.Fatal(err)
	}

	if len(sa) != len(sb) {
		t.Fatalf("length mismatch: %d vs %d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, sa[i], sb[i])
		}
	}
}

func TestModel_ClampNeverExceedsLimit(t *testing.T) {
	env := dynamo.Environment{Damping: 0, AppliedForce: 0, Timestep: 0.01, Setpoint: 150, MaxAccel: 4}
	m := newTuned(1, 1000, 50, 100)

	for i := 0; i < 2000; i++ {
		m.Step(env, env.Timestep)
		// with no damping or force the acceleration is exactly the clamped command
		if math.Abs(m.Plant().Accel) > env.MaxAccel {
			t.Fatalf("step %d: |accel| = %f exceeds %f", i, m.Plant().Accel, env.MaxAccel)
		}
	}
}

func TestModel_AccelLimitOverride(t *testing.T) {
	env := dynamo.DefaultEnvironment()
	m := New(1, "m")

	if got := m.AccelLimit(env); got != env.MaxAccel {
		t.Errorf("inherited limit = %f, want %f", got, env.MaxAccel)
	}
	if err := m.SetParam(ParamMaxAccel, 2.5); err != nil {
		t.Fatal(err)
	}
	if got := m.AccelLimit(env); got != 2.5 {
		t.Errorf("override limit = %f, want 2.5", got)
	}
	if err := m.SetParam(ParamMaxAccel, 500); err != nil {
		t.Fatal(err)
	}
	if got := m.AccelLimitOverride(); got != 50 {
		t.Errorf("override should clamp to 50, got %f", got)
	}
	if err := m.SetParam(ParamMaxAccel, 0); err != nil {
		t.Fatal(err)
	}
	if got := m.AccelLimit(env); got != env.MaxAccel {
		t.Errorf("cleared override should inherit, got %f", got)
	}
	if err := m.SetParam(ParamMaxAccel, -1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestModel_ResetKeepsTuning(t *testing.T) {
	env := dynamo.DefaultEnvironment()
	m := newTuned(7, 2, 0.1, 0.3)
	m.SetName("tuned")
	if err := m.SetParam(ParamMaxAccel, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Evaluate(5, env); err != nil {
		t.Fatal(err)
	}

	m.Reset()

	p := m.Plant()
	if p.Accel != 0 || p.Vel != 0 || p.Value != 0 || p.Elapsed != 0 {
		t.Errorf("reset left plant state: %+v", p)
	}
	if m.Controller().Integral() != 0 || m.Controller().PrevErr() != 0 {
		t.Error("reset left controller state")
	}
	if m.ID() != 7 || m.Name() != "tuned" || m.AccelLimitOverride() != 3 {
		t.Error("reset must keep identity, name and limit")
	}
	if m.Controller().Kp != 2 || m.Controller().Ki != 0.1 || m.Controller().Kd != 0.3 {
		t.Error("reset must keep gains")
	}
}

func TestModel_EvaluateStopsPastHorizon(t *testing.T) {
	env := dynamo.DefaultEnvironment()
	env.Timestep = 0.125
	m := newTuned(1, 1, 0, 0)

	series, err := m.Evaluate(2, env)
	if err != nil {
		t.Fatal(err)
	}

	// 0.125 is exact in binary: samples at 0.125 .. 2.125
	if len(series) != 17 {
		t.Fatalf("expected 17 samples, got %d", len(series))
	}
	if series[0].T != 0.125 || series[len(series)-1].T != 2.125 {
		t.Errorf("unexpected time range %v .. %v", series[0].T, series[len(series)-1].T)
	}
	for i := 1; i < len(series); i++ {
		if series[i].T <= series[i-1].T {
			t.Fatalf("time not increasing at %d", i)
		}
	}

	// a second evaluation continues from the current clock
	more, err := m.Evaluate(1, env)
	if err != nil {
		t.Fatal(err)
	}
	if more[0].T != 2.25 {
		t.Errorf("continuation should start at 2.25, got %v", more[0].T)
	}
}

func TestModel_EvaluateRejectsBadConfig(t *testing.T) {
	m := New(1, "m")

	env := dynamo.DefaultEnvironment()
	env.Timestep = 0
	if _, err := m.Evaluate(20, env); !errors.Is(err, dynamo.ErrInvalidTimestep) {
		t.Errorf("expected ErrInvalidTimestep, got %v", err)
	}
	if m.Elapsed() != 0 {
		t.Error("rejected evaluation must not step the model")
	}

	if _, err := m.Evaluate(0, dynamo.DefaultEnvironment()); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for zero horizon, got %v", err)
	}
}

func TestModel_StepResponseReference(t *testing.T) {
	env := dynamo.Environment{Damping: 0.5, AppliedForce: 0, Timestep: 0.016, Setpoint: 100, MaxAccel: 10}
	m := newTuned(1, 2, 0, 0)

	series, err := m.Evaluate(20, env)
	if err != nil {
		t.Fatal(err)
	}

	if len(series) != 1251 {
		t.Fatalf("expected 1251 samples, got %d", len(series))
	}

	refs := []struct {
		idx  int
		t, v float64
	}{
		{0, 0.016, 0.00256},
		{1, 0.032, 0.0076595199999999995},
		{99, 1.6000000000000012, 10.092105345914158},
		{624, 10.000000000000007, 100.7528712729881},
		{1250, 20.01599999999957, 99.45969233466883},
	}
	for _, r := range refs {
		got := series[r.idx]
		if math.Abs(got.T-r.t) > 1e-9 || math.Abs(got.V-r.v) > 1e-6 {
			t.Errorf("sample %d = (%v, %v), want (%v, %v)", r.idx, got.T, got.V, r.t, r.v)
		}
	}

	peak := math.Inf(-1)
	for i, s := range series {
		peak = math.Max(peak, s.V)
		if i > 0 && s.T <= series[i-1].T {
			t.Fatalf("time not monotonic at %d", i)
		}
	}
	if math.Abs(peak-111.73163848726043) > 1e-6 {
		t.Errorf("peak = %v, want 111.73163848726043", peak)
	}
	if !series.IsValid() {
		t.Error("trajectory contains non-finite samples")
	}
}

func TestModel_CloneBehavesIdentically(t *testing.T) {
	env := dynamo.Environment{Damping: 1, AppliedForce: 0, Timestep: 0.1, Setpoint: 100, MaxAccel: 10}
	orig := newTuned(1, 1, 0, 0)
	if err := orig.SetParam(ParamMaxAccel, 10); err != nil {
		t.Fatal(err)
	}
	// advance the original so the clone has to start fresh regardless
	orig.Step(env, env.Timestep)

	dup := orig.Clone(2, "copy")
	if dup.ID() != 2 || dup.Name() != "copy" {
		t.Errorf("clone identity = %d %q", dup.ID(), dup.Name())
	}
	if dup.Elapsed() != 0 {
		t.Error("clone should have zeroed state")
	}

	orig.Reset()
	want, err := orig.Evaluate(20, env)
	if err != nil {
		t.Fatal(err)
	}
	got, err := dup.Evaluate(20, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) || len(got) != 200 {
		t.Fatalf("lengths %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, got[i], want[i])
		}
	}
	if math.Abs(want[len(want)-1].V-100.05551602539249) > 1e-6 {
		t.Errorf("final value = %v", want[len(want)-1].V)
	}
}
