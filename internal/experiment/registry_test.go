package experiment

import (
	"testing"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *Registry {
	return NewRegistry(dynamo.DefaultEnvironment(), nil)
}

func TestRegistryAdd(t *testing.T) {
	r := newRegistry()

	a := r.Add("first")
	b := r.Add("second")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, EnvironmentTarget, a)
	assert.Equal(t, []models.ID{a, b}, r.IDs())

	m, ok := r.Model(a)
	require.True(t, ok)
	assert.Equal(t, "first", m.Name())
	assert.Equal(t, map[string]float64{"kp": 0, "ki": 0, "kd": 0, "max_accel": 0}, m.GetParams())

	h, ok := r.History(a)
	require.True(t, ok)
	assert.Empty(t, h)

	assert.True(t, r.PendingChanges())
	cs := r.DrainChanges()
	assert.True(t, cs.Affects(a))
	assert.True(t, cs.Affects(b))
	assert.False(t, r.PendingChanges())
}

func TestRegistryDuplicate(t *testing.T) {
	r := newRegistry()
	src := r.Add("base")
	require.NoError(t, r.Tune(src, control.ParamKp, 2))
	require.NoError(t, r.Tune(src, control.ParamKd, 0.5))
	r.SetHistory(src, dynamo.Series{{T: 0.1, V: 1}})
	r.DrainChanges()

	dup, err := r.Duplicate(src)
	require.NoError(t, err)
	assert.NotEqual(t, src, dup)

	orig, _ := r.Model(src)
	copied, _ := r.Model(dup)
	assert.Equal(t, orig.GetParams(), copied.GetParams())
	assert.Equal(t, "base (copy)", copied.Name())

	h, _ := r.History(dup)
	assert.Empty(t, h, "duplicate starts with an empty history")

	cs := r.DrainChanges()
	assert.True(t, cs.Affects(dup))
	assert.False(t, cs.Affects(src))

	_, err = r.Duplicate(99)
	assert.ErrorIs(t, err, dynamo.ErrUnknownModel)
}

func TestRegistryRemove(t *testing.T) {
	r := newRegistry()
	a := r.Add("a")
	b := r.Add("b")

	r.Remove(a)
	assert.Equal(t, []models.ID{b}, r.IDs())
	_, ok := r.History(a)
	assert.False(t, ok)

	// second removal and unknown ids are no-ops
	r.Remove(a)
	r.Remove(42)
	assert.Equal(t, 1, r.Len())

	cs := r.DrainChanges()
	assert.False(t, cs.Affects(a), "pending changes of a removed model are dropped")
}

func TestRegistryIDsNotReused(t *testing.T) {
	r := newRegistry()
	a := r.Add("a")
	r.Remove(a)
	b := r.Add("b")
	assert.Greater(t, int(b), int(a))
}

func TestRegistryTune(t *testing.T) {
	r := newRegistry()
	id := r.Add("m")
	r.DrainChanges()

	require.NoError(t, r.Tune(id, control.ParamKi, 0.25))
	m, _ := r.Model(id)
	assert.Equal(t, 0.25, m.Controller().Ki)

	err := r.Tune(id, "bogus", 1)
	assert.ErrorIs(t, err, dynamo.ErrUnknownParam)

	err = r.Tune(77, control.ParamKp, 1)
	assert.ErrorIs(t, err, dynamo.ErrUnknownModel)

	changes := r.DrainChanges().Changes()
	assert.Equal(t, []Change{{Model: id, Param: control.ParamKi}}, changes)
}

func TestRegistryTuneEnvironment(t *testing.T) {
	r := newRegistry()
	a := r.Add("a")
	b := r.Add("b")
	r.DrainChanges()

	require.NoError(t, r.TuneEnvironment(dynamo.ParamSetpoint, 80))
	assert.Equal(t, 80.0, r.Setpoint())

	cs := r.DrainChanges()
	assert.True(t, cs.EnvironmentChanged())
	assert.True(t, cs.Affects(a))
	assert.True(t, cs.Affects(b))

	err := r.TuneEnvironment(dynamo.ParamTimestep, 0)
	assert.ErrorIs(t, err, dynamo.ErrInvalidTimestep)
	assert.Equal(t, dynamo.DefaultTimestep, r.Environment().Timestep)
}

func TestRegistryRename(t *testing.T) {
	r := newRegistry()
	id := r.Add("old")
	r.DrainChanges()

	require.NoError(t, r.Rename(id, "new"))
	m, _ := r.Model(id)
	assert.Equal(t, "new", m.Name())
	assert.Equal(t, []Change{{Model: id, Param: ParamName}}, r.DrainChanges().Changes())

	assert.ErrorIs(t, r.Rename(5, "x"), dynamo.ErrUnknownModel)
}

func TestRegistryHistory(t *testing.T) {
	r := newRegistry()
	id := r.Add("m")

	r.SetHistory(id, dynamo.Series{{T: 1, V: 2}})
	r.SetHistory(99, dynamo.Series{{T: 1, V: 2}})

	_, ok := r.History(99)
	assert.False(t, ok, "unregistered ids get no history")

	traces := r.Traces()
	require.Len(t, traces, 1)
	assert.Equal(t, "m", traces[0].Name)
	assert.Equal(t, dynamo.Series{{T: 1, V: 2}}, traces[0].Samples)

	// traces are copies
	traces[0].Samples[0].V = 100
	h, _ := r.History(id)
	assert.Equal(t, 2.0, h[0].V)

	// so are histories
	h[0].V = 100
	h, _ = r.History(id)
	assert.Equal(t, 2.0, h[0].V)

	r.ClearHistories()
	h, ok = r.History(id)
	assert.True(t, ok)
	assert.Empty(t, h)
}

func TestRegistryPendingAndRequeue(t *testing.T) {
	r := newRegistry()
	a := r.Add("a")
	b := r.Add("b")

	assert.Len(t, r.Pending().Changes(), 2)
	assert.True(t, r.PendingChanges(), "peeking must not consume")

	cs := r.DrainChanges()
	require.NoError(t, r.TuneEnvironment(dynamo.ParamSetpoint, 50))
	r.Remove(b)
	r.Requeue(cs)

	got := r.DrainChanges()
	assert.ElementsMatch(t, []Change{
		{Model: a, Param: ParamCreated},
		{Model: EnvironmentTarget, Param: dynamo.ParamSetpoint},
	}, got.Changes())
}

func TestChangeSetRecordDedups(t *testing.T) {
	var cs ChangeSet
	cs.Record(Change{Model: 1, Param: "kp"})
	cs.Record(Change{Model: 1, Param: "kp"})
	cs.Record(Change{Model: 2, Param: "kp"})

	assert.Len(t, cs.Changes(), 2)
	assert.False(t, cs.EnvironmentChanged())
	assert.False(t, cs.Affects(3))

	cs.Forget(1)
	assert.Equal(t, []Change{{Model: 2, Param: "kp"}}, cs.Changes())
}
