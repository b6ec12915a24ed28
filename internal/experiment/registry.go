package experiment

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/models"
	"go.uber.org/zap"
)

// Param names that are not numeric tuning fields but still count as changes.
const (
	ParamCreated = "created"
	ParamName    = "name"
)

// Trace is a copy of one model's plotted history.
type Trace struct {
	ID      models.ID
	Name    string
	Samples dynamo.Series
}

// Registry is the ordered set of models sharing one environment, together
// with their histories and the changes not yet consumed by the driver.
type Registry struct {
	env     dynamo.Environment
	models  []*models.Model
	history map[models.ID]dynamo.Series
	nextID  models.ID
	changes ChangeSet
	log     *zap.Logger
}

func NewRegistry(env dynamo.Environment, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		env:     env,
		models:  make([]*models.Model, 0),
		history: make(map[models.ID]dynamo.Series),
		nextID:  1,
		log:     log,
	}
}

func (r *Registry) allocate() models.ID {
	id := r.nextID
	r.nextID++
	return id
}

func (r *Registry) insert(m *models.Model) {
	r.models = append(r.models, m)
	r.history[m.ID()] = dynamo.Series{}
	r.changes.Record(Change{Model: m.ID(), Param: ParamCreated})
}

// Add creates a model with zero gains and returns its identity.
func (r *Registry) Add(name string) models.ID {
	m := models.New(r.allocate(), name)
	r.insert(m)
	r.log.Debug("model added", zap.Int("id", int(m.ID())), zap.String("name", name))
	return m.ID()
}

// Duplicate copies the tuning of id into a new model with an empty history.
func (r *Registry) Duplicate(id models.ID) (models.ID, error) {
	src, ok := r.Model(id)
	if !ok {
		return 0, fmt.Errorf("duplicate model %d: %w", id, dynamo.ErrUnknownModel)
	}
	m := src.Clone(r.allocate(), src.Name()+" (copy)")
	r.insert(m)
	r.log.Debug("model duplicated", zap.Int("source", int(id)), zap.Int("id", int(m.ID())))
	return m.ID(), nil
}

// Remove deletes the model and its history. Unknown ids are ignored.
func (r *Registry) Remove(id models.ID) {
	for i, m := range r.models {
		if m.ID() == id {
			r.models = append(r.models[:i], r.models[i+1:]...)
			break
		}
	}
	if _, ok := r.history[id]; ok {
		r.log.Debug("model removed", zap.Int("id", int(id)))
	}
	delete(r.history, id)
	r.changes.Forget(id)
}

func (r *Registry) Model(id models.ID) (*models.Model, bool) {
	for _, m := range r.models {
		if m.ID() == id {
			return m, true
		}
	}
	return nil, false
}

// Models returns the models in display order.
func (r *Registry) Models() []*models.Model {
	out := make([]*models.Model, len(r.models))
	copy(out, r.models)
	return out
}

func (r *Registry) IDs() []models.ID {
	ids := make([]models.ID, len(r.models))
	for i, m := range r.models {
		ids[i] = m.ID()
	}
	return ids
}

func (r *Registry) Len() int { return len(r.models) }

func (r *Registry) Environment() dynamo.Environment { return r.env }

func (r *Registry) Setpoint() float64 { return r.env.Setpoint }

// Tune sets a gain or the limit override on model id.
func (r *Registry) Tune(id models.ID, param string, value float64) error {
	m, ok := r.Model(id)
	if !ok {
		return fmt.Errorf("tune model %d: %w", id, dynamo.ErrUnknownModel)
	}
	if err := m.SetParam(param, value); err != nil {
		return fmt.Errorf("tune model %d: %w", id, err)
	}
	r.changes.Record(Change{Model: id, Param: param})
	return nil
}

func (r *Registry) Rename(id models.ID, name string) error {
	m, ok := r.Model(id)
	if !ok {
		return fmt.Errorf("rename model %d: %w", id, dynamo.ErrUnknownModel)
	}
	m.SetName(name)
	r.changes.Record(Change{Model: id, Param: ParamName})
	return nil
}

// TuneEnvironment sets a shared environment field. The change affects every
// model.
func (r *Registry) TuneEnvironment(param string, value float64) error {
	if err := r.env.SetParam(param, value); err != nil {
		return fmt.Errorf("tune environment: %w", err)
	}
	r.changes.Record(Change{Model: EnvironmentTarget, Param: param})
	return nil
}

// History returns a copy of the plotted history of id.
func (r *Registry) History(id models.ID) (dynamo.Series, bool) {
	s, ok := r.history[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// SetHistory replaces the history of a registered model.
func (r *Registry) SetHistory(id models.ID, s dynamo.Series) {
	if _, ok := r.history[id]; !ok {
		return
	}
	r.history[id] = s
}

// ClearHistories empties every history buffer.
func (r *Registry) ClearHistories() {
	for id := range r.history {
		r.history[id] = dynamo.Series{}
	}
}

// Traces returns a copy of every history in display order.
func (r *Registry) Traces() []Trace {
	out := make([]Trace, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, Trace{
			ID:      m.ID(),
			Name:    m.Name(),
			Samples: r.history[m.ID()].Clone(),
		})
	}
	return out
}

func (r *Registry) PendingChanges() bool {
	return !r.changes.Empty()
}

// Pending returns a copy of the pending change set without consuming it.
func (r *Registry) Pending() ChangeSet {
	return ChangeSet{changes: r.changes.Changes()}
}

// Requeue records cs again so the next drain sees it. Changes to models that
// have since been removed are dropped.
func (r *Registry) Requeue(cs ChangeSet) {
	for _, ch := range cs.changes {
		if !ch.IsEnvironment() {
			if _, ok := r.Model(ch.Model); !ok {
				continue
			}
		}
		r.changes.Record(ch)
	}
}

// DrainChanges hands the pending change set to the caller and starts a new one.
func (r *Registry) DrainChanges() ChangeSet {
	cs := r.changes
	r.changes = ChangeSet{}
	return cs
}
