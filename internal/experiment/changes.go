package experiment

import (
	"github.com/san-kum/pidlab/internal/models"
)

// EnvironmentTarget marks a change to the shared environment.
const EnvironmentTarget models.ID = 0

// Change records which parameter changed on which entity.
type Change struct {
	Model models.ID
	Param string
}

func (c Change) IsEnvironment() bool {
	return c.Model == EnvironmentTarget
}

// ChangeSet is the set of changes made since the driver last consumed it.
type ChangeSet struct {
	changes []Change
}

func (c *ChangeSet) Record(ch Change) {
	for _, existing := range c.changes {
		if existing == ch {
			return
		}
	}
	c.changes = append(c.changes, ch)
}

// Forget drops every pending change that targets id.
func (c *ChangeSet) Forget(id models.ID) {
	kept := c.changes[:0]
	for _, ch := range c.changes {
		if ch.Model != id {
			kept = append(kept, ch)
		}
	}
	c.changes = kept
}

func (c ChangeSet) Empty() bool {
	return len(c.changes) == 0
}

func (c ChangeSet) Changes() []Change {
	out := make([]Change, len(c.changes))
	copy(out, c.changes)
	return out
}

// EnvironmentChanged reports whether any environment field changed. Such a
// change affects every model.
func (c ChangeSet) EnvironmentChanged() bool {
	for _, ch := range c.changes {
		if ch.IsEnvironment() {
			return true
		}
	}
	return false
}

// Affects reports whether model id must be recomputed.
func (c ChangeSet) Affects(id models.ID) bool {
	for _, ch := range c.changes {
		if ch.IsEnvironment() || ch.Model == id {
			return true
		}
	}
	return false
}
