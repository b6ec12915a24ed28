package sim

import (
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/models"
)

type Action int

const (
	ActionIdle Action = iota
	ActionRealtime
	ActionBatch
)

func (a Action) String() string {
	switch a {
	case ActionRealtime:
		return "realtime"
	case ActionBatch:
		return "batch"
	default:
		return "idle"
	}
}

// Decision is what one tick should do. Models lists the batch targets in
// display order and is empty for every other action.
type Decision struct {
	Action Action
	Models []models.ID
}

// Plan decides the work for one tick from the pending changes, the run flag
// and the registered ids. Renames never trigger a recompute.
func Plan(changes experiment.ChangeSet, running bool, ids []models.ID) Decision {
	if running {
		return Decision{Action: ActionRealtime}
	}

	all := false
	dirty := make(map[models.ID]bool)
	for _, ch := range changes.Changes() {
		if ch.Param == experiment.ParamName {
			continue
		}
		if ch.IsEnvironment() {
			all = true
			break
		}
		dirty[ch.Model] = true
	}

	var targets []models.ID
	for _, id := range ids {
		if all || dirty[id] {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return Decision{Action: ActionIdle}
	}
	return Decision{Action: ActionBatch, Models: targets}
}
