/*
PURPOSE:
  Propagate a task's completion change through its parent chain and emit
  the resulting mutation intents. The caller applies them; this file
  performs no I/O.

KEY CONCEPTS:
  - Bubble-up: completing a task completes its parent only once every
    direct child of that parent is complete.
  - Trickle-down (on the parent axis): re-opening a task force-reopens
    every ancestor, because a parent cannot stay done while a descendant
    is open.

SEE ALSO:
  - types.go: Mutation
*/
package tasklist

import (
	"time"
)

// maxParentDepth bounds the ancestor walk. Real series nest two or
// three levels; the bound exists to survive malformed cyclic parent
// references, not to enforce a domain limit.
const maxParentDepth = 10

// Cascade computes the mutation intents for setting task's completion
// state, including every parent flip the change forces. The first
// intent is always the task itself; ancestors follow in walk order.
// An unknown task id yields no intents.
func Cascade(task TaskID, completed bool, all []Task, now time.Time) []Mutation {
	byID := make(map[TaskID]Task, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	current, ok := byID[task]
	if !ok {
		return nil
	}

	var intents []Mutation
	// effective tracks completion state with pending intents overlaid,
	// so sibling checks see the change being applied.
	effective := map[TaskID]bool{}
	emit := func(id TaskID, done bool) {
		m := Mutation{Task: id, Completed: done}
		if done {
			ts := now
			m.CompletedAt = &ts
		}
		intents = append(intents, m)
		effective[id] = done
	}

	emit(current.ID, completed)
	for depth := 0; depth < maxParentDepth; depth++ {
		if current.ParentID == "" {
			break
		}
		parent, ok := byID[current.ParentID]
		if !ok {
			break
		}
		if !completed {
			emit(parent.ID, false)
		} else {
			if !childrenComplete(parent.ID, all, effective) {
				break
			}
			emit(parent.ID, true)
		}
		current = parent
	}
	return intents
}

// childrenComplete reports whether every direct child of parent is
// complete, reading pending intents before stored state. Break markers
// never gate a parent.
func childrenComplete(parent TaskID, all []Task, effective map[TaskID]bool) bool {
	for _, t := range all {
		if t.ParentID != parent || t.IsDayBreak {
			continue
		}
		done, pending := effective[t.ID]
		if !pending {
			done = t.Completed
		}
		if !done {
			return false
		}
	}
	return true
}
