package reconcile

import (
	"sort"

	"github.com/nhle/duetask/internal/model"
)

// Plan is what one change requires: the dates whose reminders must be
// rebuilt, and the task to announce as completed, if any.
type Plan struct {
	Dates     []model.Date
	Completed *model.Task
}

// Derive applies the affected-date rules to a change. It does no I/O.
//
//   - insert of an active, dated task: its date
//   - update flipping to complete: announce it; its date, if any
//   - update flipping back to open: its date, if any
//   - update moving the due date: the old date, and the new one if active
//   - update of title or assignee on an active task: its date
//   - delete: its date, if any
//
// Dates are deduplicated and sorted.
func Derive(c model.Change) Plan {
	dates := make(dateSet)
	var completed *model.Task

	switch c := c.(type) {
	case model.Insert:
		if c.New.Active() {
			dates.add(c.New.DueDate)
		}

	case model.Update:
		n := c.New
		if c.Old == nil {
			// Without the previous snapshot nothing can be compared; rebuild
			// the date the row sits on now.
			if n.Active() {
				dates.add(n.DueDate)
			}
			break
		}
		o := *c.Old

		if !o.IsComplete && n.IsComplete {
			done := n
			completed = &done
			dates.add(n.DueDate)
		}
		if o.IsComplete && !n.IsComplete {
			dates.add(n.DueDate)
		}
		if !model.SameDueDate(o.DueDate, n.DueDate) {
			dates.add(o.DueDate)
			if n.Active() {
				dates.add(n.DueDate)
			}
		}
		if (o.Title != n.Title || o.Assignee != n.Assignee) && n.Active() {
			dates.add(n.DueDate)
		}

	case model.Delete:
		dates.add(c.Old.DueDate)
	}

	return Plan{Dates: dates.sorted(), Completed: completed}
}

type dateSet map[model.Date]struct{}

// add ignores a nil date.
func (s dateSet) add(d *model.Date) {
	if d != nil {
		s[*d] = struct{}{}
	}
}

func (s dateSet) sorted() []model.Date {
	out := make([]model.Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
