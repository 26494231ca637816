package reconcile

import (
	"time"

	"github.com/nhle/duetask/internal/model"
)

// Slot is one of the reminder times booked for a due date.
type Slot struct {
	Tag model.Tag

	// DayOffset is relative to the due date (-1 is the day before).
	DayOffset int
	Hour      int
	Minute    int

	Heading string
}

// DefaultSlots are 21:00 the evening before, 10:00 on the day, and 18:30
// on the day.
var DefaultSlots = []Slot{
	{Tag: model.TagEveningBefore, DayOffset: -1, Hour: 21, Minute: 0, Heading: "Tomorrow's tasks"},
	{Tag: model.TagMorningOf, DayOffset: 0, Hour: 10, Minute: 0, Heading: "Today's tasks"},
	{Tag: model.TagEveningOf, DayOffset: 0, Hour: 18, Minute: 30, Heading: "Still on today's list"},
}

// SendAt returns the instant s fires for a task due on date, in loc.
func (s Slot) SendAt(date model.Date, loc *time.Location) (time.Time, error) {
	return date.AddDays(s.DayOffset).At(s.Hour, s.Minute, loc)
}
