package model

import (
	"fmt"
	"strings"
	"time"
)

// Tag identifies one of the three reminder slots booked for a due date.
type Tag string

const (
	TagEveningBefore Tag = "evening-before"
	TagMorningOf     Tag = "morning-of"
	TagEveningOf     Tag = "evening-of"
)

// Tags lists every slot in send order.
var Tags = []Tag{TagEveningBefore, TagMorningOf, TagEveningOf}

// Valid reports whether t is one of Tags.
func (t Tag) Valid() bool {
	for _, known := range Tags {
		if t == known {
			return true
		}
	}
	return false
}

// keySep separates the date from the tag in a Key's string form.
const keySep = "_"

// Key is the scheduling key of a tracked notification.
type Key struct {
	Date Date
	Tag  Tag
}

// String renders k as "<date>_<tag>", the form stored in the tracking table.
func (k Key) String() string {
	return string(k.Date) + keySep + string(k.Tag)
}

// ParseKey reads the "<date>_<tag>" form back into a Key.
func ParseKey(s string) (Key, error) {
	datePart, tagPart, ok := strings.Cut(s, keySep)
	if !ok {
		return Key{}, fmt.Errorf("parsing key %q: missing separator", s)
	}
	date, err := ParseDate(datePart)
	if err != nil {
		return Key{}, fmt.Errorf("parsing key %q: %w", s, err)
	}
	tag := Tag(tagPart)
	if !tag.Valid() {
		return Key{}, fmt.Errorf("parsing key %q: unknown tag %q", s, tagPart)
	}
	return Key{Date: date, Tag: tag}, nil
}

// KeyPrefix is the string every key for d starts with.
func KeyPrefix(d Date) string {
	return string(d) + keySep
}

// Record is one notification booked with the push provider and remembered
// in the tracking table so it can be cancelled later.
type Record struct {
	// NotificationID is the provider-assigned identifier.
	NotificationID string

	// Key is the (date, tag) the notification was booked for.
	Key Key

	// CreatedAt is when the record was written.
	CreatedAt time.Time
}
