package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AssigneeBoth marks a task shared by the two people on the list.
const AssigneeBoth Assignee = "both"

// Assignee names who a task belongs to: one of the two configured people,
// or AssigneeBoth.
type Assignee string

// Task is one row of the shared tasks table. The reminder service only
// observes tasks; they are created and edited elsewhere.
type Task struct {
	// ID is the row identifier assigned by the database.
	ID int64 `json:"id" db:"id"`

	// Title is the short text shown in lists and reminder summaries.
	Title string `json:"title" db:"title"`

	// Notes is optional free text.
	Notes string `json:"notes" db:"notes"`

	// Assignee is who the task belongs to.
	Assignee Assignee `json:"assignee" db:"assignee"`

	// DueDate is nil for "someday" tasks, which never get reminders.
	DueDate *Date `json:"due_date" db:"due_date"`

	// IsComplete marks a finished task.
	IsComplete bool `json:"is_complete" db:"is_complete"`

	// CreatedAt is when the row was inserted.
	CreatedAt Timestamp `json:"created_at" db:"created_at"`
}

// Active reports whether t is still open and has a due date, i.e. whether
// it belongs in a reminder summary.
func (t Task) Active() bool {
	return !t.IsComplete && t.DueDate != nil
}

// SameDueDate reports whether a and b are both nil or hold the same date.
func SameDueDate(a, b *Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// timestampLayouts are tried in order when decoding a Timestamp. Postgres
// "timestamp without time zone" columns come back without an offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// Timestamp is a time.Time that tolerates the timestamp spellings used by
// the database and its REST gateway.
type Timestamp struct {
	time.Time
}

// ParseTimestamp reads s using the first layout that matches.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("parsing timestamp %q", s)
}

// UnmarshalJSON accepts any of timestampLayouts, or null.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding timestamp: %w", err)
	}
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// MarshalJSON writes RFC 3339 with nanoseconds.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

// Scan implements sql.Scanner.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = Timestamp{}
	case time.Time:
		*ts = Timestamp{Time: v}
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*ts = parsed
	case []byte:
		parsed, err := ParseTimestamp(string(v))
		if err != nil {
			return err
		}
		*ts = parsed
	default:
		return fmt.Errorf("scanning timestamp from %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (ts Timestamp) Value() (driver.Value, error) {
	if ts.IsZero() {
		return nil, nil
	}
	return ts.UTC(), nil
}
