package model

import (
	"errors"
	"fmt"
)

// EventType is the change-feed tag carried by a webhook delivery.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ErrUnknownEventType is returned for a delivery whose type is not one of
// INSERT, UPDATE or DELETE.
var ErrUnknownEventType = errors.New("unknown event type")

// ChangeEvent is the webhook payload emitted by the database trigger layer
// for a row mutation.
type ChangeEvent struct {
	Type      EventType `json:"type"`
	Table     string    `json:"table"`
	Schema    string    `json:"schema,omitempty"`
	Record    *Task     `json:"record"`
	OldRecord *Task     `json:"old_record"`
}

// Change is the closed set of row mutations: Insert, Update or Delete.
type Change interface {
	change()
}

// Insert is a newly created row.
type Insert struct {
	New Task
}

// Update is an edited row. Old is nil when the change feed did not carry
// the previous snapshot.
type Update struct {
	Old *Task
	New Task
}

// Delete is a removed row.
type Delete struct {
	Old Task
}

func (Insert) change() {}
func (Update) change() {}
func (Delete) change() {}

// Change converts the wire payload into its variant, checking that the
// snapshots each variant needs are present.
func (e ChangeEvent) Change() (Change, error) {
	switch e.Type {
	case EventInsert:
		if e.Record == nil {
			return nil, fmt.Errorf("INSERT event without record")
		}
		return Insert{New: *e.Record}, nil
	case EventUpdate:
		if e.Record == nil {
			return nil, fmt.Errorf("UPDATE event without record")
		}
		if e.OldRecord != nil && e.OldRecord.ID != e.Record.ID {
			return nil, fmt.Errorf(
				"UPDATE event snapshots disagree on id: old %d, new %d",
				e.OldRecord.ID, e.Record.ID,
			)
		}
		return Update{Old: e.OldRecord, New: *e.Record}, nil
	case EventDelete:
		if e.OldRecord == nil {
			return nil, fmt.Errorf("DELETE event without old_record")
		}
		return Delete{Old: *e.OldRecord}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEventType, e.Type)
	}
}
