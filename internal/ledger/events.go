package ledger

import (
	"context"
	"time"

	"fintrack/internal/storage"
)

// Op names the kind of change an Event reports.
type Op string

const (
	OpCreated     Op = "created"
	OpUpdated     Op = "updated"
	OpDeleted     Op = "deleted"
	OpTransferred Op = "transferred"
	OpRestored    Op = "restored"
)

// Event describes one committed change. ID is empty for whole-collection
// changes such as a restore.
type Event struct {
	Collection storage.Collection `json:"collection"`
	Op         Op                 `json:"op"`
	ID         string             `json:"id,omitempty"`
	At         time.Time          `json:"at"`
}

// Notifier receives events after the change is persisted. Errors are
// logged by the engine and never undo the change.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }
