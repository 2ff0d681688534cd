package accesslog

import (
	"errors"
	"time"
)

// ErrRecordNotFound means the referenced record entry does not exist in the
// ledger. It is the only failure the log surface admits for appends.
var ErrRecordNotFound = errors.New("referenced record does not exist")

// Action is what the accessor did to the record entry.
type Action string

const (
	ActionView    Action = "VIEW"
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionArchive Action = "ARCHIVE"
)

// Entry is one access event. The log is append-only: entries are never
// mutated or deleted, and the repository interface exposes no way to do so.
type Entry struct {
	ID              int64     `db:"id" json:"id"`
	RecordID        int64     `db:"record_id" json:"record_id"`
	AccessorAddress string    `db:"accessor_address" json:"accessor_address"`
	Action          Action    `db:"action" json:"action"`
	Context         string    `db:"context" json:"context,omitempty"`
	OccurredAt      time.Time `db:"occurred_at" json:"occurred_at"`
}
