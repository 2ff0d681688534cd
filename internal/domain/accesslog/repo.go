package accesslog

import "context"

// Repository is deliberately append-and-read only.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	// ListByRecord returns the record's entries in chronological order.
	ListByRecord(ctx context.Context, recordID int64) ([]*Entry, error)
}
