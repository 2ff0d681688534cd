package record

import "context"

type Repository interface {
	// Create persists a new entry and fills in its ledger-assigned ID and
	// creation timestamp.
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	// ListByPatient returns a newest-first snapshot of the patient's
	// entries. Archived entries are included only when includeArchived.
	ListByPatient(ctx context.Context, patient string, includeArchived bool) ([]*Entry, error)
	UpdateDescription(ctx context.Context, id int64, description string) error
	SetActive(ctx context.Context, id int64, active bool) error
}
