package consent

import "context"

type Repository interface {
	// Upsert activates the edge, creating it if needed. Re-activating an
	// already-active edge is a no-op.
	Upsert(ctx context.Context, patient, provider string) error
	// Deactivate revokes the edge. Missing or already-revoked edges are a
	// no-op.
	Deactivate(ctx context.Context, patient, provider string) error
	// IsActive reports whether an active edge exists.
	IsActive(ctx context.Context, patient, provider string) (bool, error)
	ListByPatient(ctx context.Context, patient string) ([]*Edge, error)
}
