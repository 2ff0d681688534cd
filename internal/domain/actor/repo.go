package actor

import (
	"context"

	"github.com/caretrail/caretrail/pkg/pagination"
)

type Repository interface {
	// Create persists a new actor. Returns ErrAlreadyRegistered when the
	// address already has a row.
	Create(ctx context.Context, a *Actor) error
	GetByAddress(ctx context.Context, address string) (*Actor, error)
	List(ctx context.Context, p pagination.Params) ([]*Actor, int, error)
}
