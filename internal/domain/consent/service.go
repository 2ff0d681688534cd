package consent

import (
	"context"

	"github.com/caretrail/caretrail/internal/domain/actor"
)

// RegistryReader is the slice of the identity registry the authorization
// graph needs to validate role eligibility.
type RegistryReader interface {
	Lookup(ctx context.Context, address string) (*actor.Actor, error)
}

type Service struct {
	repo     Repository
	registry RegistryReader
}

func NewService(repo Repository, registry RegistryReader) *Service {
	return &Service{repo: repo, registry: registry}
}

// Grant authorizes the provider to access the patient's records. The caller
// must be a registered patient and the target a registered provider.
// Granting an already-active edge is a no-op success so that client retries
// are safe.
func (s *Service) Grant(ctx context.Context, patient, provider string) error {
	p, err := s.registry.Lookup(ctx, patient)
	if err != nil {
		return ErrNotRegistered
	}
	if p.Role != actor.RolePatient {
		return ErrNotAPatient
	}

	t, err := s.registry.Lookup(ctx, provider)
	if err != nil {
		return ErrNotRegistered
	}
	if !t.Role.IsProvider() {
		return ErrTargetIsPatient
	}

	return s.repo.Upsert(ctx, patient, provider)
}

// Revoke deactivates the edge. Revoking a missing or already-revoked edge is
// a no-op success, mirroring Grant's idempotence.
func (s *Service) Revoke(ctx context.Context, patient, provider string) error {
	p, err := s.registry.Lookup(ctx, patient)
	if err != nil || p.Role != actor.RolePatient {
		return ErrNotAPatient
	}
	return s.repo.Deactivate(ctx, patient, provider)
}

// IsAuthorized reports whether requester may access the patient's records.
// A patient is always authorized for their own records; this is a
// short-circuit, never a stored edge, so it can never be revoked.
func (s *Service) IsAuthorized(ctx context.Context, patient, requester string) bool {
	if patient == requester {
		return true
	}
	active, err := s.repo.IsActive(ctx, patient, requester)
	if err != nil {
		return false
	}
	return active
}

func (s *Service) ListByPatient(ctx context.Context, patient string) ([]*Edge, error) {
	return s.repo.ListByPatient(ctx, patient)
}
