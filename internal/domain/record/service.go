package record

import (
	"context"
	"fmt"
)

// Service is the record ledger. It is the sole writer of entries; the
// authorization precondition for Add is enforced by the caller (the access
// façade) immediately before delegating, inside the patient's lane.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add allocates the next ledger ID and stores a new entry.
func (s *Service) Add(ctx context.Context, patient, uploader, contentHash string, typ Type, description string) (*Entry, error) {
	if _, err := ParseType(string(typ)); err != nil {
		return nil, err
	}
	if contentHash == "" {
		return nil, ErrEmptyContentHash
	}

	e := &Entry{
		PatientAddress:  patient,
		UploaderAddress: uploader,
		Type:            typ,
		Description:     description,
		ContentHash:     contentHash,
		Active:          true,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create record entry: %w", err)
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patient string, includeArchived bool) ([]*Entry, error) {
	return s.repo.ListByPatient(ctx, patient, includeArchived)
}

func (s *Service) UpdateDescription(ctx context.Context, id int64, description string) error {
	return s.repo.UpdateDescription(ctx, id, description)
}

func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}
