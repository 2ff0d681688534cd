package accesslog

import (
	"context"
	"errors"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append records one access event. By the time this is called the façade has
// already authorized the action, so the only admissible failure besides a
// storage fault is a dangling record id.
func (s *Service) Append(ctx context.Context, recordID int64, accessor string, action Action, auditCtx string) (*Entry, error) {
	e := &Entry{
		RecordID:        recordID,
		AccessorAddress: accessor,
		Action:          action,
		Context:         auditCtx,
	}
	if err := s.repo.Append(ctx, e); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("append access log: %w", err)
	}
	return e, nil
}

func (s *Service) ListByRecord(ctx context.Context, recordID int64) ([]*Entry, error) {
	return s.repo.ListByRecord(ctx, recordID)
}
