package actor

import (
	"context"

	"github.com/caretrail/caretrail/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new actor. An address registers at most once; a second
// attempt fails with ErrAlreadyRegistered regardless of the submitted data.
func (s *Service) Register(ctx context.Context, address, name string, role Role) (*Actor, error) {
	if address == "" {
		return nil, ErrEmptyAddress
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}

	a := &Actor{Address: address, Name: name, Role: role}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Lookup(ctx context.Context, address string) (*Actor, error) {
	return s.repo.GetByAddress(ctx, address)
}

// IsRole reports whether the address is registered with the given role.
// Unregistered addresses are simply not that role; no error is surfaced.
func (s *Service) IsRole(ctx context.Context, address string, role Role) bool {
	a, err := s.repo.GetByAddress(ctx, address)
	if err != nil {
		return false
	}
	return a.Registered && a.Role == role
}

func (s *Service) List(ctx context.Context, p pagination.Params) ([]*Actor, int, error) {
	return s.repo.List(ctx, p)
}
