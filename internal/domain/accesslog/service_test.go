package accesslog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

// -- Mock repository --

type mockRepo struct {
	mu      sync.Mutex
	seq     int64
	clock   int64
	known   map[int64]bool // record ids that exist in the ledger
	entries []*Entry
}

func newMockRepo(knownRecords ...int64) *mockRepo {
	known := make(map[int64]bool)
	for _, id := range knownRecords {
		known[id] = true
	}
	return &mockRepo{known: known}
}

func (m *mockRepo) Append(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.known[e.RecordID] {
		return ErrRecordNotFound
	}
	m.seq++
	m.clock++
	e.ID = m.seq
	e.OccurredAt = time.Unix(0, m.clock)
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockRepo) ListByRecord(_ context.Context, recordID int64) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Entry
	for _, e := range m.entries {
		if e.RecordID == recordID {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OccurredAt.Equal(result[j].OccurredAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].OccurredAt.Before(result[j].OccurredAt)
	})
	return result, nil
}

// -- Tests --

func TestAppend(t *testing.T) {
	svc := NewService(newMockRepo(1))

	e, err := svc.Append(context.Background(), 1, "d1", ActionCreate, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == 0 {
		t.Error("expected id to be assigned")
	}
	if e.Action != ActionCreate {
		t.Errorf("expected CREATE, got %s", e.Action)
	}
}

func TestAppend_UnknownRecord(t *testing.T) {
	svc := NewService(newMockRepo(1))

	_, err := svc.Append(context.Background(), 99, "d1", ActionView, "")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

// wrappingRepo returns the sentinel behind a wrap, the way a Postgres repo
// annotates constraint failures.
type wrappingRepo struct{}

func (wrappingRepo) Append(_ context.Context, _ *Entry) error {
	return fmt.Errorf("insert access log: %w", ErrRecordNotFound)
}

func (wrappingRepo) ListByRecord(_ context.Context, _ int64) ([]*Entry, error) {
	return nil, nil
}

func TestAppend_WrappedUnknownRecord(t *testing.T) {
	svc := NewService(wrappingRepo{})

	_, err := svc.Append(context.Background(), 7, "d1", ActionView, "")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected wrapped ErrRecordNotFound to surface, got %v", err)
	}
}

func TestListByRecord_ChronologicalOrder(t *testing.T) {
	svc := NewService(newMockRepo(1, 2))

	svc.Append(context.Background(), 1, "d1", ActionCreate, "")
	svc.Append(context.Background(), 2, "d1", ActionCreate, "")
	svc.Append(context.Background(), 1, "p1", ActionView, "")
	svc.Append(context.Background(), 1, "d1", ActionUpdate, "")

	entries, err := svc.ListByRecord(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries for record 1, got %d", len(entries))
	}

	want := []Action{ActionCreate, ActionView, ActionUpdate}
	for i, e := range entries {
		if e.Action != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], e.Action)
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].OccurredAt.Before(entries[i-1].OccurredAt) {
			t.Error("expected timestamp-ascending order")
		}
	}
}

func TestListByRecord_PureRead(t *testing.T) {
	repo := newMockRepo(1)
	svc := NewService(repo)

	svc.Append(context.Background(), 1, "d1", ActionCreate, "")

	before, _ := svc.ListByRecord(context.Background(), 1)
	for i := 0; i < 3; i++ {
		svc.ListByRecord(context.Background(), 1)
	}
	after, _ := svc.ListByRecord(context.Background(), 1)

	if len(before) != len(after) {
		t.Errorf("expected reads not to change log length: %d vs %d", len(before), len(after))
	}
}
