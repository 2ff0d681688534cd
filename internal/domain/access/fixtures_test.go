package access

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/caretrail/caretrail/internal/domain/accesslog"
	"github.com/caretrail/caretrail/internal/domain/actor"
	"github.com/caretrail/caretrail/internal/domain/consent"
	"github.com/caretrail/caretrail/internal/domain/record"
	"github.com/caretrail/caretrail/pkg/pagination"
)

// In-memory repositories mirroring the Postgres semantics closely enough
// for façade-level tests: monotonic record ids, append-only logs with a
// record-existence check, history-preserving consent edges.

type memActorRepo struct {
	mu     sync.Mutex
	actors map[string]*actor.Actor
}

func newMemActorRepo() *memActorRepo {
	return &memActorRepo{actors: make(map[string]*actor.Actor)}
}

func (m *memActorRepo) Create(_ context.Context, a *actor.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.actors[a.Address]; ok {
		return actor.ErrAlreadyRegistered
	}
	a.Registered = true
	a.CreatedAt = time.Now()
	cp := *a
	m.actors[a.Address] = &cp
	return nil
}

func (m *memActorRepo) GetByAddress(_ context.Context, address string) (*actor.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[address]
	if !ok {
		return nil, actor.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memActorRepo) List(_ context.Context, p pagination.Params) ([]*actor.Actor, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*actor.Actor
	for _, a := range m.actors {
		cp := *a
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Address < result[j].Address })
	total := len(result)
	if p.Offset >= total {
		return nil, total, nil
	}
	end := p.Offset + p.Limit
	if end > total {
		end = total
	}
	return result[p.Offset:end], total, nil
}

type memEdgeKey struct {
	patient, provider string
}

type memEdgeRepo struct {
	mu    sync.Mutex
	edges map[memEdgeKey]*consent.Edge
}

func newMemEdgeRepo() *memEdgeRepo {
	return &memEdgeRepo{edges: make(map[memEdgeKey]*consent.Edge)}
}

func (m *memEdgeRepo) Upsert(_ context.Context, patient, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memEdgeKey{patient, provider}
	if e, ok := m.edges[k]; ok {
		e.Active = true
		e.RevokedAt = nil
		return nil
	}
	m.edges[k] = &consent.Edge{
		PatientAddress:  patient,
		ProviderAddress: provider,
		Active:          true,
		GrantedAt:       time.Now(),
	}
	return nil
}

func (m *memEdgeRepo) Deactivate(_ context.Context, patient, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.edges[memEdgeKey{patient, provider}]; ok && e.Active {
		e.Active = false
		now := time.Now()
		e.RevokedAt = &now
	}
	return nil
}

func (m *memEdgeRepo) IsActive(_ context.Context, patient, provider string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.edges[memEdgeKey{patient, provider}]
	return ok && e.Active, nil
}

func (m *memEdgeRepo) ListByPatient(_ context.Context, patient string) ([]*consent.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var edges []*consent.Edge
	for k, e := range m.edges {
		if k.patient == patient {
			cp := *e
			edges = append(edges, &cp)
		}
	}
	return edges, nil
}

type memRecordRepo struct {
	mu       sync.Mutex
	seq      int64
	entries  map[int64]*record.Entry
	onCreate func() // fires after a row is stored, outside the lock
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{entries: make(map[int64]*record.Entry)}
}

func (m *memRecordRepo) Create(ctx context.Context, e *record.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.seq++
	e.ID = m.seq
	e.CreatedAt = time.Now()
	cp := *e
	m.entries[e.ID] = &cp
	hook := m.onCreate
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (m *memRecordRepo) GetByID(_ context.Context, id int64) (*record.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, record.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memRecordRepo) ListByPatient(_ context.Context, patient string, includeArchived bool) ([]*record.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*record.Entry
	for _, e := range m.entries {
		if e.PatientAddress != patient {
			continue
		}
		if !includeArchived && !e.Active {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *memRecordRepo) UpdateDescription(_ context.Context, id int64, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return record.ErrNotFound
	}
	e.Description = description
	return nil
}

func (m *memRecordRepo) SetActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return record.ErrNotFound
	}
	e.Active = active
	return nil
}

func (m *memRecordRepo) exists(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok
}

// memLogRepo enforces the record foreign key against the record repo, like
// the Postgres constraint does. failures makes the next N appends fail to
// exercise the façade's retry path.
type memLogRepo struct {
	mu       sync.Mutex
	seq      int64
	clock    int64
	records  *memRecordRepo
	entries  []*accesslog.Entry
	failures int
}

func newMemLogRepo(records *memRecordRepo) *memLogRepo {
	return &memLogRepo{records: records}
}

func (m *memLogRepo) Append(ctx context.Context, e *accesslog.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return fmt.Errorf("simulated storage fault")
	}
	if !m.records.exists(e.RecordID) {
		return accesslog.ErrRecordNotFound
	}
	m.seq++
	m.clock++
	e.ID = m.seq
	e.OccurredAt = time.Unix(0, m.clock)
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLogRepo) ListByRecord(_ context.Context, recordID int64) ([]*accesslog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*accesslog.Entry
	for _, e := range m.entries {
		if e.RecordID == recordID {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memLogRepo) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// fixture wires a full façade over the in-memory repositories.
type fixture struct {
	svc     *Service
	actors  *memActorRepo
	edges   *memEdgeRepo
	records *memRecordRepo
	logs    *memLogRepo
}

func newFixture() *fixture {
	actors := newMemActorRepo()
	edges := newMemEdgeRepo()
	records := newMemRecordRepo()
	logs := newMemLogRepo(records)

	actorSvc := actor.NewService(actors)
	consentSvc := consent.NewService(edges, actorSvc)
	recordSvc := record.NewService(records)
	logSvc := accesslog.NewService(logs)

	return &fixture{
		svc:     NewService(actorSvc, consentSvc, recordSvc, logSvc, zerolog.Nop()),
		actors:  actors,
		edges:   edges,
		records: records,
		logs:    logs,
	}
}

// registerPair registers the canonical patient p1 and doctor d1.
func (f *fixture) registerPair(ctx context.Context) {
	f.svc.Register(ctx, "p1", "Alice", actor.RolePatient)
	f.svc.Register(ctx, "d1", "Dr. Dee", actor.RoleDoctor)
}
