// Package access is the single entry surface for everything that touches
// patient records: it sequences the identity registry, authorization graph,
// record ledger and access audit log so that no record is read or written
// without a preceding authorization check, and no authorized access goes
// unlogged.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/caretrail/caretrail/internal/domain/accesslog"
	"github.com/caretrail/caretrail/internal/domain/actor"
	"github.com/caretrail/caretrail/internal/domain/consent"
	"github.com/caretrail/caretrail/internal/domain/record"
	"github.com/caretrail/caretrail/pkg/pagination"
)

var (
	// ErrNotAuthorized is permanent for the given call: the caller must
	// obtain a grant, not retry.
	ErrNotAuthorized = errors.New("requester is not authorized for this patient's records")
	// ErrAuditAppendFailed means the ledger write succeeded but the audit
	// entry could not be appended after bounded retries. The record is
	// durable; the caller may retry the audit side.
	ErrAuditAppendFailed = errors.New("audit append failed")
)

const (
	defaultAuditRetries = 3
	auditAppendTimeout  = 5 * time.Second
)

type Service struct {
	actors   *actor.Service
	consents *consent.Service
	records  *record.Service
	logs     *accesslog.Service

	lanes        *laneSet
	auditRetries int
	logger       zerolog.Logger
}

func NewService(actors *actor.Service, consents *consent.Service, records *record.Service, logs *accesslog.Service, logger zerolog.Logger) *Service {
	return &Service{
		actors:       actors,
		consents:     consents,
		records:      records,
		logs:         logs,
		lanes:        newLaneSet(),
		auditRetries: defaultAuditRetries,
		logger:       logger,
	}
}

// Register delegates to the identity registry.
func (s *Service) Register(ctx context.Context, address, name string, role actor.Role) (*actor.Actor, error) {
	return s.actors.Register(ctx, address, name, role)
}

// Lookup delegates to the identity registry.
func (s *Service) Lookup(ctx context.Context, address string) (*actor.Actor, error) {
	return s.actors.Lookup(ctx, address)
}

// ListActors pages through the identity registry, newest first.
func (s *Service) ListActors(ctx context.Context, p pagination.Params) ([]*actor.Actor, int, error) {
	return s.actors.List(ctx, p)
}

// Grant authorizes a provider for a patient, serialized in the patient lane
// so a grant never races a submit for the same patient.
func (s *Service) Grant(ctx context.Context, patient, provider string) error {
	unlock := s.lanes.lock(patient)
	defer unlock()
	return s.consents.Grant(ctx, patient, provider)
}

// Revoke deactivates a provider's authorization. Once Revoke returns, no
// later submit by that provider can pass the in-lane authorization check.
func (s *Service) Revoke(ctx context.Context, patient, provider string) error {
	unlock := s.lanes.lock(patient)
	defer unlock()
	return s.consents.Revoke(ctx, patient, provider)
}

// SubmitRecord adds a record reference for the patient. The authorization
// check runs fresh inside the patient lane, immediately before the ledger
// write. The audit append happens after the lane is released: a failure
// there never rolls back the record, it surfaces as ErrAuditAppendFailed
// alongside the written entry.
func (s *Service) SubmitRecord(ctx context.Context, patient, uploader, contentHash string, typ record.Type, description, auditCtx string) (*record.Entry, error) {
	if _, err := record.ParseType(string(typ)); err != nil {
		return nil, err
	}

	entry, err := func() (*record.Entry, error) {
		unlock := s.lanes.lock(patient)
		defer unlock()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.consents.IsAuthorized(ctx, patient, uploader) {
			return nil, ErrNotAuthorized
		}
		return s.records.Add(ctx, patient, uploader, contentHash, typ, description)
	}()
	if err != nil {
		return nil, err
	}

	if aerr := s.appendAudit(ctx, entry.ID, uploader, accesslog.ActionCreate, auditCtx); aerr != nil {
		return entry, fmt.Errorf("%w: %v", ErrAuditAppendFailed, aerr)
	}
	return entry, nil
}

// FetchPatientRecords returns one page of the patient's records, newest
// first, plus the snapshot total, and appends one VIEW audit entry per
// returned record. Only records the caller actually receives are audited.
// The appends are not atomic with the read: a revoke racing in between is
// tolerated and the logged access reflects the permission state at read
// time. A zero p.Limit disables paging.
func (s *Service) FetchPatientRecords(ctx context.Context, patient, requester string, includeArchived bool, p pagination.Params, auditCtx string) ([]*record.Entry, int, error) {
	if !s.consents.IsAuthorized(ctx, patient, requester) {
		return nil, 0, ErrNotAuthorized
	}

	entries, err := s.records.ListByPatient(ctx, patient, includeArchived)
	if err != nil {
		return nil, 0, err
	}
	total := len(entries)
	page := entries
	if p.Limit > 0 {
		page = pageOf(entries, p)
	}

	var auditErr error
	for _, e := range page {
		if aerr := s.appendAudit(ctx, e.ID, requester, accesslog.ActionView, auditCtx); aerr != nil {
			auditErr = aerr
		}
	}
	if auditErr != nil {
		return page, total, fmt.Errorf("%w: %v", ErrAuditAppendFailed, auditErr)
	}
	return page, total, nil
}

func pageOf(entries []*record.Entry, p pagination.Params) []*record.Entry {
	if p.Offset >= len(entries) {
		return []*record.Entry{}
	}
	end := p.Offset + p.Limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[p.Offset:end]
}

// FetchAccessLogs returns the record's audit trail in chronological order.
// Only the owning patient may read it. The read itself is not audited.
func (s *Service) FetchAccessLogs(ctx context.Context, recordID int64, requester string) ([]*accesslog.Entry, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.PatientAddress != requester {
		return nil, ErrNotAuthorized
	}
	return s.logs.ListByRecord(ctx, recordID)
}

// UpdateRecord changes a record's description. The requester must be the
// owning patient or a currently-authorized uploader; the check runs fresh
// inside the patient lane, like SubmitRecord's.
func (s *Service) UpdateRecord(ctx context.Context, recordID int64, requester, description, auditCtx string) (*record.Entry, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	err = func() error {
		unlock := s.lanes.lock(rec.PatientAddress)
		defer unlock()

		if !s.consents.IsAuthorized(ctx, rec.PatientAddress, requester) {
			return ErrNotAuthorized
		}
		return s.records.UpdateDescription(ctx, recordID, description)
	}()
	if err != nil {
		return nil, err
	}
	rec.Description = description

	if aerr := s.appendAudit(ctx, recordID, requester, accesslog.ActionUpdate, auditCtx); aerr != nil {
		return rec, fmt.Errorf("%w: %v", ErrAuditAppendFailed, aerr)
	}
	return rec, nil
}

// ArchiveRecord deactivates a record. Owner-only; archived records drop out
// of default listings but stay in the ledger and keep their audit trail.
func (s *Service) ArchiveRecord(ctx context.Context, recordID int64, requester, auditCtx string) error {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.PatientAddress != requester {
		return ErrNotAuthorized
	}

	err = func() error {
		unlock := s.lanes.lock(rec.PatientAddress)
		defer unlock()
		return s.records.Archive(ctx, recordID)
	}()
	if err != nil {
		return err
	}

	if aerr := s.appendAudit(ctx, recordID, requester, accesslog.ActionArchive, auditCtx); aerr != nil {
		return fmt.Errorf("%w: %v", ErrAuditAppendFailed, aerr)
	}
	return nil
}

// ListConsents exposes a patient's grant history.
func (s *Service) ListConsents(ctx context.Context, patient string) ([]*consent.Edge, error) {
	return s.consents.ListByPatient(ctx, patient)
}

// appendAudit writes one audit entry with bounded retries. It runs on a
// context detached from the caller's cancellation: once the ledger write is
// acknowledged, abandoning the request must not lose the audit entry.
func (s *Service) appendAudit(ctx context.Context, recordID int64, accessor string, action accesslog.Action, auditCtx string) error {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditAppendTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= s.auditRetries; attempt++ {
		_, err = s.logs.Append(actx, recordID, accessor, action, auditCtx)
		if err == nil {
			return nil
		}
		if errors.Is(err, accesslog.ErrRecordNotFound) {
			return err
		}
		s.logger.Warn().
			Err(err).
			Int64("record_id", recordID).
			Str("accessor", accessor).
			Str("action", string(action)).
			Int("attempt", attempt).
			Msg("audit append failed")
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	return err
}
