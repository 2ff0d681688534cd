package record

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caretrail/caretrail/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const entryCols = `id, patient_address, uploader_address, record_type, description, content_hash, active, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PatientAddress, &e.UploaderAddress, &e.Type,
		&e.Description, &e.ContentHash, &e.Active, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *RepoPG) Create(ctx context.Context, e *Entry) error {
	return r.conn(ctx).QueryRow(ctx,
		`INSERT INTO record_entries (patient_address, uploader_address, record_type, description, content_hash, active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 RETURNING id, created_at`,
		e.PatientAddress, e.UploaderAddress, e.Type, e.Description, e.ContentHash,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *RepoPG) GetByID(ctx context.Context, id int64) (*Entry, error) {
	return scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+entryCols+` FROM record_entries WHERE id = $1`, id))
}

func (r *RepoPG) ListByPatient(ctx context.Context, patient string, includeArchived bool) ([]*Entry, error) {
	q := `SELECT ` + entryCols + ` FROM record_entries WHERE patient_address = $1`
	if !includeArchived {
		q += ` AND active = TRUE`
	}
	q += ` ORDER BY id DESC`

	rows, err := r.conn(ctx).Query(ctx, q, patient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *RepoPG) UpdateDescription(ctx context.Context, id int64, description string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE record_entries SET description = $2 WHERE id = $1`, id, description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepoPG) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE record_entries SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
