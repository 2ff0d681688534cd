package accesslog

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

func (r *RepoPG) Append(ctx context.Context, e *Entry) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO access_log_entries (record_id, accessor_address, action, context)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, occurred_at`,
		e.RecordID, e.AccessorAddress, e.Action, e.Context,
	).Scan(&e.ID, &e.OccurredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: the record_id foreign key does not exist.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrRecordNotFound
		}
		return err
	}
	return nil
}

func (r *RepoPG) ListByRecord(ctx context.Context, recordID int64) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, record_id, accessor_address, action, context, occurred_at
		 FROM access_log_entries
		 WHERE record_id = $1
		 ORDER BY occurred_at ASC, id ASC`,
		recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RecordID, &e.AccessorAddress, &e.Action, &e.Context, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
