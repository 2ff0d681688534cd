package actor

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caretrail/caretrail/internal/platform/db"
	"github.com/caretrail/caretrail/pkg/pagination"
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

const actorCols = `address, name, role, registered, created_at`

func scanActor(row pgx.Row) (*Actor, error) {
	var a Actor
	err := row.Scan(&a.Address, &a.Name, &a.Role, &a.Registered, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *RepoPG) Create(ctx context.Context, a *Actor) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO actors (address, name, role, registered)
		 VALUES ($1, $2, $3, TRUE)
		 RETURNING created_at`,
		a.Address, a.Name, a.Role,
	).Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyRegistered
		}
		return err
	}
	a.Registered = true
	return nil
}

func (r *RepoPG) GetByAddress(ctx context.Context, address string) (*Actor, error) {
	return scanActor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+actorCols+` FROM actors WHERE address = $1`, address))
}

func (r *RepoPG) List(ctx context.Context, p pagination.Params) ([]*Actor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM actors`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+actorCols+` FROM actors ORDER BY created_at DESC `+p.SQL())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
