package consent

import (
	"context"

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

func (r *RepoPG) Upsert(ctx context.Context, patient, provider string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO consent_edges (patient_address, provider_address, active, granted_at)
		 VALUES ($1, $2, TRUE, NOW())
		 ON CONFLICT (patient_address, provider_address)
		 DO UPDATE SET active = TRUE, granted_at = NOW(), revoked_at = NULL
		 WHERE consent_edges.active = FALSE`,
		patient, provider)
	return err
}

func (r *RepoPG) Deactivate(ctx context.Context, patient, provider string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE consent_edges SET active = FALSE, revoked_at = NOW()
		 WHERE patient_address = $1 AND provider_address = $2 AND active = TRUE`,
		patient, provider)
	return err
}

func (r *RepoPG) IsActive(ctx context.Context, patient, provider string) (bool, error) {
	var active bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM consent_edges
		   WHERE patient_address = $1 AND provider_address = $2 AND active = TRUE
		 )`,
		patient, provider).Scan(&active)
	return active, err
}

func (r *RepoPG) ListByPatient(ctx context.Context, patient string) ([]*Edge, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT patient_address, provider_address, active, granted_at, revoked_at
		 FROM consent_edges WHERE patient_address = $1 ORDER BY granted_at DESC`,
		patient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.PatientAddress, &e.ProviderAddress, &e.Active, &e.GrantedAt, &e.RevokedAt); err != nil {
			return nil, err
		}
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}
