package terminology

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flaretrack/flaretrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type meddraRepoPG struct{ pool *pgxpool.Pool }

// NewMedDRARepoPG reads the meddra_term table.
func NewMedDRARepoPG(pool *pgxpool.Pool) MedDRARepository { return &meddraRepoPG{pool: pool} }

func (r *meddraRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const meddraColumns = `lower(symptom), code, term, COALESCE(system_uri, 'https://www.meddra.org')`

func (r *meddraRepoPG) List(ctx context.Context) ([]*MedDRATerm, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+meddraColumns+` FROM meddra_term ORDER BY lower(symptom)`)
	if err != nil {
		return nil, fmt.Errorf("meddra list: %w", err)
	}
	return scanTerms(rows)
}

func (r *meddraRepoPG) Search(ctx context.Context, query string, limit int) ([]*MedDRATerm, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+meddraColumns+`
		 FROM meddra_term
		 WHERE symptom ILIKE $1 OR term ILIKE $1 OR code = $2
		 ORDER BY lower(symptom) LIMIT $3`, pattern, query, limit)
	if err != nil {
		return nil, fmt.Errorf("meddra search: %w", err)
	}
	return scanTerms(rows)
}

func (r *meddraRepoPG) GetByCode(ctx context.Context, code string) ([]*MedDRATerm, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+meddraColumns+` FROM meddra_term WHERE code = $1 ORDER BY lower(symptom)`, code)
	if err != nil {
		return nil, fmt.Errorf("meddra get: %w", err)
	}
	terms, err := scanTerms(rows)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return terms, nil
}

func scanTerms(rows pgx.Rows) ([]*MedDRATerm, error) {
	defer rows.Close()
	var results []*MedDRATerm
	for rows.Next() {
		var t MedDRATerm
		if err := rows.Scan(&t.Symptom, &t.Code, &t.Term, &t.SystemURI); err != nil {
			return nil, err
		}
		results = append(results, &t)
	}
	return results, rows.Err()
}
