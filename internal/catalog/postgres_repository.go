package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores the service catalog in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const serviceColumns = `id, name, duration_minutes, price_cents, active, created_at`

func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE active ORDER BY id`
	return r.queryServices(ctx, query)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY id`
	return r.queryServices(ctx, query)
}

func (r *PostgresRepository) GetActive(ctx context.Context, id int64) (*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1 AND active`
	row := r.pool.QueryRow(ctx, query, id)
	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: select service: %w", err)
	}
	return svc, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: select service: %w", err)
	}
	return svc, nil
}

func (r *PostgresRepository) Create(ctx context.Context, req *CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO services (name, duration_minutes, price_cents, active)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + serviceColumns
	row := r.pool.QueryRow(ctx, query, req.Name, req.DurationMinutes, req.PriceCents, req.IsActive())
	svc, err := scanService(row)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert service: %w", err)
	}
	return svc, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, req *UpdateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE services SET
			name = COALESCE($2, name),
			duration_minutes = COALESCE($3, duration_minutes),
			price_cents = COALESCE($4, price_cents),
			active = COALESCE($5, active)
		WHERE id = $1
		RETURNING ` + serviceColumns
	row := r.pool.QueryRow(ctx, query, id, req.Name, req.DurationMinutes, req.PriceCents, req.Active)
	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: update service: %w", err)
	}
	return svc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PostgresRepository) queryServices(ctx context.Context, query string, args ...any) ([]*Service, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func scanService(row pgx.Row) (*Service, error) {
	var svc Service
	if err := row.Scan(
		&svc.ID,
		&svc.Name,
		&svc.DurationMinutes,
		&svc.PriceCents,
		&svc.Active,
		&svc.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &svc, nil
}
