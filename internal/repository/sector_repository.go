package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-service/internal/domain"
)

// SectorRepository manages sector persistence. List preserves insertion order.
type SectorRepository interface {
	Create(ctx context.Context, sector *domain.Sector) error
	Update(ctx context.Context, sector *domain.Sector) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Sector, error)
	List(ctx context.Context) ([]domain.Sector, error)
}

type sectorRepository struct {
	pool *pgxpool.Pool
}

// NewSectorRepository builds the Postgres repository.
func NewSectorRepository(pool *pgxpool.Pool) SectorRepository {
	return &sectorRepository{pool: pool}
}

func (r *sectorRepository) Create(ctx context.Context, sector *domain.Sector) error {
	const query = `
        INSERT INTO sectors (id, name, prefix, color, is_visible, tags, allowed_forward_to, is_reception, counters)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.pool.Exec(ctx, query,
		sector.ID,
		sector.Name,
		sector.Prefix,
		sector.Color,
		sector.IsVisible,
		nonNil(sector.Tags),
		nonNil(sector.AllowedForwardTo),
		sector.IsReception,
		sector.Counters,
	)
	return err
}

func (r *sectorRepository) Update(ctx context.Context, sector *domain.Sector) error {
	const query = `
        UPDATE sectors SET name=$1, prefix=$2, color=$3, is_visible=$4, tags=$5,
            allowed_forward_to=$6, is_reception=$7, counters=$8
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		sector.Name,
		sector.Prefix,
		sector.Color,
		sector.IsVisible,
		nonNil(sector.Tags),
		nonNil(sector.AllowedForwardTo),
		sector.IsReception,
		sector.Counters,
		sector.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sectorRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sectors WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sectorRepository) GetByID(ctx context.Context, id string) (*domain.Sector, error) {
	const query = `
        SELECT id, name, prefix, color, is_visible, tags, allowed_forward_to, is_reception, counters
        FROM sectors WHERE id=$1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sectors, err := scanSectors(rows)
	if err != nil {
		return nil, err
	}
	if len(sectors) == 0 {
		return nil, ErrNotFound
	}
	return &sectors[0], nil
}

func (r *sectorRepository) List(ctx context.Context) ([]domain.Sector, error) {
	const query = `
        SELECT id, name, prefix, color, is_visible, tags, allowed_forward_to, is_reception, counters
        FROM sectors ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSectors(rows)
}

func scanSectors(rows pgx.Rows) ([]domain.Sector, error) {
	var result []domain.Sector
	for rows.Next() {
		var sector domain.Sector
		if err := rows.Scan(
			&sector.ID,
			&sector.Name,
			&sector.Prefix,
			&sector.Color,
			&sector.IsVisible,
			&sector.Tags,
			&sector.AllowedForwardTo,
			&sector.IsReception,
			&sector.Counters,
		); err != nil {
			return nil, err
		}
		result = append(result, sector)
	}
	return result, rows.Err()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
