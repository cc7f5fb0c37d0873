package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// SequenceRepository hands out per-sector ticket sequence numbers. Next never
// returns a value it returned before for the same sector, and never returns
// less than floor.
type SequenceRepository interface {
	Next(ctx context.Context, sectorID string, floor int64) (int64, error)
}

type pgSequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository returns a Postgres-backed counter over ticket_sequences.
func NewSequenceRepository(pool *pgxpool.Pool) SequenceRepository {
	return &pgSequenceRepository{pool: pool}
}

func (r *pgSequenceRepository) Next(ctx context.Context, sectorID string, floor int64) (int64, error) {
	if floor < 1 {
		floor = 1
	}
	var next int64
	row := r.pool.QueryRow(ctx, `
		INSERT INTO ticket_sequences (sector_id, next_number)
		VALUES ($1, $2)
		ON CONFLICT (sector_id)
		DO UPDATE SET next_number = GREATEST(ticket_sequences.next_number + 1, EXCLUDED.next_number)
		RETURNING next_number
	`, sectorID, floor)
	if err := row.Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

// nextSequenceScript bumps the counter and lifts it to the floor in one round trip.
var nextSequenceScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call('SET', KEYS[1], floor)
	current = floor
end
return current
`)

type redisSequenceRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisSequenceRepository keeps counters under prefix+sectorID.
func NewRedisSequenceRepository(client *redis.Client, prefix string) SequenceRepository {
	return &redisSequenceRepository{client: client, prefix: prefix}
}

func (r *redisSequenceRepository) Next(ctx context.Context, sectorID string, floor int64) (int64, error) {
	if floor < 1 {
		floor = 1
	}
	return nextSequenceScript.Run(ctx, r.client, []string{r.prefix + sectorID}, floor).Int64()
}
