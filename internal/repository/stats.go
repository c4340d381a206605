package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// BuildStats aggregates the build history.
type BuildStats struct {
	Total         int
	Succeeded     int
	Failed        int
	AvgDurationMS float64
	TotalBytes    int64
}

// Stats returns aggregate figures over every recorded build.
func (r *BuildRepository) Stats(ctx context.Context) (*BuildStats, error) {
	query, args, err := psql.
		Select(
			"COUNT(*)",
			"COUNT(*) FILTER (WHERE status = 'SUCCEEDED')",
			"COUNT(*) FILTER (WHERE status = 'FAILED')",
			"COALESCE(AVG(duration_ms), 0)::float8",
			"COALESCE(SUM(bytes), 0)::bigint",
		).
		From("builds").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s BuildStats
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.Total,
		&s.Succeeded,
		&s.Failed,
		&s.AvgDurationMS,
		&s.TotalBytes,
	); err != nil {
		return nil, fmt.Errorf("query build stats: %w", err)
	}
	return &s, nil
}

// Prune keeps the newest keep builds and removes the rest.
func (r *BuildRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative: %d", keep)
	}

	newest := psql.
		Select("id").
		From("builds").
		OrderBy("started_at DESC", "id").
		Limit(uint64(keep))

	query, args, err := psql.
		Delete("builds").
		Where(sq.Expr("id NOT IN (?)", newest)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete builds: %w", err)
	}
	return tag.RowsAffected(), nil
}
