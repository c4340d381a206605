package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/slidekit/internal/domain"
)

// buildColumns is the shared list of columns for build queries.
var buildColumns = []string{
	"id", "root", "dist", "files", "bytes", "skipped",
	"duration_ms", "status", "error", "started_at",
}

// BuildRepository handles database operations for build history.
type BuildRepository struct {
	pool *pgxpool.Pool
}

// NewBuildRepository creates a new BuildRepository.
func NewBuildRepository(pool *pgxpool.Pool) *BuildRepository {
	return &BuildRepository{pool: pool}
}

// scanBuild scans a single row into a BuildRecord.
func scanBuild(row pgx.Row) (*domain.BuildRecord, error) {
	var b domain.BuildRecord
	err := row.Scan(
		&b.ID,
		&b.Root,
		&b.Dist,
		&b.Files,
		&b.Bytes,
		&b.Skipped,
		&b.DurationMS,
		&b.Status,
		&b.Error,
		&b.StartedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBuildNotFound
		}
		return nil, fmt.Errorf("scan build: %w", err)
	}
	return &b, nil
}

// Create inserts a build record.
func (r *BuildRepository) Create(ctx context.Context, b *domain.BuildRecord) error {
	query, args, err := psql.
		Insert("builds").
		Columns(buildColumns...).
		Values(b.ID, b.Root, b.Dist, b.Files, b.Bytes, b.Skipped,
			b.DurationMS, b.Status, b.Error, b.StartedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// GetByID retrieves a build by ID.
func (r *BuildRepository) GetByID(ctx context.Context, id string) (*domain.BuildRecord, error) {
	query, args, err := psql.
		Select(buildColumns...).
		From("builds").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanBuild(r.pool.QueryRow(ctx, query, args...))
}

// ListRecent returns up to limit builds, newest first.
func (r *BuildRepository) ListRecent(ctx context.Context, limit int) ([]domain.BuildRecord, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidLimit
	}

	query, args, err := psql.
		Select(buildColumns...).
		From("builds").
		OrderBy("started_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := make([]domain.BuildRecord, 0, limit)
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return builds, nil
}
