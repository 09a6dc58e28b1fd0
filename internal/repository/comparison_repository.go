package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"imagecompare/internal/models"
)

type ComparisonRepository struct {
	pool *pgxpool.Pool
}

func NewComparisonRepository(pool *pgxpool.Pool) *ComparisonRepository {
	return &ComparisonRepository{pool: pool}
}

func (r *ComparisonRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM comparisons WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// InsertIfAbsent writes c unless a row with the same id or the same
// (dirname, images) already exists. When the content already exists the stored
// row is returned untouched with inserted=false. When only the id collides
// ErrIDTaken is returned.
func (r *ComparisonRepository) InsertIfAbsent(ctx context.Context, c models.Comparison) (models.Comparison, bool, error) {
	const query = `
		INSERT INTO comparisons (id, dirname, image_a, image_b, created_at, created_by)
		VALUES ($1, $2, $3, $4, NOW(), $5)
		ON CONFLICT DO NOTHING
		RETURNING id, dirname, image_a, image_b, created_at, created_by
	`

	inserted, err := scanComparison(r.pool.QueryRow(ctx, query,
		c.ID,
		c.Dirname,
		c.Images[0],
		c.Images[1],
		c.CreatedBy,
	))
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Comparison{}, false, err
	}

	existing, err := r.FindByContent(ctx, c.Dirname, c.Images)
	if errors.Is(err, ErrComparisonNotFound) {
		return models.Comparison{}, false, ErrIDTaken
	}
	if err != nil {
		return models.Comparison{}, false, err
	}
	return existing, false, nil
}

func (r *ComparisonRepository) FindByContent(ctx context.Context, dirname string, images [2]string) (models.Comparison, error) {
	const query = `
		SELECT id, dirname, image_a, image_b, created_at, created_by
		FROM comparisons WHERE dirname = $1 AND image_a = $2 AND image_b = $3
	`

	c, err := scanComparison(r.pool.QueryRow(ctx, query, dirname, images[0], images[1]))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Comparison{}, ErrComparisonNotFound
	}
	return c, err
}

func (r *ComparisonRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Comparison, error) {
	const query = `
		SELECT id, dirname, image_a, image_b, created_at, created_by
		FROM comparisons WHERE id = $1
	`

	c, err := scanComparison(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Comparison{}, ErrComparisonNotFound
	}
	return c, err
}

// RandomUnvoted picks a random comparison in dirname that userID has not
// voted on yet.
func (r *ComparisonRepository) RandomUnvoted(ctx context.Context, userID uuid.UUID, dirname string) (models.Comparison, error) {
	const query = `
		SELECT c.id, c.dirname, c.image_a, c.image_b, c.created_at, c.created_by
		FROM comparisons c
		WHERE c.dirname = $1
		  AND NOT EXISTS (
			SELECT 1 FROM votes v WHERE v.comparison_id = c.id AND v.user_id = $2
		  )
		ORDER BY random()
		LIMIT 1
	`

	c, err := scanComparison(r.pool.QueryRow(ctx, query, dirname, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Comparison{}, ErrComparisonNotFound
	}
	return c, err
}

func (r *ComparisonRepository) Dirnames(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT dirname FROM comparisons ORDER BY dirname`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dirnames []string
	for rows.Next() {
		var dirname string
		if err := rows.Scan(&dirname); err != nil {
			return nil, err
		}
		dirnames = append(dirnames, dirname)
	}
	return dirnames, rows.Err()
}

func scanComparison(row pgx.Row) (models.Comparison, error) {
	var c models.Comparison
	err := row.Scan(
		&c.ID,
		&c.Dirname,
		&c.Images[0],
		&c.Images[1],
		&c.CreatedAt,
		&c.CreatedBy,
	)
	return c, err
}
