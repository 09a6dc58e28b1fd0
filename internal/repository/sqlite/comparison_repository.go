package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"imagecompare/internal/models"
	"imagecompare/internal/repository"
)

type ComparisonRepository struct {
	db *sql.DB
}

func NewComparisonRepository(db *sql.DB) *ComparisonRepository {
	return &ComparisonRepository{db: db}
}

const comparisonColumns = `id, dirname, image_a, image_b, created_at, created_by`

func (r *ComparisonRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM comparisons WHERE id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ComparisonRepository) InsertIfAbsent(ctx context.Context, c models.Comparison) (models.Comparison, bool, error) {
	const query = `
		INSERT INTO comparisons (id, dirname, image_a, image_b, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Dirname,
		c.Images[0],
		c.Images[1],
		now(),
		c.CreatedBy,
	)
	if err != nil {
		return models.Comparison{}, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Comparison{}, false, err
	}
	if affected == 1 {
		inserted, err := r.GetByID(ctx, c.ID)
		return inserted, err == nil, err
	}

	existing, err := r.FindByContent(ctx, c.Dirname, c.Images)
	if errors.Is(err, repository.ErrComparisonNotFound) {
		return models.Comparison{}, false, repository.ErrIDTaken
	}
	if err != nil {
		return models.Comparison{}, false, err
	}
	return existing, false, nil
}

func (r *ComparisonRepository) FindByContent(ctx context.Context, dirname string, images [2]string) (models.Comparison, error) {
	query := `SELECT ` + comparisonColumns + ` FROM comparisons WHERE dirname = ? AND image_a = ? AND image_b = ?`
	return scanComparison(r.db.QueryRowContext(ctx, query, dirname, images[0], images[1]))
}

func (r *ComparisonRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Comparison, error) {
	query := `SELECT ` + comparisonColumns + ` FROM comparisons WHERE id = ?`
	return scanComparison(r.db.QueryRowContext(ctx, query, id))
}

func (r *ComparisonRepository) RandomUnvoted(ctx context.Context, userID uuid.UUID, dirname string) (models.Comparison, error) {
	const query = `
		SELECT c.id, c.dirname, c.image_a, c.image_b, c.created_at, c.created_by
		FROM comparisons c
		WHERE c.dirname = ?
		  AND NOT EXISTS (
			SELECT 1 FROM votes v WHERE v.comparison_id = c.id AND v.user_id = ?
		  )
		ORDER BY RANDOM()
		LIMIT 1
	`
	return scanComparison(r.db.QueryRowContext(ctx, query, dirname, userID))
}

func (r *ComparisonRepository) Dirnames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT dirname FROM comparisons ORDER BY dirname`)
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

func scanComparison(row *sql.Row) (models.Comparison, error) {
	var c models.Comparison
	if err := row.Scan(
		&c.ID,
		&c.Dirname,
		&c.Images[0],
		&c.Images[1],
		timestamp{&c.CreatedAt},
		&c.CreatedBy,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Comparison{}, repository.ErrComparisonNotFound
		}
		return models.Comparison{}, err
	}
	return c, nil
}
