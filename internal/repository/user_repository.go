package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"imagecompare/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, id uuid.UUID) (models.User, error) {
	const query = `
		INSERT INTO users (id, created_at) VALUES ($1, NOW())
		RETURNING id, created_at
	`

	var user models.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.CreatedAt); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const query = `SELECT id, created_at FROM users WHERE id = $1`

	var user models.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Summary returns the user with the number of distinct comparisons they
// voted on.
func (r *UserRepository) Summary(ctx context.Context, id uuid.UUID) (models.UserSummary, error) {
	const query = `
		SELECT u.id, u.created_at,
		       (SELECT COUNT(DISTINCT v.comparison_id) FROM votes v WHERE v.user_id = u.id)
		FROM users u WHERE u.id = $1
	`

	var summary models.UserSummary
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&summary.ID,
		&summary.CreatedAt,
		&summary.Comparisons,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserSummary{}, ErrUserNotFound
		}
		return models.UserSummary{}, err
	}
	return summary, nil
}
