package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"imagecompare/internal/models"
	"imagecompare/internal/repository"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, id uuid.UUID) (models.User, error) {
	user := models.User{ID: id, CreatedAt: now()}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, created_at) VALUES (?, ?)`,
		user.ID, user.CreatedAt,
	); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, timestamp{&user.CreatedAt}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, repository.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Summary(ctx context.Context, id uuid.UUID) (models.UserSummary, error) {
	const query = `
		SELECT u.id, u.created_at,
		       (SELECT COUNT(DISTINCT v.comparison_id) FROM votes v WHERE v.user_id = u.id)
		FROM users u WHERE u.id = ?
	`

	var summary models.UserSummary
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&summary.ID,
		timestamp{&summary.CreatedAt},
		&summary.Comparisons,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserSummary{}, repository.ErrUserNotFound
		}
		return models.UserSummary{}, err
	}
	return summary, nil
}
