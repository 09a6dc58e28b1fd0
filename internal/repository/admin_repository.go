package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"imagecompare/internal/models"
)

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) Create(ctx context.Context, capabilityKey []byte) (models.Admin, error) {
	const query = `
		INSERT INTO admins (capability_key, created_at) VALUES ($1, NOW())
		RETURNING id, capability_key, created_at
	`

	var admin models.Admin
	if err := r.pool.QueryRow(ctx, query, capabilityKey).Scan(
		&admin.ID,
		&admin.CapabilityKey,
		&admin.CreatedAt,
	); err != nil {
		return models.Admin{}, err
	}
	return admin, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id int64) (models.Admin, error) {
	const query = `SELECT id, capability_key, created_at FROM admins WHERE id = $1`

	var admin models.Admin
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&admin.ID,
		&admin.CapabilityKey,
		&admin.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admin{}, ErrAdminNotFound
		}
		return models.Admin{}, err
	}
	return admin, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	const query = `SELECT id, capability_key, created_at FROM admins ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []models.Admin
	for rows.Next() {
		var admin models.Admin
		if err := rows.Scan(&admin.ID, &admin.CapabilityKey, &admin.CreatedAt); err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}
