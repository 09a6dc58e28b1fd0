package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"imagecompare/internal/models"
	"imagecompare/internal/repository"
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, capabilityKey []byte) (models.Admin, error) {
	admin := models.Admin{CapabilityKey: capabilityKey, CreatedAt: now()}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (capability_key, created_at) VALUES (?, ?)`,
		admin.CapabilityKey, admin.CreatedAt,
	)
	if err != nil {
		return models.Admin{}, err
	}
	if admin.ID, err = res.LastInsertId(); err != nil {
		return models.Admin{}, err
	}
	return admin, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id int64) (models.Admin, error) {
	var admin models.Admin
	if err := r.db.QueryRowContext(ctx,
		`SELECT id, capability_key, created_at FROM admins WHERE id = ?`, id,
	).Scan(&admin.ID, &admin.CapabilityKey, timestamp{&admin.CreatedAt}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Admin{}, repository.ErrAdminNotFound
		}
		return models.Admin{}, err
	}
	return admin, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, capability_key, created_at FROM admins ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []models.Admin
	for rows.Next() {
		var admin models.Admin
		if err := rows.Scan(&admin.ID, &admin.CapabilityKey, timestamp{&admin.CreatedAt}); err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}
