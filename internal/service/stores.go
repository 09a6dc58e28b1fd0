package service

import (
	"context"

	"github.com/google/uuid"

	"imagecompare/internal/models"
)

// ComparisonStore is satisfied by both the Postgres and SQLite repositories.
type ComparisonStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	InsertIfAbsent(ctx context.Context, c models.Comparison) (models.Comparison, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Comparison, error)
	RandomUnvoted(ctx context.Context, userID uuid.UUID, dirname string) (models.Comparison, error)
	Dirnames(ctx context.Context) ([]string, error)
}

type UserStore interface {
	Create(ctx context.Context, id uuid.UUID) (models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
	Summary(ctx context.Context, id uuid.UUID) (models.UserSummary, error)
}

type VoteStore interface {
	Insert(ctx context.Context, vote models.Vote) (models.Vote, error)
	Upsert(ctx context.Context, vote models.Vote) (models.Vote, bool, error)
}

type AdminStore interface {
	Create(ctx context.Context, capabilityKey []byte) (models.Admin, error)
	GetByID(ctx context.Context, id int64) (models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
}
