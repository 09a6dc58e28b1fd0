package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"imagecompare/internal/models"
)

type VoteRepository struct {
	pool *pgxpool.Pool
}

func NewVoteRepository(pool *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{pool: pool}
}

func (r *VoteRepository) Insert(ctx context.Context, vote models.Vote) (models.Vote, error) {
	const query = `
		INSERT INTO votes (id, comparison_id, user_id, value, image, created_at, client_ip)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6)
		RETURNING id, comparison_id, user_id, value, image, created_at, client_ip
	`

	kind, image := models.EncodeVoteValue(vote.Value)
	return scanVote(r.pool.QueryRow(ctx, query,
		vote.ID,
		vote.ComparisonID,
		vote.UserID,
		string(kind),
		image,
		vote.ClientIP,
	))
}

// Upsert replaces the user's latest vote on the comparison, or inserts vote
// when there is none. created reports which path was taken.
func (r *VoteRepository) Upsert(ctx context.Context, vote models.Vote) (models.Vote, bool, error) {
	const query = `
		UPDATE votes SET value = $3, image = $4, client_ip = $5, created_at = NOW()
		WHERE id = (
			SELECT id FROM votes
			WHERE comparison_id = $1 AND user_id = $2
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		RETURNING id, comparison_id, user_id, value, image, created_at, client_ip
	`

	kind, image := models.EncodeVoteValue(vote.Value)
	updated, err := scanVote(r.pool.QueryRow(ctx, query,
		vote.ComparisonID,
		vote.UserID,
		string(kind),
		image,
		vote.ClientIP,
	))
	if err == nil {
		return updated, false, nil
	}
	if !errors.Is(err, ErrVoteNotFound) {
		return models.Vote{}, false, err
	}

	inserted, err := r.Insert(ctx, vote)
	if err != nil {
		return models.Vote{}, false, err
	}
	return inserted, true, nil
}

func scanVote(row pgx.Row) (models.Vote, error) {
	var (
		vote  models.Vote
		kind  string
		image *string
	)
	if err := row.Scan(
		&vote.ID,
		&vote.ComparisonID,
		&vote.UserID,
		&kind,
		&image,
		&vote.CreatedAt,
		&vote.ClientIP,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Vote{}, ErrVoteNotFound
		}
		return models.Vote{}, err
	}

	value, err := models.DecodeVoteValue(models.VoteKind(kind), image)
	if err != nil {
		return models.Vote{}, err
	}
	vote.Value = value
	return vote, nil
}
