package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"imagecompare/internal/models"
	"imagecompare/internal/repository"
)

type VoteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

const voteColumns = `id, comparison_id, user_id, value, image, created_at, client_ip`

func (r *VoteRepository) Insert(ctx context.Context, vote models.Vote) (models.Vote, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Vote{}, err
	}
	defer tx.Rollback()

	inserted, err := insertVote(ctx, tx, vote)
	if err != nil {
		return models.Vote{}, err
	}
	return inserted, tx.Commit()
}

func (r *VoteRepository) Upsert(ctx context.Context, vote models.Vote) (models.Vote, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Vote{}, false, err
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM votes
		WHERE comparison_id = ? AND user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, vote.ComparisonID, vote.UserID).Scan(&existingID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		inserted, err := insertVote(ctx, tx, vote)
		if err != nil {
			return models.Vote{}, false, err
		}
		return inserted, true, tx.Commit()
	case err != nil:
		return models.Vote{}, false, err
	}

	kind, image := models.EncodeVoteValue(vote.Value)
	if _, err := tx.ExecContext(ctx,
		`UPDATE votes SET value = ?, image = ?, client_ip = ?, created_at = ? WHERE id = ?`,
		string(kind), image, vote.ClientIP, now(), existingID,
	); err != nil {
		return models.Vote{}, false, err
	}

	updated, err := getVote(ctx, tx, existingID)
	if err != nil {
		return models.Vote{}, false, err
	}
	return updated, false, tx.Commit()
}

func insertVote(ctx context.Context, tx *sql.Tx, vote models.Vote) (models.Vote, error) {
	kind, image := models.EncodeVoteValue(vote.Value)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO votes (`+voteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		vote.ID,
		vote.ComparisonID,
		vote.UserID,
		string(kind),
		image,
		now(),
		vote.ClientIP,
	); err != nil {
		return models.Vote{}, err
	}
	return getVote(ctx, tx, vote.ID)
}

func getVote(ctx context.Context, q querier, id string) (models.Vote, error) {
	var (
		vote  models.Vote
		kind  string
		image sql.NullString
		ip    sql.NullString
	)
	if err := q.QueryRowContext(ctx, `SELECT `+voteColumns+` FROM votes WHERE id = ?`, id).Scan(
		&vote.ID,
		&vote.ComparisonID,
		&vote.UserID,
		&kind,
		&image,
		timestamp{&vote.CreatedAt},
		&ip,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Vote{}, repository.ErrVoteNotFound
		}
		return models.Vote{}, err
	}

	var imagePtr *string
	if image.Valid {
		imagePtr = &image.String
	}
	if ip.Valid {
		vote.ClientIP = &ip.String
	}

	value, err := models.DecodeVoteValue(models.VoteKind(kind), imagePtr)
	if err != nil {
		return models.Vote{}, err
	}
	vote.Value = value
	return vote, nil
}
