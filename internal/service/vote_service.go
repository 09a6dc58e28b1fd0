package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"imagecompare/internal/ids"
	"imagecompare/internal/models"
	"imagecompare/internal/repository"
)

// VotePolicy decides what a repeated vote on the same comparison does.
type VotePolicy string

const (
	// VotePolicyAppend records every submission as a new vote.
	VotePolicyAppend VotePolicy = "append"
	// VotePolicyUpsert keeps one vote per user and comparison, replacing it.
	VotePolicyUpsert VotePolicy = "upsert"
)

func ParseVotePolicy(s string) (VotePolicy, error) {
	switch p := VotePolicy(s); p {
	case VotePolicyAppend, VotePolicyUpsert:
		return p, nil
	case "":
		return VotePolicyAppend, nil
	default:
		return "", fmt.Errorf("unknown vote policy %q", s)
	}
}

// ValidateVote checks value against this comparison only. An image belonging
// to a sibling comparison in the same category is rejected.
func ValidateVote(c models.Comparison, value models.VoteValue) error {
	switch v := value.(type) {
	case models.Equal, models.Different:
		return nil
	case models.Preferred:
		if c.HasImage(v.Image) {
			return nil
		}
		return ErrImageNotInComparison
	default:
		return models.ErrInvalidVoteValue
	}
}

type VoteService struct {
	votes       VoteStore
	comparisons ComparisonStore
	users       UserStore
	policy      VotePolicy
	log         zerolog.Logger
}

func NewVoteService(votes VoteStore, comparisons ComparisonStore, users UserStore, policy VotePolicy, log zerolog.Logger) *VoteService {
	return &VoteService{
		votes:       votes,
		comparisons: comparisons,
		users:       users,
		policy:      policy,
		log:         log,
	}
}

type SubmitVoteInput struct {
	ComparisonID uuid.UUID
	UserID       uuid.UUID
	Value        models.VoteValue
	ClientIP     string
}

type SubmitVoteResult struct {
	Vote    models.Vote
	Created bool
}

func (s *VoteService) Submit(ctx context.Context, input SubmitVoteInput) (SubmitVoteResult, error) {
	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return SubmitVoteResult{}, ErrUnknownUser
		}
		return SubmitVoteResult{}, err
	}

	c, err := s.comparisons.GetByID(ctx, input.ComparisonID)
	if err != nil {
		if errors.Is(err, repository.ErrComparisonNotFound) {
			return SubmitVoteResult{}, ErrUnknownComparison
		}
		return SubmitVoteResult{}, err
	}

	if err := ValidateVote(c, input.Value); err != nil {
		return SubmitVoteResult{}, err
	}

	vote := models.Vote{
		ID:           ids.New(),
		ComparisonID: c.ID,
		UserID:       input.UserID,
		Value:        input.Value,
	}
	if input.ClientIP != "" {
		ip := input.ClientIP
		vote.ClientIP = &ip
	}

	if s.policy == VotePolicyUpsert {
		stored, created, err := s.votes.Upsert(ctx, vote)
		if err != nil {
			return SubmitVoteResult{}, err
		}
		return SubmitVoteResult{Vote: stored, Created: created}, nil
	}

	stored, err := s.votes.Insert(ctx, vote)
	if err != nil {
		return SubmitVoteResult{}, err
	}
	return SubmitVoteResult{Vote: stored, Created: true}, nil
}
