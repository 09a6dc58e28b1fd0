package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"imagecompare/internal/models"
	"imagecompare/internal/repository"
)

type ComparisonService struct {
	comparisons ComparisonStore
	users       UserStore
	log         zerolog.Logger
}

func NewComparisonService(comparisons ComparisonStore, users UserStore, log zerolog.Logger) *ComparisonService {
	return &ComparisonService{
		comparisons: comparisons,
		users:       users,
		log:         log,
	}
}

// NextForUser returns a random comparison in dirname that userID has not
// voted on. ErrExhausted means every comparison there has a vote from the
// user; more may appear after the next generation run.
func (s *ComparisonService) NextForUser(ctx context.Context, userID uuid.UUID, dirname string) (models.Comparison, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Comparison{}, ErrUnknownUser
		}
		return models.Comparison{}, err
	}

	c, err := s.comparisons.RandomUnvoted(ctx, userID, dirname)
	if err != nil {
		if errors.Is(err, repository.ErrComparisonNotFound) {
			return models.Comparison{}, ErrExhausted
		}
		return models.Comparison{}, err
	}
	return c, nil
}

func (s *ComparisonService) Get(ctx context.Context, id uuid.UUID) (models.Comparison, error) {
	c, err := s.comparisons.GetByID(ctx, id)
	if errors.Is(err, repository.ErrComparisonNotFound) {
		return models.Comparison{}, ErrUnknownComparison
	}
	return c, err
}

// Dirnames lists every category that has at least one comparison.
func (s *ComparisonService) Dirnames(ctx context.Context) ([]string, error) {
	dirnames, err := s.comparisons.Dirnames(ctx)
	if err != nil {
		return nil, err
	}
	if len(dirnames) == 0 {
		return nil, ErrNoCategories
	}
	return dirnames, nil
}
