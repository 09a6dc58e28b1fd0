package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"imagecompare/internal/models"
	"imagecompare/internal/repository"
)

type UserService struct {
	users UserStore
	log   zerolog.Logger
}

func NewUserService(users UserStore, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

func (s *UserService) Create(ctx context.Context) (models.UserSummary, error) {
	user, err := s.users.Create(ctx, uuid.New())
	if err != nil {
		return models.UserSummary{}, err
	}
	return models.UserSummary{User: user}, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (models.UserSummary, error) {
	summary, err := s.users.Summary(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return models.UserSummary{}, ErrUnknownUser
	}
	return summary, err
}
