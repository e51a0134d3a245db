package service

import (
	"context"
	"errors"

	"github.com/Uzinex/Boost-v1.0/internal/model"
	"github.com/Uzinex/Boost-v1.0/internal/repository"
)

var ErrUserNotFound = errors.New("Профиль пользователя не найден")

type UserService struct {
	repo *repository.Repository
}

func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// SyncProfile upserts the profile pushed by the Mini App client.
func (s *UserService) SyncProfile(ctx context.Context, profile *model.UserProfile) error {
	return s.repo.UpsertProfile(ctx, profile)
}

func (s *UserService) GetProfile(ctx context.Context, id string) (*model.UserProfile, error) {
	profile, err := s.repo.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return profile, nil
}
