package service

import (
	"context"

	"github.com/Uzinex/Boost-v1.0/internal/model"
	"github.com/Uzinex/Boost-v1.0/internal/repository"
)

type ActivityService struct {
	repo *repository.Repository
}

func NewActivityService(repo *repository.Repository) *ActivityService {
	return &ActivityService{repo: repo}
}

// Record appends a balance-affecting event to the display ledger. Replaying
// an already-recorded event id is a no-op success, so clients may retry.
func (s *ActivityService) Record(ctx context.Context, userID string, event *model.ActivityEvent) error {
	return s.repo.InsertEvent(ctx, userID, event)
}

// History returns the user's last 100 events, newest first.
func (s *ActivityService) History(ctx context.Context, userID string) ([]model.ActivityEvent, error) {
	return s.repo.ListEvents(ctx, userID)
}
