package service

import (
	"context"

	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"
)

type NotificationService interface {
	ListForUser(ctx context.Context, userID string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

type notificationServiceImpl struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
	}
}

func (s *notificationServiceImpl) ListForUser(ctx context.Context, userID string) ([]*model.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID)
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.notificationRepo.MarkRead(ctx, userID, notificationID)
}
