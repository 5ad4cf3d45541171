package services

import (
	"context"

	"github.com/casabook/casabook-api/internal/models"
	"github.com/casabook/casabook-api/internal/repository"
)

// NotificationService creates in-app household notifications. Delivery
// beyond the notification table (email, push) is an external concern.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) FindByHousehold(ctx context.Context, householdID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByHousehold(ctx, householdID, query)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, householdID uint) error {
	return s.repo.MarkAllAsRead(ctx, householdID)
}

func (s *NotificationService) NotifyHousehold(ctx context.Context, householdID uint, title, message, notifType string) error {
	notification := &models.Notification{
		HouseholdID:      householdID,
		Title:            title,
		Message:          message,
		NotificationType: &notifType,
	}
	return s.repo.Create(ctx, notification)
}
