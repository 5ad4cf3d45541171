package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/casabook/casabook-api/internal/models"
)

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindByHousehold(ctx context.Context, householdID uint, query *ListQuery) ([]models.Notification, int64, error)
	MarkAllAsRead(ctx context.Context, householdID uint) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) FindByHousehold(ctx context.Context, householdID uint, query *ListQuery) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("household_id = ?", householdID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&notifications).Error
	return notifications, total, err
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, householdID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("household_id = ? AND read_at IS NULL", householdID).
		Update("read_at", gorm.Expr("NOW()")).Error
}
