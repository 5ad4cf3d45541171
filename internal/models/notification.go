package models

import (
	"time"
)

// Notification represents an in-app household notification
type Notification struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	HouseholdID      uint       `gorm:"not null;index" json:"household_id"`
	Title            string     `gorm:"not null" json:"title"`
	Message          string     `gorm:"not null" json:"message"`
	NotificationType *string    `gorm:"index" json:"notification_type"`
	ReadAt           *time.Time `gorm:"index" json:"read_at"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification type constants
const (
	NotificationTypeDebtPaidOff             = "debt_paid_off"
	NotificationTypeDebtDefaulted           = "debt_defaulted"
	NotificationTypeRecurringCompleted      = "recurring_completed"
	NotificationTypeRecurringRetryExhausted = "recurring_retry_exhausted"
)

// IsRead returns true if notification has been read
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkAsRead marks the notification as read
func (n *Notification) MarkAsRead() {
	now := time.Now()
	n.ReadAt = &now
}
