package models

import (
	"time"
)

// RecurringExecution records one attempt to materialize a rule occurrence.
// The unique (rule_id, scheduled_date) index is the idempotency gate: a rule
// can have at most one execution row per scheduled date, so a concurrent or
// repeated run of the same occurrence cannot double-post.
type RecurringExecution struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	RuleID               uint       `gorm:"not null;uniqueIndex:idx_executions_rule_date" json:"rule_id"`
	ScheduledDate        time.Time  `gorm:"type:date;not null;uniqueIndex:idx_executions_rule_date" json:"scheduled_date"`
	Status               string     `gorm:"default:pending;not null;index" json:"status"`
	CreatedTransactionID *uint      `gorm:"index" json:"created_transaction_id,omitempty"`
	ErrorMessage         *string    `gorm:"type:text" json:"error_message,omitempty"`
	RetryCount           int        `gorm:"not null;default:0" json:"retry_count"`
	ExecutedAt           *time.Time `json:"executed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Rule RecurringRule `gorm:"foreignKey:RuleID" json:"-"`
}

// TableName specifies the table name for RecurringExecution
func (RecurringExecution) TableName() string {
	return "recurring_executions"
}

// Execution status constants
const (
	ExecutionStatusPending   = "pending"
	ExecutionStatusSucceeded = "succeeded"
	ExecutionStatusFailed    = "failed"
)

// RecurringExecutionResponse is the JSON response format for execution records
type RecurringExecutionResponse struct {
	ID                   uint       `json:"id"`
	RuleID               uint       `json:"rule_id"`
	ScheduledDate        time.Time  `json:"scheduled_date"`
	Status               string     `json:"status"`
	CreatedTransactionID *uint      `json:"created_transaction_id,omitempty"`
	ErrorMessage         *string    `json:"error_message,omitempty"`
	RetryCount           int        `json:"retry_count"`
	ExecutedAt           *time.Time `json:"executed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// ToResponse converts RecurringExecution to RecurringExecutionResponse
func (e *RecurringExecution) ToResponse() RecurringExecutionResponse {
	return RecurringExecutionResponse{
		ID:                   e.ID,
		RuleID:               e.RuleID,
		ScheduledDate:        e.ScheduledDate,
		Status:               e.Status,
		CreatedTransactionID: e.CreatedTransactionID,
		ErrorMessage:         e.ErrorMessage,
		RetryCount:           e.RetryCount,
		ExecutedAt:           e.ExecutedAt,
		CreatedAt:            e.CreatedAt,
	}
}
