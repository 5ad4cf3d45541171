package models

import (
	"time"
)

// RecurringRule is a template plus a schedule: it describes a transaction to
// materialize (subscription, bill, transfer) and when the next occurrence is
// due. The mutable scheduling fields are only advanced by the executor.
type RecurringRule struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	HouseholdID uint `gorm:"not null;index" json:"household_id"`

	// Transaction template
	Description       string `gorm:"not null" json:"description"`
	AmountCents       int64  `gorm:"not null" json:"amount_cents"`
	Currency          string `gorm:"not null;size:3" json:"currency"`
	AccountID         uint   `gorm:"not null;index" json:"account_id"`
	CategoryID        *uint  `gorm:"index" json:"category_id,omitempty"`
	TransferAccountID *uint  `gorm:"index" json:"transfer_account_id,omitempty"`

	// Schedule
	Frequency     string     `gorm:"not null" json:"frequency"`
	IntervalValue int        `gorm:"not null;default:1" json:"interval_value"`
	StartDate     time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate       *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	MaxExecutions *int       `json:"max_executions,omitempty"`

	// Execution bookkeeping
	NextExecutionDate time.Time  `gorm:"type:date;not null;index" json:"next_execution_date"`
	LastExecutionDate *time.Time `gorm:"type:date" json:"last_execution_date,omitempty"`
	ExecutionCount    int        `gorm:"not null;default:0" json:"execution_count"`
	Status            string     `gorm:"default:active;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Executions []RecurringExecution `gorm:"foreignKey:RuleID" json:"executions,omitempty"`
}

// TableName specifies the table name for RecurringRule
func (RecurringRule) TableName() string {
	return "recurring_rules"
}

// Rule status constants
const (
	RuleStatusActive    = "active"
	RuleStatusPaused    = "paused"
	RuleStatusCompleted = "completed"
	RuleStatusCancelled = "cancelled"
)

// Frequency constants
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
	FrequencyCustom  = "custom"
)

// MayPause returns true if the rule can be paused
func (r *RecurringRule) MayPause() bool {
	return r.Status == RuleStatusActive
}

// MayResume returns true if the rule can be resumed
func (r *RecurringRule) MayResume() bool {
	return r.Status == RuleStatusPaused
}

// MayCancel returns true if the rule can be cancelled
func (r *RecurringRule) MayCancel() bool {
	return r.Status == RuleStatusActive || r.Status == RuleStatusPaused
}

// MayComplete returns true if the rule can transition to completed
func (r *RecurringRule) MayComplete() bool {
	return r.Status == RuleStatusActive
}

// HasRemainingExecutions reports whether the execution-count cap still allows
// another run. Unset MaxExecutions means unbounded.
func (r *RecurringRule) HasRemainingExecutions() bool {
	return r.MaxExecutions == nil || r.ExecutionCount < *r.MaxExecutions
}

// IsDue reports whether the rule should execute as of the given date: active,
// next occurrence reached, and neither cap exhausted.
func (r *RecurringRule) IsDue(asOf time.Time) bool {
	if r.Status != RuleStatusActive {
		return false
	}
	if r.NextExecutionDate.After(asOf) {
		return false
	}
	if !r.HasRemainingExecutions() {
		return false
	}
	if r.EndDate != nil && r.NextExecutionDate.After(*r.EndDate) {
		return false
	}
	return true
}

// CompletionReached reports whether the rule has nothing left to execute:
// either the execution cap was hit or the next occurrence falls past EndDate.
func (r *RecurringRule) CompletionReached() bool {
	if !r.HasRemainingExecutions() {
		return true
	}
	if r.EndDate != nil && r.NextExecutionDate.After(*r.EndDate) {
		return true
	}
	return false
}

// RecurringRuleResponse is the JSON response format for recurring rules
type RecurringRuleResponse struct {
	ID                uint       `json:"id"`
	HouseholdID       uint       `json:"household_id"`
	Description       string     `json:"description"`
	AmountCents       int64      `json:"amount_cents"`
	Currency          string     `json:"currency"`
	AccountID         uint       `json:"account_id"`
	CategoryID        *uint      `json:"category_id,omitempty"`
	TransferAccountID *uint      `json:"transfer_account_id,omitempty"`
	Frequency         string     `json:"frequency"`
	IntervalValue     int        `json:"interval_value"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	MaxExecutions     *int       `json:"max_executions,omitempty"`
	NextExecutionDate time.Time  `json:"next_execution_date"`
	LastExecutionDate *time.Time `json:"last_execution_date,omitempty"`
	ExecutionCount    int        `json:"execution_count"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ToResponse converts RecurringRule to RecurringRuleResponse
func (r *RecurringRule) ToResponse() RecurringRuleResponse {
	return RecurringRuleResponse{
		ID:                r.ID,
		HouseholdID:       r.HouseholdID,
		Description:       r.Description,
		AmountCents:       r.AmountCents,
		Currency:          r.Currency,
		AccountID:         r.AccountID,
		CategoryID:        r.CategoryID,
		TransferAccountID: r.TransferAccountID,
		Frequency:         r.Frequency,
		IntervalValue:     r.IntervalValue,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		MaxExecutions:     r.MaxExecutions,
		NextExecutionDate: r.NextExecutionDate,
		LastExecutionDate: r.LastExecutionDate,
		ExecutionCount:    r.ExecutionCount,
		Status:            r.Status,
		CreatedAt:         r.CreatedAt,
	}
}
