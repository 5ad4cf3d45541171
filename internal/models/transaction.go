package models

import (
	"time"
)

// Transaction is a posted ledger entry. Every materialized recurring
// occurrence and every debt payment lands here exactly once; the unique
// idempotency key makes re-posting after a partial failure safe.
type Transaction struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	HouseholdID       uint      `gorm:"not null;index" json:"household_id"`
	AccountID         uint      `gorm:"not null;index" json:"account_id"`
	CategoryID        *uint     `gorm:"index" json:"category_id,omitempty"`
	TransferAccountID *uint     `gorm:"index" json:"transfer_account_id,omitempty"`
	AmountCents       int64     `gorm:"not null" json:"amount_cents"`
	Currency          string    `gorm:"not null;size:3" json:"currency"`
	Description       string    `gorm:"not null" json:"description"`
	TransactionDate   time.Time `gorm:"type:date;not null;index" json:"transaction_date"`
	SourceType        string    `gorm:"default:manual;not null;index" json:"source_type"`
	IdempotencyKey    *string   `gorm:"uniqueIndex" json:"-"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// Transaction source constants
const (
	TransactionSourceManual      = "manual"
	TransactionSourceRecurring   = "recurring"
	TransactionSourceDebtPayment = "debt_payment"
)

// IsTransfer returns true when the transaction moves money between accounts
func (t *Transaction) IsTransfer() bool {
	return t.TransferAccountID != nil
}
