package models

import (
	"time"
)

// Debt represents a household debt under one of the supported financing
// models. Amounts are integer cents; rates are basis points.
type Debt struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	HouseholdID     uint      `gorm:"not null;index" json:"household_id"`
	Type            string    `gorm:"not null;index" json:"type"`
	Currency        string    `gorm:"not null;size:3" json:"currency"`
	PrincipalCents  int64     `gorm:"not null" json:"principal_cents"`
	OriginationDate time.Time `gorm:"type:date;not null" json:"origination_date"`

	// Type-specific terms. Conventional loans use InterestRateAnnualBps,
	// personal loans use FlatRateBps, Islamic financing uses MarginRateBps
	// plus CostPriceCents (margin fixed at origination, never compounded).
	InterestRateAnnualBps int64 `gorm:"default:0" json:"interest_rate_annual_bps"`
	FlatRateBps           int64 `gorm:"default:0" json:"flat_rate_bps"`
	MarginRateBps         int64 `gorm:"default:0" json:"margin_rate_bps"`
	CostPriceCents        int64 `gorm:"default:0" json:"cost_price_cents"`

	TermMonths        int `gorm:"not null" json:"term_months"`
	PaymentDayOfMonth int `gorm:"not null" json:"payment_day_of_month"`

	OutstandingBalanceCents int64  `gorm:"not null" json:"outstanding_balance_cents"`
	Status                  string `gorm:"default:active;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Payments []DebtPayment `gorm:"foreignKey:DebtID" json:"payments,omitempty"`
}

// TableName specifies the table name for Debt
func (Debt) TableName() string {
	return "debts"
}

// Debt type constants
const (
	DebtTypeConventional = "conventional_loan"
	DebtTypePersonal     = "personal_loan"
	DebtTypeIslamic      = "islamic_financing"
)

// Debt status constants
const (
	DebtStatusActive    = "active"
	DebtStatusPaidOff   = "paid_off"
	DebtStatusDefaulted = "defaulted"
	DebtStatusCancelled = "cancelled"
)

// FinancedAmountCents returns the amount the schedule is computed over:
// the cost price for Islamic financing, the principal otherwise.
func (d *Debt) FinancedAmountCents() int64 {
	if d.Type == DebtTypeIslamic {
		return d.CostPriceCents
	}
	return d.PrincipalCents
}

// MayMarkPaidOff returns true if the debt can transition to paid_off
func (d *Debt) MayMarkPaidOff() bool {
	return d.Status == DebtStatusActive && d.OutstandingBalanceCents == 0
}

// MayDefault returns true if the debt can transition to defaulted
func (d *Debt) MayDefault() bool {
	return d.Status == DebtStatusActive
}

// MayCancel returns true if the debt can be cancelled
func (d *Debt) MayCancel() bool {
	return d.Status == DebtStatusActive
}

// IsTerminal returns true once no further balance mutation is allowed
func (d *Debt) IsTerminal() bool {
	return d.Status == DebtStatusPaidOff || d.Status == DebtStatusCancelled
}

// DebtResponse is the JSON response format for debts
type DebtResponse struct {
	ID                      uint      `json:"id"`
	HouseholdID             uint      `json:"household_id"`
	Type                    string    `json:"type"`
	Currency                string    `json:"currency"`
	PrincipalCents          int64     `json:"principal_cents"`
	OutstandingBalanceCents int64     `json:"outstanding_balance_cents"`
	TermMonths              int       `json:"term_months"`
	PaymentDayOfMonth       int       `json:"payment_day_of_month"`
	OriginationDate         time.Time `json:"origination_date"`
	Status                  string    `json:"status"`
	InterestRateAnnualBps   int64     `json:"interest_rate_annual_bps,omitempty"`
	FlatRateBps             int64     `json:"flat_rate_bps,omitempty"`
	MarginRateBps           int64     `json:"margin_rate_bps,omitempty"`
	CostPriceCents          int64     `json:"cost_price_cents,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
}

// ToResponse converts Debt to DebtResponse
func (d *Debt) ToResponse() DebtResponse {
	return DebtResponse{
		ID:                      d.ID,
		HouseholdID:             d.HouseholdID,
		Type:                    d.Type,
		Currency:                d.Currency,
		PrincipalCents:          d.PrincipalCents,
		OutstandingBalanceCents: d.OutstandingBalanceCents,
		TermMonths:              d.TermMonths,
		PaymentDayOfMonth:       d.PaymentDayOfMonth,
		OriginationDate:         d.OriginationDate,
		Status:                  d.Status,
		InterestRateAnnualBps:   d.InterestRateAnnualBps,
		FlatRateBps:             d.FlatRateBps,
		MarginRateBps:           d.MarginRateBps,
		CostPriceCents:          d.CostPriceCents,
		CreatedAt:               d.CreatedAt,
	}
}

// DebtPayment records a payment applied against a debt's outstanding balance.
type DebtPayment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	DebtID        uint      `gorm:"not null;index" json:"debt_id"`
	AmountCents   int64     `gorm:"not null" json:"amount_cents"`
	PaymentDate   time.Time `gorm:"type:date;not null;index" json:"payment_date"`
	TransactionID *uint     `gorm:"index" json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	Debt Debt `gorm:"foreignKey:DebtID" json:"-"`
}

// TableName specifies the table name for DebtPayment
func (DebtPayment) TableName() string {
	return "debt_payments"
}
