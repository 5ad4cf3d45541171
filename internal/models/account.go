package models

import (
	"time"
)

// Account is a household money account transactions are posted against.
// Account management itself lives outside the engine; the engine only needs
// existence and currency checks when posting.
type Account struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	HouseholdID uint      `gorm:"not null;index" json:"household_id"`
	Name        string    `gorm:"not null" json:"name"`
	Currency    string    `gorm:"not null;size:3" json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}

// Category labels transactions for budgeting purposes.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	HouseholdID uint      `gorm:"not null;index" json:"household_id"`
	Name        string    `gorm:"not null" json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}
