package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	db *gorm.DB

	Debt         DebtRepository
	Rule         RuleRepository
	Execution    ExecutionRepository
	Transaction  TransactionRepository
	Account      AccountRepository
	Notification NotificationRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Debt:         NewDebtRepository(db),
		Rule:         NewRuleRepository(db),
		Execution:    NewExecutionRepository(db),
		Transaction:  NewTransactionRepository(db),
		Account:      NewAccountRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

// WithinTransaction runs fn against a repository set bound to a single
// database transaction. The engine's atomic boundaries (payment application,
// recurring execution) are expressed through this: either everything fn
// writes commits, or nothing does.
func (r *Repositories) WithinTransaction(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.db == nil {
		// Repository sets assembled without a database (tests with mocked
		// repositories) run fn against themselves.
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

func (q *ListQuery) offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.limit()
}

func (q *ListQuery) limit() int {
	if q.PerPage < 1 {
		return 20
	}
	return q.PerPage
}
