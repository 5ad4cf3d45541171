package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/casabook/casabook-api/internal/models"
)

// ExecutionRepository defines the interface for execution record data access
type ExecutionRepository interface {
	FindByRuleAndDate(ctx context.Context, ruleID uint, scheduledDate time.Time) (*models.RecurringExecution, error)
	// CreateIfAbsent inserts a record unless one already exists for its
	// (rule, scheduled date) key. Returns false without error when the key
	// is taken; this is the executor's mutual-exclusion gate.
	CreateIfAbsent(ctx context.Context, record *models.RecurringExecution) (bool, error)
	Update(ctx context.Context, record *models.RecurringExecution) error
	FindByRule(ctx context.Context, ruleID uint) ([]models.RecurringExecution, error)
}

type executionRepository struct {
	db *gorm.DB
}

// NewExecutionRepository creates a new execution record repository
func NewExecutionRepository(db *gorm.DB) ExecutionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) FindByRuleAndDate(ctx context.Context, ruleID uint, scheduledDate time.Time) (*models.RecurringExecution, error) {
	var record models.RecurringExecution
	err := r.db.WithContext(ctx).
		Where("rule_id = ? AND scheduled_date = ?", ruleID, scheduledDate).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *executionRepository) CreateIfAbsent(ctx context.Context, record *models.RecurringExecution) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "rule_id"}, {Name: "scheduled_date"}},
			DoNothing: true,
		}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *executionRepository) Update(ctx context.Context, record *models.RecurringExecution) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *executionRepository) FindByRule(ctx context.Context, ruleID uint) ([]models.RecurringExecution, error) {
	var records []models.RecurringExecution
	err := r.db.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Order("scheduled_date DESC").
		Find(&records).Error
	return records, err
}
