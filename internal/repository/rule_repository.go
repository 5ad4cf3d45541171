package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/casabook/casabook-api/internal/models"
)

// RuleRepository defines the interface for recurring rule data access
type RuleRepository interface {
	FindByID(ctx context.Context, id uint) (*models.RecurringRule, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.RecurringRule, error)
	Create(ctx context.Context, rule *models.RecurringRule) error
	Update(ctx context.Context, rule *models.RecurringRule) error
	List(ctx context.Context, householdID uint, query *ListQuery) ([]models.RecurringRule, int64, error)
	FindDue(ctx context.Context, asOf time.Time) ([]models.RecurringRule, error)
}

type ruleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new recurring rule repository
func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) FindByID(ctx context.Context, id uint) (*models.RecurringRule, error) {
	var rule models.RecurringRule
	err := r.db.WithContext(ctx).First(&rule, id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindByIDForUpdate loads a rule under a row lock so execution of the same
// rule is serialized. Callers must be inside a transaction.
func (r *ruleRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.RecurringRule, error) {
	var rule models.RecurringRule
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rule, id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) Create(ctx context.Context, rule *models.RecurringRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *ruleRepository) Update(ctx context.Context, rule *models.RecurringRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *ruleRepository) List(ctx context.Context, householdID uint, query *ListQuery) ([]models.RecurringRule, int64, error) {
	var rules []models.RecurringRule
	var total int64

	q := r.db.WithContext(ctx).Model(&models.RecurringRule{}).Where("household_id = ?", householdID)

	if status := query.Filters["status"]; status != "" {
		q = q.Where("status = ?", status)
	}
	if frequency := query.Filters["frequency"]; frequency != "" {
		q = q.Where("frequency = ?", frequency)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("next_execution_date ASC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&rules).Error
	return rules, total, err
}

// FindDue returns active rules whose next occurrence has been reached and
// whose caps (max executions, end date) still allow a run.
func (r *ruleRepository) FindDue(ctx context.Context, asOf time.Time) ([]models.RecurringRule, error) {
	var rules []models.RecurringRule
	err := r.db.WithContext(ctx).
		Where("status = ?", models.RuleStatusActive).
		Where("next_execution_date <= ?", asOf).
		Where("max_executions IS NULL OR execution_count < max_executions").
		Where("end_date IS NULL OR next_execution_date <= end_date").
		Order("next_execution_date ASC").
		Find(&rules).Error
	return rules, err
}
