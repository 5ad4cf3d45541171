package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/casabook/casabook-api/internal/models"
)

// DebtRepository defines the interface for debt data access
type DebtRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Debt, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Debt, error)
	Create(ctx context.Context, debt *models.Debt) error
	Update(ctx context.Context, debt *models.Debt) error
	List(ctx context.Context, householdID uint, query *ListQuery) ([]models.Debt, int64, error)
	CreatePayment(ctx context.Context, payment *models.DebtPayment) error
	FindPayments(ctx context.Context, debtID uint) ([]models.DebtPayment, error)
	SumPayments(ctx context.Context, debtID uint) (int64, error)
}

type debtRepository struct {
	db *gorm.DB
}

// NewDebtRepository creates a new debt repository
func NewDebtRepository(db *gorm.DB) DebtRepository {
	return &debtRepository{db: db}
}

func (r *debtRepository) FindByID(ctx context.Context, id uint) (*models.Debt, error) {
	var debt models.Debt
	err := r.db.WithContext(ctx).First(&debt, id).Error
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

// FindByIDForUpdate loads a debt under a row lock. Callers must be inside a
// transaction; the lock serializes concurrent payment application.
func (r *debtRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Debt, error) {
	var debt models.Debt
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&debt, id).Error
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

func (r *debtRepository) Create(ctx context.Context, debt *models.Debt) error {
	return r.db.WithContext(ctx).Create(debt).Error
}

func (r *debtRepository) Update(ctx context.Context, debt *models.Debt) error {
	return r.db.WithContext(ctx).Save(debt).Error
}

func (r *debtRepository) List(ctx context.Context, householdID uint, query *ListQuery) ([]models.Debt, int64, error) {
	var debts []models.Debt
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Debt{}).Where("household_id = ?", householdID)

	if status := query.Filters["status"]; status != "" {
		q = q.Where("status = ?", status)
	}
	if debtType := query.Filters["type"]; debtType != "" {
		q = q.Where("type = ?", debtType)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&debts).Error
	return debts, total, err
}

func (r *debtRepository) CreatePayment(ctx context.Context, payment *models.DebtPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *debtRepository) FindPayments(ctx context.Context, debtID uint) ([]models.DebtPayment, error) {
	var payments []models.DebtPayment
	err := r.db.WithContext(ctx).
		Where("debt_id = ?", debtID).
		Order("payment_date ASC, created_at ASC").
		Find(&payments).Error
	return payments, err
}

// SumPayments totals all recorded payments for a debt.
func (r *debtRepository) SumPayments(ctx context.Context, debtID uint) (int64, error) {
	var result struct {
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.DebtPayment{}).
		Select("COALESCE(SUM(amount_cents), 0) as total").
		Where("debt_id = ?", debtID).
		Scan(&result).Error
	return result.Total, err
}
