package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casabook/casabook-api/internal/jobs"
	"github.com/casabook/casabook-api/internal/models"
	"github.com/casabook/casabook-api/internal/repository"
	"github.com/casabook/casabook-api/internal/schedule"
	"github.com/casabook/casabook-api/internal/statemachine"
)

// DebtService applies payments against household debts and keeps the
// outstanding balance consistent with the recorded payment history.
type DebtService struct {
	repos           *repository.Repositories
	notificationSvc *NotificationService
	worker          *jobs.Worker
	clock           Clock
}

// NewDebtService creates a new debt service
func NewDebtService(repos *repository.Repositories, notificationSvc *NotificationService, worker *jobs.Worker, clock Clock) *DebtService {
	return &DebtService{
		repos:           repos,
		notificationSvc: notificationSvc,
		worker:          worker,
		clock:           clock,
	}
}

// CreateDebt validates terms and persists a new active debt with the full
// principal outstanding. Invalid terms are rejected before anything enters
// the engine.
func (s *DebtService) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if debt.Type == models.DebtTypeIslamic && debt.PrincipalCents == 0 {
		// For Murabahah the financed principal is the cost price.
		debt.PrincipalCents = debt.CostPriceCents
	}
	if debt.Type == models.DebtTypeIslamic && debt.PrincipalCents != debt.CostPriceCents {
		return fmt.Errorf("%w: islamic financing principal must equal cost price", ErrInvalidDebtTerms)
	}
	if debt.Currency == "" || debt.OriginationDate.IsZero() {
		return fmt.Errorf("%w: currency and origination date are required", ErrInvalidDebtTerms)
	}

	// Generating the schedule validates the terms in one place.
	if _, err := schedule.ForDebt(debt); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDebtTerms, err)
	}

	debt.Status = models.DebtStatusActive
	debt.OutstandingBalanceCents = debt.PrincipalCents
	return s.repos.Debt.Create(ctx, debt)
}

// GetDebt loads a debt by id
func (s *DebtService) GetDebt(ctx context.Context, id uint) (*models.Debt, error) {
	debt, err := s.repos.Debt.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return debt, err
}

// ListDebts returns a household's debts
func (s *DebtService) ListDebts(ctx context.Context, householdID uint, query *repository.ListQuery) ([]models.Debt, int64, error) {
	return s.repos.Debt.List(ctx, householdID, query)
}

// Schedule regenerates the installment schedule from the debt's terms.
// Schedules are derived data and never persisted.
func (s *DebtService) Schedule(ctx context.Context, id uint) ([]schedule.Installment, error) {
	debt, err := s.GetDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	installments, err := schedule.ForDebt(debt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDebtTerms, err)
	}
	return installments, nil
}

// ApplyPayment applies a payment to a debt inside one transaction: it records
// the payment, posts the ledger transaction and decrements the outstanding
// balance. A payment larger than the balance is rejected whole; the debt is
// paid off exactly when the balance reaches zero.
func (s *DebtService) ApplyPayment(ctx context.Context, debtID, accountID uint, amountCents int64, paymentDate time.Time) (*models.Debt, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidPayment
	}

	var updated *models.Debt
	paidOff := false

	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		debt, err := tx.Debt.FindByIDForUpdate(ctx, debtID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if debt.Status != models.DebtStatusActive {
			return fmt.Errorf("%w: cannot pay %s debt", ErrInvalidState, debt.Status)
		}
		if amountCents > debt.OutstandingBalanceCents {
			return ErrOverpaymentRejected
		}

		account, err := tx.Account.FindByID(ctx, accountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: account %d not found", ErrInvalidPayment, accountID)
		}
		if err != nil {
			return err
		}
		if account.Currency != debt.Currency {
			return fmt.Errorf("%w: account currency %s does not match debt currency %s",
				ErrInvalidPayment, account.Currency, debt.Currency)
		}

		key := uuid.NewString()
		transaction := &models.Transaction{
			HouseholdID:     debt.HouseholdID,
			AccountID:       account.ID,
			AmountCents:     amountCents,
			Currency:        debt.Currency,
			Description:     fmt.Sprintf("Debt payment #%d", debt.ID),
			TransactionDate: paymentDate,
			SourceType:      models.TransactionSourceDebtPayment,
			IdempotencyKey:  &key,
		}
		if err := tx.Transaction.Create(ctx, transaction); err != nil {
			return fmt.Errorf("failed to post payment transaction: %w", err)
		}

		payment := &models.DebtPayment{
			DebtID:        debt.ID,
			AmountCents:   amountCents,
			PaymentDate:   paymentDate,
			TransactionID: &transaction.ID,
		}
		if err := tx.Debt.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		debt.OutstandingBalanceCents -= amountCents
		if debt.OutstandingBalanceCents == 0 {
			if err := statemachine.NewDebtFSM(debt).PayOff(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			paidOff = true
		}

		if err := tx.Debt.Update(ctx, debt); err != nil {
			return fmt.Errorf("failed to update debt: %w", err)
		}

		updated = debt
		return nil
	})
	if err != nil {
		return nil, err
	}

	if paidOff {
		debt := updated
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			return s.notificationSvc.NotifyHousehold(ctx, debt.HouseholdID,
				"Debt paid off",
				fmt.Sprintf("Debt #%d has been fully repaid", debt.ID),
				models.NotificationTypeDebtPaidOff)
		})
	}

	return updated, nil
}

// Payments returns the recorded payment history of a debt
func (s *DebtService) Payments(ctx context.Context, debtID uint) ([]models.DebtPayment, error) {
	if _, err := s.GetDebt(ctx, debtID); err != nil {
		return nil, err
	}
	return s.repos.Debt.FindPayments(ctx, debtID)
}

// RecalculateBalance regenerates the schedule and folds all recorded
// payments into it to recompute a canonical outstanding balance. Used to
// recover from drift or to validate after bulk edits; the caller persists
// the result if it chooses to.
func (s *DebtService) RecalculateBalance(ctx context.Context, debtID uint) (int64, error) {
	debt, err := s.GetDebt(ctx, debtID)
	if err != nil {
		return 0, err
	}

	installments, err := schedule.ForDebt(debt)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDebtTerms, err)
	}

	payments, err := s.repos.Debt.FindPayments(ctx, debtID)
	if err != nil {
		return 0, err
	}

	return foldPayments(debt.PrincipalCents, installments, payments), nil
}

// foldPayments allocates the payment pool across installments in order,
// covering each installment's interest/margin before its principal. The
// canonical balance is the principal minus whatever principal the pool
// covered.
func foldPayments(principalCents int64, installments []schedule.Installment, payments []models.DebtPayment) int64 {
	var pool int64
	for _, p := range payments {
		pool += p.AmountCents
	}

	var principalCovered int64
	for _, inst := range installments {
		if pool <= 0 {
			break
		}
		if pool < inst.InterestOrMarginCents {
			// Partial interest coverage buys no principal.
			pool = 0
			break
		}
		pool -= inst.InterestOrMarginCents

		cover := inst.PrincipalCents
		if pool < cover {
			cover = pool
		}
		principalCovered += cover
		pool -= cover
	}

	if principalCovered > principalCents {
		principalCovered = principalCents
	}
	return principalCents - principalCovered
}

// MarkDefaulted transitions an active debt to defaulted and notifies the
// household.
func (s *DebtService) MarkDefaulted(ctx context.Context, id uint) (*models.Debt, error) {
	debt, err := s.GetDebt(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := statemachine.NewDebtFSM(debt).Default(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := s.repos.Debt.Update(ctx, debt); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyHousehold(ctx, debt.HouseholdID,
			"Debt defaulted",
			fmt.Sprintf("Debt #%d has been marked as defaulted", debt.ID),
			models.NotificationTypeDebtDefaulted)
	})

	return debt, nil
}

// Cancel transitions an active debt to cancelled
func (s *DebtService) Cancel(ctx context.Context, id uint) (*models.Debt, error) {
	debt, err := s.GetDebt(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := statemachine.NewDebtFSM(debt).Cancel(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := s.repos.Debt.Update(ctx, debt); err != nil {
		return nil, err
	}
	return debt, nil
}
