package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/casabook/casabook-api/internal/jobs"
	"github.com/casabook/casabook-api/internal/models"
	"github.com/casabook/casabook-api/internal/repository"
	"github.com/casabook/casabook-api/internal/schedule"
)

// Mock DebtRepository (embedding to avoid implementing all methods)
type mockDebtRepo struct {
	repository.DebtRepository
	mockFindByID          func(ctx context.Context, id uint) (*models.Debt, error)
	mockFindByIDForUpdate func(ctx context.Context, id uint) (*models.Debt, error)
	mockCreate            func(ctx context.Context, debt *models.Debt) error
	mockUpdate            func(ctx context.Context, debt *models.Debt) error
	mockCreatePayment     func(ctx context.Context, payment *models.DebtPayment) error
	mockFindPayments      func(ctx context.Context, debtID uint) ([]models.DebtPayment, error)
}

func (m *mockDebtRepo) FindByID(ctx context.Context, id uint) (*models.Debt, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockDebtRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Debt, error) {
	return m.mockFindByIDForUpdate(ctx, id)
}

func (m *mockDebtRepo) Create(ctx context.Context, debt *models.Debt) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, debt)
	}
	return nil
}

func (m *mockDebtRepo) Update(ctx context.Context, debt *models.Debt) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, debt)
	}
	return nil
}

func (m *mockDebtRepo) CreatePayment(ctx context.Context, payment *models.DebtPayment) error {
	if m.mockCreatePayment != nil {
		return m.mockCreatePayment(ctx, payment)
	}
	return nil
}

func (m *mockDebtRepo) FindPayments(ctx context.Context, debtID uint) ([]models.DebtPayment, error) {
	return m.mockFindPayments(ctx, debtID)
}

// Mock AccountRepository
type mockAccountRepo struct {
	repository.AccountRepository
	mockFindByID       func(ctx context.Context, id uint) (*models.Account, error)
	mockCategoryExists func(ctx context.Context, id uint) (bool, error)
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id uint) (*models.Account, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return &models.Account{ID: id, HouseholdID: 1, Currency: "EUR"}, nil
}

func (m *mockAccountRepo) CategoryExists(ctx context.Context, id uint) (bool, error) {
	if m.mockCategoryExists != nil {
		return m.mockCategoryExists(ctx, id)
	}
	return true, nil
}

// Mock TransactionRepository
type mockTransactionRepo struct {
	repository.TransactionRepository
	mockCreate func(ctx context.Context, transaction *models.Transaction) error
}

func (m *mockTransactionRepo) Create(ctx context.Context, transaction *models.Transaction) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, transaction)
	}
	return nil
}

// Mock NotificationRepository
type mockNotificationRepo struct {
	repository.NotificationRepository
	mockCreate func(ctx context.Context, notification *models.Notification) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, notification)
	}
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newDebtTestService(debtRepo *mockDebtRepo, accountRepo *mockAccountRepo, txRepo *mockTransactionRepo) (*DebtService, *jobs.Worker) {
	repos := &repository.Repositories{
		Debt:         debtRepo,
		Account:      accountRepo,
		Transaction:  txRepo,
		Notification: &mockNotificationRepo{},
	}
	worker := jobs.NewWorker(1)
	notificationSvc := NewNotificationService(repos.Notification)
	clock := fixedClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	return NewDebtService(repos, notificationSvc, worker, clock), worker
}

func activeDebt() *models.Debt {
	return &models.Debt{
		ID:                      1,
		HouseholdID:             1,
		Type:                    models.DebtTypeConventional,
		Currency:                "EUR",
		PrincipalCents:          12_000_000,
		OriginationDate:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		InterestRateAnnualBps:   1200,
		TermMonths:              12,
		PaymentDayOfMonth:       15,
		OutstandingBalanceCents: 12_000_000,
		Status:                  models.DebtStatusActive,
	}
}

func TestDebtService_CreateDebt_InvalidTerms(t *testing.T) {
	service, worker := newDebtTestService(&mockDebtRepo{}, &mockAccountRepo{}, &mockTransactionRepo{})
	defer worker.Shutdown()

	debt := activeDebt()
	debt.TermMonths = 0

	err := service.CreateDebt(context.Background(), debt)
	assert.ErrorIs(t, err, ErrInvalidDebtTerms)
}

func TestDebtService_CreateDebt_SetsFullBalanceOutstanding(t *testing.T) {
	var created *models.Debt
	debtRepo := &mockDebtRepo{
		mockCreate: func(ctx context.Context, debt *models.Debt) error {
			created = debt
			return nil
		},
	}
	service, worker := newDebtTestService(debtRepo, &mockAccountRepo{}, &mockTransactionRepo{})
	defer worker.Shutdown()

	debt := activeDebt()
	debt.Status = ""
	debt.OutstandingBalanceCents = 0

	err := service.CreateDebt(context.Background(), debt)
	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, models.DebtStatusActive, created.Status)
	assert.Equal(t, int64(12_000_000), created.OutstandingBalanceCents)
}

func TestDebtService_CreateDebt_IslamicPrincipalDefaultsToCostPrice(t *testing.T) {
	var created *models.Debt
	debtRepo := &mockDebtRepo{
		mockCreate: func(ctx context.Context, debt *models.Debt) error {
			created = debt
			return nil
		},
	}
	service, worker := newDebtTestService(debtRepo, &mockAccountRepo{}, &mockTransactionRepo{})
	defer worker.Shutdown()

	debt := &models.Debt{
		Type:              models.DebtTypeIslamic,
		Currency:          "EUR",
		CostPriceCents:    50_000_000,
		MarginRateBps:     800,
		TermMonths:        24,
		PaymentDayOfMonth: 1,
		OriginationDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	err := service.CreateDebt(context.Background(), debt)
	assert.NoError(t, err)
	assert.Equal(t, int64(50_000_000), created.PrincipalCents)

	mismatched := &models.Debt{
		Type:              models.DebtTypeIslamic,
		Currency:          "EUR",
		PrincipalCents:    40_000_000,
		CostPriceCents:    50_000_000,
		MarginRateBps:     800,
		TermMonths:        24,
		PaymentDayOfMonth: 1,
		OriginationDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	err = service.CreateDebt(context.Background(), mismatched)
	assert.ErrorIs(t, err, ErrInvalidDebtTerms)
}

func TestDebtService_ApplyPayment_OverpaymentRejectedWhole(t *testing.T) {
	debt := activeDebt()
	debt.OutstandingBalanceCents = 300_000

	debtRepo := &mockDebtRepo{
		mockFindByIDForUpdate: func(ctx context.Context, id uint) (*models.Debt, error) {
			return debt, nil
		},
	}
	txRepo := &mockTransactionRepo{
		mockCreate: func(ctx context.Context, transaction *models.Transaction) error {
			t.Fatal("no transaction may be posted for a rejected payment")
			return nil
		},
	}
	service, worker := newDebtTestService(debtRepo, &mockAccountRepo{}, txRepo)
	defer worker.Shutdown()

	_, err := service.ApplyPayment(context.Background(), 1, 10, 500_000, time.Now())
	assert.ErrorIs(t, err, ErrOverpaymentRejected)
	assert.Equal(t, int64(300_000), debt.OutstandingBalanceCents)
}

func TestDebtService_ApplyPayment_PartialReducesBalance(t *testing.T) {
	debt := activeDebt()
	var postedTx *models.Transaction
	var recordedPayment *models.DebtPayment

	debtRepo := &mockDebtRepo{
		mockFindByIDForUpdate: func(ctx context.Context, id uint) (*models.Debt, error) {
			return debt, nil
		},
		mockCreatePayment: func(ctx context.Context, payment *models.DebtPayment) error {
			recordedPayment = payment
			return nil
		},
	}
	txRepo := &mockTransactionRepo{
		mockCreate: func(ctx context.Context, transaction *models.Transaction) error {
			postedTx = transaction
			return nil
		},
	}
	service, worker := newDebtTestService(debtRepo, &mockAccountRepo{}, txRepo)
	defer worker.Shutdown()

	updated, err := service.ApplyPayment(context.Background(), 1, 10, 1_066_185, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, int64(12_000_000-1_066_185), updated.OutstandingBalanceCents)
	assert.Equal(t, models.DebtStatusActive, updated.Status)

	assert.NotNil(t, postedTx)
	assert.Equal(t, models.TransactionSourceDebtPayment, postedTx.SourceType)
	assert.Equal(t, int64(1_066_185), postedTx.AmountCents)
	assert.NotNil(t, postedTx.IdempotencyKey)

	assert.NotNil(t, recordedPayment)
	assert.Equal(t, int64(1_066_185), recordedPayment.AmountCents)
}

func TestDebtService_ApplyPayment_ExactPayoffTransitionsDebt(t *testing.T) {
	debt := activeDebt()
	debt.OutstandingBalanceCents = 250_000

	debtRepo := &mockDebtRepo{
		mockFindByIDForUpdate: func(ctx context.Context, id uint) (*models.Debt, error) {
			return debt, nil
		},
	}
	service, worker := newDebtTestService(debtRepo, &mockAccountRepo{}, &mockTransactionRepo{})
	defer worker.Shutdown()

	updated, err := service.ApplyPayment(context.Background(), 1, 10, 250_000, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), updated.OutstandingBalanceCents)
	assert.Equal(t, models.DebtStatusPaidOff, updated.Status)
}

func TestDebtService_ApplyPayment_TerminalDebtRejected(t *testing.T) {
	debt := activeDebt()
	debt.Status = models.DebtStatusPaidOff
	debt.OutstandingBalanceCents = 0

	debtRepo := &mockDebtRepo{
		mockFindByIDForUpdate: func(ctx context.Context, id uint) (*models.Debt, error) {
			return debt, nil
		},
	}
	service, worker := newDebtTestService(debtRepo, &mockAccountRepo{}, &mockTransactionRepo{})
	defer worker.Shutdown()

	_, err := service.ApplyPayment(context.Background(), 1, 10, 100, time.Now())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDebtService_ApplyPayment_CurrencyMismatch(t *testing.T) {
	debt := activeDebt()
	debtRepo := &mockDebtRepo{
		mockFindByIDForUpdate: func(ctx context.Context, id uint) (*models.Debt, error) {
			return debt, nil
		},
	}
	accountRepo := &mockAccountRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Account, error) {
			return &models.Account{ID: id, Currency: "USD"}, nil
		},
	}
	service, worker := newDebtTestService(debtRepo, accountRepo, &mockTransactionRepo{})
	defer worker.Shutdown()

	_, err := service.ApplyPayment(context.Background(), 1, 10, 100, time.Now())
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestDebtService_ApplyPayment_NonPositiveAmount(t *testing.T) {
	service, worker := newDebtTestService(&mockDebtRepo{}, &mockAccountRepo{}, &mockTransactionRepo{})
	defer worker.Shutdown()

	_, err := service.ApplyPayment(context.Background(), 1, 10, 0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidPayment)

	_, err = service.ApplyPayment(context.Background(), 1, 10, -500, time.Now())
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestDebtService_ApplyPayment_MissingDebt(t *testing.T) {
	debtRepo := &mockDebtRepo{
		mockFindByIDForUpdate: func(ctx context.Context, id uint) (*models.Debt, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	service, worker := newDebtTestService(debtRepo, &mockAccountRepo{}, &mockTransactionRepo{})
	defer worker.Shutdown()

	_, err := service.ApplyPayment(context.Background(), 99, 10, 100, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDebtService_RecalculateBalance_FoldsPaymentHistory(t *testing.T) {
	debt := activeDebt()
	debtRepo := &mockDebtRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Debt, error) {
			return debt, nil
		},
		mockFindPayments: func(ctx context.Context, debtID uint) ([]models.DebtPayment, error) {
			// One full installment: 120,000 interest + 946,185 principal.
			return []models.DebtPayment{
				{DebtID: 1, AmountCents: 1_066_185},
			}, nil
		},
	}
	service, worker := newDebtTestService(debtRepo, &mockAccountRepo{}, &mockTransactionRepo{})
	defer worker.Shutdown()

	balance, err := service.RecalculateBalance(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(12_000_000-946_185), balance)
}

func TestFoldPayments_InterestBeforePrincipal(t *testing.T) {
	installments := []schedule.Installment{
		{PrincipalCents: 900, InterestOrMarginCents: 100},
		{PrincipalCents: 950, InterestOrMarginCents: 50},
	}

	// Pool covers the first installment's interest plus half its principal.
	balance := foldPayments(1850, installments, []models.DebtPayment{{AmountCents: 550}})
	assert.Equal(t, int64(1850-450), balance)

	// Partial interest coverage buys no principal at all.
	balance = foldPayments(1850, installments, []models.DebtPayment{{AmountCents: 60}})
	assert.Equal(t, int64(1850), balance)

	// Full coverage clears the balance exactly.
	balance = foldPayments(1850, installments, []models.DebtPayment{
		{AmountCents: 1000},
		{AmountCents: 1000},
	})
	assert.Equal(t, int64(0), balance)
}

func TestDebtService_MarkDefaulted(t *testing.T) {
	debt := activeDebt()
	debtRepo := &mockDebtRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Debt, error) {
			return debt, nil
		},
	}
	service, worker := newDebtTestService(debtRepo, &mockAccountRepo{}, &mockTransactionRepo{})
	defer worker.Shutdown()

	updated, err := service.MarkDefaulted(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusDefaulted, updated.Status)

	// Terminal states admit no further transitions.
	_, err = service.MarkDefaulted(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}
