package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/casabook/casabook-api/internal/jobs"
	"github.com/casabook/casabook-api/internal/models"
	"github.com/casabook/casabook-api/internal/recurrence"
	"github.com/casabook/casabook-api/internal/repository"
	"github.com/casabook/casabook-api/internal/statemachine"
	"github.com/casabook/casabook-api/pkg/logger"
)

// RecurringService materializes due recurring rules into ledger transactions.
// Execution is idempotent per (rule, scheduled date): the unique execution
// record acts as the gate, so re-runs and concurrent passes cannot
// double-post. The success path commits record, transaction and rule
// advancement atomically; failures record a bounded retry and leave the
// occurrence due.
type RecurringService struct {
	repos           *repository.Repositories
	notificationSvc *NotificationService
	worker          *jobs.Worker
	clock           Clock
	maxRetries      int
}

// NewRecurringService creates a new recurring service
func NewRecurringService(repos *repository.Repositories, notificationSvc *NotificationService, worker *jobs.Worker, clock Clock, maxRetries int) *RecurringService {
	return &RecurringService{
		repos:           repos,
		notificationSvc: notificationSvc,
		worker:          worker,
		clock:           clock,
		maxRetries:      maxRetries,
	}
}

// CreateRule validates and persists a new active rule with the first
// occurrence due on the start date.
func (s *RecurringService) CreateRule(ctx context.Context, rule *models.RecurringRule) error {
	if rule.AmountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRule)
	}
	if rule.Currency == "" || rule.StartDate.IsZero() {
		return fmt.Errorf("%w: currency and start date are required", ErrInvalidRule)
	}
	if !recurrence.ValidFrequency(rule.Frequency) {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, rule.Frequency)
	}
	if rule.IntervalValue < 1 {
		return fmt.Errorf("%w: interval must be at least 1", ErrInvalidRule)
	}
	if rule.EndDate != nil && rule.EndDate.Before(rule.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidRule)
	}
	if rule.MaxExecutions != nil && *rule.MaxExecutions < 1 {
		return fmt.Errorf("%w: max executions must be at least 1", ErrInvalidRule)
	}
	if rule.TransferAccountID != nil && *rule.TransferAccountID == rule.AccountID {
		return fmt.Errorf("%w: transfer counterparty must differ from source account", ErrInvalidRule)
	}

	account, err := s.repos.Account.FindByID(ctx, rule.AccountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: account %d not found", ErrInvalidRule, rule.AccountID)
	}
	if err != nil {
		return err
	}
	if account.Currency != rule.Currency {
		return fmt.Errorf("%w: account currency %s does not match rule currency %s",
			ErrInvalidRule, account.Currency, rule.Currency)
	}

	rule.Status = models.RuleStatusActive
	rule.NextExecutionDate = rule.StartDate
	rule.ExecutionCount = 0
	rule.LastExecutionDate = nil
	return s.repos.Rule.Create(ctx, rule)
}

// GetRule loads a rule by id
func (s *RecurringService) GetRule(ctx context.Context, id uint) (*models.RecurringRule, error) {
	rule, err := s.repos.Rule.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return rule, err
}

// ListRules returns a household's rules
func (s *RecurringService) ListRules(ctx context.Context, householdID uint, query *repository.ListQuery) ([]models.RecurringRule, int64, error) {
	return s.repos.Rule.List(ctx, householdID, query)
}

// Executions returns the execution history of a rule
func (s *RecurringService) Executions(ctx context.Context, ruleID uint) ([]models.RecurringExecution, error) {
	if _, err := s.GetRule(ctx, ruleID); err != nil {
		return nil, err
	}
	return s.repos.Execution.FindByRule(ctx, ruleID)
}

// Pause halts scheduling of an active rule
func (s *RecurringService) Pause(ctx context.Context, id uint) (*models.RecurringRule, error) {
	return s.transition(ctx, id, func(fsm *statemachine.RuleFSM) error { return fsm.Pause(ctx) })
}

// Resume reactivates a paused rule
func (s *RecurringService) Resume(ctx context.Context, id uint) (*models.RecurringRule, error) {
	return s.transition(ctx, id, func(fsm *statemachine.RuleFSM) error { return fsm.Resume(ctx) })
}

// Cancel terminates a rule permanently
func (s *RecurringService) Cancel(ctx context.Context, id uint) (*models.RecurringRule, error) {
	return s.transition(ctx, id, func(fsm *statemachine.RuleFSM) error { return fsm.Cancel(ctx) })
}

func (s *RecurringService) transition(ctx context.Context, id uint, event func(*statemachine.RuleFSM) error) (*models.RecurringRule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := event(statemachine.NewRuleFSM(rule)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := s.repos.Rule.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// FindDueRules returns the active rules due as of the given time
func (s *RecurringService) FindDueRules(ctx context.Context, asOf time.Time) ([]models.RecurringRule, error) {
	return s.repos.Rule.FindDue(ctx, asOf)
}

// Execute materializes one occurrence of a rule. With force=true the
// due-date check is skipped, but the caps and per-date idempotency still
// apply. A transient posting failure is recorded on the execution record and
// surfaced as ErrExecutionFailed; the rule is not advanced.
func (s *RecurringService) Execute(ctx context.Context, ruleID uint, asOf time.Time, force bool) (*models.RecurringExecution, error) {
	var (
		result        *models.RecurringExecution
		scheduledDate time.Time
		ruleCompleted bool
		householdID   uint
		postErr       error
	)

	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		rule, err := tx.Rule.FindByIDForUpdate(ctx, ruleID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		householdID = rule.HouseholdID
		scheduledDate = rule.NextExecutionDate

		if rule.Status != models.RuleStatusActive {
			return fmt.Errorf("%w: rule is %s", ErrInvalidState, rule.Status)
		}
		// Caps bind even under force.
		if rule.CompletionReached() {
			return fmt.Errorf("%w: rule has no executions left", ErrInvalidState)
		}
		if !force && rule.NextExecutionDate.After(asOf) {
			return ErrRuleNotDue
		}

		record := &models.RecurringExecution{
			RuleID:        rule.ID,
			ScheduledDate: scheduledDate,
			Status:        models.ExecutionStatusPending,
		}
		created, err := tx.Execution.CreateIfAbsent(ctx, record)
		if err != nil {
			return err
		}
		if !created {
			existing, err := tx.Execution.FindByRuleAndDate(ctx, rule.ID, scheduledDate)
			if err != nil {
				return err
			}
			switch existing.Status {
			case models.ExecutionStatusSucceeded:
				// Already materialized: idempotent no-op.
				result = existing
				return nil
			case models.ExecutionStatusPending:
				// A concurrent attempt holds the gate: abort without side
				// effects, also a no-op for the caller.
				logger.Warn("Concurrent execution attempt detected",
					"rule_id", rule.ID, "scheduled_date", scheduledDate)
				result = existing
				return nil
			default: // failed
				if existing.RetryCount >= s.maxRetries {
					result = existing
					return ErrRetryBudgetExhausted
				}
				existing.Status = models.ExecutionStatusPending
				existing.ErrorMessage = nil
				if err := tx.Execution.Update(ctx, existing); err != nil {
					return err
				}
				record = existing
			}
		}

		transaction, err := s.postRuleTransaction(ctx, tx, rule, scheduledDate)
		if err != nil {
			postErr = err
			return err
		}

		now := s.clock.Now()
		record.Status = models.ExecutionStatusSucceeded
		record.CreatedTransactionID = &transaction.ID
		record.ExecutedAt = &now
		if err := tx.Execution.Update(ctx, record); err != nil {
			return err
		}

		// Advance the rule only after the occurrence is safely materialized;
		// a failure above rolls everything back together.
		occurred := scheduledDate
		rule.LastExecutionDate = &occurred
		rule.ExecutionCount++
		rule.NextExecutionDate = recurrence.Next(scheduledDate, rule.Frequency, rule.IntervalValue)

		if rule.CompletionReached() {
			if err := statemachine.NewRuleFSM(rule).Complete(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			ruleCompleted = true
		}

		if err := tx.Rule.Update(ctx, rule); err != nil {
			return err
		}

		result = record
		return nil
	})

	if err == nil {
		if ruleCompleted {
			s.worker.EnqueueAsync(func(ctx context.Context) error {
				return s.notificationSvc.NotifyHousehold(ctx, householdID,
					"Recurring transaction completed",
					fmt.Sprintf("Rule #%d has finished its schedule", ruleID),
					models.NotificationTypeRecurringCompleted)
			})
		}
		return result, nil
	}

	if postErr != nil {
		// The happy path rolled back; persist the failed attempt separately
		// so the retry budget survives restarts.
		s.recordFailure(ctx, ruleID, householdID, scheduledDate, postErr)
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, postErr)
	}

	return result, err
}

// postRuleTransaction validates the template's references and posts the
// ledger transaction with a deterministic idempotency key.
func (s *RecurringService) postRuleTransaction(ctx context.Context, tx *repository.Repositories, rule *models.RecurringRule, scheduledDate time.Time) (*models.Transaction, error) {
	account, err := tx.Account.FindByID(ctx, rule.AccountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("account %d not found", rule.AccountID)
	}
	if err != nil {
		return nil, err
	}
	if account.Currency != rule.Currency {
		return nil, fmt.Errorf("account currency %s does not match rule currency %s", account.Currency, rule.Currency)
	}

	if rule.CategoryID != nil {
		exists, err := tx.Account.CategoryExists(ctx, *rule.CategoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("category %d not found", *rule.CategoryID)
		}
	}

	if rule.TransferAccountID != nil {
		if _, err := tx.Account.FindByID(ctx, *rule.TransferAccountID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("transfer account %d not found", *rule.TransferAccountID)
			}
			return nil, err
		}
	}

	key := fmt.Sprintf("recurring:%d:%s", rule.ID, scheduledDate.Format("2006-01-02"))
	transaction := &models.Transaction{
		HouseholdID:       rule.HouseholdID,
		AccountID:         rule.AccountID,
		CategoryID:        rule.CategoryID,
		TransferAccountID: rule.TransferAccountID,
		AmountCents:       rule.AmountCents,
		Currency:          rule.Currency,
		Description:       rule.Description,
		TransactionDate:   scheduledDate,
		SourceType:        models.TransactionSourceRecurring,
		IdempotencyKey:    &key,
	}
	if err := tx.Transaction.Create(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to post transaction: %w", err)
	}
	return transaction, nil
}

// recordFailure marks the occurrence failed and spends one retry. When the
// budget is exhausted the household is notified; the rule stays active for
// manual intervention.
func (s *RecurringService) recordFailure(ctx context.Context, ruleID, householdID uint, scheduledDate time.Time, cause error) {
	exhausted := false

	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		msg := cause.Error()

		record, err := tx.Execution.FindByRuleAndDate(ctx, ruleID, scheduledDate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = &models.RecurringExecution{
				RuleID:        ruleID,
				ScheduledDate: scheduledDate,
				Status:        models.ExecutionStatusFailed,
				ErrorMessage:  &msg,
				RetryCount:    1,
			}
			_, err := tx.Execution.CreateIfAbsent(ctx, record)
			exhausted = record.RetryCount >= s.maxRetries
			return err
		}
		if err != nil {
			return err
		}

		record.Status = models.ExecutionStatusFailed
		record.ErrorMessage = &msg
		record.RetryCount++
		exhausted = record.RetryCount >= s.maxRetries
		return tx.Execution.Update(ctx, record)
	})
	if err != nil {
		logger.Error("Failed to record execution failure",
			"rule_id", ruleID, "scheduled_date", scheduledDate, "error", err)
		return
	}

	if exhausted {
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			return s.notificationSvc.NotifyHousehold(ctx, householdID,
				"Recurring transaction needs attention",
				fmt.Sprintf("Rule #%d failed %d times and will not be retried automatically", ruleID, s.maxRetries),
				models.NotificationTypeRecurringRetryExhausted)
		})
	}
}

// RunDuePass executes every due rule once. Per-rule failures are isolated:
// a failing or exhausted rule never stops the pass.
func (s *RecurringService) RunDuePass(ctx context.Context) error {
	asOf := s.clock.Now()

	rules, err := s.FindDueRules(ctx, asOf)
	if err != nil {
		return fmt.Errorf("failed to find due rules: %w", err)
	}
	if len(rules) == 0 {
		return nil
	}

	logger.Info("Recurring due pass", "as_of", asOf, "due_rules", len(rules))

	for _, rule := range rules {
		_, err := s.Execute(ctx, rule.ID, asOf, false)
		switch {
		case err == nil:
		case errors.Is(err, ErrRetryBudgetExhausted):
			logger.Warn("Skipping rule with exhausted retry budget", "rule_id", rule.ID)
		case errors.Is(err, ErrExecutionFailed):
			logger.Warn("Recurring execution failed, will retry next pass", "rule_id", rule.ID, "error", err)
		default:
			logger.Error("Recurring execution error", "rule_id", rule.ID, "error", err)
		}
	}
	return nil
}
