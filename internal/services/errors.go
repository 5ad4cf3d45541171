package services

import "errors"

// Engine error taxonomy. Handlers map these to HTTP statuses; the engine
// never formats user-facing text.
var (
	// ErrNotFound reports a missing record
	ErrNotFound = errors.New("record not found")

	// ErrInvalidDebtTerms reports malformed debt terms; fatal to the calling
	// operation, never retried
	ErrInvalidDebtTerms = errors.New("invalid debt terms")

	// ErrInvalidPayment reports a non-positive payment amount
	ErrInvalidPayment = errors.New("invalid payment amount")

	// ErrOverpaymentRejected reports a payment exceeding the outstanding
	// balance; the caller must split the excess into a non-debt transaction
	ErrOverpaymentRejected = errors.New("payment exceeds outstanding balance")

	// ErrInvalidRule reports a malformed recurring rule definition
	ErrInvalidRule = errors.New("invalid recurring rule")

	// ErrInvalidState reports a forbidden lifecycle transition
	ErrInvalidState = errors.New("invalid state transition")

	// ErrRuleNotDue reports an execution attempt before the next occurrence
	ErrRuleNotDue = errors.New("rule is not due")

	// ErrExecutionFailed reports a transient ledger-posting failure; the
	// occurrence stays due and is retried on the next scheduler pass
	ErrExecutionFailed = errors.New("recurring execution failed")

	// ErrRetryBudgetExhausted reports an occurrence whose bounded retries are
	// spent; the rule stays active but needs manual intervention
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
)
