package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casabook/casabook-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Debt         *DebtHandler
	Recurring    *RecurringHandler
	Notification *NotificationHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances. The clock is the same one the
// services run on, so request-time defaults (asOf, payment date) stay
// deterministic under test.
func NewHandlers(svcs *services.Services, clock services.Clock) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Debt:         NewDebtHandler(svcs.Debt, clock),
		Recurring:    NewRecurringHandler(svcs.Recurring, clock),
		Notification: NewNotificationHandler(svcs.Notification),
		Job:          NewJobHandler(svcs.Job),
	}
}

// respondServiceError maps engine errors to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidDebtTerms),
		errors.Is(err, services.ErrInvalidPayment),
		errors.Is(err, services.ErrOverpaymentRejected),
		errors.Is(err, services.ErrInvalidRule):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrRuleNotDue),
		errors.Is(err, services.ErrRetryBudgetExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrExecutionFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
