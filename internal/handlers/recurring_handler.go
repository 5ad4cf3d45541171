package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casabook/casabook-api/internal/models"
	"github.com/casabook/casabook-api/internal/repository"
	"github.com/casabook/casabook-api/internal/services"
)

type RecurringHandler struct {
	recurringService *services.RecurringService
	clock            services.Clock
}

func NewRecurringHandler(recurringService *services.RecurringService, clock services.Clock) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, clock: clock}
}

// Index returns a paginated list of a household's recurring rules
func (h *RecurringHandler) Index(c *gin.Context) {
	householdID, err := strconv.ParseUint(c.Query("household_id"), 10, 32)
	if err != nil || householdID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "household_id is required"})
		return
	}

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["frequency"] = c.Query("frequency")

	rules, total, err := h.recurringService.ListRules(c.Request.Context(), uint(householdID), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]models.RecurringRuleResponse, 0, len(rules))
	for _, r := range rules {
		responses = append(responses, r.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"recurring_rules": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

type CreateRuleRequest struct {
	HouseholdID       uint   `json:"household_id" binding:"required"`
	Description       string `json:"description" binding:"required"`
	AmountCents       int64  `json:"amount_cents" binding:"required"`
	Currency          string `json:"currency" binding:"required"`
	AccountID         uint   `json:"account_id" binding:"required"`
	CategoryID        *uint  `json:"category_id"`
	TransferAccountID *uint  `json:"transfer_account_id"`
	Frequency         string `json:"frequency" binding:"required"`
	IntervalValue     int    `json:"interval_value"`
	StartDate         string `json:"start_date" binding:"required"`
	EndDate           string `json:"end_date"`
	MaxExecutions     *int   `json:"max_executions"`
}

// Create registers a new recurring rule
func (h *RecurringHandler) Create(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := parseDate(req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		endDate = &parsed
	}

	interval := req.IntervalValue
	if interval == 0 {
		interval = 1
	}

	rule := &models.RecurringRule{
		HouseholdID:       req.HouseholdID,
		Description:       req.Description,
		AmountCents:       req.AmountCents,
		Currency:          req.Currency,
		AccountID:         req.AccountID,
		CategoryID:        req.CategoryID,
		TransferAccountID: req.TransferAccountID,
		Frequency:         req.Frequency,
		IntervalValue:     interval,
		StartDate:         startDate,
		EndDate:           endDate,
		MaxExecutions:     req.MaxExecutions,
	}

	if err := h.recurringService.CreateRule(c.Request.Context(), rule); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recurring_rule": rule.ToResponse()})
}

// Show returns a rule by ID
func (h *RecurringHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("rule_id"), 10, 32)
	rule, err := h.recurringService.GetRule(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recurring_rule": rule.ToResponse()})
}

// Executions returns the execution history of a rule
func (h *RecurringHandler) Executions(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("rule_id"), 10, 32)
	executions, err := h.recurringService.Executions(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]models.RecurringExecutionResponse, 0, len(executions))
	for _, e := range executions {
		responses = append(responses, e.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"executions": responses})
}

// Execute materializes the rule's next occurrence immediately. With ?force=true
// the due-date check is skipped; caps and idempotency still apply.
func (h *RecurringHandler) Execute(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("rule_id"), 10, 32)
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	record, err := h.recurringService.Execute(c.Request.Context(), uint(id), h.clock.Now(), force)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"execution": record.ToResponse()})
}

// Pause halts scheduling of an active rule
func (h *RecurringHandler) Pause(c *gin.Context) {
	h.transition(c, h.recurringService.Pause)
}

// Resume reactivates a paused rule
func (h *RecurringHandler) Resume(c *gin.Context) {
	h.transition(c, h.recurringService.Resume)
}

// Cancel terminates a rule permanently
func (h *RecurringHandler) Cancel(c *gin.Context) {
	h.transition(c, h.recurringService.Cancel)
}

func (h *RecurringHandler) transition(c *gin.Context, op func(ctx context.Context, id uint) (*models.RecurringRule, error)) {
	id, _ := strconv.ParseUint(c.Param("rule_id"), 10, 32)
	rule, err := op(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recurring_rule": rule.ToResponse()})
}
