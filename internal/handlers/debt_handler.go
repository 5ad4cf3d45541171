package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casabook/casabook-api/internal/models"
	"github.com/casabook/casabook-api/internal/repository"
	"github.com/casabook/casabook-api/internal/services"
)

type DebtHandler struct {
	debtService *services.DebtService
	clock       services.Clock
}

func NewDebtHandler(debtService *services.DebtService, clock services.Clock) *DebtHandler {
	return &DebtHandler{debtService: debtService, clock: clock}
}

// Index returns a paginated list of a household's debts
func (h *DebtHandler) Index(c *gin.Context) {
	householdID, err := strconv.ParseUint(c.Query("household_id"), 10, 32)
	if err != nil || householdID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "household_id is required"})
		return
	}

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["type"] = c.Query("type")

	debts, total, err := h.debtService.ListDebts(c.Request.Context(), uint(householdID), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]models.DebtResponse, 0, len(debts))
	for _, d := range debts {
		responses = append(responses, d.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"debts": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

type CreateDebtRequest struct {
	HouseholdID           uint   `json:"household_id" binding:"required"`
	Type                  string `json:"type" binding:"required"`
	Currency              string `json:"currency" binding:"required"`
	PrincipalCents        int64  `json:"principal_cents"`
	OriginationDate       string `json:"origination_date" binding:"required"`
	InterestRateAnnualBps int64  `json:"interest_rate_annual_bps"`
	FlatRateBps           int64  `json:"flat_rate_bps"`
	MarginRateBps         int64  `json:"margin_rate_bps"`
	CostPriceCents        int64  `json:"cost_price_cents"`
	TermMonths            int    `json:"term_months" binding:"required"`
	PaymentDayOfMonth     int    `json:"payment_day_of_month" binding:"required"`
}

// Create registers a new debt
func (h *DebtHandler) Create(c *gin.Context) {
	var req CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	origination, err := parseDate(req.OriginationDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origination_date must be YYYY-MM-DD"})
		return
	}

	debt := &models.Debt{
		HouseholdID:           req.HouseholdID,
		Type:                  req.Type,
		Currency:              req.Currency,
		PrincipalCents:        req.PrincipalCents,
		OriginationDate:       origination,
		InterestRateAnnualBps: req.InterestRateAnnualBps,
		FlatRateBps:           req.FlatRateBps,
		MarginRateBps:         req.MarginRateBps,
		CostPriceCents:        req.CostPriceCents,
		TermMonths:            req.TermMonths,
		PaymentDayOfMonth:     req.PaymentDayOfMonth,
	}

	if err := h.debtService.CreateDebt(c.Request.Context(), debt); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"debt": debt.ToResponse()})
}

// Show returns a debt by ID
func (h *DebtHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	debt, err := h.debtService.GetDebt(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debt": debt.ToResponse()})
}

// Schedule returns the full installment schedule, derived on demand
func (h *DebtHandler) Schedule(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	installments, err := h.debtService.Schedule(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"installments": installments})
}

// Payments returns the recorded payment history
func (h *DebtHandler) Payments(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	payments, err := h.debtService.Payments(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

type ApplyPaymentRequest struct {
	AccountID   uint   `json:"account_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	PaymentDate string `json:"payment_date"`
}

// ApplyPayment applies a payment against the debt's outstanding balance
func (h *DebtHandler) ApplyPayment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)

	var req ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paymentDate := h.clock.Now()
	if req.PaymentDate != "" {
		parsed, err := parseDate(req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_date must be YYYY-MM-DD"})
			return
		}
		paymentDate = parsed
	}

	debt, err := h.debtService.ApplyPayment(c.Request.Context(), uint(id), req.AccountID, req.AmountCents, paymentDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debt": debt.ToResponse()})
}

// RecalculateBalance recomputes the canonical balance from the schedule and
// payment history without persisting it
func (h *DebtHandler) RecalculateBalance(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	balance, err := h.debtService.RecalculateBalance(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outstanding_balance_cents": balance})
}

// MarkDefaulted flags a debt as defaulted
func (h *DebtHandler) MarkDefaulted(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	debt, err := h.debtService.MarkDefaulted(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debt": debt.ToResponse()})
}

// Cancel voids an active debt
func (h *DebtHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	debt, err := h.debtService.Cancel(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debt": debt.ToResponse()})
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
