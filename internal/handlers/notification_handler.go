package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/casabook/casabook-api/internal/repository"
	"github.com/casabook/casabook-api/internal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// Index returns a household's notifications
func (h *NotificationHandler) Index(c *gin.Context) {
	householdID, err := strconv.ParseUint(c.Query("household_id"), 10, 32)
	if err != nil || householdID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "household_id is required"})
		return
	}

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))

	notifications, total, err := h.notificationService.FindByHousehold(c.Request.Context(), uint(householdID), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// MarkAllAsRead marks every notification of a household as read
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	householdID, err := strconv.ParseUint(c.Query("household_id"), 10, 32)
	if err != nil || householdID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "household_id is required"})
		return
	}

	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), uint(householdID)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notifications marked as read"})
}
