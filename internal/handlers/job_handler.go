package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casabook/casabook-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// Status returns background worker statistics
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"worker": h.jobService.Stats()})
}
