package services

import (
	"github.com/casabook/casabook-api/internal/config"
	"github.com/casabook/casabook-api/internal/jobs"
	"github.com/casabook/casabook-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Debt         *DebtService
	Recurring    *RecurringService
	Notification *NotificationService
	Job          *JobService
}

// NewServices wires all services against the repository set and worker pool
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, clock Clock) *Services {
	notificationSvc := NewNotificationService(repos.Notification)

	return &Services{
		Debt:         NewDebtService(repos, notificationSvc, worker, clock),
		Recurring:    NewRecurringService(repos, notificationSvc, worker, clock, cfg.RecurringMaxRetries),
		Notification: notificationSvc,
		Job:          NewJobService(worker),
	}
}
