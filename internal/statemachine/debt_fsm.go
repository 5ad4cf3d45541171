package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/casabook/casabook-api/internal/models"
)

// DebtFSM wraps a debt with its lifecycle state machine
type DebtFSM struct {
	debt *models.Debt
	fsm  *fsm.FSM
}

// NewDebtFSM creates a new debt state machine
func NewDebtFSM(debt *models.Debt) *DebtFSM {
	d := &DebtFSM{
		debt: debt,
	}

	d.fsm = fsm.NewFSM(
		debt.Status,
		fsm.Events{
			// active → paid_off (balance reached zero)
			{Name: "pay_off", Src: []string{models.DebtStatusActive}, Dst: models.DebtStatusPaidOff},

			// active → defaulted
			{Name: "default", Src: []string{models.DebtStatusActive}, Dst: models.DebtStatusDefaulted},

			// active → cancelled
			{Name: "cancel", Src: []string{models.DebtStatusActive}, Dst: models.DebtStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return d
}

// PayOff transitions the debt to paid_off. Only valid once the outstanding
// balance is exactly zero.
func (d *DebtFSM) PayOff(ctx context.Context) error {
	if !d.debt.MayMarkPaidOff() {
		return fmt.Errorf("debt cannot be paid off: status=%s balance=%d", d.debt.Status, d.debt.OutstandingBalanceCents)
	}

	if err := d.fsm.Event(ctx, "pay_off"); err != nil {
		return fmt.Errorf("failed to pay off debt: %w", err)
	}

	d.debt.Status = d.fsm.Current()
	return nil
}

// Default transitions the debt to defaulted
func (d *DebtFSM) Default(ctx context.Context) error {
	if !d.debt.MayDefault() {
		return fmt.Errorf("debt cannot be defaulted in current state: %s", d.debt.Status)
	}

	if err := d.fsm.Event(ctx, "default"); err != nil {
		return fmt.Errorf("failed to default debt: %w", err)
	}

	d.debt.Status = d.fsm.Current()
	return nil
}

// Cancel transitions the debt to cancelled
func (d *DebtFSM) Cancel(ctx context.Context) error {
	if !d.debt.MayCancel() {
		return fmt.Errorf("debt cannot be cancelled in current state: %s", d.debt.Status)
	}

	if err := d.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel debt: %w", err)
	}

	d.debt.Status = d.fsm.Current()
	return nil
}

// Current returns the current state
func (d *DebtFSM) Current() string {
	return d.fsm.Current()
}

// Can checks if a transition is possible
func (d *DebtFSM) Can(event string) bool {
	return d.fsm.Can(event)
}
