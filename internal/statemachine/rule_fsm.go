package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/casabook/casabook-api/internal/models"
)

// RuleFSM wraps a recurring rule with its scheduling state machine
type RuleFSM struct {
	rule *models.RecurringRule
	fsm  *fsm.FSM
}

// NewRuleFSM creates a new recurring rule state machine
func NewRuleFSM(rule *models.RecurringRule) *RuleFSM {
	r := &RuleFSM{
		rule: rule,
	}

	r.fsm = fsm.NewFSM(
		rule.Status,
		fsm.Events{
			// active ⇄ paused (user-driven)
			{Name: "pause", Src: []string{models.RuleStatusActive}, Dst: models.RuleStatusPaused},
			{Name: "resume", Src: []string{models.RuleStatusPaused}, Dst: models.RuleStatusActive},

			// active → completed (endDate passed or maxExecutions reached)
			{Name: "complete", Src: []string{models.RuleStatusActive}, Dst: models.RuleStatusCompleted},

			// active/paused → cancelled (user-driven, terminal)
			{Name: "cancel", Src: []string{models.RuleStatusActive, models.RuleStatusPaused}, Dst: models.RuleStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return r
}

// Pause halts scheduling until the rule is resumed
func (r *RuleFSM) Pause(ctx context.Context) error {
	if !r.rule.MayPause() {
		return fmt.Errorf("rule cannot be paused in current state: %s", r.rule.Status)
	}

	if err := r.fsm.Event(ctx, "pause"); err != nil {
		return fmt.Errorf("failed to pause rule: %w", err)
	}

	r.rule.Status = r.fsm.Current()
	return nil
}

// Resume reactivates a paused rule
func (r *RuleFSM) Resume(ctx context.Context) error {
	if !r.rule.MayResume() {
		return fmt.Errorf("rule cannot be resumed in current state: %s", r.rule.Status)
	}

	if err := r.fsm.Event(ctx, "resume"); err != nil {
		return fmt.Errorf("failed to resume rule: %w", err)
	}

	r.rule.Status = r.fsm.Current()
	return nil
}

// Complete marks the rule as finished
func (r *RuleFSM) Complete(ctx context.Context) error {
	if !r.rule.MayComplete() {
		return fmt.Errorf("rule cannot be completed in current state: %s", r.rule.Status)
	}

	if err := r.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete rule: %w", err)
	}

	r.rule.Status = r.fsm.Current()
	return nil
}

// Cancel terminates the rule permanently
func (r *RuleFSM) Cancel(ctx context.Context) error {
	if !r.rule.MayCancel() {
		return fmt.Errorf("rule cannot be cancelled in current state: %s", r.rule.Status)
	}

	if err := r.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel rule: %w", err)
	}

	r.rule.Status = r.fsm.Current()
	return nil
}

// Current returns the current state
func (r *RuleFSM) Current() string {
	return r.fsm.Current()
}

// Can checks if a transition is possible
func (r *RuleFSM) Can(event string) bool {
	return r.fsm.Can(event)
}
