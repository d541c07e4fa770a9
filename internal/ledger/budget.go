package ledger

import (
	"context"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/validation"
)

// UpdateBudget replaces the single active budget. Budgets for earlier
// months are not kept.
func (l *Ledger) UpdateBudget(ctx context.Context, b core.Budget) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validation.Budget(b); err != nil {
		return l.rejected(ctx, log.OpUpdate, err)
	}
	b.Monthly = core.RoundAmount(b.Monthly)
	l.budget = &b
	l.changed()

	if err := l.store.SaveBudget(ctx, b); err != nil {
		return persistErr(err)
	}
	l.logger.InfoContext(ctx, "Budget updated",
		log.FieldAmount, b.Monthly, log.FieldYear, b.Year, log.FieldMonth, b.Month)
	l.notify(ctx, EventBudgetUpdated, "")
	return nil
}
