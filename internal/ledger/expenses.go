package ledger

import (
	"context"
	"errors"
	"fmt"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/persistence"
	"kharcha/internal/validation"
)

type ExpenseInput struct {
	Amount      float64
	Category    core.Category
	Date        string
	Notes       string
	PaymentType core.PaymentType
}

// ExpensePatch changes only the non-nil fields. The id, date and creation
// time of an expense never change.
type ExpensePatch struct {
	Amount      *float64
	Category    *core.Category
	PaymentType *core.PaymentType
	Notes       *string
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}

func (l *Ledger) validateExpense(in ExpenseInput) error {
	if err := validation.Amount(in.Amount); err != nil {
		return err
	}
	if err := validation.Date(in.Date, l.now()); err != nil {
		return err
	}
	if err := validation.Category(in.Category); err != nil {
		return err
	}
	return validation.PaymentType(in.PaymentType)
}

// AddExpense records a new expense. On a write failure the returned record
// is still held in memory and the error wraps core.ErrPersist.
func (l *Ledger) AddExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.validateExpense(in); err != nil {
		return core.Expense{}, l.rejected(ctx, log.OpCreate, err)
	}

	now := l.stamp()
	e := core.Expense{
		ID:          l.newID(now),
		Amount:      core.RoundAmount(in.Amount),
		Category:    in.Category,
		Date:        in.Date,
		Notes:       validation.SanitizeNotes(in.Notes),
		PaymentType: in.PaymentType,
		CreatedAt:   now,
	}
	l.expenses = append(l.expenses, e)
	l.changed()

	if err := l.store.SaveExpenses(ctx, l.expenses); err != nil {
		return e, persistErr(err)
	}

	l.logger.InfoContext(ctx, "Expense added", log.NewFields().
		WithExpense(e.ID, e.Amount, string(e.Category), e.Date).
		WithOperation(log.OpCreate).ToSlice()...)
	l.notify(ctx, EventExpenseAdded, e.ID)
	return e, nil
}

func (l *Ledger) indexOfExpense(id string) int {
	for i := range l.expenses {
		if l.expenses[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) UpdateExpense(ctx context.Context, id string, p ExpensePatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p.Amount != nil {
		if err := validation.Amount(*p.Amount); err != nil {
			return l.rejected(ctx, log.OpUpdate, err, log.FieldExpenseID, id)
		}
	}
	if p.Category != nil {
		if err := validation.Category(*p.Category); err != nil {
			return l.rejected(ctx, log.OpUpdate, err, log.FieldExpenseID, id)
		}
	}
	if p.PaymentType != nil {
		if err := validation.PaymentType(*p.PaymentType); err != nil {
			return l.rejected(ctx, log.OpUpdate, err, log.FieldExpenseID, id)
		}
	}

	i := l.indexOfExpense(id)
	if i < 0 {
		return l.rejected(ctx, log.OpUpdate, fmt.Errorf("expense %s: %w", id, core.ErrNotFound))
	}

	e := &l.expenses[i]
	if p.Amount != nil {
		e.Amount = core.RoundAmount(*p.Amount)
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.PaymentType != nil {
		e.PaymentType = *p.PaymentType
	}
	if p.Notes != nil {
		e.Notes = validation.SanitizeNotes(*p.Notes)
	}
	l.changed()

	if err := l.store.SaveExpenses(ctx, l.expenses); err != nil {
		return persistErr(err)
	}
	l.logger.InfoContext(ctx, "Expense updated", log.FieldExpenseID, id, log.FieldOperation, log.OpUpdate)
	l.notify(ctx, EventExpenseUpdated, id)
	return nil
}

func (l *Ledger) DeleteExpense(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOfExpense(id)
	if i < 0 {
		return l.rejected(ctx, log.OpDelete, fmt.Errorf("expense %s: %w", id, core.ErrNotFound))
	}
	l.expenses = append(l.expenses[:i:i], l.expenses[i+1:]...)
	l.changed()

	if err := l.store.SaveExpenses(ctx, l.expenses); err != nil {
		return persistErr(err)
	}
	l.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id, log.FieldOperation, log.OpDelete)
	l.notify(ctx, EventExpenseDeleted, id)
	return nil
}

// ClearDailyData removes every expense whose date equals date exactly. An
// empty date means today. It returns how many expenses were removed.
func (l *Ledger) ClearDailyData(ctx context.Context, date string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if date == "" {
		date = core.Today(l.now())
	}
	kept := make([]core.Expense, 0, len(l.expenses))
	for _, e := range l.expenses {
		if e.Date != date {
			kept = append(kept, e)
		}
	}
	removed := len(l.expenses) - len(kept)
	l.expenses = kept
	l.changed()

	if err := l.store.SaveExpenses(ctx, l.expenses); err != nil {
		return removed, persistErr(err)
	}
	l.logger.InfoContext(ctx, "Daily data cleared",
		log.FieldDate, date, log.FieldCount, removed, log.FieldOperation, log.OpClear)
	l.notify(ctx, EventDayCleared, "")
	return removed, nil
}

// ClearAllData empties expenses, budget and EMIs. Memory is cleared first,
// then the three keys are deleted independently; every failure is
// reported, none is rolled back.
func (l *Ledger) ClearAllData(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.expenses = []core.Expense{}
	l.budget = nil
	l.emis = []core.LoanEMI{}
	l.changed()

	var errs []error
	for _, key := range []string{persistence.KeyExpenses, persistence.KeyBudget, persistence.KeyEMIs} {
		if err := l.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		l.logger.ErrorContext(ctx, "Clear all data partially failed",
			log.FieldOperation, log.OpClear, log.FieldError, err, "failed", len(errs))
		return persistErr(err)
	}

	l.logger.InfoContext(ctx, "All data cleared", log.FieldOperation, log.OpClear)
	l.notify(ctx, EventAllCleared, "")
	return nil
}

// ImportExpenses restores records read from a backup. Every record is
// checked like AddExpense before anything changes; one bad record rejects
// the whole import. Records whose id already exists are skipped.
func (l *Ledger) ImportExpenses(ctx context.Context, records []core.Expense) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.stamp()
	seen := make(map[string]bool, len(l.expenses)+len(records))
	for _, e := range l.expenses {
		seen[e.ID] = true
	}

	var fresh []core.Expense
	for i, r := range records {
		in := ExpenseInput{Amount: r.Amount, Category: r.Category, Date: r.Date, PaymentType: r.PaymentType}
		if err := l.validateExpense(in); err != nil {
			return 0, l.rejected(ctx, log.OpImport, fmt.Errorf("record %d: %w", i+1, err))
		}
		if r.ID != "" && seen[r.ID] {
			continue
		}
		e := core.Expense{
			ID:          r.ID,
			Amount:      core.RoundAmount(r.Amount),
			Category:    r.Category,
			Date:        r.Date,
			Notes:       validation.SanitizeNotes(r.Notes),
			PaymentType: r.PaymentType,
			CreatedAt:   r.CreatedAt,
		}
		if e.ID == "" {
			e.ID = l.newID(now)
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		seen[e.ID] = true
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	l.expenses = append(l.expenses, fresh...)
	l.changed()
	if err := l.store.SaveExpenses(ctx, l.expenses); err != nil {
		return len(fresh), persistErr(err)
	}
	l.logger.InfoContext(ctx, "Expenses imported", log.FieldCount, len(fresh), log.FieldOperation, log.OpImport)
	l.notify(ctx, EventExpensesImport, "")
	return len(fresh), nil
}
