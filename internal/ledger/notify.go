package ledger

import (
	"context"
	"time"

	"kharcha/internal/log"
)

const (
	EventExpenseAdded   = "expense.added"
	EventExpenseUpdated = "expense.updated"
	EventExpenseDeleted = "expense.deleted"
	EventExpensesImport = "expense.imported"
	EventDayCleared     = "day.cleared"
	EventAllCleared     = "all.cleared"
	EventBudgetUpdated  = "budget.updated"
	EventEMIAdded       = "emi.added"
	EventEMIUpdated     = "emi.updated"
	EventEMIDeleted     = "emi.deleted"
	EventSettings       = "settings.updated"
)

// Event describes a committed command. ID is empty for commands that do
// not target one record.
type Event struct {
	Op string
	ID string
	At time.Time
}

// Notifier receives events after a command has fully succeeded, on its own
// goroutine. It cannot block or fail the command.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type NotifierFunc func(ctx context.Context, ev Event)

func (f NotifierFunc) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

func (l *Ledger) notify(ctx context.Context, op, id string) {
	if len(l.notifiers) == 0 {
		return
	}
	ev := Event{Op: op, ID: id, At: l.now()}
	ctx = context.WithoutCancel(ctx)
	for _, n := range l.notifiers {
		l.inflight.Add(1)
		go func() {
			defer l.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					l.logger.WarnContext(ctx, "Notifier panicked",
						log.FieldOperation, log.OpNotify, "event", ev.Op, "panic", r)
				}
			}()
			n.Notify(ctx, ev)
		}()
	}
}

// Wait blocks until every dispatched notification has returned.
func (l *Ledger) Wait() {
	l.inflight.Wait()
}
