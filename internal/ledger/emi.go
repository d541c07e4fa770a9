package ledger

import (
	"context"
	"fmt"

	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/validation"
)

type EMIInput struct {
	LoanType    string
	Amount      float64
	DueDate     string
	PaymentType core.PaymentType
	Notes       string
	IsPaid      bool
}

// EMIPatch changes only the non-nil fields.
type EMIPatch struct {
	LoanType    *string
	Amount      *float64
	DueDate     *string
	PaymentType *core.PaymentType
	Notes       *string
	IsPaid      *bool
}

func (l *Ledger) AddEMI(ctx context.Context, in EMIInput) (core.LoanEMI, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loanType, err := validation.LoanType(in.LoanType)
	if err == nil {
		err = validation.Amount(in.Amount)
	}
	if err == nil {
		err = validation.DueDate(in.DueDate)
	}
	if err == nil {
		err = validation.PaymentType(in.PaymentType)
	}
	if err != nil {
		return core.LoanEMI{}, l.rejected(ctx, log.OpCreate, err)
	}

	now := l.stamp()
	emi := core.LoanEMI{
		ID:          l.newID(now),
		LoanType:    loanType,
		Amount:      core.RoundAmount(in.Amount),
		DueDate:     in.DueDate,
		PaymentType: in.PaymentType,
		Notes:       validation.SanitizeNotes(in.Notes),
		IsPaid:      in.IsPaid,
		CreatedAt:   now,
	}
	l.emis = append(l.emis, emi)
	l.changed()

	if err := l.store.SaveEMIs(ctx, l.emis); err != nil {
		return emi, persistErr(err)
	}
	l.logger.InfoContext(ctx, "EMI added", log.FieldEMIID, emi.ID, log.FieldAmount, emi.Amount, log.FieldDate, emi.DueDate)
	l.notify(ctx, EventEMIAdded, emi.ID)
	return emi, nil
}

func (l *Ledger) indexOfEMI(id string) int {
	for i := range l.emis {
		if l.emis[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) UpdateEMI(ctx context.Context, id string, p EMIPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		loanType string
		err      error
	)
	if p.LoanType != nil {
		loanType, err = validation.LoanType(*p.LoanType)
	}
	if err == nil && p.Amount != nil {
		err = validation.Amount(*p.Amount)
	}
	if err == nil && p.DueDate != nil {
		err = validation.DueDate(*p.DueDate)
	}
	if err == nil && p.PaymentType != nil {
		err = validation.PaymentType(*p.PaymentType)
	}
	if err != nil {
		return l.rejected(ctx, log.OpUpdate, err, log.FieldEMIID, id)
	}

	i := l.indexOfEMI(id)
	if i < 0 {
		return l.rejected(ctx, log.OpUpdate, fmt.Errorf("emi %s: %w", id, core.ErrNotFound))
	}
	emi := &l.emis[i]
	if p.LoanType != nil {
		emi.LoanType = loanType
	}
	if p.Amount != nil {
		emi.Amount = core.RoundAmount(*p.Amount)
	}
	if p.DueDate != nil {
		emi.DueDate = *p.DueDate
	}
	if p.PaymentType != nil {
		emi.PaymentType = *p.PaymentType
	}
	if p.Notes != nil {
		emi.Notes = validation.SanitizeNotes(*p.Notes)
	}
	if p.IsPaid != nil {
		emi.IsPaid = *p.IsPaid
	}
	return l.saveEMIs(ctx, id)
}

// ToggleEMIPaid flips the paid flag and returns the new value.
func (l *Ledger) ToggleEMIPaid(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOfEMI(id)
	if i < 0 {
		return false, l.rejected(ctx, log.OpUpdate, fmt.Errorf("emi %s: %w", id, core.ErrNotFound))
	}
	l.emis[i].IsPaid = !l.emis[i].IsPaid
	return l.emis[i].IsPaid, l.saveEMIs(ctx, id)
}

// saveEMIs finishes an EMI update. Callers hold l.mu.
func (l *Ledger) saveEMIs(ctx context.Context, id string) error {
	l.changed()
	if err := l.store.SaveEMIs(ctx, l.emis); err != nil {
		return persistErr(err)
	}
	l.logger.InfoContext(ctx, "EMI updated", log.FieldEMIID, id, log.FieldOperation, log.OpUpdate)
	l.notify(ctx, EventEMIUpdated, id)
	return nil
}

func (l *Ledger) DeleteEMI(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOfEMI(id)
	if i < 0 {
		return l.rejected(ctx, log.OpDelete, fmt.Errorf("emi %s: %w", id, core.ErrNotFound))
	}
	l.emis = append(l.emis[:i:i], l.emis[i+1:]...)
	l.changed()

	if err := l.store.SaveEMIs(ctx, l.emis); err != nil {
		return persistErr(err)
	}
	l.logger.InfoContext(ctx, "EMI deleted", log.FieldEMIID, id, log.FieldOperation, log.OpDelete)
	l.notify(ctx, EventEMIDeleted, id)
	return nil
}
