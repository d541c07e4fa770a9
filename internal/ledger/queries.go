package ledger

import (
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/export"
)

// Expenses returns a copy of every expense in insertion order.
func (l *Ledger) Expenses() []core.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Expense(nil), l.expenses...)
}

// EMIs returns a copy of every EMI in insertion order.
func (l *Ledger) EMIs() []core.LoanEMI {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.LoanEMI(nil), l.emis...)
}

// Budget returns the active budget or nil.
func (l *Ledger) Budget() *core.Budget {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.budget == nil {
		return nil
	}
	b := *l.budget
	return &b
}

// CurrentMonthExpenses keeps insertion order.
func (l *Ledger) CurrentMonthExpenses() []core.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentMonth()
}

func (l *Ledger) currentMonth() []core.Expense {
	now := l.now()
	out := make([]core.Expense, 0, len(l.expenses))
	for _, e := range l.expenses {
		if core.SameMonth(e.Date, now) {
			out = append(out, e)
		}
	}
	return out
}

// TotalMonthlyExpenses sums the current month with the spend sign rule:
// Subtract takes away its magnitude, every other category adds it.
func (l *Ledger) TotalMonthlyExpenses() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.SpendTotal(l.currentMonth())
}

// RemainingBudget is nil without a budget. A budget set for another month
// is returned untouched.
func (l *Ledger) RemainingBudget() *float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining()
}

func (l *Ledger) remaining() *float64 {
	if l.budget == nil {
		return nil
	}
	v := l.budget.Monthly
	if l.budget.InMonth(l.now()) {
		if r := core.Sub(v, core.SpendTotal(l.currentMonth())); core.IsFinite(r) {
			v = r
		}
	}
	return &v
}

// ExpensesByCategory sums stored amounts per category for the current
// month. Unlike TotalMonthlyExpenses the stored sign is kept as is.
func (l *Ledger) ExpensesByCategory() map[core.Category]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byCategory()
}

func (l *Ledger) byCategory() map[core.Category]float64 {
	sums := map[core.Category]decimal.Decimal{}
	for _, e := range l.currentMonth() {
		sums[e.Category] = sums[e.Category].Add(decimal.NewFromFloat(e.Amount))
	}
	out := make(map[core.Category]float64, len(sums))
	for c, v := range sums {
		out[c] = v.InexactFloat64()
	}
	return out
}

// MonthlyEMITotal sums EMI amounts due in the current month.
func (l *Ledger) MonthlyEMITotal() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.emiTotal()
}

func (l *Ledger) emiTotal() float64 {
	now := l.now()
	var amounts []float64
	for _, emi := range l.emis {
		if core.SameMonth(emi.DueDate, now) {
			amounts = append(amounts, emi.Amount)
		}
	}
	return core.RawSum(amounts...)
}

// NextDueEMI is the unpaid EMI with the earliest due date from today on.
func (l *Ledger) NextDueEMI() *core.LoanEMI {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextDue()
}

func (l *Ledger) nextDue() *core.LoanEMI {
	now := l.now()
	today := core.Today(now)
	var next *core.LoanEMI
	for i := range l.emis {
		emi := l.emis[i]
		if emi.IsPaid {
			continue
		}
		if _, err := core.ParseDate(emi.DueDate, now.Location()); err != nil {
			continue
		}
		if emi.DueDate < today {
			continue
		}
		if next == nil || emi.DueDate < next.DueDate {
			next = &emi
		}
	}
	return next
}

// MonthSummary bundles the current month's figures. Results are cached
// per day until the next mutation.
func (l *Ledger) MonthSummary() core.MonthSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := core.Today(now)
	if s, ok := l.summaries.Get(key); ok {
		st := l.summaries.Stats()
		l.logger.Debug("Month summary served from cache", "hits", st.Hits, "misses", st.Misses)
		return s.Clone()
	}

	s := core.MonthSummary{
		Year:      now.Year(),
		Month:     int(now.Month()),
		Total:     core.SpendTotal(l.currentMonth()),
		Remaining: l.remaining(),
		EMITotal:  l.emiTotal(),
		NextEMI:   l.nextDue(),
	}
	if l.budget != nil {
		b := *l.budget
		s.Budget = &b
	}
	for c, v := range l.byCategory() {
		s.ByCategory = append(s.ByCategory, core.CategoryAmount{Category: c, Amount: v})
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		return categoryRank(s.ByCategory[i].Category) < categoryRank(s.ByCategory[j].Category) ||
			(categoryRank(s.ByCategory[i].Category) == categoryRank(s.ByCategory[j].Category) &&
				s.ByCategory[i].Category < s.ByCategory[j].Category)
	})

	l.summaries.Set(key, s.Clone())
	return s
}

// categoryRank orders known categories by display order and anything else
// after them.
func categoryRank(c core.Category) int {
	for i, v := range core.Categories() {
		if v == c {
			return i
		}
	}
	return len(core.Categories())
}

// GenerateCSV is the full backup export.
func (l *Ledger) GenerateCSV() string {
	return export.BackupCSV(l.Expenses())
}

// GenerateSheetExport is the tab-separated sheet export of every expense.
func (l *Ledger) GenerateSheetExport() string {
	return export.SheetTSV(l.Expenses())
}

func (l *Ledger) GenerateWeeklyCSV() string {
	return export.WeeklyCSV(l.Expenses(), l.now())
}

func (l *Ledger) GenerateMonthlyCSV() string {
	return export.MonthlyCSV(l.Expenses(), l.now())
}

// WriteWorkbook writes every expense as an .xlsx workbook.
func (l *Ledger) WriteWorkbook(w io.Writer) error {
	return export.WriteWorkbook(w, l.Expenses())
}
