package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"kharcha/internal/core"
)

const notesWidth = 32

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	labelStyle  = lipgloss.NewStyle().Width(12)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

func monthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("month %d", m)
	}
	return time.Month(m).String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func renderSummary(w io.Writer, s core.MonthSummary) {
	lines := []string{titleStyle.Render(fmt.Sprintf("%s %d", monthName(s.Month), s.Year))}
	lines = append(lines, row("Spent", core.FormatAmount(s.Total)))

	switch {
	case s.Budget == nil:
		lines = append(lines, row("Budget", dimStyle.Render("not set")))
	case s.Budget.Year == s.Year && s.Budget.Month+1 == s.Month:
		lines = append(lines, row("Budget", core.FormatAmount(s.Budget.Monthly)))
	default:
		lines = append(lines, row("Budget", fmt.Sprintf("%s %s",
			core.FormatAmount(s.Budget.Monthly),
			dimStyle.Render(fmt.Sprintf("(set for %s %d)", monthName(s.Budget.Month+1), s.Budget.Year)))))
	}
	if s.Remaining != nil {
		remain := core.FormatAmount(*s.Remaining)
		if *s.Remaining < 0 {
			remain = alertStyle.Render(remain)
		} else {
			remain = okStyle.Render(remain)
		}
		lines = append(lines, row("Remaining", remain))
	}

	lines = append(lines, row("EMIs due", core.FormatAmount(s.EMITotal)))
	if s.NextEMI != nil {
		lines = append(lines, row("Next EMI", fmt.Sprintf("%s %s on %s",
			ansi.Truncate(s.NextEMI.LoanType, 24, "…"), core.FormatAmount(s.NextEMI.Amount), s.NextEMI.DueDate)))
	}

	lines = append(lines, "", headerStyle.Render("By category"))
	if len(s.ByCategory) == 0 {
		lines = append(lines, dimStyle.Render("  No expenses this month."))
	}
	for _, c := range s.ByCategory {
		lines = append(lines, fmt.Sprintf("  %-18s %12s", c.Category, core.FormatAmount(c.Amount)))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func renderExpenses(w io.Writer, expenses []core.Expense) {
	if len(expenses) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No expenses."))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-16s %-10s %-16s %-11s %12s  %s",
		"ID", "Date", "Category", "Payment", "Amount", "Notes")))
	for _, e := range expenses {
		amount := core.FormatAmount(e.Amount)
		if e.Category == core.Subtract {
			amount = okStyle.Render(fmt.Sprintf("%12s", amount))
		} else {
			amount = fmt.Sprintf("%12s", amount)
		}
		fmt.Fprintf(w, "%-16s %-10s %-16s %-11s %s  %s\n",
			ansi.Truncate(e.ID, 16, ""), e.Date, e.Category, e.PaymentType.OrDefault(), amount,
			ansi.Truncate(e.Notes, notesWidth, "…"))
	}
}

func renderEMIs(w io.Writer, emis []core.LoanEMI, next *core.LoanEMI) {
	if len(emis) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No EMIs."))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("  %-16s %-20s %-10s %12s  %s",
		"ID", "Loan", "Due", "Amount", "Status")))
	for _, emi := range emis {
		prefix := "  "
		if next != nil && emi.ID == next.ID {
			prefix = titleStyle.Render("> ")
		}
		status := alertStyle.Render("unpaid")
		if emi.IsPaid {
			status = okStyle.Render("paid")
		}
		fmt.Fprintf(w, "%s%-16s %-20s %-10s %12s  %s\n",
			prefix, ansi.Truncate(emi.ID, 16, ""), ansi.Truncate(emi.LoanType, 20, "…"),
			emi.DueDate, core.FormatAmount(emi.Amount), status)
	}
}
