// Package export renders the ledger in the text and spreadsheet formats
// the app shares or backs up to.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"kharcha/internal/core"
)

// CreatedAtLayout is how createdAt is written in backups.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	backupHeader = []string{"id", "createdAt", "date", "category", "amount", "notes", "paymentType"}
	sheetHeader  = []string{"Date", "ExpenseType", "PaymentType", "Amount", "Notes"}
	periodHeader = []string{"Date", "Category", "PaymentType", "Amount", "Notes"}
)

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// BackupCSV writes every expense with all fields quoted.
func BackupCSV(expenses []core.Expense) string {
	lines := make([]string, 0, len(expenses)+1)
	lines = append(lines, strings.Join(backupHeader, ","))
	for _, e := range expenses {
		fields := []string{
			e.ID,
			e.CreatedAt.UTC().Format(CreatedAtLayout),
			e.Date,
			string(e.Category),
			core.FormatAmount(e.Amount),
			e.Notes,
			string(e.PaymentType),
		}
		for i := range fields {
			fields[i] = quote(fields[i])
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// signed renders the amount with the spend sign rule.
func signed(e core.Expense) string {
	return core.SignedAmount(e.Category, e.Amount).String()
}

// SheetTSV is the tab-separated sheet paste format.
func SheetTSV(expenses []core.Expense) string {
	lines := make([]string, 0, len(expenses)+1)
	lines = append(lines, strings.Join(sheetHeader, "\t"))
	for _, e := range expenses {
		notes := strings.ReplaceAll(e.Notes, `"`, `""`)
		notes = strings.ReplaceAll(notes, "\t", " ")
		lines = append(lines, strings.Join([]string{
			e.Date,
			string(e.Category),
			string(e.PaymentType.OrDefault()),
			signed(e),
			notes,
		}, "\t"))
	}
	return strings.Join(lines, "\n")
}

// InPeriod returns the expenses dated within the last days calendar days,
// today included.
func InPeriod(expenses []core.Expense, now time.Time, days int) []core.Expense {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(days - 1))

	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		date, err := core.ParseDate(e.Date, now.Location())
		if err != nil {
			continue
		}
		if date.Before(start) || date.After(today) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// PeriodCSV writes the expenses of the last days days with signed amounts.
func PeriodCSV(expenses []core.Expense, now time.Time, days int) string {
	period := InPeriod(expenses, now, days)
	lines := make([]string, 0, len(period)+1)
	lines = append(lines, strings.Join(periodHeader, ","))
	for _, e := range period {
		lines = append(lines, strings.Join([]string{
			e.Date,
			string(e.Category),
			string(e.PaymentType.OrDefault()),
			signed(e),
			quote(e.Notes),
		}, ","))
	}
	return strings.Join(lines, "\n")
}

func WeeklyCSV(expenses []core.Expense, now time.Time) string {
	return PeriodCSV(expenses, now, 7)
}

func MonthlyCSV(expenses []core.Expense, now time.Time) string {
	return PeriodCSV(expenses, now, 30)
}

// ParseBackupCSV reads a backup written by BackupCSV. Columns are matched
// by header name. Records are returned as written; validation is the
// importer's job.
func ParseBackupCSV(r io.Reader) ([]core.Expense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty backup")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{"id", "date", "category", "amount"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []core.Expense
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := strconv.ParseFloat(get(row, "amount"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q", line, get(row, "amount"))
		}
		e := core.Expense{
			ID:          get(row, "id"),
			Date:        get(row, "date"),
			Category:    core.Category(get(row, "category")),
			Amount:      amount,
			Notes:       get(row, "notes"),
			PaymentType: core.PaymentType(get(row, "paymentType")),
		}
		if raw := get(row, "createdAt"); raw != "" {
			ts, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid createdAt %q", line, raw)
			}
			e.CreatedAt = ts
		}
		out = append(out, e)
	}
	return out, nil
}
