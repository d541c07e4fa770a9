package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"kharcha/internal/core"
	"kharcha/internal/kv"
	"kharcha/internal/kv/memory"
	"kharcha/internal/ledger"
	"kharcha/internal/persistence"
)

var testNow = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

type harness struct {
	app *App
	out *bytes.Buffer
	err *bytes.Buffer
}

func newHarness(t *testing.T, store kv.Store) *harness {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	l := ledger.New(context.Background(), persistence.New(store, nil),
		ledger.WithClock(func() time.Time { return testNow }))
	h := &harness{out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	h.app = &App{Ledger: l, Out: h.out, Err: h.err, In: strings.NewReader("")}
	return h
}

// run executes one command and returns its plain-text output.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.out.Reset()
	err := h.app.Run(context.Background(), args)
	return ansi.Strip(h.out.String()), err
}

func (h *harness) must(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestAddListAndSummary(t *testing.T) {
	h := newHarness(t, nil)
	h.must(t, "budget", "-amount", "5000", "-month", "1", "-year", "2024")
	h.must(t, "add", "-amount", "500", "-category", "Food", "-notes", "lunch")
	h.must(t, "add", "-amount", "1000", "-category", "Shopping", "-payment", "UPI")
	h.must(t, "add", "-amount", "-300", "-category", "Subtract", "-date", "2024-01-10")
	h.must(t, "add", "-amount", "100", "-category", "Food", "-date", "2023-12-31")

	list := h.must(t, "list")
	if strings.Count(list, "\n") != 4 || !strings.Contains(list, "lunch") || strings.Contains(list, "2023-12-31") {
		t.Fatalf("unexpected list output:\n%s", list)
	}
	if all := h.must(t, "list", "-all"); !strings.Contains(all, "2023-12-31") {
		t.Fatalf("list -all should include older months:\n%s", all)
	}

	summary := h.must(t, "summary")
	for _, want := range []string{"January 2024", "1200", "3800", "Shopping"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestAddUsesAndClearsDraft(t *testing.T) {
	h := newHarness(t, nil)
	h.must(t, "draft", "-amount", "12,5", "-category", "Food")
	if out := h.must(t, "draft"); !strings.Contains(out, "12,5") {
		t.Fatalf("draft not shown:\n%s", out)
	}

	h.must(t, "add", "-notes", "chai")
	got := h.app.Ledger.Expenses()
	if len(got) != 1 || got[0].Amount != 12.5 || got[0].Category != core.Food || got[0].Notes != "chai" {
		t.Fatalf("unexpected expense %+v", got)
	}
	if h.app.Ledger.Draft() != nil {
		t.Fatalf("draft should be cleared after a successful add")
	}
}

func TestUpdateAcceptsIDBeforeOrAfterFlags(t *testing.T) {
	h := newHarness(t, nil)
	h.must(t, "add", "-amount", "10", "-category", "Food")
	id := h.app.Ledger.Expenses()[0].ID

	h.must(t, "update", id, "-amount", "20")
	h.must(t, "update", "-notes", "dinner", id)
	e := h.app.Ledger.Expenses()[0]
	if e.Amount != 20 || e.Notes != "dinner" {
		t.Fatalf("unexpected expense %+v", e)
	}

	if _, err := h.run(t, "update", id); !errors.Is(err, ErrUsage) {
		t.Fatalf("update without fields should be a usage error, got %v", err)
	}
	if _, err := h.run(t, "delete", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	h.must(t, "delete", id)
	if len(h.app.Ledger.Expenses()) != 0 {
		t.Fatalf("expense not deleted")
	}
}

func TestErrorsAndExitCodes(t *testing.T) {
	h := newHarness(t, nil)
	tests := []struct {
		args []string
		code int
	}{
		{[]string{"frobnicate"}, 2},
		{[]string{"add", "-amount", "abc", "-category", "Food"}, 2},
		{[]string{"add", "-amount", "5", "-category", "Rent"}, 2},
		{[]string{"add", "-amount", "5", "-category", "Food", "-date", "2024-01-16"}, 2},
		{[]string{"budget", "-amount", "100", "-month", "13"}, 2},
		{[]string{"clear-all"}, 2},
		{[]string{"emi-toggle", "nope"}, 3},
		{[]string{"export", "-format", "pdf"}, 2},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := h.run(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := ExitCode(err); got != tt.code {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, tt.code)
			}
		})
	}
	if len(h.app.Ledger.Expenses()) != 0 || h.app.Ledger.Budget() != nil {
		t.Fatalf("failed commands changed state")
	}
}

func TestClearCommands(t *testing.T) {
	h := newHarness(t, nil)
	h.must(t, "add", "-amount", "1", "-category", "Food")
	h.must(t, "add", "-amount", "2", "-category", "Food", "-date", "2024-01-14")
	if out := h.must(t, "clear-day"); !strings.Contains(out, "removed 1") {
		t.Fatalf("unexpected output %q", out)
	}
	h.must(t, "emi-add", "-loan", "Car", "-amount", "100", "-due", "2024-01-20")
	h.must(t, "clear-all", "-yes")
	if len(h.app.Ledger.Expenses()) != 0 || len(h.app.Ledger.EMIs()) != 0 {
		t.Fatalf("clear-all left data behind")
	}
}

func TestEMICommands(t *testing.T) {
	h := newHarness(t, nil)
	h.must(t, "emi-add", "-loan", "Home", "-amount", "2500", "-due", "2024-01-20")
	h.must(t, "emi-add", "-loan", "Car", "-amount", "900", "-due", "2024-01-18")
	emis := h.app.Ledger.EMIs()
	if len(emis) != 2 {
		t.Fatalf("expected 2 EMIs, got %d", len(emis))
	}

	list := h.must(t, "emi-list")
	if strings.Index(list, "Car") > strings.Index(list, "Home") {
		t.Fatalf("EMIs should be listed by due date:\n%s", list)
	}
	if !strings.Contains(list, "> ") {
		t.Fatalf("next due EMI should be marked:\n%s", list)
	}

	if out := h.must(t, "emi-toggle", emis[1].ID); !strings.Contains(out, "marked paid") {
		t.Fatalf("unexpected toggle output %q", out)
	}
	if next := h.app.Ledger.NextDueEMI(); next == nil || next.LoanType != "Home" {
		t.Fatalf("unexpected next EMI %+v", next)
	}
	h.must(t, "emi-delete", emis[0].ID)
	if len(h.app.Ledger.EMIs()) != 1 {
		t.Fatalf("EMI not deleted")
	}
}

func TestSettingsCommand(t *testing.T) {
	h := newHarness(t, nil)
	out := h.must(t, "settings", "-language", "hi", "-dark=false")
	if !strings.Contains(out, "language  hi") || !strings.Contains(out, "dark      false") {
		t.Fatalf("unexpected settings output:\n%s", out)
	}
	if _, err := h.run(t, "settings", "-language", "de"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := newHarness(t, nil)
	src.must(t, "add", "-amount", "10.5", "-category", "Food", "-notes", "say \"hi\", ok")
	src.must(t, "add", "-amount", "7", "-category", "Transport", "-payment", "Cash", "-date", "2024-01-02")

	backup := filepath.Join(dir, "backup.csv")
	src.must(t, "export", "-format", "csv", "-o", backup)

	dst := newHarness(t, nil)
	if out := dst.must(t, "import", backup); !strings.Contains(out, "imported 2 of 2") {
		t.Fatalf("unexpected import output %q", out)
	}
	if out := dst.must(t, "import", backup); !strings.Contains(out, "imported 0 of 2") {
		t.Fatalf("re-import should skip known ids, got %q", out)
	}
	a, b := src.app.Ledger.Expenses(), dst.app.Ledger.Expenses()
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Amount != b[i].Amount || a[i].Notes != b[i].Notes || !a[i].CreatedAt.Equal(b[i].CreatedAt) {
			t.Fatalf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}

	weekly := src.must(t, "export", "-format", "weekly")
	if !strings.HasPrefix(weekly, "Date,Category,PaymentType,Amount,Notes") || strings.Contains(weekly, "2024-01-02") {
		t.Fatalf("unexpected weekly export:\n%s", weekly)
	}

	xlsx := filepath.Join(dir, "expenses.xlsx")
	src.must(t, "export", "-format", "xlsx", "-o", xlsx)
	if info, err := os.Stat(xlsx); err != nil || info.Size() == 0 {
		t.Fatalf("workbook not written: %v", err)
	}
}

func TestHelpFlagExitsCleanly(t *testing.T) {
	h := newHarness(t, nil)
	h.err.Reset()
	_, err := h.run(t, "add", "-h")
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if got := ExitCode(err); got != 0 {
		t.Errorf("ExitCode(%v) = %d, want 0", err, got)
	}
	usage := h.err.String()
	for _, want := range []string{"-category", "LoanEMI", "-payment", "Debit Card"} {
		if !strings.Contains(usage, want) {
			t.Errorf("usage missing %q:\n%s", want, usage)
		}
	}
}

func TestExportReportsWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	h := newHarness(t, nil)
	h.must(t, "add", "-amount", "10", "-category", "Food")
	if _, err := h.run(t, "export", "-format", "csv", "-o", "/dev/full"); err == nil {
		t.Fatal("expected the failed write to be reported")
	}
}
