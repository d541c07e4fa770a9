package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"kharcha/internal/core"
	"kharcha/internal/export"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

// App runs one subcommand against a loaded ledger.
type App struct {
	Ledger *ledger.Ledger
	Out    io.Writer
	Err    io.Writer
	In     io.Reader
	Logger *log.Logger
}

type command struct {
	name    string
	summary string
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{"add", "record an expense", (*App).add},
	{"update", "change an expense: update <id> [flags]", (*App).update},
	{"delete", "remove an expense: delete <id>", (*App).delete},
	{"list", "list expenses of the current month (-all for every month)", (*App).list},
	{"summary", "show the current month summary", (*App).summary},
	{"budget", "show or set the monthly budget", (*App).budget},
	{"clear-day", "remove every expense of one date", (*App).clearDay},
	{"clear-all", "remove all expenses, the budget and all EMIs", (*App).clearAll},
	{"emi-add", "add a loan EMI", (*App).emiAdd},
	{"emi-list", "list loan EMIs", (*App).emiList},
	{"emi-toggle", "flip the paid flag of an EMI: emi-toggle <id>", (*App).emiToggle},
	{"emi-delete", "remove an EMI: emi-delete <id>", (*App).emiDelete},
	{"settings", "show or change settings", (*App).settings},
	{"draft", "show, save or clear the expense draft", (*App).draft},
	{"export", "write an export (-format csv|sheet|weekly|monthly|xlsx)", (*App).export},
	{"import", "restore expenses from a backup CSV: import <file>", (*App).importCSV},
}

// Run dispatches args[0] to its subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	if a.Logger == nil {
		a.Logger = log.Discard()
	}
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(a, ctx, args[1:])
		}
	}
	a.usage()
	return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
}

func (a *App) usage() {
	fmt.Fprintln(a.Err, "usage: kharcha <command> [flags]")
	fmt.Fprintln(a.Err)
	for _, c := range commands {
		fmt.Fprintf(a.Err, "  %-11s %s\n", c.name, c.summary)
	}
}

// ExitCode maps command errors to process exit codes.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, ErrUsage), errors.Is(err, core.ErrValidation):
		return 2
	case errors.Is(err, core.ErrNotFound):
		return 3
	case errors.Is(err, core.ErrPersist):
		return 4
	default:
		return 1
	}
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return nil
}

// parseWithID accepts the record id either before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := parse(fs, args); err != nil {
		return "", err
	}
	if id == "" {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s needs an id", ErrUsage, fs.Name())
	}
	return id, nil
}

// visited reports which flags were given explicitly.
func visited(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func parseAmount(s string) (float64, error) {
	v, err := core.ParseAmount(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrUsage, s)
	}
	return v, nil
}

func (a *App) add(ctx context.Context, args []string) error {
	fs := a.flags("add")
	amount := fs.String("amount", "", "amount, dot or comma decimal")
	category := fs.String("category", "", "one of "+joinCategories())
	date := fs.String("date", "", "YYYY-MM-DD, default today")
	notes := fs.String("notes", "", "free text")
	payment := fs.String("payment", "", "one of "+joinPaymentTypes())
	if err := parse(fs, args); err != nil {
		return err
	}

	// Fields left out on the command line come from the saved draft.
	set := visited(fs)
	fromDraft := false
	if d := a.Ledger.Draft(); d != nil {
		fill := func(name string, dst *string, v string) {
			if !set[name] && v != "" {
				*dst = v
				fromDraft = true
			}
		}
		fill("amount", amount, d.Amount)
		fill("category", category, d.Category)
		fill("date", date, d.Date)
		fill("notes", notes, d.Notes)
		fill("payment", payment, d.PaymentType)
	}

	v, err := parseAmount(*amount)
	if err != nil {
		return err
	}
	if *date == "" {
		*date = a.today()
	}
	e, err := a.Ledger.AddExpense(ctx, ledger.ExpenseInput{
		Amount:      v,
		Category:    core.Category(*category),
		Date:        *date,
		Notes:       *notes,
		PaymentType: core.PaymentType(*payment),
	})
	if err != nil {
		return err
	}
	if fromDraft {
		if err := a.Ledger.ClearDraft(ctx); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.Out, "added %s  %s  %s  %s\n", e.ID, e.Date, e.Category, core.FormatAmount(e.Amount))
	return nil
}

func (a *App) update(ctx context.Context, args []string) error {
	fs := a.flags("update")
	amount := fs.String("amount", "", "new amount")
	category := fs.String("category", "", "new category")
	notes := fs.String("notes", "", "new notes")
	payment := fs.String("payment", "", "new payment type")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	set := visited(fs)
	var p ledger.ExpensePatch
	if set["amount"] {
		v, err := parseAmount(*amount)
		if err != nil {
			return err
		}
		p.Amount = &v
	}
	if set["category"] {
		c := core.Category(*category)
		p.Category = &c
	}
	if set["payment"] {
		pt := core.PaymentType(*payment)
		p.PaymentType = &pt
	}
	if set["notes"] {
		p.Notes = notes
	}
	if len(set) == 0 {
		return fmt.Errorf("%w: update needs at least one field", ErrUsage)
	}
	if err := a.Ledger.UpdateExpense(ctx, id, p); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "updated %s\n", id)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	id, err := parseWithID(a.flags("delete"), args)
	if err != nil {
		return err
	}
	if err := a.Ledger.DeleteExpense(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "deleted %s\n", id)
	return nil
}

func (a *App) list(_ context.Context, args []string) error {
	fs := a.flags("list")
	all := fs.Bool("all", false, "every month, not just the current one")
	if err := parse(fs, args); err != nil {
		return err
	}
	expenses := a.Ledger.CurrentMonthExpenses()
	if *all {
		expenses = a.Ledger.Expenses()
	}
	renderExpenses(a.Out, expenses)
	return nil
}

func (a *App) summary(_ context.Context, args []string) error {
	if err := parse(a.flags("summary"), args); err != nil {
		return err
	}
	renderSummary(a.Out, a.Ledger.MonthSummary())
	return nil
}

func (a *App) budget(ctx context.Context, args []string) error {
	now := a.Ledger.Now()
	fs := a.flags("budget")
	amount := fs.String("amount", "", "monthly budget; omit to show the current one")
	month := fs.Int("month", int(now.Month()), "month 1-12")
	year := fs.Int("year", now.Year(), "year")
	if err := parse(fs, args); err != nil {
		return err
	}

	if !visited(fs)["amount"] {
		b := a.Ledger.Budget()
		if b == nil {
			fmt.Fprintln(a.Out, "no budget set")
			return nil
		}
		fmt.Fprintf(a.Out, "%s for %s %d\n", core.FormatAmount(b.Monthly), monthName(b.Month+1), b.Year)
		return nil
	}

	v, err := parseAmount(*amount)
	if err != nil {
		return err
	}
	b := core.Budget{Monthly: v, Year: *year, Month: *month - 1}
	if err := a.Ledger.UpdateBudget(ctx, b); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "budget set to %s for %s %d\n", core.FormatAmount(a.Ledger.Budget().Monthly), monthName(*month), *year)
	return nil
}

func (a *App) clearDay(ctx context.Context, args []string) error {
	fs := a.flags("clear-day")
	date := fs.String("date", "", "YYYY-MM-DD, default today")
	if err := parse(fs, args); err != nil {
		return err
	}
	n, err := a.Ledger.ClearDailyData(ctx, *date)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "removed %d expenses\n", n)
	return nil
}

func (a *App) clearAll(ctx context.Context, args []string) error {
	fs := a.flags("clear-all")
	yes := fs.Bool("yes", false, "confirm")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("%w: clear-all removes every expense, the budget and all EMIs; pass -yes to confirm", ErrUsage)
	}
	if err := a.Ledger.ClearAllData(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "all data cleared")
	return nil
}

func (a *App) emiAdd(ctx context.Context, args []string) error {
	fs := a.flags("emi-add")
	loan := fs.String("loan", "", "loan type, e.g. Home")
	amount := fs.String("amount", "", "installment amount")
	due := fs.String("due", "", "due date YYYY-MM-DD")
	payment := fs.String("payment", "", "payment type")
	notes := fs.String("notes", "", "free text")
	paid := fs.Bool("paid", false, "already paid")
	if err := parse(fs, args); err != nil {
		return err
	}
	v, err := parseAmount(*amount)
	if err != nil {
		return err
	}
	emi, err := a.Ledger.AddEMI(ctx, ledger.EMIInput{
		LoanType:    *loan,
		Amount:      v,
		DueDate:     *due,
		PaymentType: core.PaymentType(*payment),
		Notes:       *notes,
		IsPaid:      *paid,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "added EMI %s  %s  %s due %s\n", emi.ID, emi.LoanType, core.FormatAmount(emi.Amount), emi.DueDate)
	return nil
}

func (a *App) emiList(_ context.Context, args []string) error {
	if err := parse(a.flags("emi-list"), args); err != nil {
		return err
	}
	emis := a.Ledger.EMIs()
	sort.SliceStable(emis, func(i, j int) bool { return emis[i].DueDate < emis[j].DueDate })
	renderEMIs(a.Out, emis, a.Ledger.NextDueEMI())
	return nil
}

func (a *App) emiToggle(ctx context.Context, args []string) error {
	id, err := parseWithID(a.flags("emi-toggle"), args)
	if err != nil {
		return err
	}
	paid, err := a.Ledger.ToggleEMIPaid(ctx, id)
	if err != nil {
		return err
	}
	state := "unpaid"
	if paid {
		state = "paid"
	}
	fmt.Fprintf(a.Out, "EMI %s marked %s\n", id, state)
	return nil
}

func (a *App) emiDelete(ctx context.Context, args []string) error {
	id, err := parseWithID(a.flags("emi-delete"), args)
	if err != nil {
		return err
	}
	if err := a.Ledger.DeleteEMI(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "deleted EMI %s\n", id)
	return nil
}

func (a *App) settings(ctx context.Context, args []string) error {
	fs := a.flags("settings")
	lang := fs.String("language", "", "en or hi")
	dark := fs.Bool("dark", true, "dark mode")
	lock := fs.Bool("lock", false, "app lock")
	privacy := fs.Bool("privacy", false, "privacy policy accepted")
	if err := parse(fs, args); err != nil {
		return err
	}

	set := visited(fs)
	if len(set) > 0 {
		var p ledger.SettingsPatch
		if set["language"] {
			l := core.Language(*lang)
			p.Language = &l
		}
		if set["dark"] {
			p.DarkMode = dark
		}
		if set["lock"] {
			p.AppLockEnabled = lock
		}
		if set["privacy"] {
			p.HasAcceptedPrivacy = privacy
		}
		if err := a.Ledger.UpdateSettings(ctx, p); err != nil {
			return err
		}
	}

	s := a.Ledger.Settings()
	fmt.Fprintf(a.Out, "language  %s\ndark      %t\nlock      %t\nprivacy   %t\n",
		s.Language, s.DarkMode, s.AppLockEnabled, s.HasAcceptedPrivacy)
	return nil
}

func (a *App) draft(ctx context.Context, args []string) error {
	fs := a.flags("draft")
	discard := fs.Bool("clear", false, "discard the draft")
	amount := fs.String("amount", "", "amount as typed")
	category := fs.String("category", "", "category")
	date := fs.String("date", "", "date")
	notes := fs.String("notes", "", "notes")
	payment := fs.String("payment", "", "payment type")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *discard {
		if err := a.Ledger.ClearDraft(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.Out, "draft cleared")
		return nil
	}

	// Saving merges the given fields into the existing draft.
	if set := visited(fs); len(set) > 0 {
		d := core.Draft{}
		if cur := a.Ledger.Draft(); cur != nil {
			d = *cur
		}
		if set["amount"] {
			d.Amount = *amount
		}
		if set["category"] {
			d.Category = *category
		}
		if set["date"] {
			d.Date = *date
		}
		if set["notes"] {
			d.Notes = *notes
		}
		if set["payment"] {
			d.PaymentType = *payment
		}
		if err := a.Ledger.SaveDraft(ctx, d); err != nil {
			return err
		}
	}

	d := a.Ledger.Draft()
	if d == nil {
		fmt.Fprintln(a.Out, "no draft")
		return nil
	}
	fmt.Fprintf(a.Out, "amount    %s\ncategory  %s\ndate      %s\nnotes     %s\npayment   %s\n",
		d.Amount, d.Category, d.Date, d.Notes, d.PaymentType)
	return nil
}

func (a *App) export(ctx context.Context, args []string) (err error) {
	fs := a.flags("export")
	format := fs.String("format", "csv", "csv, sheet, weekly, monthly or xlsx")
	out := fs.String("o", "", "output file, default stdout")
	if err := parse(fs, args); err != nil {
		return err
	}

	w := a.Out
	if *out != "" {
		f, cerr := os.Create(*out)
		if cerr != nil {
			return fmt.Errorf("create %s: %w", *out, cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", *out, cerr)
			}
		}()
		w = f
	}

	a.Logger.DebugContext(ctx, "Writing export", log.FieldOperation, log.OpExport, log.FieldFormat, *format)

	var text string
	switch *format {
	case "csv":
		text = a.Ledger.GenerateCSV()
	case "sheet":
		text = a.Ledger.GenerateSheetExport()
	case "weekly":
		text = a.Ledger.GenerateWeeklyCSV()
	case "monthly":
		text = a.Ledger.GenerateMonthlyCSV()
	case "xlsx":
		return a.Ledger.WriteWorkbook(w)
	default:
		return fmt.Errorf("%w: unknown export format %q", ErrUsage, *format)
	}
	_, err = io.WriteString(w, text+"\n")
	return err
}

func (a *App) importCSV(ctx context.Context, args []string) error {
	fs := a.flags("import")
	if err := parse(fs, args); err != nil {
		return err
	}

	var r io.Reader = a.In
	if name := fs.Arg(0); name != "" && name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		defer f.Close()
		r = f
	}

	records, err := export.ParseBackupCSV(r)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	n, err := a.Ledger.ImportExpenses(ctx, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "imported %d of %d expenses\n", n, len(records))
	return nil
}

func (a *App) today() string {
	return core.Today(a.Ledger.Now())
}

func joinPaymentTypes() string {
	names := make([]string, 0, len(core.PaymentTypes()))
	for _, p := range core.PaymentTypes() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func joinCategories() string {
	names := make([]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
