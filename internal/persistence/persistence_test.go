package persistence

import (
	"context"
	"errors"
	"testing"

	"kharcha/internal/core"
	"kharcha/internal/kv/memory"
)

// faultyStore fails reads and writes for selected keys.
type faultyStore struct {
	*memory.Store
	failGet map[string]bool
	failSet map[string]bool
}

func (f *faultyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet[key] {
		return nil, errors.New("disk on fire")
	}
	return f.Store.Get(ctx, key)
}

func (f *faultyStore) Set(ctx context.Context, key string, v []byte) error {
	if f.failSet[key] {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, v)
}

func TestLoadAllDefaults(t *testing.T) {
	a := New(memory.New(), nil)
	snap := a.LoadAll(context.Background())

	if snap.Expenses == nil || len(snap.Expenses) != 0 {
		t.Fatalf("expected empty expenses, got %v", snap.Expenses)
	}
	if snap.EMIs == nil || len(snap.EMIs) != 0 {
		t.Fatalf("expected empty emis, got %v", snap.EMIs)
	}
	if snap.Budget != nil || snap.Draft != nil {
		t.Fatalf("expected no budget or draft")
	}
	if snap.Settings != core.DefaultSettings() {
		t.Fatalf("expected default settings, got %+v", snap.Settings)
	}
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	a := New(memory.New(), nil)

	expenses := []core.Expense{{ID: "a", Amount: 500, Category: core.Food, Date: "2024-01-15"}}
	if err := a.SaveExpenses(ctx, expenses); err != nil {
		t.Fatalf("save expenses: %v", err)
	}
	if err := a.SaveBudget(ctx, core.Budget{Monthly: 5000, Year: 2024, Month: 0}); err != nil {
		t.Fatalf("save budget: %v", err)
	}
	if err := a.SaveEMIs(ctx, []core.LoanEMI{{ID: "e", LoanType: "Car", Amount: 100, DueDate: "2024-02-01"}}); err != nil {
		t.Fatalf("save emis: %v", err)
	}
	if err := a.SaveSettings(ctx, core.AppSettings{Language: core.Hindi, DarkMode: true}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := a.SaveDraft(ctx, core.Draft{Amount: "12"}); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if err := a.SaveFlag(ctx, KeyHasSeenSplash, true); err != nil {
		t.Fatalf("save flag: %v", err)
	}

	snap := a.LoadAll(ctx)
	if len(snap.Expenses) != 1 || snap.Expenses[0].ID != "a" {
		t.Fatalf("unexpected expenses %v", snap.Expenses)
	}
	if snap.Budget == nil || snap.Budget.Monthly != 5000 {
		t.Fatalf("unexpected budget %v", snap.Budget)
	}
	if len(snap.EMIs) != 1 || snap.EMIs[0].LoanType != "Car" {
		t.Fatalf("unexpected emis %v", snap.EMIs)
	}
	if snap.Settings.Language != core.Hindi {
		t.Fatalf("unexpected settings %+v", snap.Settings)
	}
	if snap.Draft == nil || snap.Draft.Amount != "12" {
		t.Fatalf("unexpected draft %v", snap.Draft)
	}
	if !snap.HasSeenSplash || snap.HasViewedPrivacyLink {
		t.Fatalf("unexpected flags %v %v", snap.HasSeenSplash, snap.HasViewedPrivacyLink)
	}

	if err := a.Delete(ctx, KeyBudget); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if snap := a.LoadAll(ctx); snap.Budget != nil {
		t.Fatalf("budget should be gone")
	}
}

func TestLoadAllIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	mem.Set(ctx, KeyExpenses, []byte(`{not json`))
	mem.Set(ctx, KeyBudget, []byte(`{"monthly":5000,"year":2024,"month":0}`))
	mem.Set(ctx, KeySettings, []byte(`{"language":"hi"}`))
	mem.Set(ctx, KeyEMIs, []byte(`[{"id":"e1","loanType":"Home","amount":1000,"dueDate":"2024-01-20"}]`))

	a := New(&faultyStore{Store: mem, failGet: map[string]bool{KeyBudget: true}}, nil)
	snap := a.LoadAll(ctx)

	if len(snap.Expenses) != 0 {
		t.Fatalf("malformed expenses should fall back to empty, got %v", snap.Expenses)
	}
	if snap.Budget != nil {
		t.Fatalf("unreadable budget should fall back to nil")
	}
	if snap.Settings.Language != core.Hindi || !snap.Settings.DarkMode {
		t.Fatalf("settings should merge over defaults, got %+v", snap.Settings)
	}
	if len(snap.EMIs) != 1 {
		t.Fatalf("emis should still load, got %v", snap.EMIs)
	}
}

func TestSaveFailureIsReported(t *testing.T) {
	a := New(&faultyStore{Store: memory.New(), failSet: map[string]bool{KeyExpenses: true}}, nil)
	if err := a.SaveExpenses(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
}
