// Package persistence maps the ledger's logical keys onto JSON documents in
// a kv.Store.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/core"
	"kharcha/internal/kv"
	"kharcha/internal/log"
)

const (
	KeyExpenses             = "expenses"
	KeyBudget               = "budget"
	KeySettings             = "settings"
	KeyEMIs                 = "emis"
	KeyDraft                = "draft"
	KeyHasSeenSplash        = "hasSeenSplash"
	KeyHasViewedPrivacyLink = "hasViewedPrivacyLink"
)

// Keys lists every key LoadAll reads.
var Keys = []string{
	KeyExpenses, KeyBudget, KeySettings, KeyEMIs, KeyDraft,
	KeyHasSeenSplash, KeyHasViewedPrivacyLink,
}

// Snapshot is the state read at startup. Absent or unreadable keys hold
// their defaults.
type Snapshot struct {
	Expenses             []core.Expense
	Budget               *core.Budget
	Settings             core.AppSettings
	EMIs                 []core.LoanEMI
	Draft                *core.Draft
	HasSeenSplash        bool
	HasViewedPrivacyLink bool
}

type Adapter struct {
	store  kv.Store
	logger *log.Logger
}

func New(store kv.Store, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Discard()
	}
	return &Adapter{store: store, logger: logger.WithComponent(log.ComponentPersistence)}
}

// LoadAll reads every key concurrently. A failure on one key is logged and
// leaves that key at its default; it never stops the others.
func (a *Adapter) LoadAll(ctx context.Context) Snapshot {
	snap := Snapshot{Settings: core.DefaultSettings()}
	raw := make([][]byte, len(Keys))

	var g errgroup.Group
	for i, key := range Keys {
		g.Go(func() error {
			b, err := a.store.Get(ctx, key)
			switch {
			case errors.Is(err, kv.ErrNotFound):
			case err != nil:
				a.logger.WarnContext(ctx, "Failed to read key, using default",
					log.NewFields().WithKey(key).WithOperation(log.OpLoad).
						WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
			default:
				raw[i] = b
			}
			return nil
		})
	}
	_ = g.Wait()

	targets := map[string]any{
		KeyExpenses:             &snap.Expenses,
		KeyBudget:               &snap.Budget,
		KeySettings:             &snap.Settings,
		KeyEMIs:                 &snap.EMIs,
		KeyDraft:                &snap.Draft,
		KeyHasSeenSplash:        &snap.HasSeenSplash,
		KeyHasViewedPrivacyLink: &snap.HasViewedPrivacyLink,
	}
	for i, key := range Keys {
		if raw[i] == nil {
			continue
		}
		if err := a.decode(key, raw[i], targets[key]); err != nil {
			a.logger.WarnContext(ctx, "Malformed document, using default",
				log.NewFields().WithKey(key).WithOperation(log.OpLoad).
					WithErrorType(log.ErrorTypeDecode).WithError(err).ToSlice()...)
		}
	}
	if snap.Expenses == nil {
		snap.Expenses = []core.Expense{}
	}
	if snap.EMIs == nil {
		snap.EMIs = []core.LoanEMI{}
	}

	a.logger.DebugContext(ctx, "Ledger state loaded",
		"expenses", len(snap.Expenses),
		"emis", len(snap.EMIs),
		"has_budget", snap.Budget != nil)
	return snap
}

// decode unmarshals into a scratch value first so a malformed document
// leaves the default in place.
func (a *Adapter) decode(key string, b []byte, target any) error {
	switch t := target.(type) {
	case *[]core.Expense:
		var v []core.Expense
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = v
	case **core.Budget:
		var v *core.Budget
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = v
	case *core.AppSettings:
		v := core.DefaultSettings()
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = v
	case *[]core.LoanEMI:
		var v []core.LoanEMI
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = v
	case **core.Draft:
		var v *core.Draft
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = v
	case *bool:
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = v
	default:
		return fmt.Errorf("no decoder for key %s", key)
	}
	return nil
}

func (a *Adapter) save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := a.store.Set(ctx, key, b); err != nil {
		a.logger.ErrorContext(ctx, "Failed to save key",
			log.NewFields().WithKey(key).WithOperation(log.OpSave).
				WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) SaveExpenses(ctx context.Context, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return a.save(ctx, KeyExpenses, expenses)
}

func (a *Adapter) SaveBudget(ctx context.Context, b core.Budget) error {
	return a.save(ctx, KeyBudget, b)
}

func (a *Adapter) SaveEMIs(ctx context.Context, emis []core.LoanEMI) error {
	if emis == nil {
		emis = []core.LoanEMI{}
	}
	return a.save(ctx, KeyEMIs, emis)
}

func (a *Adapter) SaveSettings(ctx context.Context, s core.AppSettings) error {
	return a.save(ctx, KeySettings, s)
}

func (a *Adapter) SaveDraft(ctx context.Context, d core.Draft) error {
	return a.save(ctx, KeyDraft, d)
}

func (a *Adapter) SaveFlag(ctx context.Context, key string, v bool) error {
	return a.save(ctx, key, v)
}

// Delete removes one key.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil {
		a.logger.ErrorContext(ctx, "Failed to delete key",
			log.NewFields().WithKey(key).WithOperation(log.OpDelete).
				WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
