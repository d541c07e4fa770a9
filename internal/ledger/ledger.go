// Package ledger owns the in-memory expense ledger and derives every
// report from it.
//
// Each command validates its input, mutates memory, then writes the one
// storage key it touched. A failed write is reported with core.ErrPersist
// after memory has already changed; there is no rollback, so a crash
// between the two steps loses the latest mutation.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/cache"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/persistence"
)

// Persister is the storage the ledger writes through.
type Persister interface {
	LoadAll(ctx context.Context) persistence.Snapshot
	SaveExpenses(ctx context.Context, expenses []core.Expense) error
	SaveBudget(ctx context.Context, b core.Budget) error
	SaveEMIs(ctx context.Context, emis []core.LoanEMI) error
	SaveSettings(ctx context.Context, s core.AppSettings) error
	SaveDraft(ctx context.Context, d core.Draft) error
	SaveFlag(ctx context.Context, key string, v bool) error
	Delete(ctx context.Context, key string) error
}

type Ledger struct {
	mu        sync.Mutex
	store     Persister
	logger    *log.Logger
	now       func() time.Time
	newID     func(time.Time) string
	notifiers []Notifier
	summaries cache.Cache[core.MonthSummary]
	inflight  sync.WaitGroup

	expenses             []core.Expense
	budget               *core.Budget
	emis                 []core.LoanEMI
	settings             core.AppSettings
	draft                *core.Draft
	hasSeenSplash        bool
	hasViewedPrivacyLink bool
}

type Option func(*Ledger)

// WithClock replaces time.Now for every "today" and "current month" rule.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithIDGenerator replaces the default timestamp+random id scheme.
func WithIDGenerator(fn func(time.Time) string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithNotifier registers a post-commit listener.
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifiers = append(l.notifiers, n) }
}

// WithSummaryCache replaces the month summary cache.
func WithSummaryCache(c cache.Cache[core.MonthSummary]) Option {
	return func(l *Ledger) { l.summaries = c }
}

// New loads the persisted state and returns a ready ledger.
func New(ctx context.Context, store Persister, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		logger:    log.Discard(),
		now:       time.Now,
		newID:     NewID,
		summaries: cache.NewLRUCache[core.MonthSummary](16, time.Minute),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithComponent(log.ComponentLedger)

	snap := store.LoadAll(ctx)
	l.expenses = snap.Expenses
	l.budget = snap.Budget
	l.emis = snap.EMIs
	l.settings = snap.Settings
	l.draft = snap.Draft
	l.hasSeenSplash = snap.HasSeenSplash
	l.hasViewedPrivacyLink = snap.HasViewedPrivacyLink
	return l
}

// Now reports the ledger clock.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// stamp is the creation time recorded on new records. It keeps millisecond
// precision so backups restore the same value.
func (l *Ledger) stamp() time.Time {
	return l.now().Truncate(time.Millisecond)
}

// NewID returns a base-36 millisecond timestamp followed by a 9 character
// random suffix.
func NewID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return strconv.FormatInt(t.UnixMilli(), 36) + suffix
}

// persistErr marks a failed write after memory was already mutated.
func persistErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", core.ErrPersist, err)
}

// rejected logs a validation or lookup failure and returns err unchanged.
func (l *Ledger) rejected(ctx context.Context, op string, err error, args ...any) error {
	errType := log.ErrorTypeValidation
	if isNotFound(err) {
		errType = log.ErrorTypeNotFound
	}
	fields := log.NewFields().WithOperation(op).WithErrorType(errType).WithError(err).ToSlice()
	l.logger.WarnContext(ctx, "Command rejected", append(fields, args...)...)
	return err
}

// changed drops cached reports. Call it after every in-memory mutation,
// whether or not the write that follows succeeds.
func (l *Ledger) changed() {
	l.summaries.Purge()
}
