package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"kharcha/internal/kv/memory"
	"kharcha/internal/persistence"
)

var testNow = time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

// faultyStore fails operations on selected keys.
type faultyStore struct {
	*memory.Store
	mu         sync.Mutex
	failSet    map[string]bool
	failDelete map[string]bool
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.New(), failSet: map[string]bool{}, failDelete: map[string]bool{}}
}

func (f *faultyStore) Set(ctx context.Context, key string, v []byte) error {
	f.mu.Lock()
	fail := f.failSet[key]
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, v)
}

func (f *faultyStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failDelete[key]
	f.mu.Unlock()
	if fail {
		return errors.New("read-only filesystem")
	}
	return f.Store.Delete(ctx, key)
}

func sequentialIDs() func(time.Time) string {
	n := 0
	return func(time.Time) string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestLedger(t *testing.T, store *faultyStore, opts ...Option) *Ledger {
	t.Helper()
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
	}
	return New(context.Background(), persistence.New(store, nil), append(base, opts...)...)
}

func ptr[T any](v T) *T { return &v }
