// Package hooks holds the stateful data bindings consumed by views: each hook
// loads one owner's rows from the managed backend, tracks loading and error
// state, and reports mutations through notifications instead of errors.
package hooks

import (
	"context"
	"errors"
	"sync"
)

// feed is the row list shared by the hooks. A newer load supersedes an
// in-flight one; superseded or cancelled loads never touch the rows.
type feed[T any] struct {
	mu      sync.Mutex
	rows    []T
	loading bool
	err     error
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
}

// start supersedes any in-flight load and claims the next generation. The
// returned func runs fetch and stores its result; it returns the fetch error
// only when that error was recorded as the feed's state. Callers that pair a
// load with other state claim it while holding their own lock.
func (f *feed[T]) start(ctx context.Context) func(fetch func(context.Context) ([]T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return func(func(context.Context) ([]T, error)) error { return nil }
	}
	if f.cancel != nil {
		f.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	f.gen++
	gen := f.gen
	f.cancel = cancel
	f.loading = true

	return func(fetch func(context.Context) ([]T, error)) error {
		defer cancel()
		rows, err := fetch(loadCtx)
		return f.finish(gen, rows, err)
	}
}

func (f *feed[T]) finish(gen uint64, rows []T, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen || f.closed {
		return nil
	}
	f.cancel = nil
	f.loading = false
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		f.err = err
		return err
	}
	f.rows = rows
	f.err = nil
	return nil
}

// reset cancels any pending load and clears the rows.
func (f *feed[T]) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.gen++
	f.rows = nil
	f.loading = false
	f.err = nil
}

func (f *feed[T]) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.closed = true
	f.loading = false
}

func (f *feed[T]) snapshot() ([]T, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]T, len(f.rows))
	copy(rows, f.rows)
	return rows, f.loading, f.err
}

func (f *feed[T]) prepend(row T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append([]T{row}, f.rows...)
}

func (f *feed[T]) remove(match func(T) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0:0]
	for _, row := range f.rows {
		if !match(row) {
			kept = append(kept, row)
		}
	}
	f.rows = kept
}
