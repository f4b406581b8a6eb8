// Package listview holds client side list state: which fetch is current,
// what it returned, and whether it failed.
package listview

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned by a refresh whose response arrived after a
// newer refresh started. Its result is discarded.
var ErrSuperseded = errors.New("listview: superseded by a newer refresh")

// Status is the view lifecycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

// FetchFunc loads one page. It must honor ctx cancellation.
type FetchFunc[P any] func(ctx context.Context) (P, error)

// State is a point-in-time copy of the view.
type State[P any] struct {
	Status    Status
	Page      P
	Err       error
	Seq       uint64
	UpdatedAt time.Time
}

// View serializes refreshes of one list. Only the latest refresh may
// publish its result.
type View[P any] struct {
	fetch FetchFunc[P]
	empty func(P) bool
	now   func() time.Time

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	state  State[P]
}

// New returns an idle view. empty decides whether a fetched page counts as
// having no rows.
func New[P any](fetch FetchFunc[P], empty func(P) bool) *View[P] {
	return &View[P]{fetch: fetch, empty: empty, now: time.Now, state: State[P]{Status: StatusIdle}}
}

// Refresh cancels any in-flight fetch and starts a new one. A failed fetch
// clears the page and keeps the error.
func (v *View[P]) Refresh(ctx context.Context) (State[P], error) {
	v.mu.Lock()
	v.seq++
	token := v.seq
	if v.cancel != nil {
		v.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.state.Status = StatusLoading
	v.state.Seq = token
	v.mu.Unlock()

	page, err := v.fetch(fetchCtx)

	v.mu.Lock()
	defer v.mu.Unlock()
	cancel()
	if token != v.seq {
		return v.state, ErrSuperseded
	}
	v.cancel = nil

	var zero P
	switch {
	case err != nil:
		v.state = State[P]{Status: StatusFailed, Page: zero, Err: err}
	case v.empty != nil && v.empty(page):
		v.state = State[P]{Status: StatusEmpty, Page: page}
	default:
		v.state = State[P]{Status: StatusLoaded, Page: page}
	}
	v.state.Seq = token
	v.state.UpdatedAt = v.now()
	return v.state, err
}

// Retry refreshes a failed view. Other states are returned unchanged.
func (v *View[P]) Retry(ctx context.Context) (State[P], error) {
	v.mu.Lock()
	failed := v.state.Status == StatusFailed
	current := v.state
	v.mu.Unlock()
	if !failed {
		return current, nil
	}
	return v.Refresh(ctx)
}

// Cancel aborts the in-flight fetch, if any.
func (v *View[P]) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// State returns the current state.
func (v *View[P]) State() State[P] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
