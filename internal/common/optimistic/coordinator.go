// Package optimistic implements the apply-locally-then-confirm discipline
// shared by like toggles, comments, channel membership edits and chat sends.
// A mutation is applied to an in-process view first, the backing write is
// issued after, and a failed write either restores the previous snapshot or
// overwrites the view with a fresh read, depending on the mutation's policy.
package optimistic

import (
	"context"
	"sync"
)

// Policy selects the failure recovery strategy for a mutation.
type Policy int

const (
	// Revert restores the view to its pre-mutation snapshot.
	Revert Policy = iota
	// Refetch overwrites the view with the remote truth via the mutation's
	// Refetch func. Falls back to Revert when the refetch itself fails.
	Refetch
)

// View holds the local snapshot a mutation operates on. Mutations on one
// view are serialized, so a double toggle is two ordered flips rather than
// a race.
type View[S any] struct {
	mu       sync.Mutex
	snapshot S
}

func NewView[S any](initial S) *View[S] {
	return &View[S]{snapshot: initial}
}

func (v *View[S]) Get() S {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot
}

func (v *View[S]) Set(s S) {
	v.mu.Lock()
	v.snapshot = s
	v.mu.Unlock()
}

// Mutation describes one optimistic update.
type Mutation[S any] struct {
	// Apply computes the new local snapshot from the current one. It must be
	// pure: no remote calls.
	Apply func(S) S

	// Write issues the backing store write.
	Write func(ctx context.Context) error

	Policy Policy

	// Refetch re-reads the remote truth; required when Policy is Refetch.
	Refetch func(ctx context.Context) (S, error)
}

// Do runs the mutation against the view. The returned error is the write
// (or apply-side validation) error, to be surfaced to the user; the view is
// already reconciled by the time Do returns.
func Do[S any](ctx context.Context, v *View[S], m Mutation[S]) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	prev := v.snapshot
	v.snapshot = m.Apply(prev)

	err := m.Write(ctx)
	if err == nil {
		return nil
	}

	if m.Policy == Refetch && m.Refetch != nil {
		if cur, ferr := m.Refetch(ctx); ferr == nil {
			v.snapshot = cur
			return err
		}
	}
	v.snapshot = prev
	return err
}

// Views is a keyed collection of lazily loaded views, one per entity.
type Views[S any] struct {
	mu sync.Mutex
	m  map[string]*View[S]
}

func NewViews[S any]() *Views[S] {
	return &Views[S]{m: make(map[string]*View[S])}
}

// Ensure returns the view for key, loading the initial snapshot on first use.
func (vs *Views[S]) Ensure(key string, load func() (S, error)) (*View[S], error) {
	vs.mu.Lock()
	if v, ok := vs.m[key]; ok {
		vs.mu.Unlock()
		return v, nil
	}
	vs.mu.Unlock()

	initial, err := load()
	if err != nil {
		return nil, err
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()
	if v, ok := vs.m[key]; ok {
		return v, nil
	}
	v := NewView(initial)
	vs.m[key] = v
	return v, nil
}

func (vs *Views[S]) Drop(key string) {
	vs.mu.Lock()
	delete(vs.m, key)
	vs.mu.Unlock()
}
