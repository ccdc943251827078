package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoAppliesBeforeWrite(t *testing.T) {
	view := NewView([]string{"a"})

	var seenDuringWrite []string
	err := Do(context.Background(), view, Mutation[[]string]{
		Apply: func(s []string) []string { return append(append([]string{}, s...), "b") },
		Write: func(ctx context.Context) error {
			// The local snapshot is already updated while the write is in
			// flight; that is the whole point of the discipline.
			seenDuringWrite = view.snapshot
			return nil
		},
		Policy: Revert,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seenDuringWrite)
	assert.Equal(t, []string{"a", "b"}, view.Get())
}

func TestDoRevertsOnWriteFailure(t *testing.T) {
	view := NewView([]string{"a"})
	writeErr := errors.New("write failed")

	err := Do(context.Background(), view, Mutation[[]string]{
		Apply:  func(s []string) []string { return append(append([]string{}, s...), "b") },
		Write:  func(ctx context.Context) error { return writeErr },
		Policy: Revert,
	})

	assert.ErrorIs(t, err, writeErr)
	assert.Equal(t, []string{"a"}, view.Get(), "failed write must leave no phantom entry")
}

func TestDoRefetchOnWriteFailure(t *testing.T) {
	view := NewView(10)
	writeErr := errors.New("write failed")

	err := Do(context.Background(), view, Mutation[int]{
		Apply:  func(n int) int { return n + 1 },
		Write:  func(ctx context.Context) error { return writeErr },
		Policy: Refetch,
		Refetch: func(ctx context.Context) (int, error) {
			// The remote truth moved on independently.
			return 42, nil
		},
	})

	assert.ErrorIs(t, err, writeErr)
	assert.Equal(t, 42, view.Get(), "view must converge on the refetched state")
}

func TestDoRefetchFailureFallsBackToRevert(t *testing.T) {
	view := NewView(10)

	err := Do(context.Background(), view, Mutation[int]{
		Apply:   func(n int) int { return n + 1 },
		Write:   func(ctx context.Context) error { return errors.New("write failed") },
		Policy:  Refetch,
		Refetch: func(ctx context.Context) (int, error) { return 0, errors.New("refetch failed") },
	})

	require.Error(t, err)
	assert.Equal(t, 10, view.Get())
}

func TestDoubleToggleRestoresOriginal(t *testing.T) {
	view := NewView([]string{"general"})

	toggle := func() error {
		return Do(context.Background(), view, Mutation[[]string]{
			Apply: func(s []string) []string {
				out := make([]string, 0, len(s)+1)
				found := false
				for _, id := range s {
					if id == "pig" {
						found = true
						continue
					}
					out = append(out, id)
				}
				if !found {
					out = append(out, "pig")
				}
				return out
			},
			Write:  func(ctx context.Context) error { return nil },
			Policy: Revert,
		})
	}

	require.NoError(t, toggle())
	assert.Equal(t, []string{"general", "pig"}, view.Get())
	require.NoError(t, toggle())
	assert.Equal(t, []string{"general"}, view.Get())
}

func TestViewsEnsureLoadsOnce(t *testing.T) {
	views := NewViews[int]()

	loads := 0
	load := func() (int, error) {
		loads++
		return 7, nil
	}

	v1, err := views.Ensure("k", load)
	require.NoError(t, err)
	v2, err := views.Ensure("k", load)
	require.NoError(t, err)

	assert.Same(t, v1, v2)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 7, v1.Get())
}

func TestViewsDropForcesReload(t *testing.T) {
	views := NewViews[int]()

	value := 1
	load := func() (int, error) { return value, nil }

	v, err := views.Ensure("k", load)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Get())

	views.Drop("k")
	value = 2

	v, err = views.Ensure("k", load)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Get())
}

func TestViewsEnsurePropagatesLoadError(t *testing.T) {
	views := NewViews[int]()

	loadErr := errors.New("load failed")
	_, err := views.Ensure("k", func() (int, error) { return 0, loadErr })
	assert.ErrorIs(t, err, loadErr)

	// A failed load must not poison the key.
	v, err := views.Ensure("k", func() (int, error) { return 5, nil })
	require.NoError(t, err)
	assert.Equal(t, 5, v.Get())
}
