package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/combolock/internal/database"
	"github.com/robalobadob/combolock/internal/game"
	"github.com/robalobadob/combolock/internal/search"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	g, err := game.New(search.Alphabet{"a", "b"}, 2, search.Candidate{"b", "a"})
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, g))

	got, err := st.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Same(t, g, got)

	_, err = st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateSerializesGuesses(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	g, err := game.New(search.Alphabet{"a", "b"}, 2, search.Candidate{"b", "b"})
	require.NoError(t, err)
	g.Rows = 5
	require.NoError(t, st.Save(ctx, g))

	var applied, finished atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.Update(ctx, g.ID, func(g *game.Game) error {
				_, _, err := g.ApplyGuess(search.Candidate{"a", "a"})
				return err
			})
			switch {
			case err == nil:
				applied.Add(1)
			case errors.Is(err, game.ErrFinished):
				finished.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), applied.Load())
	assert.Equal(t, int64(45), finished.Load())
	require.NoError(t, st.Update(ctx, g.ID, func(g *game.Game) error {
		assert.Len(t, g.Guesses, 5)
		assert.Equal(t, "lost", g.State())
		return nil
	}))

	err = st.Update(ctx, "missing", func(*game.Game) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Prune(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	a := search.Alphabet{"a", "b"}

	old, err := game.New(a, 1, nil)
	require.NoError(t, err)
	old.Started = time.Now().Add(-48 * time.Hour)
	fresh, err := game.New(a, 1, nil)
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, old))
	require.NoError(t, st.Save(ctx, fresh))

	n, err := st.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = st.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestRuns(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db))

	ctx := context.Background()
	runs := NewRuns(db)
	moves := search.Alphabet{"up", "down", "left", "right"}

	found := search.Result{Outcome: search.Found, Candidate: search.Candidate{"up", "up", "right"}, Attempts: 4}
	_, err = runs.Record(ctx, moves, 3, found, 150*time.Microsecond)
	require.NoError(t, err)

	capped := search.Result{Outcome: search.Exhausted, Attempts: 10, Capped: true}
	id, err := runs.Record(ctx, moves, 3, capped, time.Millisecond)
	require.NoError(t, err)

	got, err := runs.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "exhausted", got[0].Outcome)
	assert.True(t, got[0].Capped)
	assert.Nil(t, got[0].Candidate)
	assert.Equal(t, int64(1000), got[0].ElapsedUs)

	assert.Equal(t, "found", got[1].Outcome)
	assert.Equal(t, []string{"up", "up", "right"}, got[1].Candidate)
	assert.Equal(t, []string{"up", "down", "left", "right"}, got[1].Alphabet)
	assert.Equal(t, int64(4), got[1].Attempts)
	assert.False(t, got[1].CreatedAt.IsZero())
}

func TestRuns_SymbolsWithSeparators(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db))

	ctx := context.Background()
	cities := search.Alphabet{"new york", "a,b"}
	res := search.Result{Outcome: search.Found, Candidate: search.Candidate{"a,b", "new york"}, Attempts: 3}
	_, err = NewRuns(db).Record(ctx, cities, 2, res, time.Microsecond)
	require.NoError(t, err)

	got, err := NewRuns(db).Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"new york", "a,b"}, got[0].Alphabet)
	assert.Equal(t, []string{"a,b", "new york"}, got[0].Candidate)
}
