package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBook struct {
	Title   string
	Ratings int
	Author  *testAuthor
	hidden  string
}

type testAuthor struct {
	Name string
}

func TestControllerLoad(t *testing.T) {
	t.Run("successful load replaces the snapshot", func(t *testing.T) {
		controller := NewController("books", func(ctx context.Context) ([]testBook, error) {
			return []testBook{{Title: "Dune"}}, nil
		})

		result := controller.Load(context.Background())
		require.True(t, result.Ok())
		assert.Len(t, result.Records, 1)
		assert.True(t, controller.Loaded())
		assert.Equal(t, 1, controller.Len())
	})

	t.Run("failed load empties the snapshot and records the error", func(t *testing.T) {
		fail := false
		controller := NewController("books", func(ctx context.Context) ([]testBook, error) {
			if fail {
				return nil, errors.New("upstream down")
			}
			return []testBook{{Title: "Dune"}}, nil
		})

		require.True(t, controller.Load(context.Background()).Ok())
		fail = true
		result := controller.Load(context.Background())
		assert.False(t, result.Ok())
		assert.Error(t, result.Err)
		assert.NotNil(t, result.Records)
		assert.Empty(t, result.Records)
		assert.Zero(t, controller.Len(), "a failed reload never leaves stale records behind")
	})

	t.Run("nil records normalize to an empty slice", func(t *testing.T) {
		controller := NewController("books", func(ctx context.Context) ([]testBook, error) {
			return nil, nil
		})

		result := controller.Load(context.Background())
		require.True(t, result.Ok())
		assert.NotNil(t, result.Records)
		assert.Empty(t, result.Records)
	})

	t.Run("snapshot before any load is empty, not nil", func(t *testing.T) {
		controller := NewController("books", func(ctx context.Context) ([]testBook, error) {
			return nil, nil
		})
		assert.NotNil(t, controller.Snapshot())
		assert.False(t, controller.Loaded())
	})
}

func TestControllerSaveThenReload(t *testing.T) {
	t.Run("successful save triggers a reload", func(t *testing.T) {
		loads := 0
		controller := NewController("books", func(ctx context.Context) ([]testBook, error) {
			loads++
			return []testBook{{Title: "Dune"}}, nil
		})

		err := controller.SaveThenReload(context.Background(), func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, loads)
	})

	t.Run("failed save skips the reload and returns the error", func(t *testing.T) {
		loads := 0
		controller := NewController("books", func(ctx context.Context) ([]testBook, error) {
			loads++
			return nil, nil
		})

		saveErr := errors.New("rejected")
		err := controller.SaveThenReload(context.Background(), func(ctx context.Context) error {
			return saveErr
		})
		assert.ErrorIs(t, err, saveErr)
		assert.Zero(t, loads)
	})

	t.Run("reload failure after a successful save is swallowed", func(t *testing.T) {
		controller := NewController("books", func(ctx context.Context) ([]testBook, error) {
			return nil, errors.New("upstream down")
		})

		err := controller.SaveThenReload(context.Background(), func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)
	})
}

func TestSearch(t *testing.T) {
	books := []testBook{
		{Title: "Dune", Ratings: 42, Author: &testAuthor{Name: "Frank Herbert"}},
		{Title: "The Dispossessed", Ratings: 7, Author: &testAuthor{Name: "Ursula K. Le Guin"}},
		{Title: "Neuromancer", Author: &testAuthor{Name: "William Gibson"}, hidden: "dune"},
	}

	controller := NewController("books", func(ctx context.Context) ([]testBook, error) {
		return books, nil
	})
	require.True(t, controller.Load(context.Background()).Ok())

	t.Run("empty query returns everything", func(t *testing.T) {
		assert.Len(t, controller.Search(""), 3)
		assert.Len(t, controller.Search("   "), 3)
	})

	t.Run("matches titles case-insensitively", func(t *testing.T) {
		got := controller.Search("DUNE")
		require.Len(t, got, 1)
		assert.Equal(t, "Dune", got[0].Title)
	})

	t.Run("matches nested author names", func(t *testing.T) {
		got := controller.Search("le guin")
		require.Len(t, got, 1)
		assert.Equal(t, "The Dispossessed", got[0].Title)
	})

	t.Run("matches numeric fields by their decimal form", func(t *testing.T) {
		got := controller.Search("42")
		require.Len(t, got, 1)
		assert.Equal(t, "Dune", got[0].Title)
	})

	t.Run("zero-valued numbers do not match", func(t *testing.T) {
		got := controller.Search("0")
		assert.Empty(t, got)
	})

	t.Run("unexported fields are not searched", func(t *testing.T) {
		got := controller.Search("dune")
		assert.Len(t, got, 1)
	})

	t.Run("no match yields an empty slice", func(t *testing.T) {
		got := controller.Search("tolkien")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
