package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"notecheck/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryNotesRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNotesRepo()
	now := time.Now().UTC().Truncate(time.Millisecond)

	note := &model.Note{Title: "First", Content: "hello", CreatedAt: now, UpdatedAt: now}

	t.Run("CreateNote", func(t *testing.T) {
		require.NoError(t, repo.CreateNote(ctx, note))
		_, err := primitive.ObjectIDFromHex(note.ID)
		assert.NoError(t, err, "ids look like ObjectIDs")
		assert.Equal(t, []string{}, note.Tags)
	})

	t.Run("GetNote returns a copy", func(t *testing.T) {
		got, err := repo.GetNote(ctx, note.ID)
		require.NoError(t, err)
		got.Title = "mutated"

		again, err := repo.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.Equal(t, "First", again.Title)
	})

	t.Run("UpdateNote keeps createdAt", func(t *testing.T) {
		changed := note.Clone()
		changed.Title = "Renamed"
		changed.CreatedAt = now.Add(time.Hour)
		changed.UpdatedAt = now.Add(time.Minute)
		require.NoError(t, repo.UpdateNote(ctx, changed))

		got, err := repo.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.True(t, got.CreatedAt.Equal(now))
		assert.True(t, got.UpdatedAt.Equal(now.Add(time.Minute)))
	})

	t.Run("Unknown ids", func(t *testing.T) {
		_, err := repo.GetNote(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, ErrNoteNotFound)
		assert.ErrorIs(t, repo.UpdateNote(ctx, &model.Note{ID: "nope", Title: "x"}), ErrNoteNotFound)
		assert.ErrorIs(t, repo.DeleteNote(ctx, "nope"), ErrNoteNotFound)
	})

	t.Run("DeleteNote", func(t *testing.T) {
		require.NoError(t, repo.DeleteNote(ctx, note.ID))
		_, err := repo.GetNote(ctx, note.ID)
		assert.ErrorIs(t, err, ErrNoteNotFound)

		notes, err := repo.ListNotes(ctx, ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

func TestMemoryNotesRepoListAndReset(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNotesRepo()

	for _, n := range []*model.Note{
		{Title: "Alpha", Tags: []string{"Greek"}},
		{Title: "beta", Content: "second letter"},
		{Title: "Gamma ray"},
	} {
		require.NoError(t, repo.CreateNote(ctx, n))
	}

	all, err := repo.ListNotes(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alpha", all[0].Title)
	assert.Equal(t, "Gamma ray", all[2].Title)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "greek", want: []string{"Alpha"}},
		{query: "LETTER", want: []string{"beta"}},
		{query: "a", want: []string{"Alpha", "beta", "Gamma ray"}},
		{query: "zzz", want: nil},
	}
	for _, tt := range tests {
		notes, err := repo.ListNotes(ctx, ListOptions{Query: tt.query})
		require.NoError(t, err)
		var titles []string
		for _, n := range notes {
			titles = append(titles, n.Title)
		}
		assert.Equal(t, tt.want, titles, "query %q", tt.query)
	}

	deleted, err := repo.DeleteAllNotes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	count, err := repo.CountNotes(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryNotesRepoConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNotesRepo()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.CreateNote(ctx, &model.Note{Title: "parallel"}))
		}()
	}
	wg.Wait()

	count, err := repo.CountNotes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 50, count)
}

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/notes":   "pgx5://u:p@localhost:5432/notes",
		"postgresql://u:p@localhost:5432/notes": "pgx5://u:p@localhost:5432/notes",
		"pgx5://already":                        "pgx5://already",
	}
	for in, want := range tests {
		assert.Equal(t, want, migrateURL(in))
	}
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, `%50\%\_off\\%`, likePattern(`50%_off\`))
}
