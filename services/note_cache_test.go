package services

import (
	"context"
	"testing"
	"time"

	"notecheck/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisNoteCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewNoteCacheFromClient(client, time.Minute)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestRedisNoteCache(t *testing.T) {
	ctx := context.Background()
	cache, mr := setupTestRedis(t)

	created := time.Date(2024, 5, 1, 9, 30, 0, 250_000_000, time.UTC)
	note := &model.Note{
		ID:        "665f1f77bcf86cd799439011",
		Title:     "Cached note",
		Tags:      []string{"a"},
		CreatedAt: created,
		UpdatedAt: created,
	}

	t.Run("Miss", func(t *testing.T) {
		got, err := cache.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, cache.SetNote(ctx, note))
		assert.True(t, mr.Exists("note:"+note.ID))

		got, err := cache.GetNote(ctx, note.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, note.Title, got.Title)
		assert.Equal(t, []string{"a"}, got.Tags)
		assert.Equal(t, []string{}, got.Attachments)
		assert.True(t, got.CreatedAt.Equal(created))
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, cache.SetNote(ctx, note))
		mr.FastForward(2 * time.Minute)

		got, err := cache.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Invalidate", func(t *testing.T) {
		require.NoError(t, cache.SetNote(ctx, note))
		require.NoError(t, cache.Invalidate(ctx, note.ID))

		got, err := cache.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, 30*time.Second, mr.TTL("note:"+note.ID))
	})

	t.Run("FillCannotOverwriteTombstone", func(t *testing.T) {
		stale := &model.Note{ID: "665f1f77bcf86cd7994390aa", Title: "read before delete"}
		require.NoError(t, cache.Invalidate(ctx, stale.ID))
		require.NoError(t, cache.SetNote(ctx, stale))

		got, err := cache.GetNote(ctx, stale.ID)
		require.NoError(t, err)
		assert.Nil(t, got, "a late fill must not resurrect the note")

		mr.FastForward(31 * time.Second)
		require.NoError(t, cache.SetNote(ctx, stale))
		got, err = cache.GetNote(ctx, stale.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, stale.Title, got.Title)
	})

	t.Run("FillKeepsExistingEntry", func(t *testing.T) {
		id := "665f1f77bcf86cd7994390bb"
		require.NoError(t, cache.SetNote(ctx, &model.Note{ID: id, Title: "first"}))
		require.NoError(t, cache.SetNote(ctx, &model.Note{ID: id, Title: "second"}))

		got, err := cache.GetNote(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "first", got.Title)
	})

	t.Run("FlushTombstonesNotes", func(t *testing.T) {
		mr.FlushAll()
		for _, id := range []string{"1", "2", "3"} {
			require.NoError(t, cache.SetNote(ctx, &model.Note{ID: id, Title: id}))
		}
		require.NoError(t, mr.Set("unrelated", "value"))

		require.NoError(t, cache.Flush(ctx))
		for _, id := range []string{"1", "2", "3"} {
			got, err := cache.GetNote(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, got, id)
			require.NoError(t, cache.SetNote(ctx, &model.Note{ID: id, Title: "stale"}))
			got, err = cache.GetNote(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, got, id)
		}
		value, err := mr.Get("unrelated")
		require.NoError(t, err)
		assert.Equal(t, "value", value)
	})

	t.Run("Invalid input", func(t *testing.T) {
		_, err := cache.GetNote(ctx, "")
		assert.Error(t, err)
		assert.Error(t, cache.SetNote(ctx, &model.Note{Title: "no id"}))
	})

	t.Run("IsConnected", func(t *testing.T) {
		assert.True(t, cache.IsConnected(ctx))
	})
}

func TestNewNoteCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cache, err := NewNoteCache("redis://"+mr.Addr()+"/0", 0)
	require.NoError(t, err)
	defer cache.Close()
	assert.Equal(t, 5*time.Minute, cache.ttl)

	_, err = NewNoteCache("not a url", time.Minute)
	assert.Error(t, err)
}
