package services

import (
	"context"
	"encoding/json"
	"fmt"
	"notecheck/model"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	noteKeyPrefix = "note:"

	// tombstone marks an id whose note changed or was deleted. Fills never
	// overwrite it, so a lookup that read the store before the write cannot
	// put the old copy back.
	tombstone    = "\x00gone"
	tombstoneTTL = 30 * time.Second
)

// NoteCache is a read-through cache for single-note lookups. A miss returns (nil, nil).
// SetNote only fills an empty slot; Invalidate blocks fills for a while.
type NoteCache interface {
	GetNote(ctx context.Context, noteID string) (*model.Note, error)
	SetNote(ctx context.Context, note *model.Note) error
	Invalidate(ctx context.Context, noteID string) error
	Flush(ctx context.Context) error
}

type RedisNoteCache struct {
	client       *redis.Client
	ttl          time.Duration
	tombstoneTTL time.Duration
}

// NewNoteCache connects to Redis at redisURL and verifies the connection.
func NewNoteCache(redisURL string, ttl time.Duration) (*RedisNoteCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewNoteCacheFromClient(client, ttl), nil
}

func NewNoteCacheFromClient(client *redis.Client, ttl time.Duration) *RedisNoteCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisNoteCache{client: client, ttl: ttl, tombstoneTTL: min(ttl, tombstoneTTL)}
}

func noteKey(noteID string) string {
	return noteKeyPrefix + noteID
}

// GetNote retrieves a note from cache
func (nc *RedisNoteCache) GetNote(ctx context.Context, noteID string) (*model.Note, error) {
	if noteID == "" {
		return nil, fmt.Errorf("noteID cannot be empty")
	}

	data, err := nc.client.Get(ctx, noteKey(noteID)).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note from cache: %w", err)
	}
	if string(data) == tombstone {
		return nil, nil
	}

	var note model.Note
	if err := json.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("failed to unmarshal note: %w", err)
	}
	note.Normalize()
	return &note, nil
}

// SetNote caches a note for the configured TTL unless the slot is taken
func (nc *RedisNoteCache) SetNote(ctx context.Context, note *model.Note) error {
	if note == nil || note.ID == "" {
		return fmt.Errorf("cannot cache a note without id")
	}

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}

	if err := nc.client.SetNX(ctx, noteKey(note.ID), data, nc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache note: %w", err)
	}
	return nil
}

// Invalidate replaces the cached copy with a tombstone
func (nc *RedisNoteCache) Invalidate(ctx context.Context, noteID string) error {
	if err := nc.client.Set(ctx, noteKey(noteID), tombstone, nc.tombstoneTTL).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached note: %w", err)
	}
	return nil
}

// Flush tombstones every cached note
func (nc *RedisNoteCache) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := nc.client.Scan(ctx, cursor, noteKeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) > 0 {
			pipe := nc.client.Pipeline()
			for _, key := range keys {
				pipe.Set(ctx, key, tombstone, nc.tombstoneTTL)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("failed to invalidate cached notes: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (nc *RedisNoteCache) IsConnected(ctx context.Context) bool {
	if nc == nil || nc.client == nil {
		return false
	}
	return nc.client.Ping(ctx).Err() == nil
}

// Close closes the Redis connection
func (nc *RedisNoteCache) Close() error {
	return nc.client.Close()
}
