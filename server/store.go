package server

import (
	"context"
	"fmt"
	"notecheck/config"
	"notecheck/repository"
	"notecheck/services"
	"notecheck/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// closeFunc releases a resource opened for the server.
type closeFunc func(ctx context.Context) error

func noopClose(context.Context) error { return nil }

// OpenStore connects the repository selected by cfg.Store.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.NotesRepository, closeFunc, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn().Msg("using in-memory store; notes are lost on restart")
		return repository.NewMemoryNotesRepo(), noopClose, nil

	case config.StorePostgres:
		if err := repository.MigratePostgres(cfg.PostgresURL); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info().Msg("connected to postgres")
		return repository.NewPostgresNotesRepo(pool), func(context.Context) error {
			pool.Close()
			return nil
		}, nil

	case config.StoreMongo:
		client, err := utils.NewMongoClient(ctx, cfg.MongoOptions())
		if err != nil {
			return nil, nil, err
		}
		repo := repository.GetNotesRepo(client, cfg.DatabaseName, cfg.Collection)
		if err := repository.SetupIndexes(ctx, repo.MongoCollection); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		logger.Info().Str("database", cfg.DatabaseName).Str("collection", cfg.Collection).Msg("connected to mongodb")
		return repo, client.Disconnect, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// OpenCache connects the optional Redis note cache. A nil cache means caching is off.
func OpenCache(cfg config.DatabaseConfig, logger zerolog.Logger) (services.NoteCache, closeFunc, error) {
	if cfg.RedisURL == "" {
		return nil, noopClose, nil
	}
	cache, err := services.NewNoteCache(cfg.RedisURL, cfg.NoteCacheTTL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Dur("ttl", cfg.NoteCacheTTL).Msg("note cache enabled")
	return cache, func(context.Context) error { return cache.Close() }, nil
}
