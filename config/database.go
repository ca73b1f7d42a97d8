package config

import (
	"notecheck/utils"
	"time"
)

// Store names accepted by NOTES_STORE.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type DatabaseConfig struct {
	Store           string
	URI             string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	DatabaseName    string
	Collection      string
	RetryWrites     bool
	PostgresURL     string
	RedisURL        string
	NoteCacheTTL    time.Duration
}

func LoadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Store:           utils.GetEnvAsString("NOTES_STORE", StoreMongo),
		URI:             utils.GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
		MaxPoolSize:     utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", 100),
		MinPoolSize:     utils.GetEnvAsUint64("MONGO_MIN_POOL_SIZE", 10),
		MaxConnIdleTime: utils.GetEnvAsDuration("MONGO_MAX_CONN_IDLE_TIME", 60*time.Second),
		DatabaseName:    utils.GetEnvAsString("MONGO_DB", "notes"),
		Collection:      utils.GetEnvAsString("MONGO_COLLECTION", "notes"),
		RetryWrites:     utils.GetEnvAsBool("MONGO_RETRY_WRITES", true),
		PostgresURL:     utils.GetEnvAsString("POSTGRES_URL", ""),
		RedisURL:        utils.GetEnvAsString("REDIS_URL", ""),
		NoteCacheTTL:    utils.GetEnvAsDuration("NOTE_CACHE_TTL", 5*time.Minute),
	}
}

// MongoOptions converts the config into client options.
func (c DatabaseConfig) MongoOptions() utils.MongoClientOptions {
	return utils.MongoClientOptions{
		URI:             c.URI,
		MaxPoolSize:     c.MaxPoolSize,
		MinPoolSize:     c.MinPoolSize,
		MaxConnIdleTime: c.MaxConnIdleTime,
		RetryWrites:     c.RetryWrites,
	}
}
