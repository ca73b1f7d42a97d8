package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// noteIndexes backs the listing sort. Search is a case-insensitive substring
// match, which no Mongo index serves, so there is no text index.
func noteIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "created_at", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().
				SetName("notes_created_order"),
		},
	}
}

// SetupIndexes creates the indexes note listing relies on.
func SetupIndexes(ctx context.Context, coll *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := coll.Indexes().CreateMany(ctx, noteIndexes()); err != nil {
		return fmt.Errorf("failed to create notes indexes: %w", err)
	}

	log.Info().Str("collection", coll.Name()).Msg("note indexes ready")
	return nil
}
