package contract

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoredNote is what a probe reads back from the database.
type StoredNote struct {
	ID    string
	Title string
}

// DocumentProbe looks records up in the service's database, bypassing the API.
type DocumentProbe interface {
	FindNote(ctx context.Context, id string) (*StoredNote, bool, error)
	Close(ctx context.Context) error
}

// MongoProbe reads notes straight from a MongoDB collection.
type MongoProbe struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoProbe connects to uri and pings it before returning.
func NewMongoProbe(ctx context.Context, uri, database, collection string) (*MongoProbe, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo probe: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo probe: %w", err)
	}
	return &MongoProbe{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// idFilter matches the id as an ObjectID when it parses as one, and as a plain string
// either way, since services differ in how they store _id.
func idFilter(id string) bson.M {
	candidates := bson.A{id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		candidates = append(candidates, oid)
	}
	return bson.M{"_id": bson.M{"$in": candidates}}
}

func (p *MongoProbe) FindNote(ctx context.Context, id string) (*StoredNote, bool, error) {
	var doc bson.M
	err := p.collection.FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("probe note %s: %w", id, err)
	}

	title, _ := doc["title"].(string)
	return &StoredNote{ID: id, Title: title}, true, nil
}

func (p *MongoProbe) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}
