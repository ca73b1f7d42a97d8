package repository

import (
	"context"
	"errors"
	"fmt"
	"notecheck/model"
	"notecheck/utils"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notesCollection = "notes"

// MongoNotesRepo stores notes as documents keyed by the hex form of an ObjectID.
type MongoNotesRepo struct {
	MongoCollection *mongo.Collection
}

// GetNotesRepo returns the Mongo store for the given database and collection.
func GetNotesRepo(client *mongo.Client, dbName, collection string) *MongoNotesRepo {
	if collection == "" {
		collection = notesCollection
	}
	return &MongoNotesRepo{
		MongoCollection: client.Database(dbName).Collection(collection),
	}
}

// validObjectID reports whether id is something this store could have assigned.
func validObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// CreateNote inserts a new note and assigns its id
func (r *MongoNotesRepo) CreateNote(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("insert", notesCollection)
	defer timer.ObserveDuration()

	note.ID = primitive.NewObjectID().Hex()
	note.Normalize()

	if _, err := r.MongoCollection.InsertOne(ctx, note); err != nil {
		utils.TrackError("database", "note_creation_failed")
		note.ID = ""
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// ListNotes retrieves notes oldest first, filtered by a case-insensitive query
func (r *MongoNotesRepo) ListNotes(ctx context.Context, opts ListOptions) ([]*model.Note, error) {
	timer := utils.TrackDBOperation("find", notesCollection)
	defer timer.ObserveDuration()

	filter := bson.M{}
	if opts.Query != "" {
		pattern := regexp.QuoteMeta(opts.Query)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"content": bson.M{"$regex": pattern, "$options": "i"}},
			{"tags": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	findOpts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.MongoCollection.Find(ctx, filter, findOpts)
	if err != nil {
		utils.TrackError("database", "note_fetch_failed")
		return nil, fmt.Errorf("find notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := make([]*model.Note, 0)
	if err = cursor.All(ctx, &notes); err != nil {
		utils.TrackError("database", "note_decode_failed")
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	for _, n := range notes {
		n.Normalize()
	}
	return notes, nil
}

// GetNote retrieves a specific note
func (r *MongoNotesRepo) GetNote(ctx context.Context, noteID string) (*model.Note, error) {
	if !validObjectID(noteID) {
		return nil, ErrNoteNotFound
	}

	timer := utils.TrackDBOperation("find_one", notesCollection)
	defer timer.ObserveDuration()

	var note model.Note
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": noteID}).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoteNotFound
		}
		utils.TrackError("database", "note_fetch_failed")
		return nil, fmt.Errorf("find note %s: %w", noteID, err)
	}
	note.Normalize()
	return &note, nil
}

// UpdateNote writes every mutable field of note back to its document
func (r *MongoNotesRepo) UpdateNote(ctx context.Context, note *model.Note) error {
	if !validObjectID(note.ID) {
		return ErrNoteNotFound
	}

	timer := utils.TrackDBOperation("update", notesCollection)
	defer timer.ObserveDuration()

	note.Normalize()
	update := bson.M{
		"$set": bson.M{
			"title":       note.Title,
			"content":     note.Content,
			"tags":        note.Tags,
			"attachments": note.Attachments,
			"updated_at":  note.UpdatedAt,
		},
	}

	result, err := r.MongoCollection.UpdateOne(ctx, bson.M{"_id": note.ID}, update)
	if err != nil {
		utils.TrackError("database", "note_update_failed")
		return fmt.Errorf("update note %s: %w", note.ID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteNote deletes a specific note
func (r *MongoNotesRepo) DeleteNote(ctx context.Context, noteID string) error {
	if !validObjectID(noteID) {
		return ErrNoteNotFound
	}

	timer := utils.TrackDBOperation("delete", notesCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": noteID})
	if err != nil {
		utils.TrackError("database", "note_delete_failed")
		return fmt.Errorf("delete note %s: %w", noteID, err)
	}
	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteAllNotes empties the collection and reports how many documents went
func (r *MongoNotesRepo) DeleteAllNotes(ctx context.Context) (int64, error) {
	timer := utils.TrackDBOperation("delete_many", notesCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteMany(ctx, bson.M{})
	if err != nil {
		utils.TrackError("database", "note_reset_failed")
		return 0, fmt.Errorf("delete all notes: %w", err)
	}
	return result.DeletedCount, nil
}

// CountNotes counts the stored notes
func (r *MongoNotesRepo) CountNotes(ctx context.Context) (int64, error) {
	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}

func (r *MongoNotesRepo) Ping(ctx context.Context) error {
	return r.MongoCollection.Database().Client().Ping(ctx, nil)
}
