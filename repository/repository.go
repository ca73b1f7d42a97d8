package repository

import (
	"context"
	"errors"
	"notecheck/model"
)

// ErrNoteNotFound is returned for ids that do not resolve to a stored note,
// including ids that are not valid for the store.
var ErrNoteNotFound = errors.New("note not found")

// ListOptions narrows a listing. An empty Query lists everything.
type ListOptions struct {
	Query string
}

// NotesRepository is implemented by every note store the service can run on.
type NotesRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	ListNotes(ctx context.Context, opts ListOptions) ([]*model.Note, error)
	GetNote(ctx context.Context, noteID string) (*model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, noteID string) error
	DeleteAllNotes(ctx context.Context) (int64, error)
	CountNotes(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
