package repository

import (
	"context"
	"notecheck/model"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryNotesRepo keeps notes in process memory. Ids have the same shape as the
// Mongo store's so clients cannot tell the two apart.
type MemoryNotesRepo struct {
	mu    sync.RWMutex
	order []string
	notes map[string]*model.Note
}

func NewMemoryNotesRepo() *MemoryNotesRepo {
	return &MemoryNotesRepo{notes: make(map[string]*model.Note)}
}

func (r *MemoryNotesRepo) CreateNote(ctx context.Context, note *model.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	note.ID = primitive.NewObjectID().Hex()
	note.Normalize()
	r.notes[note.ID] = note.Clone()
	r.order = append(r.order, note.ID)
	return nil
}

func (r *MemoryNotesRepo) ListNotes(ctx context.Context, opts ListOptions) ([]*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(opts.Query)
	notes := make([]*model.Note, 0, len(r.order))
	for _, id := range r.order {
		note := r.notes[id]
		if query != "" && !matchesQuery(note, query) {
			continue
		}
		notes = append(notes, note.Clone())
	}
	return notes, nil
}

func matchesQuery(note *model.Note, query string) bool {
	if strings.Contains(strings.ToLower(note.Title), query) ||
		strings.Contains(strings.ToLower(note.Content), query) {
		return true
	}
	for _, tag := range note.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func (r *MemoryNotesRepo) GetNote(ctx context.Context, noteID string) (*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, ok := r.notes[noteID]
	if !ok {
		return nil, ErrNoteNotFound
	}
	return note.Clone(), nil
}

func (r *MemoryNotesRepo) UpdateNote(ctx context.Context, note *model.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.notes[note.ID]
	if !ok {
		return ErrNoteNotFound
	}
	updated := note.Clone()
	updated.CreatedAt = existing.CreatedAt
	r.notes[note.ID] = updated
	return nil
}

func (r *MemoryNotesRepo) DeleteNote(ctx context.Context, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[noteID]; !ok {
		return ErrNoteNotFound
	}
	delete(r.notes, noteID)
	for i, id := range r.order {
		if id == noteID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryNotesRepo) DeleteAllNotes(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.notes))
	r.notes = make(map[string]*model.Note)
	r.order = nil
	return n, nil
}

func (r *MemoryNotesRepo) CountNotes(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.notes)), nil
}

func (r *MemoryNotesRepo) Ping(ctx context.Context) error {
	return nil
}
