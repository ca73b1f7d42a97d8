package usecase

import (
	"context"
	"errors"
	"fmt"
	"notecheck/model"
	"notecheck/repository"
	"notecheck/services"
	"notecheck/utils"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	MaxTitleLength        = 200
	MaxContentLength      = 50000
	MaxTagsPerNote        = 50
	MaxAttachmentsPerNote = 50
)

// ErrNoteNotFound is returned for unknown or malformed note ids.
var ErrNoteNotFound = repository.ErrNoteNotFound

// ValidationError describes why a note was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// NoteChanges carries a partial update. Nil fields are left untouched.
type NoteChanges struct {
	Title       *string
	Content     *string
	Tags        *[]string
	Attachments *[]string
}

type NotesService struct {
	NotesRepo repository.NotesRepository
	Cache     services.NoteCache
	Now       func() time.Time

	validate *validator.Validate
}

func NewNotesService(repo repository.NotesRepository, cache services.NoteCache) *NotesService {
	return &NotesService{
		NotesRepo: repo,
		Cache:     cache,
		Now:       time.Now,
		validate:  utils.NewValidator(),
	}
}

// noteRules mirrors the persisted fields with the limits the service enforces.
type noteRules struct {
	Title       string   `validate:"notblank,max=200"`
	Content     string   `validate:"max=50000"`
	Tags        []string `validate:"max=50"`
	Attachments []string `validate:"max=50"`
}

// timestamps are kept at millisecond precision, the coarsest any store keeps.
func (s *NotesService) now() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Truncate(time.Millisecond)
}

func (s *NotesService) validator() *validator.Validate {
	if s.validate == nil {
		s.validate = utils.NewValidator()
	}
	return s.validate
}

func (s *NotesService) validateNote(note *model.Note) error {
	// Normalize title
	note.Title = strings.TrimSpace(note.Title)
	note.Normalize()

	err := s.validator().Struct(noteRules{
		Title:       note.Title,
		Content:     note.Content,
		Tags:        note.Tags,
		Attachments: note.Attachments,
	})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	utils.TrackError("validation", strings.ToLower(fieldErrs[0].Field()))
	return validationMessage(fieldErrs[0])
}

func validationMessage(fe validator.FieldError) *ValidationError {
	field := strings.ToLower(fe.Field())
	switch {
	case field == "title" && fe.Tag() == "notblank":
		return &ValidationError{Field: field, Message: "is required"}
	case field == "title":
		return &ValidationError{Field: field, Message: fmt.Sprintf("exceeds %d characters", MaxTitleLength)}
	case field == "content":
		return &ValidationError{Field: field, Message: fmt.Sprintf("exceeds %d characters", MaxContentLength)}
	case field == "tags":
		return &ValidationError{Field: field, Message: fmt.Sprintf("exceeds %d entries", MaxTagsPerNote)}
	case field == "attachments":
		return &ValidationError{Field: field, Message: fmt.Sprintf("exceeds %d entries", MaxAttachmentsPerNote)}
	}
	return &ValidationError{Field: field, Message: "is invalid"}
}

// CreateNote validates the note, stamps both timestamps and stores it.
func (s *NotesService) CreateNote(ctx context.Context, note *model.Note) error {
	if err := s.validateNote(note); err != nil {
		return err
	}

	now := s.now()
	note.CreatedAt = now
	note.UpdatedAt = now

	if err := s.NotesRepo.CreateNote(ctx, note); err != nil {
		return err
	}
	utils.TrackNoteOperation("create")
	return nil
}

// ListNotes returns every note, or only those matching query when it is set.
func (s *NotesService) ListNotes(ctx context.Context, query string) ([]*model.Note, error) {
	return s.NotesRepo.ListNotes(ctx, repository.ListOptions{Query: strings.TrimSpace(query)})
}

// GetNote looks the note up in the cache first, then the store.
func (s *NotesService) GetNote(ctx context.Context, noteID string) (*model.Note, error) {
	if s.Cache != nil {
		cached, err := s.Cache.GetNote(ctx, noteID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("note_id", noteID).Msg("note cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	note, err := s.NotesRepo.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.SetNote(ctx, note); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("note_id", noteID).Msg("note cache write failed")
		}
	}
	return note, nil
}

// ReplaceNote overwrites every mutable field of the note with replacement.
func (s *NotesService) ReplaceNote(ctx context.Context, noteID string, replacement *model.Note) (*model.Note, error) {
	existing, err := s.NotesRepo.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if err := s.validateNote(replacement); err != nil {
		return nil, err
	}

	replacement.ID = existing.ID
	replacement.CreatedAt = existing.CreatedAt
	replacement.UpdatedAt = s.nextUpdatedAt(existing)

	if err := s.store(ctx, replacement); err != nil {
		return nil, err
	}
	utils.TrackNoteOperation("replace")
	return replacement, nil
}

// PatchNote applies the supplied fields on top of the stored note.
func (s *NotesService) PatchNote(ctx context.Context, noteID string, changes NoteChanges) (*model.Note, error) {
	existing, err := s.NotesRepo.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	updated := existing.Clone()
	if changes.Title != nil {
		updated.Title = *changes.Title
	}
	if changes.Content != nil {
		updated.Content = *changes.Content
	}
	if changes.Tags != nil {
		updated.Tags = append([]string{}, (*changes.Tags)...)
	}
	if changes.Attachments != nil {
		updated.Attachments = append([]string{}, (*changes.Attachments)...)
	}

	if err := s.validateNote(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.nextUpdatedAt(existing)

	if err := s.store(ctx, updated); err != nil {
		return nil, err
	}
	utils.TrackNoteOperation("patch")
	return updated, nil
}

// nextUpdatedAt never moves updatedAt backwards, whatever the clock says.
func (s *NotesService) nextUpdatedAt(existing *model.Note) time.Time {
	now := s.now()
	if now.Before(existing.UpdatedAt) {
		return existing.UpdatedAt
	}
	return now
}

func (s *NotesService) store(ctx context.Context, note *model.Note) error {
	s.invalidate(ctx, note.ID)
	if err := s.NotesRepo.UpdateNote(ctx, note); err != nil {
		return err
	}
	s.invalidate(ctx, note.ID)
	return nil
}

func (s *NotesService) invalidate(ctx context.Context, noteID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, noteID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("note_id", noteID).Msg("note cache invalidation failed")
	}
}

// DeleteNote removes the note; later lookups of the id report ErrNoteNotFound.
func (s *NotesService) DeleteNote(ctx context.Context, noteID string) error {
	s.invalidate(ctx, noteID)
	if err := s.NotesRepo.DeleteNote(ctx, noteID); err != nil {
		return err
	}
	s.invalidate(ctx, noteID)
	utils.TrackNoteOperation("delete")
	return nil
}

// ResetNotes deletes every note. Test support only.
func (s *NotesService) ResetNotes(ctx context.Context) (int64, error) {
	deleted, err := s.NotesRepo.DeleteAllNotes(ctx)
	if err != nil {
		return 0, err
	}
	if s.Cache != nil {
		if err := s.Cache.Flush(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("note cache flush failed")
		}
	}
	utils.TrackNoteOperation("reset")
	return deleted, nil
}

// Ping checks the store is reachable.
func (s *NotesService) Ping(ctx context.Context) error {
	return s.NotesRepo.Ping(ctx)
}

// Stats counts the stored notes and how often each tag is used.
func (s *NotesService) Stats(ctx context.Context) (*model.NoteStats, error) {
	total, err := s.NotesRepo.CountNotes(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.NotesRepo.ListNotes(ctx, repository.ListOptions{})
	if err != nil {
		return nil, err
	}

	stats := &model.NoteStats{Total: total, TagCounts: make(map[string]int)}
	for _, note := range notes {
		for _, tag := range note.Tags {
			stats.TagCounts[tag]++
		}
	}
	return stats, nil
}
