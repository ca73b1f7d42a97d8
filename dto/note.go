package dto

import (
	"notecheck/model"
	"time"
)

// NoteRequest is the body accepted by POST and PUT. Title is a pointer so a missing
// field can be told apart from an empty one; a non-string title fails binding.
type NoteRequest struct {
	Title       *string  `json:"title" binding:"required"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	Attachments []string `json:"attachments"`
}

// NotePatch is the body accepted by PATCH. Only the supplied fields change.
type NotePatch struct {
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	Tags        *[]string `json:"tags"`
	Attachments *[]string `json:"attachments"`
}

// Empty reports whether the patch carries no fields at all.
func (p *NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil && p.Attachments == nil
}

type NoteResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ResetResponse struct {
	Deleted int64 `json:"deleted"`
}

// ToNote builds the model for a create or replace request.
func (r *NoteRequest) ToNote() *model.Note {
	note := &model.Note{
		Content:     r.Content,
		Tags:        r.Tags,
		Attachments: r.Attachments,
	}
	if r.Title != nil {
		note.Title = *r.Title
	}
	note.Normalize()
	return note
}

// Convert a single note to NoteResponse
func ToNoteResponse(note *model.Note) NoteResponse {
	response := NoteResponse{
		ID:          note.ID,
		Title:       note.Title,
		Content:     note.Content,
		Tags:        note.Tags,
		Attachments: note.Attachments,
		CreatedAt:   note.CreatedAt.UTC(),
		UpdatedAt:   note.UpdatedAt.UTC(),
	}
	if response.Tags == nil {
		response.Tags = []string{}
	}
	if response.Attachments == nil {
		response.Attachments = []string{}
	}
	return response
}

// Convert slice of notes to slice of NoteResponse
func ToNoteResponses(notes []*model.Note) []NoteResponse {
	responses := make([]NoteResponse, len(notes))
	for i, note := range notes {
		responses[i] = ToNoteResponse(note)
	}
	return responses
}
