package model

import (
	"time"
)

// Note is the record the service persists. Tags and Attachments are kept in the
// order the client sent them.
type Note struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Content     string    `bson:"content" json:"content"`
	Tags        []string  `bson:"tags" json:"tags"`
	Attachments []string  `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// Normalize replaces nil slices with empty ones so the JSON encoding is always an array.
func (n *Note) Normalize() {
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.Attachments == nil {
		n.Attachments = []string{}
	}
}

// Clone returns a deep copy of the note.
func (n *Note) Clone() *Note {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	c.Attachments = append([]string(nil), n.Attachments...)
	c.Normalize()
	return &c
}
