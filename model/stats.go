package model

// NoteStats summarises the note collection for the health endpoint.
type NoteStats struct {
	Total     int64          `json:"total"`
	TagCounts map[string]int `json:"tag_counts"`
}
