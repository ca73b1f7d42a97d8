package contract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Tracker remembers the notes a scenario created so they can be removed afterwards.
type Tracker struct {
	client *NotesClient

	mu     sync.Mutex
	ids    []string
	seen   map[string]bool
	titles []string
}

func NewTracker(client *NotesClient) *Tracker {
	return &Tracker{client: client, seen: make(map[string]bool)}
}

// Track records a note id.
func (t *Tracker) Track(id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.seen[id] {
		t.seen[id] = true
		t.ids = append(t.ids, id)
	}
}

// TrackTitle records a title for notes created through the UI, whose ids are not
// known up front. Cleanup deletes every note carrying the title.
func (t *Tracker) TrackTitle(title string) {
	if title == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.titles = append(t.titles, title)
}

// IDs returns the tracked ids in creation order.
func (t *Tracker) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.ids...)
}

// Cleanup deletes everything tracked. A 404 counts as already gone.
func (t *Tracker) Cleanup(ctx context.Context) error {
	t.mu.Lock()
	ids := append([]string(nil), t.ids...)
	titles := append([]string(nil), t.titles...)
	t.mu.Unlock()

	var errs []error
	if len(titles) > 0 {
		byTitle, err := t.idsForTitles(ctx, titles)
		if err != nil {
			errs = append(errs, err)
		}
		for _, id := range byTitle {
			if !t.isTracked(id) {
				ids = append(ids, id)
			}
		}
	}

	for _, id := range ids {
		resp, err := t.client.Delete(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !resp.OK() && resp.Status != http.StatusNotFound {
			errs = append(errs, fmt.Errorf("cleanup note %s: %s", id, resp))
		}
	}
	return errors.Join(errs...)
}

func (t *Tracker) isTracked(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen[id]
}

func (t *Tracker) idsForTitles(ctx context.Context, titles []string) ([]string, error) {
	resp, err := t.client.List(ctx)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("cleanup list: %s", resp)
	}
	notes, err := DecodeNotes(resp)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(titles))
	for _, title := range titles {
		wanted[title] = true
	}
	var ids []string
	for _, note := range notes {
		if wanted[note.Title] {
			ids = append(ids, note.ID)
		}
	}
	return ids, nil
}
