package contract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// unknownNoteID is well formed for a Mongo ObjectID and never issued in practice.
const unknownNoteID = "507f1f77bcf86cd799439011"

const malformedNoteID = "not-a-valid-id"

func apiScenarios() []Scenario {
	return []Scenario{
		{Name: "api/list-returns-array", Milestone: MilestoneAPI, Run: listReturnsArray},
		{Name: "api/create-round-trip", Milestone: MilestoneAPI, Run: createRoundTrip},
		{Name: "api/create-defaults", Milestone: MilestoneAPI, Run: createDefaults},
		{Name: "api/create-missing-title", Milestone: MilestoneAPI, Run: createRejected(`{"content":%q}`)},
		{Name: "api/create-empty-title", Milestone: MilestoneAPI, Run: createRejected(`{"title":"","content":%q}`)},
		{Name: "api/create-non-string-title", Milestone: MilestoneAPI, Run: createRejected(`{"title":42,"content":%q}`)},
		{Name: "api/create-malformed-json", Milestone: MilestoneAPI, Run: createMalformedJSON},
		{Name: "api/get-unknown", Milestone: MilestoneAPI, Run: getUnknown},
		{Name: "api/malformed-id", Milestone: MilestoneAPI, Run: malformedID},
		{Name: "api/update-title", Milestone: MilestoneAPI, Run: updateTitle},
		{Name: "api/update-empty-title", Milestone: MilestoneAPI, Run: updateEmptyTitle},
		{Name: "api/update-unknown", Milestone: MilestoneAPI, Run: updateUnknown},
		{Name: "api/delete", Milestone: MilestoneAPI, Run: deleteNote},
		{Name: "api/list-contains-created", Milestone: MilestoneAPI, Run: listContainsCreated},
		{Name: "api/search", Milestone: MilestoneAPI, Feature: FeatureSearch, Run: searchNotes},
	}
}

func listReturnsArray(ctx context.Context, s *Session) error {
	s.Step("GET %s", notesPath)
	resp, err := s.API.List(ctx)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	if body := strings.TrimSpace(string(resp.Body)); !strings.HasPrefix(body, "[") {
		return s.Fail("a JSON array", resp)
	}
	return nil
}

func createRoundTrip(ctx context.Context, s *Session) error {
	input := NoteInput{
		Title:       s.UniqueTitle("Integration Test Note"),
		Content:     "This note was created by an integration test.",
		Tags:        []string{"integration", "test"},
		Attachments: []string{"report.pdf"},
	}

	s.Step("create note")
	created, err := s.CreateNote(ctx, input)
	if err != nil {
		return err
	}
	if created.CreatedAt == "" || created.UpdatedAt == "" {
		return s.Fail("createdAt and updatedAt in the response", created)
	}
	if created.Title != input.Title || created.Content != input.Content {
		return s.Fail(fmt.Sprintf("title %q content %q echoed", input.Title, input.Content), created)
	}
	if !sameStrings(created.Tags, input.Tags) {
		return s.Fail(fmt.Sprintf("tags %q echoed exactly", input.Tags), created.Tags)
	}
	if !sameStrings(created.Attachments, input.Attachments) {
		return s.Fail(fmt.Sprintf("attachments %q echoed exactly", input.Attachments), created.Attachments)
	}

	s.Step("get note %s", created.ID)
	fetched, err := s.FetchNote(ctx, created.ID)
	if err != nil {
		return err
	}
	if fetched.ID != created.ID || fetched.Title != input.Title || fetched.Content != input.Content {
		return s.Fail(fmt.Sprintf("note %s with title %q", created.ID, input.Title), fetched)
	}
	if !sameStrings(fetched.Tags, input.Tags) || !sameStrings(fetched.Attachments, input.Attachments) {
		return s.Fail(fmt.Sprintf("tags %q attachments %q", input.Tags, input.Attachments), fetched)
	}
	return nil
}

func createDefaults(ctx context.Context, s *Session) error {
	s.Step("create note with title only")
	created, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Defaults")})
	if err != nil {
		return err
	}
	if len(created.Tags) != 0 || len(created.Attachments) != 0 {
		return s.Fail("empty tags and attachments", created)
	}
	return nil
}

// createRejected posts a body built from format, which receives a unique marker
// placed in content, and checks nothing carrying the marker was stored.
func createRejected(format string) func(ctx context.Context, s *Session) error {
	return func(ctx context.Context, s *Session) error {
		marker := "rejected-" + uuid.NewString()
		body := []byte(fmt.Sprintf(format, marker))

		s.Step("POST %s", body)
		resp, err := s.API.Create(ctx, body)
		if err != nil {
			return s.Wrap(err)
		}
		if resp.OK() {
			if note, err := DecodeNote(resp); err == nil {
				s.Tracker.Track(note.ID)
			}
		}
		if err := s.ExpectStatus(resp, http.StatusBadRequest); err != nil {
			return err
		}

		s.Step("list after rejected create")
		notes, err := s.ListNotes(ctx)
		if err != nil {
			return err
		}
		for _, note := range notes {
			if note.Content == marker {
				s.Tracker.Track(note.ID)
				return s.Fail("no persisted note", note)
			}
		}
		return nil
	}
}

func createMalformedJSON(ctx context.Context, s *Session) error {
	s.Step("POST malformed JSON")
	resp, err := s.API.Create(ctx, []byte(`{"title": "unterminated`))
	if err != nil {
		return s.Wrap(err)
	}
	return s.ExpectStatus(resp, http.StatusBadRequest)
}

func getUnknown(ctx context.Context, s *Session) error {
	s.Step("GET %s", notePath(unknownNoteID))
	resp, err := s.API.Get(ctx, unknownNoteID)
	if err != nil {
		return s.Wrap(err)
	}
	return s.ExpectStatus(resp, http.StatusNotFound)
}

func malformedID(ctx context.Context, s *Session) error {
	s.Step("GET %s", notePath(malformedNoteID))
	resp, err := s.API.Get(ctx, malformedNoteID)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusNotFound); err != nil {
		return err
	}

	s.Step("DELETE %s", notePath(malformedNoteID))
	resp, err = s.API.Delete(ctx, malformedNoteID)
	if err != nil {
		return s.Wrap(err)
	}
	return s.ExpectStatus(resp, http.StatusNotFound)
}

func parseTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}

func updateTitle(ctx context.Context, s *Session) error {
	s.Step("create note")
	created, err := s.CreateNote(ctx, NoteInput{
		Title:   s.UniqueTitle("Before update"),
		Content: "original content",
		Tags:    []string{"update"},
	})
	if err != nil {
		return err
	}

	// Full body so the result is the same whether the service replaces or merges.
	updated := NoteInput{
		Title:       s.UniqueTitle("After update"),
		Content:     "updated content",
		Tags:        []string{"update", "done"},
		Attachments: []string{},
	}
	s.Step("update note %s", created.ID)
	resp, err := s.API.Update(ctx, created.ID, updated)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusOK, http.StatusNoContent); err != nil {
		return err
	}

	s.Step("get updated note %s", created.ID)
	fetched, err := s.FetchNote(ctx, created.ID)
	if err != nil {
		return err
	}
	if fetched.Title != updated.Title || fetched.Content != updated.Content || !sameStrings(fetched.Tags, updated.Tags) {
		return s.Fail(fmt.Sprintf("title %q content %q tags %q", updated.Title, updated.Content, updated.Tags), fetched)
	}
	if fetched.CreatedAt != created.CreatedAt {
		createdBefore, errBefore := parseTimestamp(created.CreatedAt)
		createdAfter, errAfter := parseTimestamp(fetched.CreatedAt)
		if errBefore != nil || errAfter != nil || !createdBefore.Equal(createdAfter) {
			return s.Fail("createdAt unchanged "+created.CreatedAt, fetched.CreatedAt)
		}
	}

	before, err := parseTimestamp(created.UpdatedAt)
	if err != nil {
		return s.Fail("RFC 3339 updatedAt", created.UpdatedAt)
	}
	after, err := parseTimestamp(fetched.UpdatedAt)
	if err != nil {
		return s.Fail("RFC 3339 updatedAt", fetched.UpdatedAt)
	}
	if after.Before(before) {
		return s.Fail("updatedAt not before "+created.UpdatedAt, fetched.UpdatedAt)
	}
	return nil
}

func updateEmptyTitle(ctx context.Context, s *Session) error {
	s.Step("create note")
	created, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Keep my title"), Content: "body"})
	if err != nil {
		return err
	}

	s.Step("update note %s with empty title", created.ID)
	resp, err := s.API.Update(ctx, created.ID, NoteInput{Title: "", Content: "body"})
	if err != nil {
		return s.Wrap(err)
	}
	if !resp.OK() {
		if err := s.ExpectStatus(resp, http.StatusBadRequest, http.StatusUnprocessableEntity); err != nil {
			return err
		}
	}

	s.Step("get note %s after empty-title update", created.ID)
	fetched, err := s.FetchNote(ctx, created.ID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(fetched.Title) == "" {
		return s.Fail("title never persisted empty", fetched)
	}
	if fetched.Title != created.Title {
		return s.Fail(fmt.Sprintf("title unchanged %q", created.Title), fetched.Title)
	}
	return nil
}

func updateUnknown(ctx context.Context, s *Session) error {
	s.Step("update unknown note %s", unknownNoteID)
	resp, err := s.API.Update(ctx, unknownNoteID, NoteInput{Title: "Nobody home"})
	if err != nil {
		return s.Wrap(err)
	}
	return s.ExpectStatus(resp, http.StatusNotFound)
}

func deleteNote(ctx context.Context, s *Session) error {
	s.Step("create note")
	created, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Delete me")})
	if err != nil {
		return err
	}

	s.Step("DELETE %s", notePath(created.ID))
	resp, err := s.API.Delete(ctx, created.ID)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusOK, http.StatusNoContent); err != nil {
		return err
	}

	s.Step("GET deleted note %s", created.ID)
	resp, err = s.API.Get(ctx, created.ID)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusNotFound); err != nil {
		return err
	}

	s.Step("DELETE deleted note %s", created.ID)
	resp, err = s.API.Delete(ctx, created.ID)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusNotFound); err != nil {
		return err
	}

	s.Step("list after delete")
	notes, err := s.ListNotes(ctx)
	if err != nil {
		return err
	}
	if containsID(notes, created.ID) {
		return s.Fail("deleted id absent from listing", created.ID)
	}
	return nil
}

func listContainsCreated(ctx context.Context, s *Session) error {
	var ids []string
	for i := 1; i <= 3; i++ {
		s.Step("create note %d of 3", i)
		note, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle(fmt.Sprintf("Listed %d", i))})
		if err != nil {
			return err
		}
		ids = append(ids, note.ID)
	}

	s.Step("list notes")
	notes, err := s.ListNotes(ctx)
	if err != nil {
		return err
	}
	if len(notes) < len(ids) {
		return s.Fail(fmt.Sprintf("at least %d notes", len(ids)), len(notes))
	}
	for _, id := range ids {
		if !containsID(notes, id) {
			return s.Fail("listing contains "+id, len(notes))
		}
	}
	return nil
}

func searchNotes(ctx context.Context, s *Session) error {
	token := "needle" + uuid.NewString()[:8]

	s.Step("create matching and non-matching notes")
	match, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Search hit"), Content: "contains " + strings.ToUpper(token)})
	if err != nil {
		return err
	}
	miss, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Search miss"), Content: "nothing to see"})
	if err != nil {
		return err
	}

	s.Step("search for %s", token)
	resp, err := s.API.Search(ctx, token)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	notes, err := DecodeNotes(resp)
	if err != nil {
		return s.Wrap(err)
	}
	if !containsID(notes, match.ID) {
		return s.Fail("case-insensitive match "+match.ID, resp)
	}
	if containsID(notes, miss.ID) {
		return s.Fail("non-matching note filtered out", resp)
	}
	return nil
}
