package contract

import (
	"context"
	"fmt"
	"net/http"
)

func dbScenarios() []Scenario {
	return []Scenario{
		{Name: "apidb/persists-across-connections", Milestone: MilestoneAPIDB, Run: persistsAcrossConnections},
		{Name: "apidb/update-persists", Milestone: MilestoneAPIDB, Run: updatePersists},
		{Name: "apidb/document-lifecycle", Milestone: MilestoneAPIDB, Needs: NeedProbe, Run: documentLifecycle},
		{Name: "apidb/reset-clears", Milestone: MilestoneAPIDB, Needs: NeedReset, Serial: true, Run: resetClears},
	}
}

func persistsAcrossConnections(ctx context.Context, s *Session) error {
	s.Step("create note")
	created, err := s.CreateNote(ctx, NoteInput{
		Title:   s.UniqueTitle("Persisted"),
		Content: "stored in the database",
		Tags:    []string{"db"},
	})
	if err != nil {
		return err
	}

	other := s.API.Fresh()
	s.Step("get note %s on a new connection", created.ID)
	resp, err := other.Get(ctx, created.ID)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	fetched, err := DecodeNote(resp)
	if err != nil {
		return s.Wrap(err)
	}
	if fetched.Title != created.Title || fetched.Content != created.Content || !sameStrings(fetched.Tags, created.Tags) {
		return s.Fail(fmt.Sprintf("stored copy of %q", created.Title), fetched)
	}

	s.Step("list on a new connection")
	resp, err = other.List(ctx)
	if err != nil {
		return s.Wrap(err)
	}
	notes, err := DecodeNotes(resp)
	if err != nil {
		return s.Wrap(err)
	}
	if !containsID(notes, created.ID) {
		return s.Fail("listing contains "+created.ID, len(notes))
	}
	return nil
}

func updatePersists(ctx context.Context, s *Session) error {
	s.Step("create note")
	created, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Versioned")})
	if err != nil {
		return err
	}

	title := s.UniqueTitle("Versioned v2")
	s.Step("update note %s", created.ID)
	resp, err := s.API.Update(ctx, created.ID, NoteInput{Title: title, Tags: []string{"v2"}})
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusOK, http.StatusNoContent); err != nil {
		return err
	}

	s.Step("get note %s on a new connection", created.ID)
	resp, err = s.API.Fresh().Get(ctx, created.ID)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	fetched, err := DecodeNote(resp)
	if err != nil {
		return s.Wrap(err)
	}
	if fetched.Title != title {
		return s.Fail(fmt.Sprintf("title %q", title), fetched.Title)
	}
	return nil
}

func documentLifecycle(ctx context.Context, s *Session) error {
	s.Step("create note")
	created, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Probed")})
	if err != nil {
		return err
	}

	s.Step("find document %s", created.ID)
	err = s.Eventually(ctx, "document "+created.ID+" stored", func(ctx context.Context) (bool, error) {
		doc, found, err := s.Probe.FindNote(ctx, created.ID)
		if err != nil || !found {
			return false, err
		}
		if doc.Title != created.Title {
			return false, fmt.Errorf("stored title %q", doc.Title)
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	s.Step("delete note %s", created.ID)
	resp, err := s.API.Delete(ctx, created.ID)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusOK, http.StatusNoContent); err != nil {
		return err
	}

	s.Step("document %s removed", created.ID)
	return s.Eventually(ctx, "document "+created.ID+" gone", func(ctx context.Context) (bool, error) {
		_, found, err := s.Probe.FindNote(ctx, created.ID)
		return !found, err
	})
}

func resetClears(ctx context.Context, s *Session) error {
	var ids []string
	for i := 1; i <= 2; i++ {
		s.Step("create note %d of 2", i)
		note, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Reset me")})
		if err != nil {
			return err
		}
		ids = append(ids, note.ID)
	}

	s.Step("DELETE %s", resetPath)
	resp, err := s.API.Reset(ctx)
	if err != nil {
		return s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, http.StatusOK, http.StatusNoContent); err != nil {
		return err
	}

	s.Step("list after reset")
	notes, err := s.ListNotes(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if containsID(notes, id) {
			return s.Fail("reset removed "+id, len(notes))
		}
	}

	for _, id := range ids {
		s.Step("get %s after reset", id)
		resp, err := s.API.Get(ctx, id)
		if err != nil {
			return s.Wrap(err)
		}
		if err := s.ExpectStatus(resp, http.StatusNotFound); err != nil {
			return err
		}
	}
	return nil
}
