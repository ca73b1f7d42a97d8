package contract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

func integrationScenarios() []Scenario {
	return []Scenario{
		{Name: "integration/ui-create-in-api", Milestone: MilestoneIntegration, Needs: NeedBrowser, Run: uiCreateInAPI},
		{Name: "integration/api-create-in-ui", Milestone: MilestoneIntegration, Needs: NeedBrowser, Run: apiCreateInUI},
		{Name: "integration/ui-edit-in-api", Milestone: MilestoneIntegration, Needs: NeedBrowser, Run: uiEditInAPI},
		{Name: "integration/ui-delete-in-api", Milestone: MilestoneIntegration, Needs: NeedBrowser, Run: uiDeleteInAPI},
	}
}

func uiCreateInAPI(ctx context.Context, s *Session) error {
	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	title := s.UniqueTitle("Integration UI note")
	if err := addThroughUI(ctx, s, page, title, "from the browser"); err != nil {
		return err
	}

	s.Step("reload")
	if err := page.Reload(ctx); err != nil {
		return s.Wrap(err)
	}
	if err := waitForItem(ctx, s, page, title, true); err != nil {
		return err
	}

	s.Step("find %q through the API", title)
	return s.Eventually(ctx, fmt.Sprintf("API collection contains %q", title), func(ctx context.Context) (bool, error) {
		notes, err := s.ListNotes(ctx)
		if err != nil {
			return false, err
		}
		note := findByTitle(notes, title)
		if note == nil {
			return false, nil
		}
		s.Tracker.Track(note.ID)
		return true, nil
	})
}

func apiCreateInUI(ctx context.Context, s *Session) error {
	s.Step("create note through the API")
	created, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Integration API note")})
	if err != nil {
		return err
	}

	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	s.Step("wait for %q in list", created.Title)
	if err := waitForItem(ctx, s, page, created.Title, true); err != nil {
		return err
	}
	return expectNoError(ctx, s, page)
}

func uiEditInAPI(ctx context.Context, s *Session) error {
	s.Step("create note through the API")
	created, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Integration edit"), Content: "before"})
	if err != nil {
		return err
	}

	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := waitForItem(ctx, s, page, created.Title, true); err != nil {
		return err
	}

	renamed := s.UniqueTitle("Integration edited")
	s.Step("rename %q in the UI", created.Title)
	if err := page.OpenItem(ctx, created.Title); err != nil {
		return s.Wrap(err)
	}
	if err := page.FillNote(ctx, renamed, "after"); err != nil {
		return s.Wrap(err)
	}
	if err := page.Save(ctx); err != nil {
		return s.Wrap(err)
	}

	s.Step("API shows %q", renamed)
	return s.Eventually(ctx, fmt.Sprintf("note %s titled %q", created.ID, renamed), func(ctx context.Context) (bool, error) {
		note, err := s.FetchNote(ctx, created.ID)
		if err != nil {
			return false, err
		}
		return note.Title == renamed && strings.TrimSpace(note.Content) == "after", nil
	})
}

func uiDeleteInAPI(ctx context.Context, s *Session) error {
	s.Step("create note through the API")
	created, err := s.CreateNote(ctx, NoteInput{Title: s.UniqueTitle("Integration delete")})
	if err != nil {
		return err
	}

	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := waitForItem(ctx, s, page, created.Title, true); err != nil {
		return err
	}

	s.Step("delete %q in the UI", created.Title)
	if err := page.OpenItem(ctx, created.Title); err != nil {
		return s.Wrap(err)
	}
	if err := page.Delete(ctx); err != nil {
		return s.Wrap(err)
	}
	if err := waitForItem(ctx, s, page, created.Title, false); err != nil {
		return err
	}

	s.Step("API answers 404 for %s", created.ID)
	return s.Eventually(ctx, "GET "+notePath(created.ID)+" 404", func(ctx context.Context) (bool, error) {
		resp, err := s.API.Get(ctx, created.ID)
		if err != nil {
			return false, err
		}
		return resp.Status == http.StatusNotFound, nil
	})
}
