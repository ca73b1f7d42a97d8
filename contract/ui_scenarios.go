package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func uiScenarios() []Scenario {
	return []Scenario{
		{Name: "ui/list-renders", Milestone: MilestoneUI, Needs: NeedBrowser, Run: uiListRenders},
		{Name: "ui/add-note", Milestone: MilestoneUI, Needs: NeedBrowser, Run: uiAddNote},
		{Name: "ui/edit-note", Milestone: MilestoneUI, Needs: NeedBrowser, Run: uiEditNote},
		{Name: "ui/delete-note", Milestone: MilestoneUI, Needs: NeedBrowser, Run: uiDeleteNote},
		{Name: "ui/empty-title-rejected", Milestone: MilestoneUI, Needs: NeedBrowser, Run: uiEmptyTitleRejected},
		{Name: "ui/search", Milestone: MilestoneUI, Needs: NeedBrowser, Feature: FeatureSearch, Run: uiSearch},
	}
}

// openPage opens the UI in a new tab; the caller closes it.
func openPage(ctx context.Context, s *Session) (*Page, error) {
	s.Step("open %s", s.Settings.UIURL)
	page, err := s.Browser.NewPage(s.Settings.Markers)
	if err != nil {
		return nil, s.Wrap(err)
	}
	if err := page.Open(ctx, s.Settings.UIURL); err != nil {
		page.Close()
		return nil, s.Wrap(err)
	}
	return page, nil
}

// expectNoError fails if the generic error marker is showing.
func expectNoError(ctx context.Context, s *Session, page *Page) error {
	shown, err := page.ErrorShown(ctx)
	if err != nil {
		return s.Wrap(err)
	}
	if shown {
		return s.Fail("no error indicator", "error marker visible")
	}
	return nil
}

func waitForItem(ctx context.Context, s *Session, page *Page, title string, present bool) error {
	expected := fmt.Sprintf("note item %q shown", title)
	if !present {
		expected = fmt.Sprintf("note item %q gone", title)
	}
	return s.Eventually(ctx, expected, func(ctx context.Context) (bool, error) {
		has, err := page.HasItem(ctx, title)
		if err != nil {
			return false, err
		}
		return has == present, nil
	})
}

// addThroughUI creates a note with the editor and waits for it to be listed.
func addThroughUI(ctx context.Context, s *Session, page *Page, title, content string) error {
	s.Tracker.TrackTitle(title)

	s.Step("add note %q", title)
	if err := page.StartNote(ctx); err != nil {
		return s.Wrap(err)
	}
	if err := page.FillNote(ctx, title, content); err != nil {
		return s.Wrap(err)
	}
	if err := page.Save(ctx); err != nil {
		return s.Wrap(err)
	}

	s.Step("wait for %q in list", title)
	return waitForItem(ctx, s, page, title, true)
}

func uiListRenders(ctx context.Context, s *Session) error {
	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	s.Step("list visible without error")
	visible, err := page.Visible(ctx, s.Settings.Markers.List)
	if err != nil {
		return s.Wrap(err)
	}
	if !visible {
		return s.Fail("notes list visible", "hidden")
	}
	return expectNoError(ctx, s, page)
}

func uiAddNote(ctx context.Context, s *Session) error {
	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	title := s.UniqueTitle("UI note")
	if err := addThroughUI(ctx, s, page, title, "written in the browser"); err != nil {
		return err
	}

	s.Step("reload")
	if err := page.Reload(ctx); err != nil {
		return s.Wrap(err)
	}
	if err := waitForItem(ctx, s, page, title, true); err != nil {
		return err
	}
	return expectNoError(ctx, s, page)
}

func uiEditNote(ctx context.Context, s *Session) error {
	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	title := s.UniqueTitle("UI edit before")
	if err := addThroughUI(ctx, s, page, title, ""); err != nil {
		return err
	}

	renamed := s.UniqueTitle("UI edit after")
	s.Tracker.TrackTitle(renamed)
	s.Step("rename %q to %q", title, renamed)
	if err := page.OpenItem(ctx, title); err != nil {
		return s.Wrap(err)
	}
	if err := page.FillNote(ctx, renamed, "edited in the browser"); err != nil {
		return s.Wrap(err)
	}
	if err := page.Save(ctx); err != nil {
		return s.Wrap(err)
	}

	s.Step("wait for rename")
	if err := waitForItem(ctx, s, page, renamed, true); err != nil {
		return err
	}
	if err := waitForItem(ctx, s, page, title, false); err != nil {
		return err
	}
	return expectNoError(ctx, s, page)
}

func uiDeleteNote(ctx context.Context, s *Session) error {
	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	title := s.UniqueTitle("UI delete")
	if err := addThroughUI(ctx, s, page, title, ""); err != nil {
		return err
	}

	s.Step("delete %q", title)
	if err := page.OpenItem(ctx, title); err != nil {
		return s.Wrap(err)
	}
	if err := page.Delete(ctx); err != nil {
		return s.Wrap(err)
	}
	if err := waitForItem(ctx, s, page, title, false); err != nil {
		return err
	}

	s.Step("reload after delete")
	if err := page.Reload(ctx); err != nil {
		return s.Wrap(err)
	}
	has, err := page.HasItem(ctx, title)
	if err != nil {
		return s.Wrap(err)
	}
	if has {
		return s.Fail("deleted note absent after reload", title)
	}
	return expectNoError(ctx, s, page)
}

// rejectionSettle bounds how long a UI that refuses silently is watched before
// the refusal is accepted.
const rejectionSettle = 2 * time.Second

// uiEmptyTitleRejected accepts either a visible validation message or an
// editor that stays open without saving. Either way nothing may reach the store.
func uiEmptyTitleRejected(ctx context.Context, s *Session) error {
	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	content := "untitled " + uuid.NewString()
	s.Step("save note with empty title")
	if err := page.StartNote(ctx); err != nil {
		return s.Wrap(err)
	}
	if err := page.FillNote(ctx, "", content); err != nil {
		return s.Wrap(err)
	}
	if err := page.Save(ctx); err != nil {
		return s.Wrap(err)
	}

	s.Step("save refused")
	settle := rejectionSettle
	if s.Settings.AssertTimeout > 0 {
		settle = min(settle, s.Settings.AssertTimeout)
	}
	var (
		outcome string
		lastErr error
	)
	err = Eventually(ctx, settle, func(ctx context.Context) (bool, error) {
		shown, err := page.Visible(ctx, s.Settings.Markers.Validation)
		lastErr = err
		if err != nil {
			return false, err
		}
		if shown {
			outcome = "validation message"
			return true, nil
		}
		editing, err := page.Visible(ctx, s.Settings.Markers.Title)
		lastErr = err
		if err != nil {
			return false, err
		}
		if !editing {
			outcome = "editor closed"
			return true, nil
		}
		return false, nil
	})
	switch {
	case err == nil && outcome == "editor closed":
		return s.Fail("validation message or editor left open", outcome)
	case err == nil:
	case lastErr != nil || ctx.Err() != nil:
		return s.Wrap(err)
	}

	s.Step("nothing saved")
	notes, err := s.ListNotes(ctx)
	if err != nil {
		return err
	}
	for _, note := range notes {
		if note.Content == content {
			s.Tracker.Track(note.ID)
			return s.Fail("no note saved from an empty title", fmt.Sprintf("note %s titled %q", note.ID, note.Title))
		}
	}
	return nil
}

func uiSearch(ctx context.Context, s *Session) error {
	page, err := openPage(ctx, s)
	if err != nil {
		return err
	}
	defer page.Close()

	token := "find" + uuid.NewString()[:8]
	hit := s.UniqueTitle("Search " + token)
	miss := s.UniqueTitle("Search other")
	if err := addThroughUI(ctx, s, page, hit, ""); err != nil {
		return err
	}
	if err := addThroughUI(ctx, s, page, miss, ""); err != nil {
		return err
	}

	s.Step("search for %s", token)
	if err := page.Search(ctx, token); err != nil {
		return s.Wrap(err)
	}
	if err := waitForItem(ctx, s, page, miss, false); err != nil {
		return err
	}
	has, err := page.HasItem(ctx, hit)
	if err != nil {
		return s.Wrap(err)
	}
	if !has {
		return s.Fail(fmt.Sprintf("%q still listed", hit), "filtered out")
	}
	return nil
}
