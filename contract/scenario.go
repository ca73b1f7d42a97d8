package contract

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Need is a capability a scenario requires from the run.
type Need int

const (
	NeedBrowser Need = 1 << iota
	NeedProbe
	NeedReset
)

func (n Need) String() string {
	var parts []string
	if n&NeedBrowser != 0 {
		parts = append(parts, "browser")
	}
	if n&NeedProbe != 0 {
		parts = append(parts, "mongo probe")
	}
	if n&NeedReset != 0 {
		parts = append(parts, "--reset")
	}
	return strings.Join(parts, ", ")
}

// Feature names optional behaviour a service may or may not implement.
type Feature string

const FeatureSearch Feature = "search"

// Scenario is one independent check of the contract.
type Scenario struct {
	Name      string
	Milestone Milestone
	Needs     Need
	Feature   Feature
	// Serial scenarios run alone before the parallel ones.
	Serial bool
	Run    func(ctx context.Context, s *Session) error
}

// Session is the per-scenario view of the run: clients, tracker and the step being
// executed, for failure reports.
type Session struct {
	Scenario string
	API      *NotesClient
	Browser  *Browser
	Probe    DocumentProbe
	Tracker  *Tracker
	Settings Settings
	Logger   zerolog.Logger

	step string
}

// Step names the part of the scenario that runs next.
func (s *Session) Step(format string, args ...any) {
	s.step = fmt.Sprintf(format, args...)
	s.Logger.Debug().Str("step", s.step).Msg("step")
}

// Fail builds an assertion failure for the current step.
func (s *Session) Fail(expected string, actual any) error {
	return &AssertionError{
		Scenario: s.Scenario,
		Step:     s.step,
		Expected: expected,
		Actual:   fmt.Sprint(actual),
	}
}

// Wrap attaches scenario and step to a transport or decoding error.
func (s *Session) Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &AssertionError{Scenario: s.Scenario, Step: s.step, Expected: "no error", Actual: err.Error(), Err: err}
}

// Eventually polls cond for the configured assertion timeout.
func (s *Session) Eventually(ctx context.Context, expected string, cond Condition) error {
	if err := Eventually(ctx, s.Settings.AssertTimeout, cond); err != nil {
		return &AssertionError{Scenario: s.Scenario, Step: s.step, Expected: expected, Actual: err.Error(), Err: err}
	}
	return nil
}

// UniqueTitle returns a title no other scenario or run will produce.
func (s *Session) UniqueTitle(prefix string) string {
	return fmt.Sprintf("%s %s", prefix, uuid.NewString()[:8])
}

// ExpectStatus fails unless resp carries one of codes.
func (s *Session) ExpectStatus(resp *Response, codes ...int) error {
	if slices.Contains(codes, resp.Status) {
		return nil
	}
	want := make([]string, len(codes))
	for i, code := range codes {
		want[i] = fmt.Sprint(code)
	}
	return s.Fail("status "+strings.Join(want, " or "), resp)
}

// CreateNote posts input, expects 200 and tracks the new note for cleanup.
func (s *Session) CreateNote(ctx context.Context, input NoteInput) (*Note, error) {
	resp, err := s.API.Create(ctx, input)
	if err != nil {
		return nil, s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, 200, 201); err != nil {
		return nil, err
	}
	note, err := DecodeNote(resp)
	if err != nil {
		return nil, s.Wrap(err)
	}
	if note.ID == "" {
		return nil, s.Fail("created note with an id", resp)
	}
	s.Tracker.Track(note.ID)
	return note, nil
}

// FetchNote gets a note by id and expects 200.
func (s *Session) FetchNote(ctx context.Context, id string) (*Note, error) {
	resp, err := s.API.Get(ctx, id)
	if err != nil {
		return nil, s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, 200); err != nil {
		return nil, err
	}
	note, err := DecodeNote(resp)
	if err != nil {
		return nil, s.Wrap(err)
	}
	return note, nil
}

// ListNotes gets the collection and expects a 200 array.
func (s *Session) ListNotes(ctx context.Context) ([]Note, error) {
	resp, err := s.API.List(ctx)
	if err != nil {
		return nil, s.Wrap(err)
	}
	if err := s.ExpectStatus(resp, 200); err != nil {
		return nil, err
	}
	notes, err := DecodeNotes(resp)
	if err != nil {
		return nil, s.Wrap(err)
	}
	return notes, nil
}

// AssertionError is a failed expectation inside a scenario.
type AssertionError struct {
	Scenario string
	Step     string
	Expected string
	Actual   string
	Err      error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", e.Scenario, e.Step, e.Expected, e.Actual)
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

// Settings are the run-wide knobs scenarios read.
type Settings struct {
	UIURL         string
	AssertTimeout time.Duration
	Features      map[Feature]bool
	Markers       Markers
}

// Enabled reports whether feature was switched on for the run.
func (s Settings) Enabled(feature Feature) bool {
	return feature == "" || s.Features[feature]
}

func containsID(notes []Note, id string) bool {
	for _, note := range notes {
		if note.ID == id {
			return true
		}
	}
	return false
}

func findByTitle(notes []Note, title string) *Note {
	for i := range notes {
		if notes[i].Title == title {
			return &notes[i]
		}
	}
	return nil
}

func sameStrings(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return slices.Equal(a, b)
}
