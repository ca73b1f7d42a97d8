package contract_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"notecheck/contract"
	"notecheck/model"
	"notecheck/testutils"
	"notecheck/usecase"
	"notecheck/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, ts *testutils.TestServer, reset bool) *contract.Runner {
	t.Helper()
	client := contract.NewNotesClient(ts.URL, 5*time.Second)
	return &contract.Runner{
		Env: contract.Env{
			API:   client,
			Reset: reset,
			Settings: contract.Settings{
				AssertTimeout: 2 * time.Second,
				Features:      map[contract.Feature]bool{contract.FeatureSearch: true},
				Markers:       contract.DefaultMarkers(),
			},
		},
		Parallel:        4,
		ScenarioTimeout: 10 * time.Second,
		CleanupTimeout:  5 * time.Second,
		Logger:          zerolog.Nop(),
	}
}

func resultsByName(report *contract.Report) map[string]contract.Result {
	out := make(map[string]contract.Result, len(report.Results))
	for _, res := range report.Results {
		out[res.Scenario] = res
	}
	return out
}

func TestReferenceServicePassesAPIMilestones(t *testing.T) {
	const secret = "self-test-secret"
	ts := testutils.NewTestServer(t, testutils.TestServerOptions{EnableReset: true, ResetSecret: secret})
	ctx := testutils.Context(t, time.Minute)

	runner := newRunner(t, ts, true)
	token, err := utils.MintResetToken(secret, time.Minute)
	require.NoError(t, err)
	runner.Env.API.ResetToken = token

	scenarios, err := contract.Select(contract.Scenarios(),
		[]contract.Milestone{contract.MilestoneAPI, contract.MilestoneAPIDB}, nil)
	require.NoError(t, err)

	report, err := runner.Run(ctx, scenarios)
	require.NoError(t, err)
	require.Len(t, report.Results, len(scenarios))

	for i, res := range report.Results {
		assert.Equal(t, scenarios[i].Name, res.Scenario, "results keep scenario order")
		switch res.Scenario {
		case "apidb/document-lifecycle":
			assert.Equal(t, contract.StatusSkipped, res.Status)
			assert.Contains(t, res.Reason, "mongo probe")
		default:
			assert.Equal(t, contract.StatusPassed, res.Status, "%s: %s", res.Scenario, res.Reason)
		}
		assert.Empty(t, res.Cleanup, res.Scenario)
	}

	assert.True(t, report.Passed())
	assert.True(t, report.MilestoneReached(contract.MilestoneAPI))
	assert.False(t, report.MilestoneReached(contract.MilestoneAPIDB), "a skipped scenario leaves the milestone open")
	assert.False(t, report.MilestoneReached(contract.MilestoneUI))

	notes, err := ts.Notes.ListNotes(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, notes, "every scenario cleaned up after itself")
}

func TestReferenceServiceWithPatchOnly(t *testing.T) {
	ts := testutils.NewTestServer(t, testutils.TestServerOptions{UpdateVerbs: "patch"})
	ctx := testutils.Context(t, time.Minute)

	scenarios, err := contract.Select(contract.Scenarios(),
		[]contract.Milestone{contract.MilestoneAPI}, []string{"api/update-*"})
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	report, err := newRunner(t, ts, false).Run(ctx, scenarios)
	require.NoError(t, err)
	for _, res := range report.Results {
		assert.Equal(t, contract.StatusPassed, res.Status, "%s: %s", res.Scenario, res.Reason)
	}
}

func TestRunnerSkipsUnavailableCapabilities(t *testing.T) {
	ts := testutils.NewTestServer(t, testutils.TestServerOptions{})
	runner := newRunner(t, ts, false)
	runner.Env.Settings.Features = nil

	ran := false
	scenarios := []contract.Scenario{
		{Name: "ui/needs-browser", Milestone: contract.MilestoneUI, Needs: contract.NeedBrowser,
			Run: func(context.Context, *contract.Session) error { ran = true; return nil }},
		{Name: "apidb/needs-reset", Milestone: contract.MilestoneAPIDB, Needs: contract.NeedReset, Serial: true,
			Run: func(context.Context, *contract.Session) error { ran = true; return nil }},
		{Name: "api/optional", Milestone: contract.MilestoneAPI, Feature: contract.FeatureSearch,
			Run: func(context.Context, *contract.Session) error { ran = true; return nil }},
	}

	report, err := runner.Run(context.Background(), scenarios)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 3, report.Count(contract.StatusSkipped))
	assert.True(t, report.Passed())

	byName := resultsByName(report)
	assert.Equal(t, "needs browser", byName["ui/needs-browser"].Reason)
	assert.Equal(t, "needs --reset", byName["apidb/needs-reset"].Reason)
	assert.Contains(t, byName["api/optional"].Reason, `feature "search" not enabled`)
}

func TestRunnerReportsFailuresAndCleansUp(t *testing.T) {
	ts := testutils.NewTestServer(t, testutils.TestServerOptions{})
	ctx := testutils.Context(t, time.Minute)
	runner := newRunner(t, ts, false)
	runner.ScenarioTimeout = 200 * time.Millisecond

	scenarios := []contract.Scenario{
		{
			Name:      "api/assertion",
			Milestone: contract.MilestoneAPI,
			Run: func(ctx context.Context, s *contract.Session) error {
				s.Step("create")
				note, err := s.CreateNote(ctx, contract.NoteInput{Title: s.UniqueTitle("Left behind")})
				if err != nil {
					return err
				}
				s.Step("compare")
				return s.Fail("title \"something else\"", note.Title)
			},
		},
		{
			Name:      "api/panics",
			Milestone: contract.MilestoneAPI,
			Run: func(ctx context.Context, s *contract.Session) error {
				s.Step("explode")
				panic("boom")
			},
		},
		{
			Name:      "api/hangs",
			Milestone: contract.MilestoneAPI,
			Run: func(ctx context.Context, s *contract.Session) error {
				s.Step("wait forever")
				<-ctx.Done()
				return ctx.Err()
			},
		},
		{
			Name:      "api/status",
			Milestone: contract.MilestoneAPI,
			Run: func(ctx context.Context, s *contract.Session) error {
				s.Step("GET unknown")
				resp, err := s.API.Get(ctx, "507f1f77bcf86cd799439011")
				if err != nil {
					return s.Wrap(err)
				}
				return s.ExpectStatus(resp, http.StatusOK)
			},
		},
	}

	report, err := runner.Run(ctx, scenarios)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Count(contract.StatusFailed))
	assert.False(t, report.Passed())
	assert.False(t, report.MilestoneReached(contract.MilestoneAPI))

	byName := resultsByName(report)

	var assertion *contract.AssertionError
	require.True(t, errors.As(byName["api/assertion"].Err, &assertion))
	assert.Equal(t, "compare", assertion.Step)
	assert.Equal(t, `title "something else"`, assertion.Expected)
	assert.True(t, strings.HasPrefix(assertion.Actual, "Left behind "))

	assert.Contains(t, byName["api/panics"].Reason, `panic in step "explode": boom`)
	assert.Contains(t, byName["api/hangs"].Reason, `timed out after 200ms in step "wait forever"`)
	assert.Contains(t, byName["api/status"].Reason, "expected status 200, got GET /api/Notes/507f1f77bcf86cd799439011 -> 404")

	notes, err := ts.Notes.ListNotes(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, notes, "failed scenarios still clean up")
}

func TestRunnerResetsBeforeRun(t *testing.T) {
	const secret = "reset-before-run"
	ts := testutils.NewTestServer(t, testutils.TestServerOptions{EnableReset: true, ResetSecret: secret})
	ctx := testutils.Context(t, time.Minute)

	leftover := &model.Note{Title: "Left by an earlier run"}
	require.NoError(t, ts.Notes.CreateNote(ctx, leftover))

	runner := newRunner(t, ts, true)
	token, err := utils.MintResetToken(secret, time.Minute)
	require.NoError(t, err)
	runner.Env.API.ResetToken = token

	var seen []contract.Note
	scenarios := []contract.Scenario{{
		Name:      "api/sees-clean-store",
		Milestone: contract.MilestoneAPI,
		Run: func(ctx context.Context, s *contract.Session) error {
			notes, err := s.ListNotes(ctx)
			seen = notes
			return err
		},
	}}

	report, err := runner.Run(ctx, scenarios)
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.Empty(t, seen, "the store was cleared before the first scenario")

	_, err = ts.Notes.GetNote(ctx, leftover.ID)
	assert.ErrorIs(t, err, usecase.ErrNoteNotFound)
}

func TestRunnerAbortsWhenResetRefused(t *testing.T) {
	ts := testutils.NewTestServer(t, testutils.TestServerOptions{})
	ctx := testutils.Context(t, time.Minute)

	ran := false
	scenarios := []contract.Scenario{{
		Name:      "api/never-runs",
		Milestone: contract.MilestoneAPI,
		Run:       func(context.Context, *contract.Session) error { ran = true; return nil },
	}}

	report, err := newRunner(t, ts, true).Run(ctx, scenarios)
	require.ErrorIs(t, err, contract.ErrResetFailed)
	assert.Contains(t, err.Error(), "-> 404")
	assert.Nil(t, report)
	assert.False(t, ran)
}
