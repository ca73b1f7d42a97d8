package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result records how one scenario went.
type Result struct {
	Scenario  string        `json:"scenario"`
	Milestone Milestone     `json:"milestone"`
	Status    Status        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Cleanup   string        `json:"cleanup,omitempty"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Env is what a run has available to hand to scenarios.
type Env struct {
	API      *NotesClient
	Browser  *Browser
	Probe    DocumentProbe
	Reset    bool
	Settings Settings
}

func (e Env) missing(needs Need) Need {
	var missing Need
	if needs&NeedBrowser != 0 && e.Browser == nil {
		missing |= NeedBrowser
	}
	if needs&NeedProbe != 0 && e.Probe == nil {
		missing |= NeedProbe
	}
	if needs&NeedReset != 0 && !e.Reset {
		missing |= NeedReset
	}
	return missing
}

// Runner executes scenarios against one service.
type Runner struct {
	Env             Env
	Parallel        int
	ScenarioTimeout time.Duration
	CleanupTimeout  time.Duration
	Logger          zerolog.Logger
}

// ErrResetFailed means the service refused to clear its notes before a run.
var ErrResetFailed = errors.New("reset before run failed")

// Run executes serial scenarios one by one, then the rest with bounded
// parallelism. Results keep the order of scenarios. With Env.Reset the
// service is cleared first and the run is aborted if that fails.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	started := time.Now()
	if r.Env.Reset {
		if err := r.reset(ctx); err != nil {
			return nil, err
		}
	}
	results := make([]Result, len(scenarios))

	for i, sc := range scenarios {
		if sc.Serial {
			results[i] = r.runOne(ctx, sc)
		}
	}

	var g errgroup.Group
	g.SetLimit(max(r.Parallel, 1))
	for i, sc := range scenarios {
		if sc.Serial {
			continue
		}
		i, sc := i, sc
		g.Go(func() error {
			results[i] = r.runOne(ctx, sc)
			return nil
		})
	}
	_ = g.Wait()

	return &Report{
		Started:  started,
		Duration: time.Since(started),
		Results:  results,
	}, nil
}

func (r *Runner) reset(ctx context.Context) error {
	timeout := r.CleanupTimeout
	if timeout <= 0 {
		timeout = DefaultCleanupTimeout
	}
	resetCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := r.Env.API.Reset(resetCtx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %s", ErrResetFailed, resp)
	}
	r.Logger.Info().Msg("notes reset before run")
	return nil
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) Result {
	logger := r.Logger.With().Str("scenario", sc.Name).Logger()
	result := Result{Scenario: sc.Name, Milestone: sc.Milestone}

	if missing := r.Env.missing(sc.Needs); missing != 0 {
		result.Status = StatusSkipped
		result.Reason = "needs " + missing.String()
		logger.Info().Str("status", string(result.Status)).Str("reason", result.Reason).Msg("scenario finished")
		return result
	}
	if !r.Env.Settings.Enabled(sc.Feature) {
		result.Status = StatusSkipped
		result.Reason = fmt.Sprintf("feature %q not enabled", sc.Feature)
		logger.Info().Str("status", string(result.Status)).Str("reason", result.Reason).Msg("scenario finished")
		return result
	}

	session := &Session{
		Scenario: sc.Name,
		API:      r.Env.API,
		Browser:  r.Env.Browser,
		Probe:    r.Env.Probe,
		Tracker:  NewTracker(r.Env.API),
		Settings: r.Env.Settings,
		Logger:   logger,
		step:     "start",
	}

	start := time.Now()
	err := r.execute(ctx, sc, session)
	result.Duration = time.Since(start)

	if cleanupErr := r.cleanup(ctx, session); cleanupErr != nil {
		result.Cleanup = cleanupErr.Error()
		logger.Warn().Err(cleanupErr).Msg("cleanup failed")
	}

	if err != nil {
		result.Status = StatusFailed
		result.Reason = err.Error()
		result.Err = err
		logger.Info().Str("status", string(result.Status)).Dur("duration", result.Duration).Err(err).Msg("scenario finished")
		return result
	}
	result.Status = StatusPassed
	logger.Info().Str("status", string(result.Status)).Dur("duration", result.Duration).Msg("scenario finished")
	return result
}

func (r *Runner) execute(ctx context.Context, sc Scenario, s *Session) (err error) {
	timeout := r.ScenarioTimeout
	if timeout <= 0 {
		timeout = DefaultScenarioTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic in step %q: %v", sc.Name, s.step, p)
		}
	}()

	err = sc.Run(runCtx, s)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%s: timed out after %s in step %q: %w", sc.Name, timeout, s.step, err)
	}
	return err
}

// cleanup runs even when the scenario failed or its context expired.
func (r *Runner) cleanup(ctx context.Context, s *Session) error {
	timeout := r.CleanupTimeout
	if timeout <= 0 {
		timeout = DefaultCleanupTimeout
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return s.Tracker.Cleanup(cleanupCtx)
}

// Defaults for a run.
const (
	DefaultParallel        = 4
	DefaultScenarioTimeout = 60 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultAssertTimeout   = 10 * time.Second
	DefaultCleanupTimeout  = 15 * time.Second
)
