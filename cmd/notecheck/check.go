package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notecheck/config"
	"notecheck/contract"
	"notecheck/utils"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type checkFlags struct {
	configPath      string
	apiURL          string
	uiURL           string
	milestones      []string
	scenarios       []string
	parallel        int
	scenarioTimeout time.Duration
	requestTimeout  time.Duration
	assertTimeout   time.Duration
	reset           bool
	resetSecret     string
	resetToken      string
	features        []string
	noBrowser       bool
	chromePath      string
	headful         bool
	mongoURI        string
	mongoDB         string
	mongoCollection string
	format          string
	output          string
	list            bool
}

func newCheckCmd() *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run contract scenarios against a notes service",
		Example: `  notecheck check --milestone api
  notecheck check --milestone apidb --mongo-uri mongodb://localhost:27017 --reset
  notecheck check --config notecheck.yaml --format json --output report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadCheckConfig(f.configPath)
			if err != nil {
				return err
			}
			applyCheckFlags(cmd, f, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			scenarios, err := selectScenarios(cfg)
			if err != nil {
				return err
			}
			if f.list {
				for _, sc := range scenarios {
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", sc.Milestone, sc.Name)
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := runCheck(ctx, cfg, scenarios)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), cfg.Report, report); err != nil {
				return err
			}
			if !report.Passed() {
				return fmt.Errorf("%w: %d of %d scenarios", errChecksFailed, report.Count(contract.StatusFailed), len(report.Results))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "config file (.yaml, .yml or .toml)")
	flags.StringVar(&f.apiURL, "api-url", config.DefaultAPIURL, "base URL of the notes API (NOTECHECK_API_URL)")
	flags.StringVar(&f.uiURL, "ui-url", config.DefaultUIURL, "URL of the notes UI (NOTECHECK_UI_URL)")
	flags.StringSliceVar(&f.milestones, "milestone", nil, "milestones to check: ui, api, apidb, integration or all")
	flags.StringSliceVar(&f.scenarios, "scenario", nil, "only scenarios matching these globs, e.g. 'api/*'")
	flags.IntVar(&f.parallel, "parallel", contract.DefaultParallel, "scenarios run at once")
	flags.DurationVar(&f.scenarioTimeout, "scenario-timeout", contract.DefaultScenarioTimeout, "limit for one scenario")
	flags.DurationVar(&f.requestTimeout, "request-timeout", contract.DefaultRequestTimeout, "limit for one HTTP request")
	flags.DurationVar(&f.assertTimeout, "assert-timeout", contract.DefaultAssertTimeout, "how long polling assertions wait")
	flags.BoolVar(&f.reset, "reset", false, "allow scenarios that call the bulk reset endpoint")
	flags.StringVar(&f.resetSecret, "reset-secret", "", "secret to mint a reset token with (NOTECHECK_RESET_SECRET)")
	flags.StringVar(&f.resetToken, "reset-token", "", "bearer token for the reset endpoint")
	flags.StringSliceVar(&f.features, "feature", nil, "optional features the service implements: search")
	flags.BoolVar(&f.noBrowser, "no-browser", false, "skip scenarios that drive a browser")
	flags.StringVar(&f.chromePath, "chrome", "", "path to the Chrome or Chromium binary")
	flags.BoolVar(&f.headful, "headful", false, "show the browser window")
	flags.StringVar(&f.mongoURI, "mongo-uri", "", "MongoDB URI for document probes")
	flags.StringVar(&f.mongoDB, "mongo-db", "notes", "database the service stores notes in")
	flags.StringVar(&f.mongoCollection, "mongo-collection", "notes", "collection the service stores notes in")
	flags.StringVar(&f.format, "format", "text", "report format: text or json")
	flags.StringVar(&f.output, "output", "", "write the report to this file instead of stdout")
	flags.BoolVar(&f.list, "list", false, "list the selected scenarios and exit")

	return cmd
}

// applyCheckFlags copies explicitly set flags over the loaded config.
func applyCheckFlags(cmd *cobra.Command, f *checkFlags, cfg *config.CheckConfig) {
	changed := cmd.Flags().Changed
	if changed("api-url") {
		cfg.APIURL = f.apiURL
	}
	if changed("ui-url") {
		cfg.UIURL = f.uiURL
	}
	if changed("milestone") {
		cfg.Milestones = f.milestones
	}
	if changed("scenario") {
		cfg.Scenarios = f.scenarios
	}
	if changed("parallel") {
		cfg.Parallel = f.parallel
	}
	if changed("scenario-timeout") {
		cfg.ScenarioTimeout = f.scenarioTimeout
	}
	if changed("request-timeout") {
		cfg.RequestTimeout = f.requestTimeout
	}
	if changed("assert-timeout") {
		cfg.AssertTimeout = f.assertTimeout
	}
	if changed("reset") {
		cfg.Reset = f.reset
	}
	if changed("reset-secret") {
		cfg.ResetSecret = f.resetSecret
	}
	if changed("reset-token") {
		cfg.ResetToken = f.resetToken
	}
	if changed("feature") {
		cfg.Features = f.features
	}
	if changed("no-browser") {
		cfg.Browser.Enabled = !f.noBrowser
	}
	if changed("chrome") {
		cfg.Browser.ExecPath = f.chromePath
	}
	if changed("headful") {
		cfg.Browser.Headful = f.headful
	}
	if changed("mongo-uri") {
		cfg.Mongo.URI = f.mongoURI
	}
	if changed("mongo-db") {
		cfg.Mongo.Database = f.mongoDB
	}
	if changed("mongo-collection") {
		cfg.Mongo.Collection = f.mongoCollection
	}
	if changed("format") {
		cfg.Report.Format = f.format
	}
	if changed("output") {
		cfg.Report.Output = f.output
	}
}

func selectScenarios(cfg config.CheckConfig) ([]contract.Scenario, error) {
	milestones, err := contract.ParseMilestones(cfg.Milestones)
	if err != nil {
		return nil, err
	}
	scenarios, err := contract.Select(contract.Scenarios(), milestones, cfg.Scenarios)
	if err != nil {
		return nil, err
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios selected")
	}
	return scenarios, nil
}

// runCheck connects what the selected scenarios need and runs them.
func runCheck(ctx context.Context, cfg config.CheckConfig, scenarios []contract.Scenario) (*contract.Report, error) {
	logger := log.With().Str("component", "check").Str("api", cfg.APIURL).Logger()

	client := contract.NewNotesClient(cfg.APIURL, cfg.RequestTimeout)
	client.ResetToken = cfg.ResetToken
	if client.ResetToken == "" && cfg.ResetSecret != "" {
		token, err := utils.MintResetToken(cfg.ResetSecret, cfg.ScenarioTimeout*time.Duration(len(scenarios)+1))
		if err != nil {
			return nil, err
		}
		client.ResetToken = token
	}

	env := contract.Env{
		API:   client,
		Reset: cfg.Reset,
		Settings: contract.Settings{
			UIURL:         cfg.UIURL,
			AssertTimeout: cfg.AssertTimeout,
			Features:      cfg.FeatureSet(),
			Markers:       cfg.Markers,
		},
	}

	if cfg.NeedsBrowser() {
		browser, err := contract.NewBrowser(ctx, contract.BrowserOptions{
			ExecPath: cfg.Browser.ExecPath,
			Headful:  cfg.Browser.Headful,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("browser unavailable; browser scenarios will be skipped")
		} else {
			defer browser.Close()
			env.Browser = browser
		}
	}

	if cfg.Mongo.URI != "" {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		probe, err := contract.NewMongoProbe(probeCtx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		cancel()
		if err != nil {
			return nil, err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = probe.Close(closeCtx)
		}()
		env.Probe = probe
	}

	runner := &contract.Runner{
		Env:             env,
		Parallel:        cfg.Parallel,
		ScenarioTimeout: cfg.ScenarioTimeout,
		Logger:          logger,
	}
	logger.Info().Int("scenarios", len(scenarios)).Int("parallel", cfg.Parallel).Msg("starting contract run")
	return runner.Run(ctx, scenarios)
}

func writeReport(stdout io.Writer, cfg config.ReportConfig, report *contract.Report) error {
	out := stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		out = f
	}

	if cfg.Format == "json" {
		return report.WriteJSON(out)
	}
	return report.WriteText(out, contract.ColorEnabled(out))
}
