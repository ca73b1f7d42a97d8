package config

import (
	"fmt"
	"notecheck/contract"
	"notecheck/utils"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL = "http://localhost:5000"
	DefaultUIURL  = "http://localhost:3000"
)

type BrowserConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	ExecPath string `yaml:"exec_path" toml:"exec_path"`
	Headful  bool   `yaml:"headful" toml:"headful"`
}

type ProbeConfig struct {
	URI        string `yaml:"uri" toml:"uri"`
	Database   string `yaml:"database" toml:"database"`
	Collection string `yaml:"collection" toml:"collection"`
}

type ReportConfig struct {
	Format string `yaml:"format" toml:"format"`
	Output string `yaml:"output" toml:"output"`
}

// CheckConfig drives a harness run. Values come from the config file first, then
// environment, then flags.
type CheckConfig struct {
	APIURL          string           `yaml:"api_url" toml:"api_url"`
	UIURL           string           `yaml:"ui_url" toml:"ui_url"`
	Milestones      []string         `yaml:"milestones" toml:"milestones"`
	Scenarios       []string         `yaml:"scenarios" toml:"scenarios"`
	Parallel        int              `yaml:"parallel" toml:"parallel"`
	ScenarioTimeout time.Duration    `yaml:"scenario_timeout" toml:"scenario_timeout"`
	RequestTimeout  time.Duration    `yaml:"request_timeout" toml:"request_timeout"`
	AssertTimeout   time.Duration    `yaml:"assert_timeout" toml:"assert_timeout"`
	Reset           bool             `yaml:"reset" toml:"reset"`
	ResetSecret     string           `yaml:"reset_secret" toml:"reset_secret"`
	ResetToken      string           `yaml:"reset_token" toml:"reset_token"`
	Features        []string         `yaml:"features" toml:"features"`
	Browser         BrowserConfig    `yaml:"browser" toml:"browser"`
	Markers         contract.Markers `yaml:"markers" toml:"markers"`
	Mongo           ProbeConfig      `yaml:"mongo" toml:"mongo"`
	Report          ReportConfig     `yaml:"report" toml:"report"`
}

// DefaultCheckConfig returns the settings used when nothing overrides them.
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{
		APIURL:          DefaultAPIURL,
		UIURL:           DefaultUIURL,
		Parallel:        contract.DefaultParallel,
		ScenarioTimeout: contract.DefaultScenarioTimeout,
		RequestTimeout:  contract.DefaultRequestTimeout,
		AssertTimeout:   contract.DefaultAssertTimeout,
		Browser:         BrowserConfig{Enabled: true},
		Markers:         contract.DefaultMarkers(),
		Mongo:           ProbeConfig{Database: "notes", Collection: "notes"},
		Report:          ReportConfig{Format: "text"},
	}
}

// LoadCheckConfig reads path (when set) over the defaults and applies environment
// overrides. The format follows the file extension.
func LoadCheckConfig(path string) (CheckConfig, error) {
	cfg := DefaultCheckConfig()
	if path != "" {
		if err := decodeCheckFile(path, &cfg); err != nil {
			return CheckConfig{}, err
		}
	}

	cfg.APIURL = utils.GetEnvAsString("NOTECHECK_API_URL", cfg.APIURL)
	cfg.UIURL = utils.GetEnvAsString("NOTECHECK_UI_URL", cfg.UIURL)
	cfg.ResetSecret = utils.GetEnvAsString("NOTECHECK_RESET_SECRET", cfg.ResetSecret)
	cfg.Markers = cfg.Markers.WithDefaults()
	return cfg, nil
}

func decodeCheckFile(path string, cfg *CheckConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension (want .yaml, .yml or .toml)", path)
	}
	return nil
}

// Validate rejects settings a run cannot use.
func (c CheckConfig) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api url is required")
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	if c.ScenarioTimeout <= 0 || c.RequestTimeout <= 0 || c.AssertTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	switch c.Report.Format {
	case "text", "json":
	default:
		return fmt.Errorf("report format must be text or json, got %q", c.Report.Format)
	}
	if _, err := contract.ParseMilestones(c.Milestones); err != nil {
		return err
	}
	return nil
}

// FeatureSet converts the feature list for the runner.
func (c CheckConfig) FeatureSet() map[contract.Feature]bool {
	set := make(map[contract.Feature]bool, len(c.Features))
	for _, f := range c.Features {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			set[contract.Feature(f)] = true
		}
	}
	return set
}

// NeedsBrowser reports whether any selected milestone drives a browser.
func (c CheckConfig) NeedsBrowser() bool {
	if !c.Browser.Enabled {
		return false
	}
	milestones, err := contract.ParseMilestones(c.Milestones)
	if err != nil {
		return false
	}
	for _, m := range milestones {
		if m == contract.MilestoneUI || m == contract.MilestoneIntegration {
			return true
		}
	}
	return false
}
