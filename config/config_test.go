package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"notecheck/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCheckConfigDefaults(t *testing.T) {
	cfg, err := LoadCheckConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultUIURL, cfg.UIURL)
	assert.Equal(t, contract.DefaultParallel, cfg.Parallel)
	assert.Equal(t, contract.DefaultMarkers(), cfg.Markers)
	assert.True(t, cfg.Browser.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadCheckConfigYAML(t *testing.T) {
	path := writeFile(t, "notecheck.yaml", `
api_url: http://api.internal:8080
milestones: [api, apidb]
parallel: 2
scenario_timeout: 45s
features: [Search]
markers:
  list: my-list
mongo:
  uri: mongodb://localhost:27017
report:
  format: json
`)

	cfg, err := LoadCheckConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:8080", cfg.APIURL)
	assert.Equal(t, DefaultUIURL, cfg.UIURL)
	assert.Equal(t, []string{"api", "apidb"}, cfg.Milestones)
	assert.Equal(t, 2, cfg.Parallel)
	assert.Equal(t, 45*time.Second, cfg.ScenarioTimeout)
	assert.Equal(t, contract.DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, "my-list", cfg.Markers.List)
	assert.Equal(t, "note-item", cfg.Markers.Item)
	assert.Equal(t, "notes", cfg.Mongo.Database)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.True(t, cfg.FeatureSet()[contract.FeatureSearch])
	assert.False(t, cfg.NeedsBrowser())
	assert.NoError(t, cfg.Validate())
}

func TestLoadCheckConfigTOML(t *testing.T) {
	path := writeFile(t, "notecheck.toml", `
ui_url = "http://ui.internal:3000"
milestones = ["ui"]
assert_timeout = "3s"

[browser]
enabled = true
headful = true
`)

	cfg, err := LoadCheckConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://ui.internal:3000", cfg.UIURL)
	assert.Equal(t, 3*time.Second, cfg.AssertTimeout)
	assert.True(t, cfg.Browser.Headful)
	assert.True(t, cfg.NeedsBrowser())
}

func TestLoadCheckConfigEnvOverrides(t *testing.T) {
	path := writeFile(t, "notecheck.yml", "api_url: http://from-file\n")
	t.Setenv("NOTECHECK_API_URL", "http://from-env")
	t.Setenv("NOTECHECK_RESET_SECRET", "s3cret")

	cfg, err := LoadCheckConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.APIURL)
	assert.Equal(t, "s3cret", cfg.ResetSecret)
}

func TestLoadCheckConfigErrors(t *testing.T) {
	_, err := LoadCheckConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadCheckConfig(writeFile(t, "notecheck.json", "{}"))
	assert.ErrorContains(t, err, "unsupported extension")

	_, err = LoadCheckConfig(writeFile(t, "broken.yaml", "parallel: [not, a, number]"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestCheckConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CheckConfig)
	}{
		{"empty api url", func(c *CheckConfig) { c.APIURL = " " }},
		{"zero parallel", func(c *CheckConfig) { c.Parallel = 0 }},
		{"zero timeout", func(c *CheckConfig) { c.AssertTimeout = 0 }},
		{"unknown report format", func(c *CheckConfig) { c.Report.Format = "xml" }},
		{"unknown milestone", func(c *CheckConfig) { c.Milestones = []string{"staging"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCheckConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNeedsBrowser(t *testing.T) {
	cfg := DefaultCheckConfig()
	assert.True(t, cfg.NeedsBrowser(), "all milestones include ui")

	cfg.Milestones = []string{"integration"}
	assert.True(t, cfg.NeedsBrowser())

	cfg.Browser.Enabled = false
	assert.False(t, cfg.NeedsBrowser())
}

func TestServerConfig(t *testing.T) {
	t.Setenv("NOTES_STORE", "memory")
	t.Setenv("NOTES_UPDATE_VERBS", "PATCH")
	t.Setenv("UI_PORT", "3000")

	cfg := LoadServerConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "5000", cfg.Port)
	assert.False(t, cfg.AllowsPut())
	assert.True(t, cfg.AllowsPatch())
	assert.Equal(t, "http://localhost:5000", cfg.UIBase())

	cfg.UIAPIBase = "http://api.example/"
	assert.Equal(t, "http://api.example", cfg.UIBase())

	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"bad verbs", func(c *ServerConfig) { c.UpdateVerbs = "post" }},
		{"bad store", func(c *ServerConfig) { c.Database.Store = "sqlite" }},
		{"postgres without url", func(c *ServerConfig) { c.Database.Store = StorePostgres }},
		{"ui port clash", func(c *ServerConfig) { c.UIPort = c.Port }},
		{"no body limit", func(c *ServerConfig) { c.MaxBodyBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestServerConfigUIPort(t *testing.T) {
	t.Setenv("NOTES_STORE", "memory")

	cfg := LoadServerConfig()
	assert.Equal(t, DefaultUIPort, cfg.UIPort)
	assert.Equal(t, DefaultUIURL, "http://localhost:"+cfg.UIPort, "serve and check agree on the UI address")

	t.Setenv("UI_PORT", "off")
	cfg = LoadServerConfig()
	assert.Empty(t, cfg.UIPort)
	assert.Empty(t, cfg.UIBase(), "UI served on the API port calls its own origin")
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, "4000", UIPortValue(" 4000 "))
	assert.Empty(t, UIPortValue("OFF"))
}

func TestExampleConfigIsValid(t *testing.T) {
	cfg, err := LoadCheckConfig(filepath.Join("..", "notecheck.example.yaml"))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"api", "apidb"}, cfg.Milestones)
}
