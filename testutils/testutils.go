package testutils

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"notecheck/config"
	"notecheck/repository"
	"notecheck/server"
	"notecheck/usecase"
	"notecheck/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var envOnce sync.Once

// SetupTestEnvironment loads the project's .env.test (if any) and puts gin and
// the validator into test shape. Safe to call from every test.
func SetupTestEnvironment() {
	envOnce.Do(func() {
		if root := findProjectRoot(); root != "" {
			_ = godotenv.Load(filepath.Join(root, ".env.test"))
		}
		gin.SetMode(gin.TestMode)
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		if err := utils.InitValidator(); err != nil {
			panic(err)
		}
	})
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// TestServerOptions tweak the reference service started by NewTestServer.
type TestServerOptions struct {
	UpdateVerbs string
	EnableReset bool
	ResetSecret string
	Repo        repository.NotesRepository
}

// TestServer is the reference service running on an httptest listener.
type TestServer struct {
	*httptest.Server
	Notes *usecase.NotesService
}

// NewTestServer starts the reference router, with the in-memory store unless a
// repository is supplied, and closes it when the test ends.
func NewTestServer(t *testing.T, opts TestServerOptions) *TestServer {
	t.Helper()
	SetupTestEnvironment()

	cfg := config.ServerConfig{
		Port:            "0",
		GinMode:         gin.TestMode,
		EnableReset:     opts.EnableReset,
		ResetSecret:     opts.ResetSecret,
		UpdateVerbs:     opts.UpdateVerbs,
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: time.Second,
		AllowedOrigins:  []string{"*"},
		Database:        config.DatabaseConfig{Store: config.StoreMemory},
	}
	if cfg.UpdateVerbs == "" {
		cfg.UpdateVerbs = config.VerbsBoth
	}

	repo := opts.Repo
	if repo == nil {
		repo = repository.NewMemoryNotesRepo()
	}
	notes := usecase.NewNotesService(repo, nil)

	router := server.NewRouter(server.Dependencies{
		Config:    cfg,
		Notes:     notes,
		StoreName: cfg.Database.Store,
		Logger:    zerolog.Nop(),
		ServeUI:   true,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &TestServer{Server: srv, Notes: notes}
}

// Context returns a context cancelled when the test ends.
func Context(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
