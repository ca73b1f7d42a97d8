package server

import (
	"notecheck/config"
	"notecheck/handler"
	"notecheck/middleware"
	"notecheck/usecase"
	"notecheck/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dependencies is everything the router needs to serve requests.
type Dependencies struct {
	Config    config.ServerConfig
	Notes     *usecase.NotesService
	StoreName string
	Logger    zerolog.Logger
	// ServeUI mounts the front end on this router as well as the API.
	ServeUI bool
}

func newEngine(logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.RequestTracingMiddleware(logger))
	router.Use(middleware.EnhancedRecoveryMiddleware())
	router.Use(middleware.RequestLoggingMiddleware("/metrics", "/api/health"))
	router.NoRoute(func(c *gin.Context) {
		utils.NotFound(c, "Route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		utils.MethodNotAllowed(c, "Method not allowed")
	})
	return router
}

// NewRouter builds the API engine: note routes, reset route, health, metrics and
// optionally the UI.
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	router := newEngine(deps.Logger)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	notesHandler := handler.NewNoteHandler(deps.Notes)
	healthHandler := handler.NewHealthHandler(deps.Notes, deps.StoreName)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.CacheControlMiddleware("no-store"))
	{
		api.GET("/health", healthHandler.GetHealth)

		notes := api.Group("/Notes")
		notes.Use(middleware.RequestSizeLimiter(cfg.MaxBodyBytes))
		{
			notes.GET("", notesHandler.ListNotes)
			notes.POST("", notesHandler.CreateNote)
			notes.GET("/:id", notesHandler.GetNote)
			notes.DELETE("/:id", notesHandler.DeleteNote)

			if cfg.AllowsPut() {
				notes.PUT("/:id", notesHandler.ReplaceNote)
			} else {
				notes.PUT("/:id", notesHandler.VerbDisabled)
			}
			if cfg.AllowsPatch() {
				notes.PATCH("/:id", notesHandler.PatchNote)
			} else {
				notes.PATCH("/:id", notesHandler.VerbDisabled)
			}

			// Test support only
			if cfg.EnableReset {
				notes.DELETE("/reset/all",
					middleware.ResetAuthMiddleware(cfg.ResetSecret),
					notesHandler.ResetNotes)
			}
		}
	}

	if deps.ServeUI {
		mountUI(router, handler.MustUIHandler(""))
	}
	return router
}

// NewUIRouter serves only the front end, pointed at apiBase.
func NewUIRouter(logger zerolog.Logger, apiBase string) *gin.Engine {
	router := newEngine(logger)
	mountUI(router, handler.MustUIHandler(apiBase))
	return router
}

func mountUI(router *gin.Engine, ui *handler.UIHandler) {
	router.GET("/", ui.Index)
	router.GET("/index.html", ui.Index)
	router.GET("/favicon.ico", utils.NoContent)
}
