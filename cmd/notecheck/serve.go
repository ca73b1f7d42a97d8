package main

import (
	"os"
	"os/signal"
	"syscall"

	"notecheck/config"
	"notecheck/server"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port   string
		store  string
		reset  bool
		uiPort string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference notes service",
		Long: `Run the reference notes service. Settings come from the environment
(and a .env file); flags given here take precedence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadServerConfig()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("store") {
				cfg.Database.Store = store
			}
			if cmd.Flags().Changed("enable-reset") {
				cfg.EnableReset = reset
			}
			if cmd.Flags().Changed("ui-port") {
				cfg.UIPort = config.UIPortValue(uiPort)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := log.With().Str("component", "server").Logger()
			return server.Run(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&port, "port", "5000", "API port (PORT)")
	cmd.Flags().StringVar(&store, "store", config.StoreMongo, "note store: mongo, postgres or memory (NOTES_STORE)")
	cmd.Flags().BoolVar(&reset, "enable-reset", false, "register the bulk reset endpoint (NOTES_ENABLE_RESET)")
	cmd.Flags().StringVar(&uiPort, "ui-port", config.DefaultUIPort, `port for the UI, or "off" to serve it on the API port (UI_PORT)`)

	return cmd
}
