package main

import (
	"fmt"
	"time"

	"notecheck/utils"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the bulk reset endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = utils.GetEnvAsString("NOTES_RESET_SECRET", "")
			}
			token, err := utils.MintResetToken(secret, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to NOTES_RESET_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 5*time.Minute, "token lifetime")

	return cmd
}
