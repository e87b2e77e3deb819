package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/pkg/logging"
	"github.com/rushteam/hybridrec/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load artifacts and serve recommendations over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, e, err := loadEngine(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := server.New(e, cfg.Server).ListenAndServe(ctx); err != nil {
			return err
		}
		logging.Info().Msg("hybridrec has been shut down gracefully")
		return nil
	},
}
