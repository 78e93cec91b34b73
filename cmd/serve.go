package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/stockwatch/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the watcher with a local status API",
	Long: `Run resolution cycles like watch, but instead of printing to the
terminal, expose the current state over HTTP:

  GET  /v1/state     current resolution result as JSON
  POST /v1/refresh   request an immediate re-check
  GET  /v1/healthz   liveness probe

Examples:
  stockwatch serve
  stockwatch serve --addr :9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scheduler := deps.Scheduler()
		go scheduler.Run(ctx)

		errc := make(chan error, 1)
		go func() {
			errc <- api.New(scheduler).ListenAndServe(serveAddr)
		}()

		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8400",
		"listen address for the status API")
}
