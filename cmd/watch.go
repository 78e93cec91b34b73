package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/stockwatch/internal/render"
)

var watchInterval int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously check availability on the configured interval",
	Long: `Keep running resolution cycles until interrupted. Each committed
cycle re-renders the result; a failed cycle keeps the last good result on
screen and reports the error underneath.

An interval of 0 disables the timer; cycles then only run once at startup.

Examples:
  stockwatch watch
  stockwatch watch --interval 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		if cmd.Flags().Changed("interval") {
			if watchInterval < 0 {
				return fmt.Errorf("interval must be >= 0")
			}
			deps.Config.RefreshIntervalMinutes = watchInterval
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scheduler := deps.Scheduler()
		updates := scheduler.Subscribe()
		go scheduler.Run(ctx)

		format := resolveFormat(deps.Config.Format)
		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(os.Stderr, "stopping")
				return nil
			case <-updates:
				state := scheduler.State()
				if state.Loading && state.LastUpdated.IsZero() {
					continue
				}
				if format == render.FormatTable && !deps.Config.Quiet {
					fmt.Println()
				}
				if err := writeResult(state, format, deps.Config.Quiet); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().IntVar(&watchInterval, "interval", 0,
		"minutes between checks (0 = only the initial check; overrides config.json)")
}
