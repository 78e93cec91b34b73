package cmd

import (
	"github.com/spf13/cobra"
)

var checkStores []string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single availability check and print the result",
	Long: `Run one resolution cycle: fetch live availability for the configured
(or flagged) stores, match it against the product catalog, and print what is
in stock where.

Examples:
  stockwatch check
  stockwatch check --store R001 --store R042
  stockwatch check --country DE --line iphone --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		if len(checkStores) > 0 {
			deps.Config.Stores = normaliseStoreNumbers(checkStores)
		}

		state, err := deps.Scheduler().ResolveOnce(cmd.Context())
		if err != nil {
			// The state still carries anything worth showing; render first.
			_ = writeResult(state, resolveFormat(deps.Config.Format), deps.Config.Quiet)
			return err
		}
		return writeResult(state, resolveFormat(deps.Config.Format), deps.Config.Quiet)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringArrayVar(&checkStores, "store", nil,
		"store number to check (repeatable; overrides config.json stores)")
}
