package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/stockwatch/internal/render"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List trackable product models for a country and product line",
	Long: `List the part numbers and display names the matcher knows for the
selected country and product line, including the custom SKU from config.json
when one is set.

Examples:
  stockwatch models
  stockwatch models --line iphone
  stockwatch models --country DE --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		deps.Products.SetCustomSKU(deps.Config.CustomSKU, deps.Config.CustomSKUNickname)
		skus := deps.Products.SKUs(deps.Config.Country, deps.Config.ProductLine)
		if len(skus) == 0 {
			return fmt.Errorf("no catalog data for %s / %s",
				deps.Config.Country, deps.Config.ProductLine.PresentableName())
		}

		w, closeFn, err := outputWriter()
		if err != nil {
			return err
		}
		defer closeFn()
		return render.SKUs(w, skus, resolveFormat(deps.Config.Format))
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
