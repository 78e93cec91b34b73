package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/stockwatch/internal/directory"
	"github.com/example/stockwatch/internal/render"
)

var (
	storesSearch string
	storesNear   string
	storesRadius float64
)

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List retail stores for a country",
	Long: `List the retail stores of the selected country, optionally filtered
by a free-text search over store name, city and store number, or narrowed to
stores near a given store.

Examples:
  stockwatch stores --country US
  stockwatch stores --search seattle
  stockwatch stores --near R001 --radius 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		stores, err := deps.Directory.Stores(cmd.Context(), deps.Config.Country)
		if err != nil {
			return err
		}

		if storesNear != "" {
			origin, found, err := deps.Directory.Lookup(cmd.Context(), deps.Config.Country, storesNear)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("store %s not found in %s", storesNear, deps.Config.Country)
			}
			radius := storesRadius
			if radius <= 0 {
				radius = directory.DefaultNearbyRadiusKm
			}
			stores = directory.Nearby(origin, stores, radius)
		}

		stores = directory.Search(stores, storesSearch)
		if len(stores) == 0 {
			return fmt.Errorf("no stores match in %s", deps.Config.Country)
		}

		w, closeFn, err := outputWriter()
		if err != nil {
			return err
		}
		defer closeFn()
		return render.Stores(w, stores, resolveFormat(deps.Config.Format))
	},
}

func init() {
	rootCmd.AddCommand(storesCmd)
	storesCmd.Flags().StringVar(&storesSearch, "search", "",
		"filter by store name, city or store number (case-insensitive)")
	storesCmd.Flags().StringVar(&storesNear, "near", "",
		"only show stores near this store number")
	storesCmd.Flags().Float64Var(&storesRadius, "radius", 0,
		"radius in km for --near (default: 80.5)")
}
