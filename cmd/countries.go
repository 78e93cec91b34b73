package cmd

import (
	"github.com/spf13/cobra"

	"github.com/example/stockwatch/internal/catalog"
	"github.com/example/stockwatch/internal/config"
	"github.com/example/stockwatch/internal/model"
	"github.com/example/stockwatch/internal/render"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List supported countries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalFlags.Config)
		if err != nil {
			return err
		}

		var countries []model.Country
		for _, code := range catalog.OrderedCountryCodes() {
			if c, ok := catalog.LookupCountry(code); ok {
				countries = append(countries, c)
			}
		}

		w, closeFn, err := outputWriter()
		if err != nil {
			return err
		}
		defer closeFn()
		return render.Countries(w, countries, resolveFormat(cfg.Format))
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}
