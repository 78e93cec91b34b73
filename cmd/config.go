package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/stockwatch/internal/config"
	"github.com/example/stockwatch/internal/model"
	"github.com/example/stockwatch/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stockwatch configuration",
	Long:  `Read and write stockwatch configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		fmt.Printf("✓ Created %s\n", path)
		fmt.Println("  Edit it and set your stores to get started.")
		fmt.Println("  Find store numbers with: stockwatch stores --country US")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"get"},
	Short:   "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalFlags.Config)
		if err != nil {
			return err
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}

		if resolveFormat(cfg.Format) == render.FormatJSON {
			type configOut struct {
				Country             string   `json:"country"`
				ProductLine         string   `json:"product_line"`
				Stores              []string `json:"stores"`
				FavoriteSKUs        []string `json:"favorite_skus"`
				IncludeNearbyStores bool     `json:"include_nearby_stores"`
				FavoritesOnly       bool     `json:"favorites_only"`
				RefreshInterval     int      `json:"refresh_interval_minutes"`
				CustomSKU           string   `json:"custom_sku,omitempty"`
				CustomSKUNickname   string   `json:"custom_sku_nickname,omitempty"`
				AvailabilityURL     string   `json:"availability_url"`
				StoreDirectoryURL   string   `json:"store_directory_url"`
				Timeout             string   `json:"timeout"`
				Rate                float64  `json:"rate"`
				DBPath              string   `json:"db_path"`
				Format              string   `json:"default_format"`
				ConfigFile          string   `json:"config_file"`
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(configOut{
				Country:             cfg.Country,
				ProductLine:         string(cfg.ProductLine),
				Stores:              cfg.Stores,
				FavoriteSKUs:        cfg.FavoriteSKUs,
				IncludeNearbyStores: cfg.IncludeNearbyStores,
				FavoritesOnly:       cfg.FavoritesOnly,
				RefreshInterval:     cfg.RefreshIntervalMinutes,
				CustomSKU:           cfg.CustomSKU,
				CustomSKUNickname:   cfg.CustomSKUNickname,
				AvailabilityURL:     cfg.AvailabilityURL,
				StoreDirectoryURL:   cfg.StoreDirectoryURL,
				Timeout:             cfg.Timeout.String(),
				Rate:                cfg.Rate,
				DBPath:              cfg.DBPath,
				Format:              cfg.Format,
				ConfigFile:          src,
			})
		}

		interval := fmt.Sprintf("%d min", cfg.RefreshIntervalMinutes)
		if cfg.RefreshIntervalMinutes == 0 {
			interval = "manual"
		}
		custom := cfg.CustomSKU
		if custom == "" {
			custom = "(not set)"
		} else if cfg.CustomSKUNickname != "" {
			custom = fmt.Sprintf("%s (%s)", cfg.CustomSKU, cfg.CustomSKUNickname)
		}

		rows := [][]string{
			{"country", cfg.Country},
			{"product_line", cfg.ProductLine.PresentableName()},
			{"stores", strings.Join(cfg.Stores, ", ")},
			{"favorite_skus", strings.Join(cfg.FavoriteSKUs, ", ")},
			{"include_nearby_stores", fmt.Sprintf("%t", cfg.IncludeNearbyStores)},
			{"favorites_only", fmt.Sprintf("%t", cfg.FavoritesOnly)},
			{"refresh_interval", interval},
			{"custom_sku", custom},
			{"availability_url", cfg.AvailabilityURL},
			{"store_directory_url", cfg.StoreDirectoryURL},
			{"timeout", cfg.Timeout.String()},
			{"rate", fmt.Sprintf("%.1f req/s", cfg.Rate)},
			{"db_path", cfg.DBPath},
			{"default_format", cfg.Format},
			{"config_file", src},
		}
		printKVTable(rows)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Long: `Set a single key in config.json, creating the file from the
template when it does not exist yet.

List values (stores, favorite_skus) take a comma-separated value.

Examples:
  stockwatch config set country DE
  stockwatch config set stores R001,R042
  stockwatch config set include_nearby_stores true
  stockwatch config set custom_sku Z0Y1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		val := args[1]

		// Load existing file or start from template
		var f config.File
		existing, path, err := loadConfigFile()
		if err != nil {
			path = config.DefaultConfigFile
			f = config.Template()
		} else {
			f = *existing
		}

		switch key {
		case "country":
			f.Country = strings.ToUpper(val)
		case "product_line", "line":
			line, ok := model.ParseProductLine(val)
			if !ok {
				return fmt.Errorf("unknown product line %q (supported: %v)", val, model.AllProductLines)
			}
			f.ProductLine = string(line)
		case "stores":
			f.Stores = normaliseStoreNumbers(strings.Split(val, ","))
		case "favorite_skus":
			f.FavoriteSKUs = normaliseStoreNumbers(strings.Split(val, ","))
		case "include_nearby_stores":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("include_nearby_stores must be true or false")
			}
			f.IncludeNearbyStores = b
		case "favorites_only":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("favorites_only must be true or false")
			}
			f.FavoritesOnly = b
		case "refresh_interval_minutes", "interval":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return fmt.Errorf("refresh_interval_minutes must be an integer >= 0")
			}
			f.RefreshIntervalMinutes = &n
		case "custom_sku":
			f.CustomSKU = strings.ToUpper(val)
		case "custom_sku_nickname":
			f.CustomSKUNickname = val
		case "availability_url":
			f.AvailabilityURL = val
		case "store_directory_url":
			f.StoreDirectoryURL = val
		case "release_url":
			f.ReleaseURL = val
		case "timeout":
			f.Timeout = val
		case "rate":
			r, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("rate must be a number")
			}
			f.Rate = r
		case "db_path":
			f.DBPath = val
		case "default_format", "format":
			f.DefaultFormat = val
		default:
			return fmt.Errorf("unknown config key: %q\n\nValid keys: country, product_line, stores, favorite_skus, include_nearby_stores, favorites_only, refresh_interval_minutes, custom_sku, custom_sku_nickname, availability_url, store_directory_url, release_url, timeout, rate, db_path, default_format", key)
		}

		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Printf("✓ Set %s in %s\n", key, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// loadConfigFile reads config.json for configSetCmd, honouring --config.
func loadConfigFile() (*config.File, string, error) {
	path := globalFlags.Config
	if path == "" {
		path = config.DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	var f config.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", err
	}
	return &f, path, nil
}

// printKVTable renders a two-column key/value table to stdout using aligned columns.
func printKVTable(rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Printf("  %s%s  %s\n", r[0], padding, r[1])
	}
}
