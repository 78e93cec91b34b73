// Package config handles loading and resolving stockwatch configuration,
// including the user's watch preferences. Resolution order (first non-empty
// value wins):
//  1. CLI flags
//  2. Environment variables (STOCKWATCH_*)
//  3. config.json in the current working directory (or --config path)
//
// The engine never reads this package directly: it consumes the immutable
// Preferences snapshot returned by (*Config).Preferences(), captured at the
// start of each resolution cycle.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/example/stockwatch/internal/model"
)

const (
	DefaultConfigFile = "config.json"
	DefaultFormat     = "table"
	DefaultTimeout    = 30 * time.Second
	DefaultRate       = 2.0
	EnvDBPath         = "STOCKWATCH_DB_PATH"
	EnvBaseURL        = "STOCKWATCH_BASE_URL"
)

// DefaultBaseURL serves both the availability and store directory paths
// unless overridden per-endpoint in config.json.
const DefaultBaseURL = "https://api.stockwatch.dev"

// DefaultReleaseURL is the update-check endpoint; any endpoint returning a
// {"tag_name": "vX.Y.Z"} document works.
const DefaultReleaseURL = "https://api.github.com/repos/example/stockwatch/releases/latest"

// File is the on-disk representation of config.json.
type File struct {
	Country             string   `json:"country"`
	ProductLine         string   `json:"product_line"`
	Stores              []string `json:"stores"`
	FavoriteSKUs        []string `json:"favorite_skus"`
	IncludeNearbyStores bool     `json:"include_nearby_stores"`
	FavoritesOnly       bool     `json:"favorites_only"`
	// Pointer so an explicit 0 (manual refresh only) survives loading.
	RefreshIntervalMinutes *int   `json:"refresh_interval_minutes,omitempty"`
	CustomSKU              string `json:"custom_sku"`
	CustomSKUNickname      string `json:"custom_sku_nickname"`

	AvailabilityURL   string  `json:"availability_url"`
	StoreDirectoryURL string  `json:"store_directory_url"`
	ReleaseURL        string  `json:"release_url"`
	Timeout           string  `json:"timeout"`
	Rate              float64 `json:"rate"`
	DBPath            string  `json:"db_path"`
	DefaultFormat     string  `json:"default_format"`
}

// Config is the fully-resolved runtime configuration.
type Config struct {
	Country                string
	ProductLine            model.ProductLine
	Stores                 []string
	FavoriteSKUs           []string
	IncludeNearbyStores    bool
	FavoritesOnly          bool
	RefreshIntervalMinutes int
	CustomSKU              string
	CustomSKUNickname      string

	AvailabilityURL   string
	StoreDirectoryURL string
	ReleaseURL        string
	Timeout           time.Duration
	Rate              float64
	DBPath            string
	Format            string
	ConfigPath        string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet bool
	Debug bool
}

// Load resolves configuration from all sources. path is the value of
// --config (empty string selects ./config.json). A missing config file is
// not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Country:                "US",
		ProductLine:            model.LineMacBookPro,
		RefreshIntervalMinutes: 1,
		AvailabilityURL:        DefaultBaseURL,
		StoreDirectoryURL:      DefaultBaseURL,
		ReleaseURL:             DefaultReleaseURL,
		Timeout:                DefaultTimeout,
		Rate:                   DefaultRate,
		Format:                 DefaultFormat,
	}

	// Layer 1: config.json (lowest priority)
	f, loadedPath, err := loadFile(path)
	if err == nil {
		applyFile(cfg, f, loadedPath)
	} else if path != "" {
		// An explicitly named config file must exist and parse.
		return nil, err
	}

	// Layer 2: environment variables
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.AvailabilityURL = v
		cfg.StoreDirectoryURL = v
	}

	// Set default DB path if still unset
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".stockwatch", "stockwatch.db")
		}
	}

	return cfg, nil
}

// Validate returns an error if the resolved configuration is unusable.
func (c *Config) Validate() error {
	if _, ok := model.ParseProductLine(string(c.ProductLine)); !ok {
		return fmt.Errorf("unknown product line %q (supported: %v)", c.ProductLine, model.AllProductLines)
	}
	if c.Country == "" {
		return fmt.Errorf("country must not be empty")
	}
	if c.RefreshIntervalMinutes < 0 {
		return fmt.Errorf("refresh_interval_minutes must be >= 0 (0 = manual only)")
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive")
	}
	return nil
}

// Preferences returns the immutable snapshot the engine consumes. Slices
// are copied so later config mutation cannot leak into a running cycle.
func (c *Config) Preferences() model.Preferences {
	stores := make([]string, len(c.Stores))
	copy(stores, c.Stores)
	favorites := make([]string, len(c.FavoriteSKUs))
	copy(favorites, c.FavoriteSKUs)

	return model.Preferences{
		Country:           c.Country,
		ProductLine:       c.ProductLine,
		StoreNumbers:      stores,
		FavoriteSKUs:      favorites,
		IncludeNearby:     c.IncludeNearbyStores,
		FavoritesOnly:     c.FavoritesOnly,
		RefreshInterval:   time.Duration(c.RefreshIntervalMinutes) * time.Minute,
		CustomSKU:         c.CustomSKU,
		CustomSKUNickname: c.CustomSKUNickname,
	}
}

// loadFile reads a config file from path, or ./config.json when path is
// empty.
func loadFile(path string) (*File, string, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config not found at %s", abs)
		}
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing %s: %w", abs, err)
	}
	return &f, abs, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.Country != "" {
		cfg.Country = f.Country
	}
	if f.ProductLine != "" {
		if line, ok := model.ParseProductLine(f.ProductLine); ok {
			cfg.ProductLine = line
		} else {
			cfg.ProductLine = model.ProductLine(f.ProductLine) // caught by Validate
		}
	}
	if len(f.Stores) > 0 {
		cfg.Stores = f.Stores
	}
	if len(f.FavoriteSKUs) > 0 {
		cfg.FavoriteSKUs = f.FavoriteSKUs
	}
	cfg.IncludeNearbyStores = f.IncludeNearbyStores
	cfg.FavoritesOnly = f.FavoritesOnly
	if f.RefreshIntervalMinutes != nil {
		cfg.RefreshIntervalMinutes = *f.RefreshIntervalMinutes
	}
	cfg.CustomSKU = f.CustomSKU
	cfg.CustomSKUNickname = f.CustomSKUNickname

	if f.AvailabilityURL != "" {
		cfg.AvailabilityURL = f.AvailabilityURL
	}
	if f.StoreDirectoryURL != "" {
		cfg.StoreDirectoryURL = f.StoreDirectoryURL
	}
	if f.ReleaseURL != "" {
		cfg.ReleaseURL = f.ReleaseURL
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `stockwatch config init`.
func Template() File {
	interval := 1
	return File{
		Country:                "US",
		ProductLine:            string(model.LineMacBookPro),
		Stores:                 []string{},
		FavoriteSKUs:           []string{},
		IncludeNearbyStores:    true,
		RefreshIntervalMinutes: &interval,
		AvailabilityURL:        DefaultBaseURL,
		StoreDirectoryURL:      DefaultBaseURL,
		ReleaseURL:             DefaultReleaseURL,
		Timeout:                "30s",
		Rate:                   DefaultRate,
		DefaultFormat:          DefaultFormat,
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
