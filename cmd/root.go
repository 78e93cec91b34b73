// Package cmd implements the stockwatch CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/stockwatch/internal/app"
	"github.com/example/stockwatch/internal/config"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	Config  string
	Country string
	Line    string
	Format  string
	Out     string
	Timeout string
	Rate    float64
	Quiet   bool
	Debug   bool
}

// rootCmd is the base command. Running `stockwatch` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "stockwatch",
	Short: "stockwatch — retail store inventory tracker",
	Long: `stockwatch tracks per-store product availability: it fetches live
stock data for the stores you care about, matches part numbers against the
product catalog, and presents what is in stock where.

Quick start:
  stockwatch config init           # create a config.json with your preferences
  stockwatch stores --country US   # find your store numbers
  stockwatch check                 # one-shot availability check
  stockwatch watch                 # keep checking on an interval`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildDeps resolves config, applies flag overrides, configures logging, and
// constructs the dependency container. Called at the start of each command's
// RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(globalFlags.Config)
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Debug = globalFlags.Debug

	if globalFlags.Country != "" {
		cfg.Country = globalFlags.Country
	}
	if globalFlags.Line != "" {
		cfg.ProductLine = parseLineFlag(globalFlags.Line)
	}
	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.Timeout != "" {
		if d, err2 := time.ParseDuration(globalFlags.Timeout); err2 == nil {
			cfg.Timeout = d
		}
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setupLogging(cfg)
	return app.New(cfg), nil
}

// setupLogging configures the process-wide slog default from config.
func setupLogging(cfg *config.Config) {
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	} else if cfg.Quiet {
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.Config, "config", "",
		"path to config.json (default: ./config.json)")
	pf.StringVar(&globalFlags.Country, "country", "",
		"country code, e.g. US, DE (overrides config.json)")
	pf.StringVar(&globalFlags.Line, "line", "",
		"product line: macbookpro|macbookair|iphone|ipad|applewatch")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|csv (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"HTTP request timeout (e.g. 30s, 2m)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max availability requests per second (default: 2.0)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log HTTP requests and responses")
}
