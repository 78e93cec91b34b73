package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/example/stockwatch/internal/config"
	"github.com/example/stockwatch/internal/version"
)

// versionInfo is the structured payload for --format json output.
type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
	Latest    string `json:"latest,omitempty"`
	Update    bool   `json:"update_available,omitempty"`
}

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stockwatch version and build information",
	Long: `Print the stockwatch version string and build metadata.

With --check, also query the release endpoint and report whether a newer
version has been published.

Examples:
  stockwatch version
  stockwatch version --check
  stockwatch version --format json | jq .version`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version:   version.Current,
			GoVersion: runtime.Version(),
			GOOS:      runtime.GOOS,
			GOARCH:    runtime.GOARCH,
		}

		if versionCheck {
			cfg, err := config.Load(globalFlags.Config)
			if err != nil {
				return err
			}
			checker := version.NewChecker(cfg.ReleaseURL, cfg.Timeout)
			rel, newer, err := checker.UpdateAvailable(cmd.Context())
			if err != nil {
				return fmt.Errorf("update check failed: %w", err)
			}
			info.Latest = rel.TagName
			info.Update = newer
		}

		if globalFlags.Format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		// Plain text — one value per line, grep/awk friendly.
		fmt.Fprintf(cmd.OutOrStdout(), "stockwatch %s\n", info.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "go         %s\n", info.GoVersion)
		fmt.Fprintf(cmd.OutOrStdout(), "os         %s/%s\n", info.GOOS, info.GOARCH)
		if versionCheck {
			if info.Update {
				fmt.Fprintf(cmd.OutOrStdout(), "latest     %s (update available)\n", info.Latest)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "latest     %s (up to date)\n", info.Latest)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionCheck, "check", false,
		"check the release endpoint for a newer version")
}
