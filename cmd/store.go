package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/stockwatch/internal/render"
	"github.com/example/stockwatch/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and maintain the local database",
	Long: `The local database caches store directories and keeps a short
history of committed resolution results. These commands inspect and prune it.`,
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local database bucket sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		db, err := deps.RequireStore()
		if err != nil {
			return err
		}

		stats, err := db.Stats()
		if err != nil {
			return err
		}
		printKVTable(bucketStatsRows(stats, deps.Config.DBPath))
		return nil
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear [bucket]",
	Short: "Clear the local database, or one bucket of it",
	Long: fmt.Sprintf(`Clear all cached data, or a single bucket when named.

Buckets: %s`, strings.Join(store.AllBuckets, ", ")),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		db, err := deps.RequireStore()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			if err := db.ClearBucket(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Cleared bucket %s\n", args[0])
			return nil
		}
		if err := db.ClearAll(); err != nil {
			return err
		}
		fmt.Println("✓ Cleared local database")
		return nil
	},
}

var storeHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent committed resolution results",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		db, err := deps.RequireStore()
		if err != nil {
			return err
		}

		snaps, err := db.ListSnapshots()
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("No resolution history yet. Run `stockwatch check` first.")
			return nil
		}

		w, closeFn, err := outputWriter()
		if err != nil {
			return err
		}
		defer closeFn()
		return render.Snapshots(w, snaps, resolveFormat(deps.Config.Format))
	},
}

var storeLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the most recent committed resolution result",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		db, err := deps.RequireStore()
		if err != nil {
			return err
		}

		snap, found, err := db.LatestSnapshot()
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("No resolution history yet. Run `stockwatch check` first.")
			return nil
		}

		state := snapshotState(snap)
		return writeResult(state, resolveFormat(deps.Config.Format), deps.Config.Quiet)
	},
}

// bucketStatsRows formats bucket statistics for the kv table, with the
// database path as the final row.
func bucketStatsRows(stats []store.BucketStats, path string) [][]string {
	rows := make([][]string, 0, len(stats)+1)
	for _, b := range stats {
		rows = append(rows, []string{b.Name, fmt.Sprintf("%d entries, %d bytes", b.Count, b.Bytes)})
	}
	rows = append(rows, []string{"path", path})
	return rows
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeHistoryCmd)
	storeCmd.AddCommand(storeLastCmd)
}
