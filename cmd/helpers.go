package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/stockwatch/internal/model"
	"github.com/example/stockwatch/internal/render"
	"github.com/example/stockwatch/internal/store"
)

// snapshotState lifts a persisted snapshot into a renderable state.
func snapshotState(snap store.Snapshot) model.ResolutionState {
	return model.ResolutionState{
		LastUpdated: snap.CommittedAt,
		Result:      snap.Result,
	}
}

// parseLineFlag maps a --line value to a product line, passing unknown
// values through so config.Validate reports them with the supported list.
func parseLineFlag(s string) model.ProductLine {
	if line, ok := model.ParseProductLine(s); ok {
		return line
	}
	return model.ProductLine(s)
}

// normaliseStoreNumbers upper-cases store numbers and removes duplicates
// while preserving order.
func normaliseStoreNumbers(nums []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(nums))
	for _, n := range nums {
		n = strings.ToUpper(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// outputWriter returns the destination honouring --out. The returned close
// function is a no-op for stdout.
func outputWriter() (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// writeResult renders a resolution state to the selected output, appending
// the freshness footer for table output unless quiet mode is on.
func writeResult(state model.ResolutionState, format string, quiet bool) error {
	w, closeFn, err := outputWriter()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := render.Result(w, state, format); err != nil {
		return err
	}
	if format == render.FormatTable && !quiet {
		render.Footer(w, state)
	}
	return nil
}
