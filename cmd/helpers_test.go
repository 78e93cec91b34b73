package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/example/stockwatch/internal/model"
	"github.com/example/stockwatch/internal/render"
	"github.com/example/stockwatch/internal/store"
)

func TestNormaliseStoreNumbers(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"upper-cases", []string{"r001"}, []string{"R001"}},
		{"trims", []string{" R001 ", "R042"}, []string{"R001", "R042"}},
		{"dedupes preserving order", []string{"R042", "R001", "r042"}, []string{"R042", "R001"}},
		{"drops empties", []string{"", "  ", "R001"}, []string{"R001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normaliseStoreNumbers(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normaliseStoreNumbers(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLineFlag(t *testing.T) {
	if got := parseLineFlag("iphone"); got != model.LineIPhone {
		t.Errorf("parseLineFlag(iphone) = %v", got)
	}
	// Unknown values pass through for Validate to reject with context.
	if got := parseLineFlag("toaster"); got != model.ProductLine("toaster") {
		t.Errorf("parseLineFlag(toaster) = %v", got)
	}
}

func TestResolveFormat(t *testing.T) {
	orig := globalFlags.Format
	defer func() { globalFlags.Format = orig }()

	globalFlags.Format = ""
	if got := resolveFormat(""); got != render.FormatTable {
		t.Errorf("fallback = %q", got)
	}
	if got := resolveFormat("csv"); got != "csv" {
		t.Errorf("config format = %q", got)
	}
	globalFlags.Format = "json"
	if got := resolveFormat("csv"); got != "json" {
		t.Errorf("flag should win: %q", got)
	}
}

func TestBucketStatsRows(t *testing.T) {
	stats := []store.BucketStats{
		{Name: "stores", Count: 3, Bytes: 128},
		{Name: "results", Count: 0, Bytes: 0},
	}
	rows := bucketStatsRows(stats, "/tmp/sw.db")
	want := [][]string{
		{"stores", "3 entries, 128 bytes"},
		{"results", "0 entries, 0 bytes"},
		{"path", "/tmp/sw.db"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestCountriesHonoursConfiguredFormat(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"default_format": "csv"}`), 0600); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "countries.csv")

	origConfig, origOut, origFormat := globalFlags.Config, globalFlags.Out, globalFlags.Format
	globalFlags.Config, globalFlags.Out, globalFlags.Format = cfgPath, outPath, ""
	defer func() {
		globalFlags.Config, globalFlags.Out, globalFlags.Format = origConfig, origOut, origFormat
	}()

	if err := countriesCmd.RunE(countriesCmd, nil); err != nil {
		t.Fatalf("countries: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "code,name" {
		t.Errorf("header = %q, want csv per config default_format", lines[0])
	}
	if len(lines) < 2 || !strings.HasPrefix(lines[1], "US,") {
		t.Errorf("first row = %v, want US first", lines[1:])
	}
}

func TestSnapshotState(t *testing.T) {
	snap := store.Snapshot{
		CommittedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Country:     "US",
		ProductLine: model.LineMacBookPro,
		Result: model.ResolutionResult{
			{Store: model.Store{StoreNumber: "R001"}, Products: []string{"x"}},
		},
	}
	state := snapshotState(snap)
	if !state.LastUpdated.Equal(snap.CommittedAt) || len(state.Result) != 1 {
		t.Errorf("state = %+v", state)
	}
	if state.LastError != nil || state.Loading {
		t.Error("snapshot state should be settled")
	}
}
