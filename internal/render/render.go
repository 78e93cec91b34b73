// Package render converts resolution results, store listings and catalog
// listings into human-readable or machine-parseable output. Each format is a
// separate function; the exported entry points dispatch on the format string.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/stockwatch/internal/model"
	"github.com/example/stockwatch/internal/store"
	"github.com/olekukonko/tablewriter"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// ─── Resolution results ───────────────────────────────────────────────────────

// Result writes a resolution state to w in the specified format.
func Result(w io.Writer, state model.ResolutionState, format string) error {
	switch format {
	case FormatJSON:
		return resultJSON(w, state)
	case FormatCSV:
		return resultCSV(w, state)
	default:
		return resultTable(w, state)
	}
}

// resultEnvelope is the JSON shape of a resolution state.
type resultEnvelope struct {
	LastUpdated *time.Time         `json:"last_updated,omitempty"`
	Error       string             `json:"error,omitempty"`
	Stores      []resultStoreGroup `json:"stores"`
}

type resultStoreGroup struct {
	StoreNumber string   `json:"store_number"`
	StoreName   string   `json:"store_name"`
	Location    string   `json:"location,omitempty"`
	Nearby      bool     `json:"nearby,omitempty"`
	DistanceKm  float64  `json:"distance_km,omitempty"`
	Products    []string `json:"products"`
}

func resultJSON(w io.Writer, state model.ResolutionState) error {
	env := resultEnvelope{Stores: make([]resultStoreGroup, 0, len(state.Result))}
	if !state.LastUpdated.IsZero() {
		t := state.LastUpdated
		env.LastUpdated = &t
	}
	if state.LastError != nil {
		env.Error = state.LastError.Message()
	}
	for _, g := range state.Result {
		env.Stores = append(env.Stores, resultStoreGroup{
			StoreNumber: g.Store.StoreNumber,
			StoreName:   g.Store.StoreName,
			Location:    g.Store.LocationDescription(),
			Nearby:      g.Nearby,
			DistanceKm:  g.DistanceKm,
			Products:    g.Products,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

func resultTable(w io.Writer, state model.ResolutionState) error {
	if len(state.Result) == 0 {
		fmt.Fprintln(w, "No stores to display.")
		return nil
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"STORE", "LOCATION", "PRODUCTS IN STOCK"})
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	for _, g := range state.Result {
		name := g.Store.StoreName
		if g.Nearby {
			name = fmt.Sprintf("%s (nearby, %.0f km)", name, g.DistanceKm)
		}
		products := strings.Join(g.Products, "\n")
		if products == "" {
			products = "—"
		}
		tw.Append([]string{name, g.Store.LocationDescription(), products})
	}
	tw.Render()
	return nil
}

func resultCSV(w io.Writer, state model.ResolutionState) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"store_number", "store_name", "location", "nearby", "distance_km", "product"})
	for _, g := range state.Result {
		base := []string{
			g.Store.StoreNumber,
			g.Store.StoreName,
			g.Store.LocationDescription(),
			fmt.Sprintf("%t", g.Nearby),
			fmt.Sprintf("%.1f", g.DistanceKm),
		}
		if len(g.Products) == 0 {
			_ = cw.Write(append(base, ""))
			continue
		}
		for _, p := range g.Products {
			_ = cw.Write(append(base[:5:5], p))
		}
	}
	cw.Flush()
	return cw.Error()
}

// Footer writes the freshness line and, when present, the last error below a
// rendered result table. Skipped in quiet mode by the caller.
func Footer(w io.Writer, state model.ResolutionState) {
	if state.LastError != nil {
		fmt.Fprintf(w, "⚠  %s\n", state.LastError.Message())
	}
	if !state.LastUpdated.IsZero() {
		fmt.Fprintf(w, "Last updated: %s • %d stores • %d products\n",
			state.LastUpdated.Local().Format("15:04:05"),
			len(state.Result),
			state.Result.ProductCount(),
		)
	}
}

// ─── Store listings ───────────────────────────────────────────────────────────

// Stores writes a store directory listing to w.
func Stores(w io.Writer, stores []model.Store, format string) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, stores)
	case FormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"store_number", "store_name", "city", "state", "country"})
		for _, s := range stores {
			_ = cw.Write([]string{s.StoreNumber, s.StoreName, s.City, s.State, s.Country})
		}
		cw.Flush()
		return cw.Error()
	default:
		tw := tablewriter.NewWriter(w)
		tw.SetHeader([]string{"NUMBER", "NAME", "LOCATION"})
		tw.SetBorder(true)
		tw.SetRowLine(false)
		tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAutoWrapText(false)
		for _, s := range stores {
			tw.Append([]string{s.StoreNumber, s.StoreName, s.LocationDescription()})
		}
		tw.Render()
		return nil
	}
}

// ─── SKU listings ─────────────────────────────────────────────────────────────

// SKUs writes a product catalog listing to w.
func SKUs(w io.Writer, skus []model.SKU, format string) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, skus)
	case FormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"part_number", "display_name", "custom"})
		for _, s := range skus {
			_ = cw.Write([]string{s.PartNumber, s.DisplayName, fmt.Sprintf("%t", s.Custom)})
		}
		cw.Flush()
		return cw.Error()
	default:
		tw := tablewriter.NewWriter(w)
		tw.SetHeader([]string{"PART NUMBER", "NAME"})
		tw.SetBorder(true)
		tw.SetRowLine(false)
		tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAutoWrapText(false)
		for _, s := range skus {
			name := s.DisplayName
			if s.Custom {
				name += " (custom)"
			}
			tw.Append([]string{s.PartNumber, name})
		}
		tw.Render()
		return nil
	}
}

// ─── Country listings ─────────────────────────────────────────────────────────

// Countries writes the supported country listing to w.
func Countries(w io.Writer, countries []model.Country, format string) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, countries)
	case FormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"code", "name"})
		for _, c := range countries {
			_ = cw.Write([]string{c.Code, c.Name})
		}
		cw.Flush()
		return cw.Error()
	default:
		tw := tablewriter.NewWriter(w)
		tw.SetHeader([]string{"CODE", "NAME"})
		tw.SetBorder(true)
		tw.SetRowLine(false)
		tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, c := range countries {
			tw.Append([]string{c.Code, c.Name})
		}
		tw.Render()
		return nil
	}
}

// ─── Snapshot listings ────────────────────────────────────────────────────────

// Snapshots writes a result history listing to w.
func Snapshots(w io.Writer, snaps []store.Snapshot, format string) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, snaps)
	default:
		tw := tablewriter.NewWriter(w)
		tw.SetHeader([]string{"COMMITTED", "COUNTRY", "LINE", "STORES", "PRODUCTS"})
		tw.SetBorder(true)
		tw.SetRowLine(false)
		tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, s := range snaps {
			tw.Append([]string{
				s.CommittedAt.Local().Format("2006-01-02 15:04:05"),
				s.Country,
				string(s.ProductLine),
				fmt.Sprintf("%d", len(s.Result)),
				fmt.Sprintf("%d", s.Result.ProductCount()),
			})
		}
		tw.Render()
		return nil
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
