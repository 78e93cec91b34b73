package catalog

import (
	"embed"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/example/stockwatch/internal/model"
)

// Product tables ship with the binary, one JSON file per country. A country
// without a file, or a file without a given product line, yields an empty
// SKU table — absence of local data is not fatal, since availability fetches
// may still partially succeed.
//
//go:embed data/*.json
var dataFS embed.FS

// countryFile is the on-disk layout of one embedded country table.
type countryFile struct {
	Country      string                         `json:"country"`
	ProductLines map[model.ProductLine][]skuRow `json:"productLines"`
}

type skuRow struct {
	PartNumber  string `json:"partNumber"`
	DisplayName string `json:"displayName"`
}

// Products serves SKU tables per (country, product line), lazily parsed from
// the embedded data and cached for the process lifetime. It may be augmented
// with at most one custom SKU, which is always appended after the canonical
// table since it has no catalog position.
type Products struct {
	mu        sync.RWMutex
	tables    map[string]map[model.ProductLine][]model.SKU
	custom    model.SKU
	hasCustom bool
}

// NewProducts creates an empty, lazily-loading product catalog.
func NewProducts() *Products {
	return &Products{tables: make(map[string]map[model.ProductLine][]model.SKU)}
}

// SetCustomSKU installs (or, with an empty part number, clears) the single
// user-defined SKU. A blank nickname falls back to the part number itself.
func (p *Products) SetCustomSKU(partNumber, nickname string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if partNumber == "" {
		p.hasCustom = false
		p.custom = model.SKU{}
		return
	}
	if nickname == "" {
		nickname = partNumber
	}
	p.custom = model.SKU{PartNumber: partNumber, DisplayName: nickname, Custom: true}
	p.hasCustom = true
}

// SKUs returns the ordered SKU table for (country, line): the canonical
// catalog order, then the custom SKU if one is set and not already present.
// Unknown pairs yield an empty slice, never an error.
func (p *Products) SKUs(country string, line model.ProductLine) []model.SKU {
	p.mu.RLock()
	table, loaded := p.tables[country]
	custom, hasCustom := p.custom, p.hasCustom
	p.mu.RUnlock()

	if !loaded {
		table = p.loadCountry(country)
	}

	canonical := table[line]
	out := make([]model.SKU, 0, len(canonical)+1)
	out = append(out, canonical...)

	if hasCustom {
		known := false
		for _, sku := range canonical {
			if sku.PartNumber == custom.PartNumber {
				known = true
				break
			}
		}
		if !known {
			out = append(out, custom)
		}
	}
	return out
}

// DisplayName maps a part number to its display name for (country, line).
// The custom SKU's nickname applies when the part is not in the canonical
// table; unknown parts fall back to the raw part number, never an error.
func (p *Products) DisplayName(country string, line model.ProductLine, partNumber string) string {
	for _, sku := range p.SKUs(country, line) {
		if sku.PartNumber == partNumber {
			return sku.DisplayName
		}
	}
	return partNumber
}

// loadCountry parses the embedded table for a country and caches it. Missing
// or malformed files cache as empty so the read is attempted only once.
func (p *Products) loadCountry(country string) map[model.ProductLine][]model.SKU {
	table := make(map[model.ProductLine][]model.SKU)

	data, err := dataFS.ReadFile("data/" + country + ".json")
	if err == nil {
		var file countryFile
		if err := json.Unmarshal(data, &file); err != nil {
			slog.Warn("malformed product table", "country", country, "error", err)
		} else {
			for line, rows := range file.ProductLines {
				skus := make([]model.SKU, len(rows))
				for i, row := range rows {
					skus[i] = model.SKU{PartNumber: row.PartNumber, DisplayName: row.DisplayName}
				}
				table[line] = skus
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.tables[country]; ok {
		return cached
	}
	p.tables[country] = table
	return table
}
