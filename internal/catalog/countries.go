// Package catalog provides the static country table and the per-country,
// per-product-line SKU tables. Country and SKU data are compiled in; the
// only runtime mutation is the single user-defined custom SKU.
package catalog

import "github.com/example/stockwatch/internal/model"

// orderedCountryCodes is the curated presentation order for the country
// picker. Not alphabetical: the sequence reflects storefront importance,
// starting with the US.
var orderedCountryCodes = []string{
	"US", "CA", "UK", "AU", "DE", "FR", "IT", "NL", "CH",
	"AE", "JP", "KR", "HK", "TW", "TH",
}

var countries = map[string]model.Country{
	"US": {Code: "US", Name: "United States"},
	"CA": {Code: "CA", Name: "Canada"},
	"UK": {Code: "UK", Name: "United Kingdom"},
	"AU": {Code: "AU", Name: "Australia"},
	"DE": {Code: "DE", Name: "Germany"},
	"FR": {Code: "FR", Name: "France"},
	"IT": {Code: "IT", Name: "Italy"},
	"NL": {Code: "NL", Name: "Netherlands"},
	"CH": {Code: "CH", Name: "Switzerland"},
	"AE": {Code: "AE", Name: "United Arab Emirates"},
	"JP": {Code: "JP", Name: "Japan"},
	"KR": {Code: "KR", Name: "South Korea"},
	"HK": {Code: "HK", Name: "Hong Kong"},
	"TW": {Code: "TW", Name: "Taiwan"},
	"TH": {Code: "TH", Name: "Thailand"},
}

// OrderedCountryCodes returns the curated country order. The returned slice
// is a copy; callers may reorder it freely.
func OrderedCountryCodes() []string {
	out := make([]string, len(orderedCountryCodes))
	copy(out, orderedCountryCodes)
	return out
}

// LookupCountry resolves a country code. Returns (zero, false) for unknown
// codes; callers fall back to displaying the raw code.
func LookupCountry(code string) (model.Country, bool) {
	c, ok := countries[code]
	return c, ok
}
