// Package model defines the canonical data types used throughout stockwatch.
// These types are the single source of truth for catalog entities, fetched
// availability data, and the resolution result the engine produces.
package model

import "time"

// ─── Catalog Entities ─────────────────────────────────────────────────────────

// Country is one supported storefront country.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Store is a single retail store within a country.
type Store struct {
	StoreNumber string  `json:"storeNumber"`
	StoreName   string  `json:"storeName"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Country     string  `json:"country"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// LocationDescription returns "City, State" (or just the city when the
// region is unknown) for display under the store name.
func (s Store) LocationDescription() string {
	if s.State == "" {
		return s.City
	}
	return s.City + ", " + s.State
}

// SKU maps a part number to a human-readable configuration name.
// Custom marks the single user-defined SKU injected from preferences;
// it has no catalog position and always sorts last.
type SKU struct {
	PartNumber  string `json:"partNumber"`
	DisplayName string `json:"displayName"`
	Custom      bool   `json:"custom,omitempty"`
}

// ProductLine identifies a class of device with its own SKU catalog.
type ProductLine string

// Supported product lines.
const (
	LineMacBookPro ProductLine = "MacBookPro"
	LineMacBookAir ProductLine = "MacBookAir"
	LineIPhone     ProductLine = "iPhone"
	LineIPad       ProductLine = "iPad"
	LineWatch      ProductLine = "AppleWatch"
)

// AllProductLines lists every supported line in presentation order.
var AllProductLines = []ProductLine{
	LineMacBookPro,
	LineMacBookAir,
	LineIPhone,
	LineIPad,
	LineWatch,
}

// ParseProductLine matches a string against the known lines,
// case-insensitively. Returns ("", false) on no match.
func ParseProductLine(s string) (ProductLine, bool) {
	for _, line := range AllProductLines {
		if equalFold(string(line), s) {
			return line, true
		}
	}
	return "", false
}

// PresentableName returns the display form of a product line.
func (p ProductLine) PresentableName() string {
	switch p {
	case LineMacBookPro:
		return "MacBook Pro"
	case LineMacBookAir:
		return "MacBook Air"
	case LineIPhone:
		return "iPhone"
	case LineIPad:
		return "iPad"
	case LineWatch:
		return "Apple Watch"
	default:
		return string(p)
	}
}

// equalFold is an ASCII-only case-insensitive comparison; product line
// identifiers never contain multi-byte runes.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// ─── Availability ─────────────────────────────────────────────────────────────

// AvailabilityRecord is one confirmed in-stock part at a store. Records are
// produced fresh by every fetch and carry no identity beyond their fields.
type AvailabilityRecord struct {
	StoreNumber string `json:"storeNumber"`
	PartNumber  string `json:"partNumber"`
}

// StoreGroup is one store's slice of a resolution result: the store, how it
// entered the effective set, and its ordered product display names.
type StoreGroup struct {
	Store      Store    `json:"store"`
	Nearby     bool     `json:"nearby,omitempty"`
	DistanceKm float64  `json:"distanceKm,omitempty"`
	Products   []string `json:"products"`
}

// ResolutionResult is the ordered, grouped output of one resolution cycle.
// It is recomputed wholesale on every successful cycle and never mutated in
// place. An empty result is valid and means "nothing in stock".
type ResolutionResult []StoreGroup

// ProductCount returns the total number of product lines across all groups.
func (r ResolutionResult) ProductCount() int {
	n := 0
	for _, g := range r {
		n += len(g.Products)
	}
	return n
}

// ResolutionState is the process-wide engine state read by presentation
// layers. Result survives failed cycles: stale-but-valid data is preferred
// over blanking the display.
type ResolutionState struct {
	Loading     bool             `json:"loading"`
	LastError   *FetchError      `json:"lastError,omitempty"`
	LastUpdated time.Time        `json:"lastUpdated"`
	Result      ResolutionResult `json:"result"`
}

// ─── Preferences ──────────────────────────────────────────────────────────────

// Preferences is the immutable snapshot of user preference state captured at
// the start of each resolution cycle. The engine never writes preferences.
type Preferences struct {
	Country           string        `json:"country"`
	ProductLine       ProductLine   `json:"productLine"`
	StoreNumbers      []string      `json:"storeNumbers"` // user-selection order
	FavoriteSKUs      []string      `json:"favoriteSkus"`
	IncludeNearby     bool          `json:"includeNearbyStores"`
	FavoritesOnly     bool          `json:"favoritesOnly"`
	RefreshInterval   time.Duration `json:"refreshInterval"` // 0 = manual only
	CustomSKU         string        `json:"customSku,omitempty"`
	CustomSKUNickname string        `json:"customSkuNickname,omitempty"`
}

// FavoriteSet returns the favorite SKUs as a lookup set.
func (p Preferences) FavoriteSet() map[string]bool {
	set := make(map[string]bool, len(p.FavoriteSKUs))
	for _, sku := range p.FavoriteSKUs {
		set[sku] = true
	}
	return set
}
