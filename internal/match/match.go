// Package match joins fetched availability records with catalog metadata and
// user preferences into the grouped, deterministically ordered resolution
// result. Everything here is pure: identical inputs always produce an
// identical result, and resolution never fails — absence of data is a valid
// result meaning "nothing in stock".
package match

import (
	"sort"

	"github.com/example/stockwatch/internal/directory"
	"github.com/example/stockwatch/internal/model"
	"github.com/example/stockwatch/internal/textsort"
)

// Namer maps part numbers to display names. *catalog.Products implements it;
// tests substitute fakes.
type Namer interface {
	DisplayName(country string, line model.ProductLine, partNumber string) string
}

// EffectiveStore is one store in the effective query set: a direct user
// selection, or a nearby expansion with its distance to the closest
// selected store.
type EffectiveStore struct {
	Store      model.Store
	Nearby     bool
	DistanceKm float64
}

// EffectiveStores determines which stores a cycle queries and displays:
// the preferred stores in user-selection order, then — when nearby
// inclusion is on — stores within the fixed radius of any preferred store,
// ordered by ascending distance. The expansion never alters the preferred
// set itself.
//
// A preferred store number missing from the directory still yields an entry
// (number only), so the user's selection stays visible rather than being
// silently dropped.
func EffectiveStores(allStores []model.Store, prefs model.Preferences) []EffectiveStore {
	byNumber := make(map[string]model.Store, len(allStores))
	for _, s := range allStores {
		byNumber[s.StoreNumber] = s
	}

	direct := make(map[string]bool, len(prefs.StoreNumbers))
	var out []EffectiveStore
	for _, num := range prefs.StoreNumbers {
		if direct[num] {
			continue
		}
		direct[num] = true
		store, ok := byNumber[num]
		if !ok {
			store = model.Store{StoreNumber: num, StoreName: num}
		}
		out = append(out, EffectiveStore{Store: store})
	}

	if !prefs.IncludeNearby {
		return out
	}

	// Expand each located preferred store; keep the minimum distance when a
	// store is near more than one selection.
	minDist := make(map[string]float64)
	nearbyStores := make(map[string]model.Store)
	for _, es := range out {
		origin, ok := byNumber[es.Store.StoreNumber]
		if !ok {
			continue
		}
		for _, s := range directory.Nearby(origin, allStores, directory.DefaultNearbyRadiusKm)[1:] {
			if direct[s.StoreNumber] {
				continue
			}
			d := directory.DistanceKm(origin, s)
			if cur, seen := minDist[s.StoreNumber]; !seen || d < cur {
				minDist[s.StoreNumber] = d
				nearbyStores[s.StoreNumber] = s
			}
		}
	}

	nums := make([]string, 0, len(nearbyStores))
	for num := range nearbyStores {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool {
		if minDist[nums[i]] != minDist[nums[j]] {
			return minDist[nums[i]] < minDist[nums[j]]
		}
		return nums[i] < nums[j] // distance ties break on store number
	})

	for _, num := range nums {
		out = append(out, EffectiveStore{
			Store:      nearbyStores[num],
			Nearby:     true,
			DistanceKm: minDist[num],
		})
	}
	return out
}

// Resolve assembles the resolution result for one cycle:
//
//  1. determine the effective store set (preferred + nearby expansion)
//  2. group records by store, restricted to that set
//  3. map part numbers to display names, applying the favorites filter
//  4. collapse duplicate names within a store
//  5. order names numerically within each store
//  6. order groups: direct selections in user order, then nearby by distance
//
// Directly selected stores appear even with nothing in stock; nearby-only
// stores with nothing in stock are omitted to avoid empty noise.
func Resolve(records []model.AvailabilityRecord, allStores []model.Store, names Namer, prefs model.Preferences) model.ResolutionResult {
	effective := EffectiveStores(allStores, prefs)

	partsByStore := make(map[string][]string)
	for _, r := range records {
		partsByStore[r.StoreNumber] = append(partsByStore[r.StoreNumber], r.PartNumber)
	}

	favorites := prefs.FavoriteSet()

	result := make(model.ResolutionResult, 0, len(effective))
	for _, es := range effective {
		products := productNames(partsByStore[es.Store.StoreNumber], names, prefs, favorites)
		if es.Nearby && len(products) == 0 {
			continue
		}
		result = append(result, model.StoreGroup{
			Store:      es.Store,
			Nearby:     es.Nearby,
			DistanceKm: es.DistanceKm,
			Products:   products,
		})
	}
	return result
}

// productNames maps one store's part numbers to filtered, deduplicated,
// numerically ordered display names.
func productNames(parts []string, names Namer, prefs model.Preferences, favorites map[string]bool) []string {
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if prefs.FavoritesOnly && !favorites[part] {
			continue
		}
		name := names.DisplayName(prefs.Country, prefs.ProductLine, part)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	textsort.Strings(out)
	return out
}
