// Package directory resolves per-country retail store lists. Lists are
// fetched once from the remote directory source and cached twice: in memory
// for the process lifetime, and in the local bbolt store so later one-shot
// invocations skip the network entirely. Store lists are effectively static;
// there is no TTL, and `stockwatch store clear` forces a refetch.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/stockwatch/internal/model"
)

// DefaultNearbyRadiusKm is the great-circle cutoff for nearby-store
// expansion: 80.5 km (50 miles), wide enough to cover a metro area without
// crossing into the next region.
const DefaultNearbyRadiusKm = 80.5

// Cache is the persistent layer behind the in-memory directory cache.
// *store.Store implements it; tests substitute fakes.
type Cache interface {
	GetStores(country string) ([]model.Store, bool, error)
	PutStores(country string, stores []model.Store) error
}

// Directory fetches and caches per-country store lists.
type Directory struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache // may be nil: memory-only

	mu     sync.RWMutex
	byCode map[string][]model.Store
}

// New creates a Directory fetching from baseURL with the given timeout.
// cache may be nil to disable persistent caching.
func New(baseURL string, timeout time.Duration, cache Cache) *Directory {
	return &Directory{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		byCode:     make(map[string][]model.Store),
	}
}

// Stores returns the store list for a country, consulting the in-memory
// cache, then the persistent cache, then the remote source. The returned
// slice is shared and must be treated as immutable.
func (d *Directory) Stores(ctx context.Context, country string) ([]model.Store, error) {
	d.mu.RLock()
	cached, ok := d.byCode[country]
	d.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if d.cache != nil {
		stores, found, err := d.cache.GetStores(country)
		if err != nil {
			slog.Warn("store directory cache read failed", "country", country, "error", err)
		} else if found {
			d.remember(country, stores)
			return stores, nil
		}
	}

	stores, err := d.fetch(ctx, country)
	if err != nil {
		return nil, err
	}

	d.remember(country, stores)
	if d.cache != nil {
		if err := d.cache.PutStores(country, stores); err != nil {
			slog.Warn("store directory cache write failed", "country", country, "error", err)
		}
	}
	return stores, nil
}

// Lookup finds a store by number within a country's directory.
func (d *Directory) Lookup(ctx context.Context, country, storeNumber string) (model.Store, bool, error) {
	stores, err := d.Stores(ctx, country)
	if err != nil {
		return model.Store{}, false, err
	}
	for _, s := range stores {
		if s.StoreNumber == storeNumber {
			return s, true, nil
		}
	}
	return model.Store{}, false, nil
}

// remember installs a fetched list, first writer wins.
func (d *Directory) remember(country string, stores []model.Store) {
	d.mu.Lock()
	if _, ok := d.byCode[country]; !ok {
		d.byCode[country] = stores
	}
	d.mu.Unlock()
}

// directoryResponse is the wire schema of the store directory source:
// GET {base}/stores/{country}.json
type directoryResponse struct {
	Stores []model.Store `json:"stores"`
}

func (d *Directory) fetch(ctx context.Context, country string) ([]model.Store, error) {
	reqURL := fmt.Sprintf("%s/stores/%s.json", d.baseURL, country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store directory %s: %w", country, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store directory %s: HTTP %d", country, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	var parsed directoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding store directory %s: %w", country, err)
	}

	slog.Debug("store directory fetched", "country", country, "stores", len(parsed.Stores))
	return parsed.Stores, nil
}

// ─── Pure Helpers ─────────────────────────────────────────────────────────────

// Search filters stores by a case-insensitive substring match against the
// store name, city, or store number. An empty filter returns the input
// unchanged.
func Search(stores []model.Store, filter string) []model.Store {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return stores
	}
	var out []model.Store
	for _, s := range stores {
		if strings.Contains(strings.ToLower(s.StoreName), filter) ||
			strings.Contains(strings.ToLower(s.City), filter) ||
			strings.Contains(strings.ToLower(s.StoreNumber), filter) {
			out = append(out, s)
		}
	}
	return out
}

// Nearby expands origin into itself plus all stores within radiusKm,
// ordered by ascending distance (origin first at distance zero). The
// expansion only widens which stores are queried or displayed; it never
// touches persisted preference state.
func Nearby(origin model.Store, all []model.Store, radiusKm float64) []model.Store {
	type candidate struct {
		store model.Store
		dist  float64
	}

	var near []candidate
	for _, s := range all {
		if s.StoreNumber == origin.StoreNumber {
			continue
		}
		if dist := DistanceKm(origin, s); dist <= radiusKm {
			near = append(near, candidate{store: s, dist: dist})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })

	out := make([]model.Store, 0, len(near)+1)
	out = append(out, origin)
	for _, c := range near {
		out = append(out, c.store)
	}
	return out
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two stores using the
// haversine formula.
func DistanceKm(a, b model.Store) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
