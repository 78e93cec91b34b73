package directory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/stockwatch/internal/directory"
	"github.com/example/stockwatch/internal/model"
)

// fakeCache is an in-memory stand-in for the bbolt-backed cache.
type fakeCache struct {
	data map[string][]model.Store
	puts int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]model.Store)}
}

func (c *fakeCache) GetStores(country string) ([]model.Store, bool, error) {
	stores, ok := c.data[country]
	return stores, ok, nil
}

func (c *fakeCache) PutStores(country string, stores []model.Store) error {
	c.data[country] = stores
	c.puts++
	return nil
}

func directoryServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/stores/US.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stores":[
			{"storeNumber":"R001","storeName":"Downtown","city":"Seattle","state":"WA","country":"US","latitude":47.61,"longitude":-122.33},
			{"storeNumber":"R042","storeName":"Bellevue Square","city":"Bellevue","state":"WA","country":"US","latitude":47.62,"longitude":-122.20}
		]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStoresFetchAndMemoryCache(t *testing.T) {
	var hits atomic.Int32
	srv := directoryServer(t, &hits)

	d := directory.New(srv.URL, 5*time.Second, nil)
	ctx := context.Background()

	stores, err := d.Stores(ctx, "US")
	if err != nil {
		t.Fatalf("Stores: %v", err)
	}
	if len(stores) != 2 || stores[0].StoreNumber != "R001" {
		t.Fatalf("stores = %+v", stores)
	}

	// Second call must come from memory.
	if _, err := d.Stores(ctx, "US"); err != nil {
		t.Fatalf("second Stores: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestStoresPersistentCacheSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := directoryServer(t, &hits)
	cache := newFakeCache()

	// First directory primes the cache.
	d1 := directory.New(srv.URL, 5*time.Second, cache)
	if _, err := d1.Stores(context.Background(), "US"); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}
	if cache.puts != 1 {
		t.Fatalf("cache puts = %d, want 1", cache.puts)
	}

	// A fresh directory pointing at a dead server must be served from cache.
	srv.Close()
	d2 := directory.New(srv.URL, time.Second, cache)
	stores, err := d2.Stores(context.Background(), "US")
	if err != nil {
		t.Fatalf("cached Stores: %v", err)
	}
	if len(stores) != 2 {
		t.Errorf("cached stores = %+v", stores)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestStoresUnknownCountryFails(t *testing.T) {
	var hits atomic.Int32
	srv := directoryServer(t, &hits)

	d := directory.New(srv.URL, 5*time.Second, nil)
	if _, err := d.Stores(context.Background(), "XX"); err == nil {
		t.Error("expected error for unknown country")
	}
}

func TestLookup(t *testing.T) {
	var hits atomic.Int32
	srv := directoryServer(t, &hits)
	d := directory.New(srv.URL, 5*time.Second, nil)

	s, found, err := d.Lookup(context.Background(), "US", "R042")
	if err != nil || !found {
		t.Fatalf("Lookup: found=%v err=%v", found, err)
	}
	if s.City != "Bellevue" {
		t.Errorf("store = %+v", s)
	}

	if _, found, _ := d.Lookup(context.Background(), "US", "R999"); found {
		t.Error("unknown store number resolved")
	}
}

func TestSearch(t *testing.T) {
	stores := []model.Store{
		{StoreNumber: "R001", StoreName: "Downtown", City: "Seattle"},
		{StoreNumber: "R042", StoreName: "Bellevue Square", City: "Bellevue"},
		{StoreNumber: "R777", StoreName: "Pioneer Place", City: "Portland"},
	}

	cases := []struct {
		filter string
		want   []string
	}{
		{"", []string{"R001", "R042", "R777"}},
		{"  ", []string{"R001", "R042", "R777"}},
		{"bellevue", []string{"R042"}},
		{"SEATTLE", []string{"R001"}},
		{"r0", []string{"R001", "R042"}},
		{"place", []string{"R777"}},
		{"nothing", nil},
	}
	for _, tc := range cases {
		got := directory.Search(stores, tc.filter)
		var nums []string
		for _, s := range got {
			nums = append(nums, s.StoreNumber)
		}
		if len(nums) != len(tc.want) {
			t.Errorf("Search(%q) = %v, want %v", tc.filter, nums, tc.want)
			continue
		}
		for i := range nums {
			if nums[i] != tc.want[i] {
				t.Errorf("Search(%q) = %v, want %v", tc.filter, nums, tc.want)
				break
			}
		}
	}
}

func TestNearbyOrdersByDistance(t *testing.T) {
	origin := model.Store{StoreNumber: "R001", Latitude: 47.61, Longitude: -122.33} // Seattle
	all := []model.Store{
		origin,
		{StoreNumber: "R042", Latitude: 47.62, Longitude: -122.20}, // Bellevue, ~10 km
		{StoreNumber: "R100", Latitude: 47.45, Longitude: -122.26}, // Tukwila, ~19 km
		{StoreNumber: "R777", Latitude: 45.52, Longitude: -122.68}, // Portland, ~235 km
	}

	got := directory.Nearby(origin, all, directory.DefaultNearbyRadiusKm)
	want := []string{"R001", "R042", "R100"}
	if len(got) != len(want) {
		t.Fatalf("Nearby = %+v, want stores %v", got, want)
	}
	for i, num := range want {
		if got[i].StoreNumber != num {
			t.Errorf("Nearby[%d] = %s, want %s", i, got[i].StoreNumber, num)
		}
	}
}

func TestDistanceKm(t *testing.T) {
	seattle := model.Store{Latitude: 47.6062, Longitude: -122.3321}
	portland := model.Store{Latitude: 45.5152, Longitude: -122.6784}

	d := directory.DistanceKm(seattle, portland)
	if d < 225 || d > 245 {
		t.Errorf("Seattle-Portland distance = %.1f km, want ~235", d)
	}
	if z := directory.DistanceKm(seattle, seattle); z != 0 {
		t.Errorf("zero distance = %f", z)
	}
}
