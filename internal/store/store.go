// Package store provides a thin bbolt wrapper for stockwatch's local data.
//
// The database caches data that is effectively static (per-country store
// directories) and accumulates resolution snapshots for later inspection.
// There is no TTL and no auto-invalidation: directories change rarely, and
// `stockwatch store clear` re-primes the cache on demand.
//
// Buckets:
//
//	stores  — per-country store directory, keyed by country code
//	results — resolution snapshots, keyed by RFC3339Nano commit time
//	_meta   — internal: schema version, created_at
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/example/stockwatch/internal/model"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// maxSnapshots bounds the results bucket; older snapshots are pruned on put.
const maxSnapshots = 20

// Bucket name constants.
var (
	bucketStores   = []byte("stores")
	bucketResults  = []byte("results")
	bucketInternal = []byte("_meta")
)

// AllBuckets lists every user-facing bucket for stats and clear operations.
var AllBuckets = []string{"stores", "results"}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketStores, bucketResults, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Store Directories ────────────────────────────────────────────────────────

// storedDirectory is the on-disk envelope for a per-country store list.
type storedDirectory struct {
	Country   string        `json:"country"`
	FetchedAt time.Time     `json:"fetched_at"`
	Stores    []model.Store `json:"stores"`
}

// PutStores caches the store directory for a country, stamping the fetch time.
func (s *Store) PutStores(country string, stores []model.Store) error {
	envelope := storedDirectory{
		Country:   country,
		FetchedAt: time.Now().UTC(),
		Stores:    stores,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding store directory: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStores).Put([]byte(country), data)
	})
}

// GetStores retrieves the cached store directory for a country.
// Returns (stores, true, nil) if found, (nil, false, nil) if not found.
func (s *Store) GetStores(country string) ([]model.Store, bool, error) {
	var envelope storedDirectory
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketStores).Get([]byte(country))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &envelope)
	})
	if err != nil {
		return nil, false, err
	}
	if envelope.Country == "" {
		return nil, false, nil
	}
	return envelope.Stores, true, nil
}

// ─── Resolution Snapshots ─────────────────────────────────────────────────────

// Snapshot is one committed resolution result with its context.
type Snapshot struct {
	CommittedAt time.Time              `json:"committed_at"`
	Country     string                 `json:"country"`
	ProductLine model.ProductLine      `json:"product_line"`
	Result      model.ResolutionResult `json:"result"`
}

// PutSnapshot appends a resolution snapshot and prunes beyond maxSnapshots.
// Keys are RFC3339Nano timestamps, so bucket order is commit order.
func (s *Store) PutSnapshot(snap Snapshot) error {
	if snap.CommittedAt.IsZero() {
		snap.CommittedAt = time.Now().UTC()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	key := []byte(snap.CommittedAt.UTC().Format(time.RFC3339Nano))

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		if err := b.Put(key, data); err != nil {
			return err
		}

		// Prune oldest entries beyond the cap.
		count := 0
		if err := b.ForEach(func(k, v []byte) error { count++; return nil }); err != nil {
			return err
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil && count > maxSnapshots; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
			count--
		}
		return nil
	})
}

// LatestSnapshot returns the most recently committed snapshot.
// Returns (zero, false, nil) when no snapshots exist.
func (s *Store) LatestSnapshot() (Snapshot, bool, error) {
	var snap Snapshot
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		_, v := tx.Bucket(bucketResults).Cursor().Last()
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &snap)
	})
	return snap, found, err
}

// ListSnapshots returns all snapshots in commit order, oldest first.
func (s *Store) ListSnapshots() ([]Snapshot, error) {
	var snaps []Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResults).ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}
			snaps = append(snaps, snap)
			return nil
		})
	})
	return snaps, err
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all user-facing buckets.
func (s *Store) Stats() ([]BucketStats, error) {
	buckets := map[string][]byte{
		"stores":  bucketStores,
		"results": bucketResults,
	}

	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket(buckets[name])
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}
