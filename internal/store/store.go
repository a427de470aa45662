// Package store provides a thin bbolt wrapper for fauna's local data store.
//
// The store holds datasets that were fetched explicitly with "fauna fetch"
// and SVG snapshots saved with "fauna snapshot save". Nothing is cached
// implicitly and nothing expires.
//
// Buckets:
//
//	datasets   parsed datasets keyed by source locator
//	snapshots  rendered charts keyed by snapshot ID
//	_meta      internal: schema version, created_at
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/fauna/internal/model"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketDatasets  = []byte("datasets")
	bucketSnapshots = []byte("snapshots")
	bucketInternal  = []byte("_meta")
)

// AllBuckets lists every user-facing bucket for stats and clear operations.
var AllBuckets = []string{"datasets", "snapshots"}

// ErrUnknownBucket is returned by ClearBucket for a name not in AllBuckets.
var ErrUnknownBucket = errors.New("store: unknown bucket")

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
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

// ─── Migrations ───────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDatasets, bucketSnapshots, bucketInternal} {
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

// SchemaVersion returns the schema version recorded in the database.
func (s *Store) SchemaVersion() (string, error) {
	var v string
	err := s.db.View(func(tx *bolt.Tx) error {
		v = string(tx.Bucket(bucketInternal).Get([]byte("schema_version")))
		return nil
	})
	return v, err
}

// ─── Datasets ─────────────────────────────────────────────────────────────────

// storedDataset is the on-disk envelope for a dataset.
type storedDataset struct {
	Source    string         `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
	Records   []model.Record `json:"records"`
}

// PutDataset stores ds under its Source, stamping the fetch time.
func (s *Store) PutDataset(ds model.Dataset) error {
	if ds.Source == "" {
		return errors.New("store: dataset has no source")
	}
	env := storedDataset{
		Source:    ds.Source,
		FetchedAt: time.Now().UTC(),
		Records:   ds.Records,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDatasets).Put([]byte(ds.Source), b)
	})
}

// GetDataset retrieves a dataset by source.
// Returns (ds, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) GetDataset(source string) (model.Dataset, bool, error) {
	var env storedDataset
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDatasets).Get([]byte(source))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &env)
	})
	if err != nil {
		return model.Dataset{}, false, err
	}
	if env.Source == "" {
		return model.Dataset{}, false, nil
	}
	return model.Dataset{Source: env.Source, Records: env.Records, LoadedAt: env.FetchedAt}, true, nil
}

// ListDatasets returns a summary of every stored dataset, sorted by source.
func (s *Store) ListDatasets() ([]model.DatasetSummary, error) {
	var out []model.DatasetSummary
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDatasets).ForEach(func(k, v []byte) error {
			var env storedDataset
			if err := json.Unmarshal(v, &env); err != nil {
				return fmt.Errorf("decoding dataset %s: %w", k, err)
			}
			out = append(out, model.Summarize(model.Dataset{
				Source: env.Source, Records: env.Records, LoadedAt: env.FetchedAt,
			}))
			return nil
		})
	})
	return out, err
}

// DeleteDataset removes a dataset. It reports whether one was present.
func (s *Store) DeleteDataset(source string) (bool, error) {
	var found bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDatasets)
		found = b.Get([]byte(source)) != nil
		return b.Delete([]byte(source))
	})
	return found, err
}

// ─── Snapshots ────────────────────────────────────────────────────────────────

// Snapshot is a saved chart render.
type Snapshot struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Source    string    `json:"source" yaml:"source"`
	Records   int       `json:"records" yaml:"records"`
	Width     float64   `json:"width" yaml:"width"`
	Height    float64   `json:"height" yaml:"height"`
	SVG       []byte    `json:"svg,omitempty" yaml:"-"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewSnapshotID returns a fresh random snapshot ID.
func NewSnapshotID() string {
	return uuid.NewString()
}

// PutSnapshot saves a snapshot, assigning an ID and creation time if unset.
// It returns the stored snapshot.
func (s *Store) PutSnapshot(snap Snapshot) (Snapshot, error) {
	if snap.ID == "" {
		snap.ID = NewSnapshotID()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte("snap:"+snap.ID), b)
	})
	return snap, err
}

// GetSnapshot retrieves a snapshot by ID.
func (s *Store) GetSnapshot(id string) (Snapshot, bool, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSnapshots).Get([]byte("snap:" + id))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &snap)
	})
	if err != nil {
		return snap, false, err
	}
	return snap, snap.ID != "", nil
}

// ListSnapshots returns all snapshots, oldest first, without their SVG bodies.
func (s *Store) ListSnapshots() ([]Snapshot, error) {
	var snaps []Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}
			snap.SVG = nil
			snaps = append(snaps, snap)
			return nil
		})
	})
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps, err
}

// DeleteSnapshot removes a snapshot by ID. It reports whether one was present.
func (s *Store) DeleteSnapshot(id string) (bool, error) {
	var found bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		found = b.Get([]byte("snap:"+id)) != nil
		return b.Delete([]byte("snap:" + id))
	})
	return found, err
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
}

// Stats returns row counts and approximate sizes for all user-facing buckets,
// in AllBuckets order.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			st := BucketStats{Name: name}
			err := b.ForEach(func(k, v []byte) error {
				st.Count++
				st.Bytes += int64(len(k) + len(v))
				return nil
			})
			if err != nil {
				return err
			}
			stats = append(stats, st)
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	known := false
	for _, b := range AllBuckets {
		if b == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownBucket, name)
	}
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
