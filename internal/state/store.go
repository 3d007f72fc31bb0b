package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketScans = []byte("scans")

// ErrNotFound is returned by Get for an unknown scan ID.
var ErrNotFound = errors.New("scan not found")

// HistoryStore persists finished scans.
type HistoryStore interface {
	Save(rec *ScanRecord) error
	// List returns up to limit records, newest first. limit <= 0 means all.
	List(limit int) ([]*ScanRecord, error)
	Get(id string) (*ScanRecord, error)
	Close() error
}

// BoltStore implements HistoryStore using BoltDB. Keys sort by start time
// so a reverse cursor walk lists newest first.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens or creates the history database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketScans)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.path
}

func recordKey(rec *ScanRecord) []byte {
	return []byte(fmt.Sprintf("%020d-%s", rec.StartedAt.UnixNano(), rec.ID))
}

// Save stores rec, replacing an earlier save of the same scan.
func (s *BoltStore) Save(rec *ScanRecord) error {
	if rec.ID == "" {
		return errors.New("scan record has no ID")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal scan record: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketScans)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put(recordKey(rec), data)
	})
}

// List implements HistoryStore.
func (s *BoltStore) List(limit int) ([]*ScanRecord, error) {
	var out []*ScanRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketScans)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var rec ScanRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal scan record %s: %w", k, err)
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get implements HistoryStore.
func (s *BoltStore) Get(id string) (*ScanRecord, error) {
	var found *ScanRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketScans)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.ForEach(func(k, v []byte) error {
			if found != nil {
				return nil
			}
			var rec ScanRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.ID == id {
				found = &rec
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// MemoryStore implements HistoryStore in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]*ScanRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]*ScanRecord)}
}

// Save implements HistoryStore.
func (s *MemoryStore) Save(rec *ScanRecord) error {
	if rec.ID == "" {
		return errors.New("scan record has no ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.recs[rec.ID] = &cp
	return nil
}

// List implements HistoryStore.
func (s *MemoryStore) List(limit int) ([]*ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ScanRecord, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get implements HistoryStore.
func (s *MemoryStore) Get(id string) (*ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
