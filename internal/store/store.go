package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
	"github.com/darbyjohnston/DJV-sub020/internal/memory"
)

// Bucket names
var (
	bucketInfo      = []byte("info")
	bucketPositions = []byte("positions")
	bucketRecent    = []byte("recent")
)

var allBuckets = [][]byte{bucketInfo, bucketPositions, bucketRecent}

const (
	// hot entries kept decoded-ready in memory
	memoryEntries = 512
	// MaxRecent bounds the recent files list
	MaxRecent = 10
)

// infoRecord is the persisted form of a probed clip
type infoRecord struct {
	Info    domain.Info `json:"info"`
	ModTime int64       `json:"modTime"`
}

// InfoStore persists probed clip metadata, the last viewed frame of each
// clip and the recent files list in BoltDB, with an LRU of raw records in
// front of it. An empty path runs in memory only.
type InfoStore struct {
	db *bolt.DB
	mu sync.Mutex // Protects memory cache

	cache *memory.Cache[string, []byte]
}

// NewInfoStore opens (creating if needed) the database at path
func NewInfoStore(path string) (*InfoStore, error) {
	if path == "" {
		// Memory-only mode (no persistence)
		return &InfoStore{cache: memory.New[string, []byte](memoryEntries * 8)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &InfoStore{db: db, cache: memory.New[string, []byte](memoryEntries)}, nil
}

// Close closes the database
func (s *InfoStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *InfoStore) get(bucket []byte, key string, dest any) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.Lock()
	if data, ok := s.cache.Get(cacheKey); ok {
		s.mu.Unlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.Unlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache.Add(cacheKey, data)
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *InfoStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache.Add(cacheKey, data)
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *InfoStore) delete(bucket []byte, key string) {
	s.mu.Lock()
	s.cache.Remove(string(bucket) + ":" + key)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

func (s *InfoStore) deletePrefix(bucket []byte, prefix string) {
	// Clear from memory cache
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for _, k := range s.cache.Keys() {
		if strings.HasPrefix(k, cachePrefix) {
			s.cache.Remove(k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	// Delete from BoltDB using prefix scan
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		// Collect first: deleting under a live cursor skips keys
		var keys [][]byte
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, slices.Clone(k))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Clip info ===

// GetInfo returns the stored info for a clip path
func (s *InfoStore) GetInfo(path string) (domain.Info, bool) {
	var rec infoRecord
	ok := s.get(bucketInfo, path, &rec)
	return rec.Info, ok
}

// SaveInfo stores the info of a clip together with the modification time
// of the file it was probed from
func (s *InfoStore) SaveInfo(path string, info domain.Info, modTime int64) error {
	return s.set(bucketInfo, path, infoRecord{Info: info, ModTime: modTime})
}

// IsValid reports whether stored info exists and is at least as new as
// modTime
func (s *InfoStore) IsValid(path string, modTime int64) bool {
	var rec infoRecord
	if !s.get(bucketInfo, path, &rec) {
		return false
	}
	return rec.ModTime >= modTime
}

// === Positions ===

// GetPosition returns the last frame viewed in a clip
func (s *InfoStore) GetPosition(path string) (frame.Number, bool) {
	var n frame.Number
	ok := s.get(bucketPositions, path, &n)
	return n, ok
}

// SavePosition remembers the frame being viewed in a clip
func (s *InfoStore) SavePosition(path string, n frame.Number) error {
	return s.set(bucketPositions, path, n)
}

// === Recent files ===

// Recent returns recently opened clips, newest first
func (s *InfoStore) Recent() []string {
	var paths []string
	s.get(bucketRecent, "list", &paths)
	return paths
}

// AddRecent moves path to the front of the recent list
func (s *InfoStore) AddRecent(path string) error {
	paths := s.Recent()
	if i := slices.Index(paths, path); i >= 0 {
		paths = slices.Delete(paths, i, i+1)
	}
	paths = slices.Insert(paths, 0, path)
	if len(paths) > MaxRecent {
		paths = paths[:MaxRecent]
	}
	return s.set(bucketRecent, "list", paths)
}

// === Invalidation ===

// InvalidatePath forgets the info and position of one clip
func (s *InfoStore) InvalidatePath(path string) {
	s.delete(bucketInfo, path)
	s.delete(bucketPositions, path)
}

// InvalidateDir forgets every clip under dir
func (s *InfoStore) InvalidateDir(dir string) {
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	s.deletePrefix(bucketInfo, prefix)
	s.deletePrefix(bucketPositions, prefix)
}

// InvalidateAll wipes every bucket
func (s *InfoStore) InvalidateAll() {
	s.mu.Lock()
	s.cache.Clear()
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	// Recreate every bucket empty
	s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if tx.Bucket(bucket) != nil {
				if err := tx.DeleteBucket(bucket); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}
