package httpcache

import (
	"errors"
	"fmt"
	"os"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
)

// KeyIndex is a bloom filter over the cache keys, persisted through a
// memory-mapped sidecar file so a warm start does not rescan the database.
// A negative answer means the key is certainly not cached. A stale sidecar
// can only produce false negatives, which cost a refetch.
type KeyIndex struct {
	mu        sync.Mutex
	filter    *bloom.BloomFilter
	file      *os.File
	mmap      mmap.MMap
	path      string
	count     uint64 // keys added since last sync
	syncEvery uint64
	lastErr   error
}

// OpenKeyIndex maps the sidecar at path, creating it if needed. The boolean
// result is true when an existing filter with the same parameters was
// loaded; otherwise the index starts empty and should be rebuilt.
func OpenKeyIndex(path string, capacity uint, fpRate float64) (*KeyIndex, bool, error) {
	fresh := bloom.NewWithEstimates(capacity, fpRate)
	data, err := fresh.MarshalBinary()
	if err != nil {
		return nil, false, fmt.Errorf("marshal bloom filter: %w", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open index file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, false, fmt.Errorf("stat index file: %w", err)
	}

	sized := info.Size() == int64(len(data))
	if !sized {
		if err := file.Truncate(int64(len(data))); err != nil {
			_ = file.Close()
			return nil, false, fmt.Errorf("truncate index file: %w", err)
		}
	}

	mapped, err := mmap.MapRegion(file, len(data), mmap.RDWR, 0, 0)
	if err != nil {
		_ = file.Close()
		return nil, false, fmt.Errorf("mmap index file: %w", err)
	}

	idx := &KeyIndex{
		file:      file,
		mmap:      mapped,
		path:      path,
		syncEvery: 100,
	}

	if sized {
		var stored bloom.BloomFilter
		if err := stored.UnmarshalBinary(mapped); err == nil &&
			stored.Cap() == fresh.Cap() && stored.K() == fresh.K() {
			idx.filter = &stored
			return idx, true, nil
		}
	}

	copy(mapped, data)
	idx.filter = fresh
	return idx, false, nil
}

// Add records key.
func (k *KeyIndex) Add(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.filter.AddString(key)
	k.count++

	if k.count >= k.syncEvery {
		// Periodic sync is best-effort; Close reports the failure.
		if err := k.syncLocked(); err != nil {
			k.lastErr = err
		}
	}
}

// MayContain reports whether key may have been added.
func (k *KeyIndex) MayContain(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.filter.TestString(key)
}

// Reset empties the index and persists the empty filter.
func (k *KeyIndex) Reset() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.filter.ClearAll()
	return k.syncLocked()
}

// Sync persists the filter to the sidecar file.
func (k *KeyIndex) Sync() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.syncLocked()
}

// syncLocked must be called with mu held.
func (k *KeyIndex) syncLocked() error {
	data, err := k.filter.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal bloom filter: %w", err)
	}
	if len(data) != len(k.mmap) {
		return fmt.Errorf("filter data (%d) does not match mmap size (%d)", len(data), len(k.mmap))
	}
	copy(k.mmap, data)

	if err := k.mmap.Flush(); err != nil {
		return fmt.Errorf("flush mmap: %w", err)
	}
	k.count = 0
	return nil
}

// Close syncs pending keys and releases the mapping.
func (k *KeyIndex) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var errs []error
	if k.lastErr != nil {
		errs = append(errs, k.lastErr)
	}

	if k.mmap != nil {
		if k.count > 0 {
			if err := k.syncLocked(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := k.mmap.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		k.mmap = nil
	}

	if k.file != nil {
		if err := k.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close file: %w", err))
		}
		k.file = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close key index %s: %w", k.path, errors.Join(errs...))
	}
	return nil
}
