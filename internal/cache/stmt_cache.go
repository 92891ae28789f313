// Package cache holds prepared statements for translated SQL, keyed by the
// dialect that rendered them.
package cache

import (
	"container/list"
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCapacity is the default maximum number of cached prepared statements.
	DefaultCapacity = 1000
)

// Key identifies a cached statement. The same SQL text rendered for two
// dialects is cached twice.
type Key struct {
	Dialect string
	SQL     string
}

func (k Key) String() string { return k.Dialect + "\x00" + k.SQL }

// Preparer prepares statements; *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// StmtCache stores prepared statements with LRU eviction. Pinned statements
// are never evicted.
type StmtCache struct {
	mu       sync.Mutex
	capacity int
	items    map[Key]*list.Element
	lruList  *list.List
	flights  singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type cacheEntry struct {
	key    Key
	stmt   *sql.Stmt
	pinned bool
}

// New creates a statement cache; a non-positive capacity selects
// DefaultCapacity.
func New(capacity int) *StmtCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &StmtCache{
		capacity: capacity,
		items:    make(map[Key]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Get returns the statement cached under key and marks it most recently used.
func (sc *StmtCache) Get(key Key) (*sql.Stmt, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	elem, exists := sc.items[key]
	if !exists {
		sc.misses.Add(1)
		return nil, false
	}
	sc.lruList.MoveToFront(elem)
	sc.hits.Add(1)
	return elem.Value.(*cacheEntry).stmt, true
}

// Set stores stmt under key, closing the statement it replaces. When the
// cache is full the least recently used unpinned statement is evicted.
func (sc *StmtCache) Set(key Key, stmt *sql.Stmt) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if elem, exists := sc.items[key]; exists {
		sc.lruList.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		if entry.stmt != stmt {
			_ = entry.stmt.Close()
			entry.stmt = stmt
		}
		return
	}

	if sc.lruList.Len() >= sc.capacity {
		sc.evictOldest()
	}
	sc.items[key] = sc.lruList.PushFront(&cacheEntry{key: key, stmt: stmt})
}

// Prepare returns the cached statement for key, preparing it with p on a
// miss. Concurrent misses for the same key share one prepare call.
func (sc *StmtCache) Prepare(ctx context.Context, p Preparer, key Key) (*sql.Stmt, error) {
	if stmt, ok := sc.Get(key); ok {
		return stmt, nil
	}
	v, err, _ := sc.flights.Do(key.String(), func() (any, error) {
		sc.mu.Lock()
		elem, exists := sc.items[key]
		sc.mu.Unlock()
		if exists {
			return elem.Value.(*cacheEntry).stmt, nil
		}
		stmt, err := p.PrepareContext(ctx, key.SQL)
		if err != nil {
			return nil, err
		}
		sc.Set(key, stmt)
		return stmt, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.Stmt), nil
}

// Remove closes and drops the statement cached under key.
func (sc *StmtCache) Remove(key Key) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	elem, exists := sc.items[key]
	if !exists {
		return false
	}
	sc.lruList.Remove(elem)
	delete(sc.items, key)
	_ = elem.Value.(*cacheEntry).stmt.Close()
	return true
}

// Pin protects the statement cached under key from eviction. It reports
// whether the key is cached.
func (sc *StmtCache) Pin(key Key) bool { return sc.setPinned(key, true) }

// Unpin makes the statement under key evictable again.
func (sc *StmtCache) Unpin(key Key) bool { return sc.setPinned(key, false) }

// IsPinned reports whether key is cached and pinned.
func (sc *StmtCache) IsPinned(key Key) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	elem, exists := sc.items[key]
	return exists && elem.Value.(*cacheEntry).pinned
}

func (sc *StmtCache) setPinned(key Key, pinned bool) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	elem, exists := sc.items[key]
	if !exists {
		return false
	}
	elem.Value.(*cacheEntry).pinned = pinned
	return true
}

// evictOldest removes and closes the least recently used unpinned
// statement. When every entry is pinned the cache grows past capacity.
// Must be called with lock held.
func (sc *StmtCache) evictOldest() {
	for elem := sc.lruList.Back(); elem != nil; elem = elem.Prev() {
		entry := elem.Value.(*cacheEntry)
		if entry.pinned {
			continue
		}
		sc.lruList.Remove(elem)
		delete(sc.items, entry.key)
		_ = entry.stmt.Close()
		sc.evictions.Add(1)
		return
	}
}

// Clear closes and removes every cached statement, pinned ones included.
func (sc *StmtCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for elem := sc.lruList.Front(); elem != nil; elem = elem.Next() {
		_ = elem.Value.(*cacheEntry).stmt.Close()
	}
	sc.items = make(map[Key]*list.Element, sc.capacity)
	sc.lruList.Init()
}

// Stats holds cache performance metrics.
type Stats struct {
	Size      int     // Current number of cached statements.
	Capacity  int     // Maximum capacity.
	Hits      uint64  // Number of successful cache lookups.
	Misses    uint64  // Number of cache misses.
	Evictions uint64  // Number of evicted statements.
	HitRate   float64 // Cache hit rate (hits / total requests).
}

// Stats returns cache statistics.
func (sc *StmtCache) Stats() Stats {
	sc.mu.Lock()
	size := sc.lruList.Len()
	sc.mu.Unlock()

	hits := sc.hits.Load()
	misses := sc.misses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Size:      size,
		Capacity:  sc.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: sc.evictions.Load(),
		HitRate:   hitRate,
	}
}
