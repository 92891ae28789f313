package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// setupTestDB creates a mock database for testing.
func setupTestDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := registerMockDriver()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// createTestStmt creates a prepared statement for testing.
func createTestStmt(t testing.TB, db *sql.DB, query string) *sql.Stmt {
	t.Helper()
	stmt, err := db.Prepare(query)
	require.NoError(t, err)
	return stmt
}

func pg(sql string) Key { return Key{Dialect: "postgresql 16.0.0", SQL: sql} }

// countingPreparer counts prepare calls reaching the database.
type countingPreparer struct {
	db    *sql.DB
	calls atomic.Int64
}

func (p *countingPreparer) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	p.calls.Add(1)
	return p.db.PrepareContext(ctx, query)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		expected int
	}{
		{"positive capacity", 100, 100},
		{"zero capacity defaults to default", 0, DefaultCapacity},
		{"negative capacity defaults to default", -10, DefaultCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := New(tt.capacity)
			require.NotNil(t, cache)
			assert.Equal(t, tt.expected, cache.Stats().Capacity)
			assert.Equal(t, 0, cache.Stats().Size)
		})
	}
}

func TestStmtCache_GetSet(t *testing.T) {
	db := setupTestDB(t)
	cache := New(0)

	stmt, found := cache.Get(pg("select 1"))
	assert.Nil(t, stmt)
	assert.False(t, found)

	testStmt := createTestStmt(t, db, "select 1")
	cache.Set(pg("select 1"), testStmt)

	stmt, found = cache.Get(pg("select 1"))
	assert.True(t, found)
	assert.Equal(t, testStmt, stmt)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestStmtCache_KeyedByDialect(t *testing.T) {
	db := setupTestDB(t)
	cache := New(0)

	mysql := Key{Dialect: "mysql 8.0.0", SQL: "select 1"}
	cache.Set(pg("select 1"), createTestStmt(t, db, "select 1"))

	_, found := cache.Get(mysql)
	assert.False(t, found, "same text from another dialect must not hit")
}

func TestStmtCache_LRUEviction(t *testing.T) {
	db := setupTestDB(t)
	cache := New(3)

	for i := 1; i <= 3; i++ {
		q := fmt.Sprintf("select %d", i)
		cache.Set(pg(q), createTestStmt(t, db, q))
	}

	// Touch the oldest so the second becomes least recently used.
	_, found := cache.Get(pg("select 1"))
	require.True(t, found)

	cache.Set(pg("select 4"), createTestStmt(t, db, "select 4"))

	stats := cache.Stats()
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, uint64(1), stats.Evictions)

	_, found = cache.Get(pg("select 2"))
	assert.False(t, found)
	for _, q := range []string{"select 1", "select 3", "select 4"} {
		_, found = cache.Get(pg(q))
		assert.True(t, found, q)
	}
}

func TestStmtCache_UpdateExisting(t *testing.T) {
	db := setupTestDB(t)
	cache := New(0)

	cache.Set(pg("q"), createTestStmt(t, db, "select 1"))
	stmt2 := createTestStmt(t, db, "select 2")
	cache.Set(pg("q"), stmt2)

	assert.Equal(t, 1, cache.Stats().Size)
	retrieved, found := cache.Get(pg("q"))
	require.True(t, found)
	assert.Equal(t, stmt2, retrieved)
}

func TestStmtCache_Pin(t *testing.T) {
	db := setupTestDB(t)
	cache := New(2)

	cache.Set(pg("select 1"), createTestStmt(t, db, "select 1"))
	assert.True(t, cache.Pin(pg("select 1")))
	assert.True(t, cache.IsPinned(pg("select 1")))
	assert.False(t, cache.Pin(pg("missing")))

	// The pinned statement is the oldest but survives both evictions.
	for i := 2; i <= 4; i++ {
		q := fmt.Sprintf("select %d", i)
		cache.Set(pg(q), createTestStmt(t, db, q))
	}
	_, found := cache.Get(pg("select 1"))
	assert.True(t, found)
	assert.Equal(t, uint64(2), cache.Stats().Evictions)

	assert.True(t, cache.Unpin(pg("select 1")))
	assert.False(t, cache.IsPinned(pg("select 1")))
	assert.True(t, cache.Unpin(pg("select 1")), "unpinning twice still reports a cached key")
}

func TestStmtCache_AllPinnedGrows(t *testing.T) {
	db := setupTestDB(t)
	cache := New(1)

	cache.Set(pg("select 1"), createTestStmt(t, db, "select 1"))
	cache.Pin(pg("select 1"))
	cache.Set(pg("select 2"), createTestStmt(t, db, "select 2"))

	stats := cache.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Zero(t, stats.Evictions)
}

func TestStmtCache_Prepare(t *testing.T) {
	p := &countingPreparer{db: setupTestDB(t)}
	cache := New(0)
	ctx := context.Background()

	first, err := cache.Prepare(ctx, p, pg("select $1"))
	require.NoError(t, err)
	second, err := cache.Prepare(ctx, p, pg("select $1"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), p.calls.Load())

	_, err = cache.Prepare(ctx, p, pg("select broken"))
	require.ErrorIs(t, err, errPrepare)
	_, found := cache.Get(pg("select broken"))
	assert.False(t, found, "failed prepares are not cached")
}

func TestStmtCache_PrepareConcurrent(t *testing.T) {
	p := &countingPreparer{db: setupTestDB(t)}
	cache := New(0)

	var g errgroup.Group
	stmts := make([]*sql.Stmt, 32)
	for i := range stmts {
		g.Go(func() error {
			stmt, err := cache.Prepare(context.Background(), p, pg("select * from accounts where id = $1"))
			stmts[i] = stmt
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), p.calls.Load())
	for _, s := range stmts {
		assert.Same(t, stmts[0], s)
	}
}

func TestStmtCache_Remove(t *testing.T) {
	db := setupTestDB(t)
	cache := New(0)

	cache.Set(pg("select 1"), createTestStmt(t, db, "select 1"))
	assert.True(t, cache.Remove(pg("select 1")))
	assert.False(t, cache.Remove(pg("select 1")))
	assert.Equal(t, 0, cache.Stats().Size)
}

func TestStmtCache_Clear(t *testing.T) {
	db := setupTestDB(t)
	cache := New(0)

	for i := 1; i <= 5; i++ {
		q := fmt.Sprintf("select %d", i)
		cache.Set(pg(q), createTestStmt(t, db, q))
	}
	cache.Pin(pg("select 3"))
	cache.Clear()

	assert.Equal(t, 0, cache.Stats().Size)
	_, found := cache.Get(pg("select 3"))
	assert.False(t, found)
}

func TestStmtCache_Stats(t *testing.T) {
	db := setupTestDB(t)
	cache := New(2)

	stats := cache.Stats()
	assert.Equal(t, 2, stats.Capacity)
	assert.Equal(t, 0.0, stats.HitRate)

	cache.Set(pg("select 1"), createTestStmt(t, db, "select 1"))
	_, _ = cache.Get(pg("nonexistent"))
	_, _ = cache.Get(pg("select 1"))

	stats = cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)

	cache.Set(pg("select 2"), createTestStmt(t, db, "select 2"))
	cache.Set(pg("select 3"), createTestStmt(t, db, "select 3"))

	stats = cache.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, uint64(1), stats.Evictions)
}

func TestStmtCache_ConcurrentEviction(t *testing.T) {
	db := setupTestDB(t)
	cache := New(10)

	const goroutines = 5
	const operations = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < operations; i++ {
				q := fmt.Sprintf("select %d", i)
				stmt, err := db.Prepare(q)
				if err != nil {
					return
				}
				cache.Set(Key{Dialect: fmt.Sprint(id), SQL: q}, stmt)
			}
		}(g)
	}
	wg.Wait()

	stats := cache.Stats()
	assert.LessOrEqual(t, stats.Size, 10)
	assert.Greater(t, stats.Evictions, uint64(0))
}

func BenchmarkStmtCache_Get_Hit(b *testing.B) {
	db := setupTestDB(b)
	cache := New(0)
	cache.Set(pg("select 1"), createTestStmt(b, db, "select 1"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Get(pg("select 1"))
	}
}

func BenchmarkStmtCache_Parallel_Prepare(b *testing.B) {
	p := &countingPreparer{db: setupTestDB(b)}
	cache := New(100)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = cache.Prepare(context.Background(), p, pg(fmt.Sprintf("select %d", i%200)))
			i++
		}
	})
}
