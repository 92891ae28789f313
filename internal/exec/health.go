package exec

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/logger"
)

// pingTimeout bounds a single health check.
const pingTimeout = 5 * time.Second

// healthChecker pings the database at a fixed interval. Check failures are
// converted by the dialect so callers see the same error kinds as for
// statement execution.
type healthChecker struct {
	db       *sql.DB
	dialect  *dialects.Dialect
	logger   logger.Logger
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	mu       sync.RWMutex
	lastErr  error
	lastPing time.Time
}

func newHealthChecker(db *sql.DB, d *dialects.Dialect, log logger.Logger, interval time.Duration) *healthChecker {
	return &healthChecker{
		db:       db,
		dialect:  d,
		logger:   log,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (h *healthChecker) start() {
	h.wg.Add(1)
	go h.run()
}

func (h *healthChecker) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.ping(context.Background())
		case <-h.stop:
			return
		}
	}
}

// ping performs one check and records its outcome.
func (h *healthChecker) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := h.db.PingContext(ctx)
	if err != nil {
		err = h.dialect.ConvertError(err, "")
	}

	h.mu.Lock()
	h.lastErr = err
	h.lastPing = time.Now()
	h.mu.Unlock()

	if err != nil {
		h.logger.Warn("database health check failed",
			"dialect", h.dialect.String(),
			"error", err,
			"interval", h.interval)
	} else {
		h.logger.Debug("database health check passed",
			"dialect", h.dialect.String())
	}
	return err
}

// shutdown stops the loop; it may be called more than once.
func (h *healthChecker) shutdown() {
	h.once.Do(func() {
		close(h.stop)
	})
	h.wg.Wait()
}

func (h *healthChecker) status() (time.Time, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastPing, h.lastErr
}

// WithHealthCheck pings the database every interval in the background
// until Close. A non-positive interval disables the checker.
func WithHealthCheck(interval time.Duration) Option {
	return func(e *Executor) { e.healthInterval = interval }
}

// Ping checks the database now, converting any failure with the dialect.
// When a health checker runs, the result is recorded as its latest check.
func (e *Executor) Ping(ctx context.Context) error {
	if e.health != nil {
		return e.health.ping(ctx)
	}
	if err := e.db.PingContext(ctx); err != nil {
		return e.dialect.ConvertError(err, "")
	}
	return nil
}

// Healthy reports whether the latest background check succeeded. Without
// a health checker it always reports true.
func (e *Executor) Healthy() bool {
	if e.health == nil {
		return true
	}
	_, err := e.health.status()
	return err == nil
}

// LastHealthCheck returns the time and error of the latest check. The time
// is zero when no check has run.
func (e *Executor) LastHealthCheck() (time.Time, error) {
	if e.health == nil {
		return time.Time{}, nil
	}
	return e.health.status()
}
