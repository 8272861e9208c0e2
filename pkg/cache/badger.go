package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"
)

// incrRetries bounds optimistic transaction retries in Incr.
const incrRetries = 128

// BadgerCache implements Cache on an embedded badger database.
// Entries carry a native badger TTL, so expiry survives restarts, and the
// value log is garbage collected on a cron schedule.
type BadgerCache struct {
	db     *badger.DB
	cron   *cron.Cron
	logger *slog.Logger

	discardRatio float64

	closeOnce sync.Once
}

// BadgerConfig configures the badger backend.
type BadgerConfig struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory. Used by tests.
	InMemory bool

	// GCSchedule is a cron expression for value-log GC. Empty disables GC.
	// Default: "" (disabled)
	GCSchedule string

	// GCDiscardRatio is passed to RunValueLogGC.
	// Default: 0.5
	GCDiscardRatio float64

	// Logger receives GC results. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewBadgerCache opens a badger-backed cache.
func NewBadgerCache(cfg BadgerConfig) (*BadgerCache, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger cache path cannot be empty")
	}
	if cfg.GCDiscardRatio <= 0 {
		cfg.GCDiscardRatio = 0.5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // suppress badger internal logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}

	c := &BadgerCache{
		db:           db,
		logger:       cfg.Logger,
		discardRatio: cfg.GCDiscardRatio,
	}

	if cfg.GCSchedule != "" && !cfg.InMemory {
		c.cron = cron.New()
		if _, err := c.cron.AddFunc(cfg.GCSchedule, c.runGC); err != nil {
			db.Close()
			return nil, fmt.Errorf("invalid gc schedule %q: %w", cfg.GCSchedule, err)
		}
		c.cron.Start()
	}

	return c, nil
}

// Get returns the value for key.
func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, c.wrap("get", err)
	}
	return out, true, nil
}

// Set stores value under key.
func (c *BadgerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(newEntry(key, value, ttl))
	})
	return c.wrap("set", err)
}

// Add stores value only if key is absent or expired.
func (c *BadgerCache) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	added := false
	err := c.retry(func(txn *badger.Txn) error {
		added = false
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		added = true
		return txn.SetEntry(newEntry(key, value, ttl))
	})
	if err != nil {
		return false, c.wrap("add", err)
	}
	return added, nil
}

// Incr atomically increments the counter under key. Concurrent increments
// conflict at commit and are retried.
func (c *BadgerCache) Incr(ctx context.Context, key string, ttl time.Duration) (Counter, error) {
	var result Counter
	err := c.retry(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			result = Counter{Value: 1, ExpiresAt: expiry(time.Now(), ttl)}
			return txn.SetEntry(newEntry(key, []byte("1"), ttl))
		}
		if err != nil {
			return err
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		n, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrNotCounter, key)
		}
		n++

		// Keep the original deadline: the window never slides.
		entry := badger.NewEntry([]byte(key), []byte(strconv.FormatInt(n, 10)))
		var deadline time.Time
		if exp := item.ExpiresAt(); exp > 0 {
			deadline = time.Unix(int64(exp), 0)
			remaining := time.Until(deadline)
			if remaining <= 0 {
				// Expired between Get and now; badger will hide it shortly.
				remaining = time.Second
			}
			entry = entry.WithTTL(remaining)
		}
		result = Counter{Value: n, ExpiresAt: deadline}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return Counter{}, c.wrap("incr", err)
	}
	return result, nil
}

// Delete removes key.
func (c *BadgerCache) Delete(ctx context.Context, key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return c.wrap("delete", err)
}

// Ping reports whether the database is open.
func (c *BadgerCache) Ping(ctx context.Context) error {
	if c.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// Close stops GC and closes the database.
func (c *BadgerCache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.cron != nil {
			<-c.cron.Stop().Done()
		}
		err = c.db.Close()
	})
	return err
}

// retry runs fn in an update transaction, retrying on write conflicts.
func (c *BadgerCache) retry(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < incrRetries; i++ {
		err = c.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// runGC reclaims value-log space until badger reports nothing to rewrite.
func (c *BadgerCache) runGC() {
	rewritten := 0
	for {
		if err := c.db.RunValueLogGC(c.discardRatio); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				c.logger.Warn("cache value log gc failed", "error", err)
			}
			break
		}
		rewritten++
	}
	c.logger.Debug("cache value log gc complete", "rewritten", rewritten)
}

func (c *BadgerCache) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	if errors.Is(err, ErrNotCounter) {
		return err
	}
	return fmt.Errorf("cache %s: %w", op, err)
}

func newEntry(key string, value []byte, ttl time.Duration) *badger.Entry {
	e := badger.NewEntry([]byte(key), value)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return e
}
