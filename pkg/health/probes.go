package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mercator-hq/bastion/pkg/cache"
)

// ProbeKeyPrefix prefixes the throwaway keys written by CacheProbe.
const ProbeKeyPrefix = "health_check_probe_"

// ErrCacheMismatch is returned when the cache does not give back what was written.
var ErrCacheMismatch = errors.New("cache did not return expected value")

var probeValue = []byte("ok")

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseProbe checks that the database answers a ping.
func DatabaseProbe(db Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

// CacheProbe writes a random key, reads it back, and compares the value.
// The key expires after ttl even if the delete fails.
func CacheProbe(c cache.Cache, ttl time.Duration) CheckFunc {
	return func(ctx context.Context) error {
		key := ProbeKeyPrefix + uuid.NewString()

		if err := c.Set(ctx, key, probeValue, ttl); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		defer c.Delete(context.WithoutCancel(ctx), key) //nolint:errcheck

		got, ok, err := c.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if !ok || string(got) != string(probeValue) {
			return ErrCacheMismatch
		}
		return nil
	}
}
