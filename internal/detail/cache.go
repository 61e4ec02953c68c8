// Package detail caches the launch last opened for detail viewing so
// the detail screen can render without a network round trip.
package detail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/logging"
	"github.com/artpar/liftoff/internal/storage"
)

// KeyPrefix prefixes every cached launch key.
const KeyPrefix = "launch_"

// Key returns the storage key for a flight number.
func Key(flight int) string {
	return KeyPrefix + strconv.Itoa(flight)
}

// Cache is a write-through cache of launches keyed by flight number.
// Entries never expire.
type Cache struct {
	kv     storage.Store
	logger *log.Logger
}

// New creates a cache on kv. A nil logger discards.
func New(kv storage.Store, logger *log.Logger) *Cache {
	return &Cache{kv: kv, logger: logging.OrDiscard(logger)}
}

// Put stores launch under its flight number.
func (c *Cache) Put(ctx context.Context, launch core.Launch) error {
	data, err := json.Marshal(launch)
	if err != nil {
		return fmt.Errorf("failed to encode launch %d: %w", launch.FlightNumber, err)
	}
	if err := c.kv.Set(ctx, Key(launch.FlightNumber), string(data)); err != nil {
		return fmt.Errorf("failed to cache launch %d: %w", launch.FlightNumber, err)
	}
	return nil
}

// Get returns the cached launch. Missing, unreadable and corrupt entries
// are all reported as absent; corrupt ones are also removed.
func (c *Cache) Get(ctx context.Context, flight int) (core.Launch, bool) {
	raw, err := c.kv.Get(ctx, Key(flight))
	if errors.Is(err, storage.ErrNotFound) {
		return core.Launch{}, false
	}
	if err != nil {
		c.logger.Warn("failed to read cached launch", "flight", flight, "err", err)
		return core.Launch{}, false
	}

	var launch core.Launch
	if err := json.Unmarshal([]byte(raw), &launch); err != nil {
		c.logger.Warn("discarding unreadable cached launch", "flight", flight,
			"err", fmt.Errorf("%w: %v", storage.ErrCorrupt, err))
		if err := c.kv.Delete(ctx, Key(flight)); err != nil {
			c.logger.Warn("failed to remove cached launch", "flight", flight, "err", err)
		}
		return core.Launch{}, false
	}
	return launch, true
}
