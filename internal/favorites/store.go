// Package favorites persists the user's favorite launches.
//
// Favorites are full launch snapshots stored as one JSON array under a
// single storage key, so a favorite survives even when the launch no
// longer appears in any fetched page.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/logging"
	"github.com/artpar/liftoff/internal/notify"
	"github.com/artpar/liftoff/internal/storage"
)

// Key is the storage key holding the favorites array.
const Key = "spacex_favorites"

// Common errors.
var (
	ErrStoreClosed = errors.New("favorites store is closed")
)

// Change is broadcast after the favorites list changed.
type Change struct {
	Count    int  `json:"count"`
	External bool `json:"external,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Store is the favorites store. Every mutation is a read-modify-persist
// cycle under one mutex.
type Store struct {
	mu     sync.Mutex
	kv     storage.Store
	logger *log.Logger
	closed bool

	changes     *notify.Hub[Change]
	cancelWatch func()
	wg          sync.WaitGroup
}

// New creates a favorites store on kv. The caller keeps ownership of kv
// and must close the favorites store before closing it.
func New(kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		changes: notify.NewHub[Change](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)

	watch, cancel := kv.Watch()
	s.cancelWatch = cancel
	s.wg.Add(1)
	go s.forward(watch)

	return s
}

// forward turns storage changes touching the favorites key, or made by
// another process, into favorites changes.
func (s *Store) forward(watch <-chan storage.Change) {
	defer s.wg.Done()

	for c := range watch {
		if !c.External && c.Key != Key {
			continue
		}
		items, err := s.List(context.Background())
		if err != nil {
			continue
		}
		s.changes.Publish(Change{Count: len(items), External: c.External})
	}
}

// List returns the stored favorites. Absent or corrupt data yields an
// empty list; only storage failures are returned as errors.
func (s *Store) List(ctx context.Context) ([]core.Launch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.read(ctx)
}

// Load returns the stored favorites, or an empty list when they cannot
// be read.
func (s *Store) Load(ctx context.Context) []core.Launch {
	items, err := s.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load favorites", "err", err)
		return []core.Launch{}
	}
	return items
}

// IsFavorite reports whether the launch with flight number is a favorite.
func (s *Store) IsFavorite(ctx context.Context, flight int) bool {
	return indexOf(s.Load(ctx), flight) >= 0
}

// Count returns the number of favorites.
func (s *Store) Count(ctx context.Context) int {
	return len(s.Load(ctx))
}

// Add stores a snapshot of launch. It returns false when the launch was
// already a favorite.
func (s *Store) Add(ctx context.Context, launch core.Launch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrStoreClosed
	}

	items, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	if indexOf(items, launch.FlightNumber) >= 0 {
		return false, nil
	}

	items = append(items, launch.Clone())
	if err := s.write(ctx, items); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the favorite with flight number. It returns false when
// it was not a favorite.
func (s *Store) Remove(ctx context.Context, flight int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrStoreClosed
	}

	items, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(items, flight)
	if i < 0 {
		return false, nil
	}

	items = append(items[:i], items[i+1:]...)
	if err := s.write(ctx, items); err != nil {
		return false, err
	}
	return true, nil
}

// Toggle adds launch if absent and removes it if present. It returns the
// new membership.
func (s *Store) Toggle(ctx context.Context, launch core.Launch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrStoreClosed
	}

	items, err := s.read(ctx)
	if err != nil {
		return false, err
	}

	if i := indexOf(items, launch.FlightNumber); i >= 0 {
		items = append(items[:i], items[i+1:]...)
		if err := s.write(ctx, items); err != nil {
			return false, err
		}
		return false, nil
	}

	items = append(items, launch.Clone())
	if err := s.write(ctx, items); err != nil {
		return false, err
	}
	return true, nil
}

// BulkRemove removes every favorite whose flight number is in flights
// with a single write and returns how many were removed.
func (s *Store) BulkRemove(ctx context.Context, flights []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	items, err := s.read(ctx)
	if err != nil {
		return 0, err
	}

	remove := make(map[int]struct{}, len(flights))
	for _, f := range flights {
		remove[f] = struct{}{}
	}

	kept := items[:0]
	for _, l := range items {
		if _, ok := remove[l.FlightNumber]; !ok {
			kept = append(kept, l)
		}
	}

	removed := len(items) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.write(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Clear removes all favorites.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	return s.write(ctx, []core.Launch{})
}

// Subscribe returns a channel receiving a Change after every write from
// this process and every external write. The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan Change, func()) {
	return s.changes.Subscribe()
}

// Close stops change delivery. It does not close the underlying storage.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancelWatch()
	s.wg.Wait()
	s.changes.Close()
	return nil
}

func (s *Store) read(ctx context.Context) ([]core.Launch, error) {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return []core.Launch{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}

	var items []core.Launch
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("discarding unreadable favorites",
			"err", fmt.Errorf("%w: %v", storage.ErrCorrupt, err))
		return []core.Launch{}, nil
	}
	if items == nil {
		items = []core.Launch{}
	}
	return items, nil
}

func (s *Store) write(ctx context.Context, items []core.Launch) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	return nil
}

func indexOf(items []core.Launch, flight int) int {
	for i, l := range items {
		if l.FlightNumber == flight {
			return i
		}
	}
	return -1
}
