// Package sqlite implements storage.Store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/artpar/liftoff/internal/clock"
	"github.com/artpar/liftoff/internal/logging"
	"github.com/artpar/liftoff/internal/notify"
	"github.com/artpar/liftoff/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for timestamps and the external poller.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithExternalPoll enables detection of writes made by other processes
// sharing the database file. Every interval the store compares
// PRAGMA data_version and emits an External change when it moved.
func WithExternalPoll(interval time.Duration) Option {
	return func(s *Store) {
		s.pollInterval = interval
	}
}

// Store implements storage.Store using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sqlx.DB
	closed bool

	clock        clock.Clock
	logger       *log.Logger
	pollInterval time.Duration
	ticker       *clock.Ticker
	done         chan struct{}
	wg           sync.WaitGroup
	dataVersion  int64

	watchers *notify.Hub[storage.Change]
}

// New opens (creating if needed) the database at dbPath and applies
// pending migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	return open(dsn, opts)
}

// NewInMemory creates a new in-memory store (useful for testing).
func NewInMemory(opts ...Option) (*Store, error) {
	return open(":memory:", opts)
}

func open(dsn string, opts []Option) (*Store, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database: %w", err)
	}

	// One connection keeps :memory: databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize storage database: %w", err)
	}

	s := &Store{
		db:       db,
		clock:    clock.Real(),
		done:     make(chan struct{}),
		watchers: notify.NewHub[storage.Change](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)

	if s.pollInterval > 0 {
		if err := s.db.Get(&s.dataVersion, "PRAGMA data_version"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to read data version: %w", err)
		}
		s.ticker = s.clock.NewTicker(s.pollInterval)
		s.wg.Add(1)
		go s.poll()
	}

	return s, nil
}

func migrate(db *sqlx.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return fmt.Errorf("setting dialect for migrations: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", storage.ErrStoreClosed
	}

	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, nil
}

// Set writes value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.clock.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}

	s.watchers.Publish(storage.Change{Key: key})
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.watchers.Publish(storage.Change{Key: key})
	}
	return nil
}

// Watch subscribes to store changes.
func (s *Store) Watch() (<-chan storage.Change, func()) {
	return s.watchers.Subscribe()
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.watchers.Close()
	return s.db.Close()
}

func (s *Store) poll() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.checkExternal()
		}
	}
}

// checkExternal emits an External change when another connection
// committed since the last check. Our own commits do not move
// data_version on this connection.
func (s *Store) checkExternal() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	var version int64
	if err := s.db.Get(&version, "PRAGMA data_version"); err != nil {
		s.logger.Warn("data version check failed", "err", err)
		return
	}
	if version == s.dataVersion {
		return
	}
	s.dataVersion = version
	s.logger.Debug("external storage write detected", "data_version", version)
	s.watchers.Publish(storage.Change{External: true})
}
