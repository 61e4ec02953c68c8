// Package app wires configuration into the stores, clients and servers
// every liftoff command needs.
package app

import (
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/artpar/liftoff/internal/clock"
	"github.com/artpar/liftoff/internal/config"
	"github.com/artpar/liftoff/internal/detail"
	"github.com/artpar/liftoff/internal/exporter"
	"github.com/artpar/liftoff/internal/favorites"
	"github.com/artpar/liftoff/internal/importer"
	"github.com/artpar/liftoff/internal/logging"
	"github.com/artpar/liftoff/internal/orchestrator"
	httpclient "github.com/artpar/liftoff/internal/protocol/http"
	"github.com/artpar/liftoff/internal/relay"
	"github.com/artpar/liftoff/internal/storage"
	"github.com/artpar/liftoff/internal/storage/sqlite"
)

// App is the main application container with dependency injection.
type App struct {
	config    config.Config
	logger    *log.Logger
	clock     clock.Clock
	transport http.RoundTripper

	kv        storage.Store
	ownsKV    bool
	favorites *favorites.Store
	details   *detail.Cache
	upstream  *httpclient.UpstreamClient
	fetcher   orchestrator.Fetcher
}

// Option is a function that configures the App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithClock sets the clock used by storage polling and the search debounce.
func WithClock(c clock.Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}

// WithStorage uses kv instead of opening the database in the data
// directory. The caller keeps ownership of kv.
func WithStorage(kv storage.Store) Option {
	return func(a *App) {
		a.kv = kv
	}
}

// WithHTTPTransport sets the round tripper for outgoing requests.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(a *App) {
		a.transport = rt
	}
}

// WithFetcher overrides the page fetcher chosen from configuration.
func WithFetcher(f orchestrator.Fetcher) Option {
	return func(a *App) {
		a.fetcher = f
	}
}

// New creates an App from cfg. It opens storage unless WithStorage was
// given; Close releases it.
func New(cfg config.Config, opts ...Option) (*App, error) {
	a := &App{
		config: cfg,
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.OrDiscard(a.logger)

	if a.kv == nil {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		kv, err := sqlite.New(cfg.DatabasePath(),
			sqlite.WithClock(a.clock),
			sqlite.WithLogger(a.logger.WithPrefix("storage")),
			sqlite.WithExternalPoll(cfg.ExternalPoll),
		)
		if err != nil {
			return nil, err
		}
		a.kv = kv
		a.ownsKV = true
	}

	a.favorites = favorites.New(a.kv, favorites.WithLogger(a.logger.WithPrefix("favorites")))
	a.details = detail.New(a.kv, a.logger.WithPrefix("detail"))

	a.upstream = httpclient.NewUpstreamClient(cfg.BaseURL, a.httpOptions()...)
	if a.fetcher == nil {
		if cfg.RelayURL != "" {
			a.fetcher = httpclient.NewClient(cfg.RelayURL, a.httpOptions()...)
		} else {
			a.fetcher = httpclient.NewDirectFetcher(a.upstream, cfg.HasMorePolicy())
		}
	}

	return a, nil
}

func (a *App) httpOptions() []httpclient.Option {
	opts := []httpclient.Option{
		httpclient.WithTimeout(a.config.RequestTimeout),
		httpclient.WithLogger(a.logger.WithPrefix("http")),
	}
	if a.config.RateLimit > 0 {
		opts = append(opts, httpclient.WithRateLimit(a.config.RateLimit))
	}
	if a.transport != nil {
		opts = append(opts, httpclient.WithTransport(a.transport))
	}
	return opts
}

// Config returns the application configuration.
func (a *App) Config() config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *log.Logger {
	return a.logger
}

// Storage returns the key/value store.
func (a *App) Storage() storage.Store {
	return a.kv
}

// Favorites returns the favorites store.
func (a *App) Favorites() *favorites.Store {
	return a.favorites
}

// Details returns the launch detail cache.
func (a *App) Details() *detail.Cache {
	return a.details
}

// Upstream returns the client for the public launch service.
func (a *App) Upstream() *httpclient.UpstreamClient {
	return a.upstream
}

// Fetcher returns the page fetcher: the relay client when relay_url is
// set, otherwise the upstream directly.
func (a *App) Fetcher() orchestrator.Fetcher {
	return a.fetcher
}

// Exporters returns the favorites export registry.
func (a *App) Exporters() *exporter.Registry {
	return exporter.DefaultRegistry(a.config.BaseURL)
}

// Importers returns the favorites import registry.
func (a *App) Importers() *importer.Registry {
	return importer.DefaultRegistry()
}

// NewOrchestrator creates an orchestrator configured from the app.
func (a *App) NewOrchestrator(opts ...orchestrator.Option) *orchestrator.Orchestrator {
	base := []orchestrator.Option{
		orchestrator.WithClock(a.clock),
		orchestrator.WithPageSize(a.config.PageSize),
		orchestrator.WithSearchDelay(a.config.SearchDelay),
		orchestrator.WithLogger(a.logger.WithPrefix("orchestrator")),
	}
	return orchestrator.New(a.fetcher, append(base, opts...)...)
}

// NewRelay creates the relay server configured from the app.
func (a *App) NewRelay(opts ...relay.ConfigOption) *relay.Server {
	base := []relay.ConfigOption{
		relay.WithListenAddr(a.config.ListenAddr),
		relay.WithMaxConns(a.config.MaxConns),
		relay.WithPolicy(a.config.HasMorePolicy()),
		relay.WithLogger(a.logger.WithPrefix("relay")),
	}
	return relay.NewServer(a.upstream, a.favorites, append(base, opts...)...)
}

// Close releases the stores.
func (a *App) Close() error {
	if err := a.favorites.Close(); err != nil {
		return err
	}
	if a.ownsKV {
		return a.kv.Close()
	}
	return nil
}
