// Package orchestrator connects user intents (search edits, sort
// changes, scrolling) to the pagination machine and the fetch client.
//
// All state lives on one event-loop goroutine started by Run. Public
// methods may be called from any goroutine; they post closures to the
// loop, so intents are applied strictly in the order they arrive.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/artpar/liftoff/internal/clock"
	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/debounce"
	"github.com/artpar/liftoff/internal/logging"
	"github.com/artpar/liftoff/internal/notify"
	"github.com/artpar/liftoff/internal/pagination"
	httpclient "github.com/artpar/liftoff/internal/protocol/http"
)

// DefaultSearchDelay is the quiet period before a search edit applies.
const DefaultSearchDelay = 500 * time.Millisecond

// ErrAlreadyRunning is returned by Run when called twice.
var ErrAlreadyRunning = errors.New("orchestrator already running")

// Fetcher fetches one page of launches.
type Fetcher interface {
	FetchPage(ctx context.Context, req core.PageRequest) (core.Page, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock driving the search debounce.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithSearchDelay sets the search debounce delay.
func WithSearchDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.searchDelay = d
	}
}

// WithPageSize sets the page size.
func WithPageSize(n int) Option {
	return func(o *Orchestrator) {
		o.pageSize = n
	}
}

// WithInitialFilters sets the filters used by Start.
func WithInitialFilters(f core.Filters) Option {
	return func(o *Orchestrator) {
		o.initial = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// OnFilterChange registers a callback invoked on the loop goroutine
// every time the active filters change.
func OnFilterChange(fn func(core.Filters)) Option {
	return func(o *Orchestrator) {
		o.onFilterChange = fn
	}
}

// Orchestrator drives the launch list.
type Orchestrator struct {
	fetcher        Fetcher
	clock          clock.Clock
	searchDelay    time.Duration
	pageSize       int
	initial        core.Filters
	logger         *log.Logger
	onFilterChange func(core.Filters)

	// Owned by the loop goroutine.
	machine *pagination.Machine
	runCtx  context.Context

	search  *debounce.Debouncer[string]
	events  chan func()
	done    chan struct{}
	started sync.Once
	ran     bool
	runMu   sync.Mutex

	mu   sync.Mutex
	last pagination.Snapshot

	updates   *notify.Hub[pagination.Snapshot]
	updatesCh <-chan pagination.Snapshot
}

// New creates an orchestrator. Nothing is fetched until Start.
func New(fetcher Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		clock:       clock.Real(),
		searchDelay: DefaultSearchDelay,
		pageSize:    core.DefaultPageSize,
		initial:     core.DefaultFilters(),
		events:      make(chan func(), 64),
		done:        make(chan struct{}),
		updates:     notify.NewHub[pagination.Snapshot](),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.OrDiscard(o.logger)

	o.machine = pagination.New(o.initial, o.pageSize)
	o.last = o.machine.Snapshot()
	o.search = debounce.New(o.initial.Search, o.searchDelay, func(s string) {
		o.post(func() { o.applySearch(s) })
	}, debounce.WithClock(o.clock))
	o.updatesCh, _ = o.updates.Subscribe()

	return o
}

// Run processes intents until ctx is cancelled. In-flight fetches use
// ctx and are abandoned with it.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.runMu.Lock()
	if o.ran {
		o.runMu.Unlock()
		return ErrAlreadyRunning
	}
	o.ran = true
	o.runMu.Unlock()

	o.runCtx = ctx
	defer close(o.done)
	defer o.search.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-o.events:
			fn()
		}
	}
}

// Start requests the first page with the initial filters. Only the
// first call has an effect.
func (o *Orchestrator) Start() {
	o.started.Do(func() {
		o.post(func() { o.changeFilters(o.machine.Filters()) })
	})
}

// EditSearch records a search box edit. The filter change happens once
// the input has been stable for the search delay.
func (o *Orchestrator) EditSearch(s string) {
	o.search.Set(s)
}

// ClearSearch empties the search immediately, without debounce.
func (o *Orchestrator) ClearSearch() {
	o.search.Reset("")
	o.post(func() { o.applySearch("") })
}

// ChangeSort applies a new sort immediately, keeping the search.
// Selecting the sort already in effect does nothing: no refetch and no
// OnFilterChange call.
func (o *Orchestrator) ChangeSort(field core.SortField, order core.SortOrder) error {
	field, err := core.ParseSortField(string(field))
	if err != nil {
		return err
	}
	order, err = core.ParseSortOrder(string(order))
	if err != nil {
		return err
	}
	o.post(func() {
		current := o.machine.Filters()
		if current.SortBy == field && current.Order == order {
			return
		}
		o.changeFilters(current.WithSort(field, order))
	})
	return nil
}

// ChangeSortValue applies a combined "field-order" sort value.
func (o *Orchestrator) ChangeSortValue(value string) error {
	field, order, err := core.ParseSortValue(value)
	if err != nil {
		return err
	}
	return o.ChangeSort(field, order)
}

// NearEnd reports that the viewport approached the end of the list. The
// next page is requested when more exist and nothing is loading.
func (o *Orchestrator) NearEnd() {
	o.post(func() {
		if !o.machine.CanLoadMore() {
			return
		}
		req, ok := o.machine.RequestPage(o.machine.Page())
		if !ok {
			return
		}
		o.publish()
		o.fetch(req)
	})
}

// Refresh reloads from page 1 with the current filters.
func (o *Orchestrator) Refresh() {
	o.post(func() { o.changeFilters(o.machine.Filters()) })
}

// Updates delivers a snapshot after every state transition. Only the
// latest undelivered snapshot is kept.
func (o *Orchestrator) Updates() <-chan pagination.Snapshot {
	return o.updatesCh
}

// Snapshot returns the most recently published state.
func (o *Orchestrator) Snapshot() pagination.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Close stops the search debounce and closes the updates channel. Call
// it after Run has returned.
func (o *Orchestrator) Close() {
	o.search.Stop()
	o.updates.Close()
}

func (o *Orchestrator) post(fn func()) {
	select {
	case o.events <- fn:
	case <-o.done:
	}
}

func (o *Orchestrator) applySearch(s string) {
	current := o.machine.Filters()
	if s == current.Search {
		return
	}
	o.changeFilters(current.WithSearch(s))
}

func (o *Orchestrator) changeFilters(f core.Filters) {
	req := o.machine.SetFilters(f)
	o.logger.Debug("filters changed",
		"search", f.Search, "sort", f.SortValue(), "generation", req.Generation)
	if o.onFilterChange != nil {
		o.onFilterChange(f)
	}
	o.publish()
	o.fetch(req)
}

func (o *Orchestrator) fetch(req pagination.Request) {
	ctx := o.runCtx
	go func() {
		page, err := o.fetcher.FetchPage(ctx, req.PageRequest())
		o.post(func() { o.complete(req, page, err) })
	}()
}

func (o *Orchestrator) complete(req pagination.Request, page core.Page, err error) {
	var applied bool
	if err != nil {
		reason := err.Error()
		if failure, ok := httpclient.AsFetchFailure(err); ok {
			reason = failure.Reason
		}
		o.logger.Warn("fetch failed", "page", req.Page, "err", err)
		applied = o.machine.Fail(req, reason)
	} else {
		applied = o.machine.Resolve(req, page)
	}

	if !applied {
		o.logger.Debug("discarding stale page",
			"page", req.Page, "generation", req.Generation)
		return
	}
	o.publish()
}

func (o *Orchestrator) publish() {
	snap := o.machine.Snapshot()
	o.mu.Lock()
	o.last = snap
	o.mu.Unlock()
	o.updates.Publish(snap)
}
