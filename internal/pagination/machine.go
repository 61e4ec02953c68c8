// Package pagination owns the accumulated launch list and decides when
// a fetched page replaces it and when it is appended.
//
// Machine does no I/O. Callers ask it for a Request, perform the fetch
// however they like, and hand the outcome back with Resolve or Fail.
// Every Request carries the generation it was issued under; a filter
// change starts a new generation, and outcomes from older generations
// are discarded.
package pagination

import (
	"github.com/artpar/liftoff/internal/core"
)

// State is the machine state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateErrored
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateErrored:
		return "errored"
	default:
		return "idle"
	}
}

// Request identifies one page fetch issued by the machine.
type Request struct {
	Generation uint64
	Page       int
	Filters    core.Filters
	Limit      int
}

// PageRequest converts r to the fetch client's input.
func (r Request) PageRequest() core.PageRequest {
	return core.PageRequest{Filters: r.Filters, Page: r.Page, Limit: r.Limit}
}

// Machine is the pagination/append state machine. It is not safe for
// concurrent use; the orchestrator drives it from a single goroutine.
type Machine struct {
	state      State
	items      []core.Launch
	totalCount int
	hasMore    bool
	page       int
	err        string
	filters    core.Filters
	limit      int
	generation uint64
}

// New creates an Idle machine for the given filters and page size.
func New(filters core.Filters, limit int) *Machine {
	if limit <= 0 {
		limit = core.DefaultPageSize
	}
	return &Machine{
		state:   StateIdle,
		hasMore: true,
		page:    1,
		filters: filters,
		limit:   limit,
	}
}

// RequestPage moves to Loading and returns the request to perform. It
// returns false, changing nothing, while a request is already in
// flight.
func (m *Machine) RequestPage(n int) (Request, bool) {
	if m.state == StateLoading {
		return Request{}, false
	}
	if n < 1 {
		n = 1
	}
	m.state = StateLoading
	m.err = ""
	return m.request(n), true
}

// SetFilters clears the list, resets to page 1 and immediately requests
// it. It works from any state; an outstanding request becomes stale.
func (m *Machine) SetFilters(f core.Filters) Request {
	m.filters = f
	m.items = nil
	m.totalCount = 0
	m.page = 1
	m.hasMore = true
	m.generation++
	m.state = StateLoading
	m.err = ""
	return m.request(1)
}

func (m *Machine) request(n int) Request {
	return Request{
		Generation: m.generation,
		Page:       n,
		Filters:    m.filters,
		Limit:      m.limit,
	}
}

// Resolve applies a successful fetch. Page 1 replaces the list, later
// pages append to it. It returns false when the outcome is stale and
// was discarded.
func (m *Machine) Resolve(req Request, page core.Page) bool {
	if !m.current(req) {
		return false
	}

	if req.Page == 1 {
		m.items = append([]core.Launch(nil), page.Launches...)
	} else {
		m.items = append(m.items, page.Launches...)
	}
	m.totalCount = page.Total
	m.hasMore = page.HasMore
	m.page = req.Page + 1
	m.state = StateLoaded
	return true
}

// Fail records a failed fetch. The list is kept as it was. It returns
// false when the outcome is stale and was discarded.
func (m *Machine) Fail(req Request, reason string) bool {
	if !m.current(req) {
		return false
	}
	m.err = reason
	m.state = StateErrored
	return true
}

func (m *Machine) current(req Request) bool {
	return m.state == StateLoading && req.Generation == m.generation
}

// CanLoadMore reports whether a scroll-triggered load should fire.
func (m *Machine) CanLoadMore() bool {
	return m.hasMore && m.state != StateLoading
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Page returns the next page to fetch.
func (m *Machine) Page() int { return m.page }

// HasMore reports whether more pages may exist.
func (m *Machine) HasMore() bool { return m.hasMore }

// Loading reports whether a request is in flight.
func (m *Machine) Loading() bool { return m.state == StateLoading }

// Err returns the last failure reason, or "".
func (m *Machine) Err() string { return m.err }

// Filters returns the active filters.
func (m *Machine) Filters() core.Filters { return m.filters }

// Snapshot is an immutable copy of the machine state.
type Snapshot struct {
	State      State
	Items      []core.Launch
	TotalCount int
	HasMore    bool
	Page       int
	Loading    bool
	Err        string
	Filters    core.Filters
	Generation uint64
}

// Snapshot copies the current state for observers.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		State:      m.state,
		Items:      append([]core.Launch(nil), m.items...),
		TotalCount: m.totalCount,
		HasMore:    m.hasMore,
		Page:       m.page,
		Loading:    m.state == StateLoading,
		Err:        m.err,
		Filters:    m.filters,
		Generation: m.generation,
	}
}
