// Package query turns filter, sort and pagination state into the
// canonical query strings sent to the relay and to the upstream list
// endpoint.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/artpar/liftoff/internal/core"
)

// Params is the input to Build. Zero numeric fields and an empty search
// are omitted from the output.
type Params struct {
	Search string
	SortBy core.SortField
	Order  core.SortOrder
	Page   int
	Limit  int
	Offset int
}

// FromPageRequest derives Params for one page request.
func FromPageRequest(req core.PageRequest) Params {
	return Params{
		Search: req.Filters.Search,
		SortBy: req.Filters.SortBy,
		Order:  req.Filters.Order,
		Page:   req.Page,
		Limit:  req.Limit,
		Offset: req.Offset(),
	}
}

// Filters returns the filter part of p.
func (p Params) Filters() core.Filters {
	return core.Filters{Search: p.Search, SortBy: p.SortBy, Order: p.Order}
}

// Dialect names the query keys for each field, in output order.
type Dialect struct {
	name string
	keys []fieldKey
}

type field int

const (
	fieldPage field = iota
	fieldSearch
	fieldSort
	fieldOrder
	fieldOffset
	fieldLimit
)

type fieldKey struct {
	field field
	key   string
}

var (
	// Relay is the dialect of liftoff's own /api/launches endpoint.
	Relay = Dialect{name: "relay", keys: []fieldKey{
		{fieldPage, "page"},
		{fieldOffset, "offset"},
		{fieldLimit, "limit"},
		{fieldSearch, "search"},
		{fieldSort, "sortBy"},
		{fieldOrder, "order"},
	}}

	// Upstream is the dialect of the external /launches endpoint.
	Upstream = Dialect{name: "upstream", keys: []fieldKey{
		{fieldPage, "page"},
		{fieldSearch, "mission_name"},
		{fieldSort, "sort"},
		{fieldOrder, "order"},
		{fieldOffset, "offset"},
		{fieldLimit, "limit"},
	}}
)

// String returns the dialect name.
func (d Dialect) String() string {
	return d.name
}

// Param is one key/value pair.
type Param struct {
	Key   string
	Value string
}

// Query is an ordered list of parameters. The order is fixed by the
// dialect, so identical Params always encode identically.
type Query []Param

// Build maps p to a Query in the given dialect. It has no side effects.
func Build(d Dialect, p Params) Query {
	q := make(Query, 0, len(d.keys))
	for _, fk := range d.keys {
		var value string
		switch fk.field {
		case fieldPage:
			value = formatInt(p.Page)
		case fieldSearch:
			value = p.Search
		case fieldSort:
			value = string(p.SortBy)
		case fieldOrder:
			value = string(p.Order)
		case fieldOffset:
			// Zero is omitted like every other numeric field, so page 1
			// goes upstream without an offset.
			value = formatInt(p.Offset)
		case fieldLimit:
			value = formatInt(p.Limit)
		}
		if value == "" {
			continue
		}
		q = append(q, Param{Key: fk.key, Value: value})
	}
	return q
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// Get returns the value for key, or "" if absent.
func (q Query) Get(key string) string {
	for _, p := range q {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Has reports whether key is present.
func (q Query) Has(key string) bool {
	for _, p := range q {
		if p.Key == key {
			return true
		}
	}
	return false
}

// Encode returns the URL-encoded query string in Query order.
func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// ParamsFromValues parses relay query parameters. A missing or invalid
// page defaults to 1, limit to core.DefaultPageSize and offset to 0.
// Sort field and order are kept only when both are valid.
func ParamsFromValues(v url.Values) Params {
	p := Params{
		Search: v.Get("search"),
		Page:   parsePositive(v.Get("page"), 1),
		Limit:  parsePositive(v.Get("limit"), core.DefaultPageSize),
		Offset: parseNonNegative(v.Get("offset"), 0),
	}

	field, fieldErr := core.ParseSortField(v.Get("sortBy"))
	order, orderErr := core.ParseSortOrder(v.Get("order"))
	if fieldErr == nil && orderErr == nil {
		p.SortBy = field
		p.Order = order
	}
	return p
}

func parsePositive(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parseNonNegative(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
