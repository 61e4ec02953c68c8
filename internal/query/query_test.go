package query

import (
	"net/url"
	"testing"

	"github.com/artpar/liftoff/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_SearchOmission(t *testing.T) {
	t.Run("empty search is omitted", func(t *testing.T) {
		q := Build(Relay, Params{Search: "", SortBy: core.SortFlightNumber, Order: core.OrderAsc, Page: 1})
		assert.False(t, q.Has("search"))

		q = Build(Upstream, Params{Search: ""})
		assert.False(t, q.Has("mission_name"))
	})

	t.Run("search is included verbatim", func(t *testing.T) {
		q := Build(Relay, Params{Search: "Falcon"})
		assert.True(t, q.Has("search"))
		assert.Equal(t, "Falcon", q.Get("search"))

		q = Build(Upstream, Params{Search: "Falcon"})
		assert.Equal(t, "Falcon", q.Get("mission_name"))
	})
}

func TestBuild_NumericOmission(t *testing.T) {
	q := Build(Relay, Params{Page: 0, Limit: 0, Offset: 0})
	assert.Empty(t, q)

	q = Build(Relay, Params{Page: 2, Limit: 12, Offset: 12})
	assert.Equal(t, "page=2&offset=12&limit=12", q.Encode())
}

func TestBuild_Dialects(t *testing.T) {
	p := Params{
		Search: "Starlink 4",
		SortBy: core.SortMissionName,
		Order:  core.OrderDesc,
		Page:   3,
		Limit:  12,
		Offset: 24,
	}

	assert.Equal(t,
		"page=3&offset=24&limit=12&search=Starlink+4&sortBy=mission_name&order=desc",
		Build(Relay, p).Encode())
	assert.Equal(t,
		"page=3&mission_name=Starlink+4&sort=mission_name&order=desc&offset=24&limit=12",
		Build(Upstream, p).Encode())
}

func TestBuild_Deterministic(t *testing.T) {
	p := Params{Search: "CRS", SortBy: core.SortFlightNumber, Order: core.OrderAsc, Page: 1, Limit: 12}

	for _, d := range []Dialect{Relay, Upstream} {
		t.Run(d.String(), func(t *testing.T) {
			first := Build(d, p)
			second := Build(d, p)
			assert.Equal(t, first, second)
			assert.Equal(t, first.Encode(), second.Encode())
		})
	}
}

func TestFromPageRequest(t *testing.T) {
	req := core.PageRequest{
		Filters: core.Filters{Search: "Falcon", SortBy: core.SortFlightNumber, Order: core.OrderAsc},
		Page:    3,
		Limit:   12,
	}
	p := FromPageRequest(req)

	assert.Equal(t, 24, p.Offset)
	assert.Equal(t, req.Filters, p.Filters())
}

func TestParamsFromValues(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := ParamsFromValues(url.Values{})
		assert.Equal(t, Params{Page: 1, Limit: core.DefaultPageSize}, p)
	})

	t.Run("full relay query", func(t *testing.T) {
		v, err := url.ParseQuery("page=2&offset=12&limit=12&search=Falcon&sortBy=flight_number&order=desc")
		assert.NoError(t, err)

		p := ParamsFromValues(v)
		assert.Equal(t, Params{
			Search: "Falcon",
			SortBy: core.SortFlightNumber,
			Order:  core.OrderDesc,
			Page:   2,
			Limit:  12,
			Offset: 12,
		}, p)
	})

	t.Run("invalid numbers fall back", func(t *testing.T) {
		v := url.Values{"page": {"zero"}, "limit": {"-5"}, "offset": {"-1"}}
		p := ParamsFromValues(v)
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, core.DefaultPageSize, p.Limit)
		assert.Equal(t, 0, p.Offset)
	})

	t.Run("partial sort is dropped", func(t *testing.T) {
		p := ParamsFromValues(url.Values{"sortBy": {"mission_name"}})
		assert.Empty(t, p.SortBy)
		assert.Empty(t, p.Order)

		p = ParamsFromValues(url.Values{"sortBy": {"mission_name"}, "order": {"up"}})
		assert.Empty(t, p.SortBy)
		assert.Empty(t, p.Order)
	})

	t.Run("relay round trip", func(t *testing.T) {
		in := Params{Search: "Falcon", SortBy: core.SortMissionName, Order: core.OrderAsc, Page: 4, Limit: 12, Offset: 36}
		values, err := url.ParseQuery(Build(Relay, in).Encode())
		require.NoError(t, err)
		assert.Equal(t, in, ParamsFromValues(values))
	})
}
