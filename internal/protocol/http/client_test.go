package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLaunches(from, n int) []core.Launch {
	launches := make([]core.Launch, 0, n)
	for i := 0; i < n; i++ {
		launches = append(launches, core.Launch{
			ID:           "id-" + string(rune('a'+i)),
			FlightNumber: from + i,
			MissionName:  "Mission",
		})
	}
	return launches
}

func TestUpstreamClient_FetchLaunches(t *testing.T) {
	t.Run("sends upstream query and decodes launches", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/launches", r.URL.Path)
			assert.Equal(t, "page=2&mission_name=Falcon&sort=flight_number&order=asc&offset=12&limit=12", r.URL.RawQuery)
			assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(sampleLaunches(13, 3))
		}))
		defer server.Close()

		client := NewUpstreamClient(server.URL + "/")
		launches, err := client.FetchLaunches(context.Background(), query.Params{
			Search: "Falcon",
			SortBy: core.SortFlightNumber,
			Order:  core.OrderAsc,
			Page:   2,
			Limit:  12,
			Offset: 12,
		})

		require.NoError(t, err)
		require.Len(t, launches, 3)
		assert.Equal(t, 13, launches[0].FlightNumber)
	})

	t.Run("forwards request id from context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "req-42", r.Header.Get(RequestIDHeader))
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		ctx := WithRequestID(context.Background(), "req-42")
		launches, err := NewUpstreamClient(server.URL).FetchLaunches(ctx, query.Params{})
		require.NoError(t, err)
		assert.Empty(t, launches)
	})

	t.Run("null body is an empty list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`null`))
		}))
		defer server.Close()

		launches, err := NewUpstreamClient(server.URL).FetchLaunches(context.Background(), query.Params{})
		require.NoError(t, err)
		assert.NotNil(t, launches)
		assert.Empty(t, launches)
	})
}

func TestFetchFailure_Classification(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewUpstreamClient(server.URL).FetchLaunches(context.Background(), query.Params{})
		failure, ok := AsFetchFailure(err)
		require.True(t, ok)
		assert.Equal(t, KindStatus, failure.Kind)
		assert.Equal(t, http.StatusBadGateway, failure.Status)
		assert.Equal(t, "Failed to fetch launches: Bad Gateway", failure.Error())
	})

	t.Run("relay error body becomes the reason", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"Failed to fetch launches"}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).FetchPage(context.Background(), core.PageRequest{Page: 1, Limit: 12})
		failure, ok := AsFetchFailure(err)
		require.True(t, ok)
		assert.Equal(t, KindStatus, failure.Kind)
		assert.Equal(t, "Failed to fetch launches", failure.Reason)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"launches": "nope"`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).FetchPage(context.Background(), core.PageRequest{Page: 1, Limit: 12})
		failure, ok := AsFetchFailure(err)
		require.True(t, ok)
		assert.Equal(t, KindDecode, failure.Kind)
		assert.Error(t, failure.Unwrap())
	})

	t.Run("network error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewUpstreamClient(url).FetchLaunches(context.Background(), query.Params{})
		failure, ok := AsFetchFailure(err)
		require.True(t, ok)
		assert.Equal(t, KindTransport, failure.Kind)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client := NewUpstreamClient(server.URL, WithTimeout(20*time.Millisecond))
		_, err := client.FetchLaunches(context.Background(), query.Params{})
		failure, ok := AsFetchFailure(err)
		require.True(t, ok)
		assert.Equal(t, KindTransport, failure.Kind)
	})
}

func TestClient_FetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/launches", r.URL.Path)
		assert.Equal(t, "page=1&limit=12&sortBy=mission_name&order=asc", r.URL.RawQuery)

		json.NewEncoder(w).Encode(core.Page{
			Launches: sampleLaunches(1, 2),
			Total:    2,
			HasMore:  true,
			Page:     1,
			Limit:    12,
		})
	}))
	defer server.Close()

	page, err := NewClient(server.URL).FetchPage(context.Background(), core.PageRequest{
		Filters: core.DefaultFilters(),
		Page:    1,
		Limit:   12,
	})
	require.NoError(t, err)
	assert.Len(t, page.Launches, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, 2, page.Total)
}

func TestDirectFetcher(t *testing.T) {
	counts := map[string]int{"1": 0, "2": 12, "3": 0}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sampleLaunches(1, counts[r.URL.Query().Get("page")]))
	}))
	defer server.Close()

	upstream := NewUpstreamClient(server.URL)
	ctx := context.Background()

	t.Run("default policy keeps an empty first page open", func(t *testing.T) {
		f := NewDirectFetcher(upstream, core.PolicyEmptyFirstPageHasMore)

		page, err := f.FetchPage(ctx, core.PageRequest{Filters: core.DefaultFilters(), Page: 1, Limit: 12})
		require.NoError(t, err)
		assert.True(t, page.HasMore)

		page, err = f.FetchPage(ctx, core.PageRequest{Filters: core.DefaultFilters(), Page: 2, Limit: 12})
		require.NoError(t, err)
		assert.True(t, page.HasMore)
		assert.Equal(t, 12, page.Total)

		page, err = f.FetchPage(ctx, core.PageRequest{Filters: core.DefaultFilters(), Page: 3, Limit: 12})
		require.NoError(t, err)
		assert.False(t, page.HasMore)
	})

	t.Run("empty page ends policy", func(t *testing.T) {
		f := NewDirectFetcher(upstream, core.PolicyEmptyPageEnds)
		page, err := f.FetchPage(ctx, core.PageRequest{Filters: core.DefaultFilters(), Page: 1, Limit: 12})
		require.NoError(t, err)
		assert.False(t, page.HasMore)
	})
}

func TestWithRateLimit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewUpstreamClient(server.URL, WithRateLimit(1))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.FetchLaunches(ctx, query.Params{})
	require.NoError(t, err)

	// The bucket is empty; waiting for the next token outlives ctx.
	_, err = client.FetchLaunches(ctx, query.Params{})
	failure, ok := AsFetchFailure(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, failure.Kind)
	assert.Equal(t, int32(1), hits.Load())
}

func TestUpstreamClient_FetchLaunch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/launches/42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Empty(t, r.URL.RawQuery)
		json.NewEncoder(w).Encode(core.Launch{FlightNumber: 42, MissionName: "CRS-11"})
	}))
	defer server.Close()

	client := NewUpstreamClient(server.URL)

	launch, err := client.FetchLaunch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "CRS-11", launch.MissionName)

	_, err = client.FetchLaunch(context.Background(), 7)
	failure, ok := AsFetchFailure(err)
	require.True(t, ok)
	assert.Equal(t, KindStatus, failure.Kind)
	assert.Equal(t, http.StatusNotFound, failure.Status)
}
