package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/logging"
	"github.com/artpar/liftoff/internal/query"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the per-fetch id used to correlate logs
// between the TUI, the relay and the upstream.
const RequestIDHeader = "X-Request-ID"

// transport holds what the relay client and the upstream client share.
type transport struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// Option is a function that configures a client.
type Option func(*transport)

func newTransport(baseURL string, opts ...Option) transport {
	t := transport{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logging.Discard(),
	}

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(t *transport) {
		t.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom HTTP round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(t *transport) {
		t.httpClient.Transport = rt
	}
}

// WithRateLimit caps outgoing requests at perSecond. Zero or negative
// disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(t *transport) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *log.Logger) Option {
	return func(t *transport) {
		t.logger = logging.OrDiscard(logger)
	}
}

// getJSON performs one GET and decodes a 2xx body into out. Every
// failure is returned as a *FetchFailure.
func (t *transport) getJSON(ctx context.Context, path string, q query.Query, out any) error {
	endpoint := t.baseURL + path
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return newFailure(KindTransport, 0, endpoint, "rate limiter", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return newFailure(KindTransport, 0, endpoint, "invalid request", err)
	}
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		t.logger.Warn("fetch failed", "request_id", requestID, "url", endpoint, "err", err)
		return newFailure(KindTransport, 0, endpoint, "network error", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return newFailure(KindTransport, httpResp.StatusCode, endpoint, "reading response", err)
	}

	t.logger.Debug("fetch",
		"request_id", requestID,
		"url", endpoint,
		"status", httpResp.StatusCode,
		"elapsed", time.Since(start),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return newFailure(KindStatus, httpResp.StatusCode, endpoint, statusReason(httpResp, bodyBytes), nil)
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return newFailure(KindDecode, httpResp.StatusCode, endpoint, "malformed response body", err)
	}
	return nil
}

// statusReason prefers the {"error": "..."} body the relay returns,
// falling back to the HTTP status text.
func statusReason(resp *http.Response, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return "Failed to fetch launches: " + http.StatusText(resp.StatusCode)
}

type requestIDKey struct{}

// WithRequestID attaches a request id that outgoing fetches forward in
// the X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Client fetches pages from liftoff's relay endpoint.
type Client struct {
	transport
}

// NewClient creates a relay client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	return &Client{transport: newTransport(baseURL, opts...)}
}

// FetchPage requests one page from GET /api/launches.
func (c *Client) FetchPage(ctx context.Context, req core.PageRequest) (core.Page, error) {
	var page core.Page
	q := query.Build(query.Relay, query.FromPageRequest(req))
	if err := c.getJSON(ctx, "/api/launches", q, &page); err != nil {
		return core.Page{}, err
	}
	return page, nil
}

// UpstreamClient fetches launches from the external list endpoint.
type UpstreamClient struct {
	transport
}

// NewUpstreamClient creates a client for the collaborator at baseURL.
func NewUpstreamClient(baseURL string, opts ...Option) *UpstreamClient {
	return &UpstreamClient{transport: newTransport(baseURL, opts...)}
}

// FetchLaunches requests GET /launches with the upstream query dialect.
func (c *UpstreamClient) FetchLaunches(ctx context.Context, p query.Params) ([]core.Launch, error) {
	var launches []core.Launch
	if err := c.getJSON(ctx, "/launches", query.Build(query.Upstream, p), &launches); err != nil {
		return nil, err
	}
	if launches == nil {
		launches = []core.Launch{}
	}
	return launches, nil
}

// FetchLaunch requests GET /launches/{flight}.
func (c *UpstreamClient) FetchLaunch(ctx context.Context, flight int) (core.Launch, error) {
	var launch core.Launch
	if err := c.getJSON(ctx, "/launches/"+strconv.Itoa(flight), nil, &launch); err != nil {
		return core.Launch{}, err
	}
	return launch, nil
}

// DirectFetcher serves pages straight from the upstream, computing
// hasMore locally. It lets the TUI run without a relay.
type DirectFetcher struct {
	upstream *UpstreamClient
	policy   core.HasMorePolicy
}

// NewDirectFetcher wraps an upstream client.
func NewDirectFetcher(upstream *UpstreamClient, policy core.HasMorePolicy) *DirectFetcher {
	return &DirectFetcher{upstream: upstream, policy: policy}
}

// FetchPage fetches and pages one request from the upstream.
func (f *DirectFetcher) FetchPage(ctx context.Context, req core.PageRequest) (core.Page, error) {
	if f.upstream == nil {
		return core.Page{}, errors.New("direct fetcher has no upstream client")
	}
	launches, err := f.upstream.FetchLaunches(ctx, query.FromPageRequest(req))
	if err != nil {
		return core.Page{}, err
	}
	return core.Page{
		Launches: launches,
		Total:    len(launches),
		HasMore:  core.HasMore(req.Page, len(launches), f.policy),
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// String describes the client for logs.
func (c *Client) String() string {
	return fmt.Sprintf("relay(%s)", c.baseURL)
}
