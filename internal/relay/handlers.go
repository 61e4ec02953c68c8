package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzhttp"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/favorites"
	"github.com/artpar/liftoff/internal/logging"
	"github.com/artpar/liftoff/internal/query"
)

// fetchFailedMessage is the only failure text clients ever see; the
// cause is logged.
const fetchFailedMessage = "Failed to fetch launches"

// Upstream fetches launches from the public data service.
type Upstream interface {
	FetchLaunches(ctx context.Context, p query.Params) ([]core.Launch, error)
}

// Favorites is the favorites store exposed over HTTP.
type Favorites interface {
	List(ctx context.Context) ([]core.Launch, error)
	Add(ctx context.Context, launch core.Launch) (bool, error)
	Remove(ctx context.Context, flight int) (bool, error)
	BulkRemove(ctx context.Context, flights []int) (int, error)
	Subscribe() (<-chan favorites.Change, func())
}

// Handler contains the dependencies needed for the API handlers.
type Handler struct {
	upstream  Upstream
	favorites Favorites
	config    Config
	logger    *log.Logger
}

// NewHandler creates a handler. favs may be nil, in which case the
// favorites routes are not registered.
func NewHandler(upstream Upstream, favs Favorites, cfg Config) *Handler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultConfig().PingInterval
	}
	return &Handler{
		upstream:  upstream,
		favorites: favs,
		config:    cfg,
		logger:    logging.OrDiscard(cfg.Logger),
	}
}

// RegisterRoutes registers all API routes with the provided http.ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/launches", gzhttp.GzipHandler(http.HandlerFunc(h.HandleLaunches)))
	mux.HandleFunc("GET /health", h.HandleHealth)

	if h.favorites == nil {
		return
	}
	mux.HandleFunc("GET /api/favorites", h.HandleListFavorites)
	mux.HandleFunc("POST /api/favorites", h.HandleAddFavorite)
	mux.HandleFunc("POST /api/favorites/bulk-delete", h.HandleBulkDelete)
	mux.HandleFunc("DELETE /api/favorites/{flight}", h.HandleRemoveFavorite)
	mux.HandleFunc("GET /api/favorites/events", h.HandleFavoriteEvents)
}

// HandleLaunches fetches one page from the upstream.
func (h *Handler) HandleLaunches(w http.ResponseWriter, r *http.Request) {
	p := query.ParamsFromValues(r.URL.Query())

	launches, err := h.upstream.FetchLaunches(r.Context(), p)
	if err != nil {
		h.logger.Error("upstream fetch failed", "page", p.Page, "err", err)
		respondWithError(w, http.StatusInternalServerError, fetchFailedMessage)
		return
	}
	if launches == nil {
		launches = []core.Launch{}
	}

	respondWithJSON(w, http.StatusOK, core.Page{
		Launches: launches,
		Total:    len(launches),
		HasMore:  core.HasMore(p.Page, len(launches), h.config.Policy),
		Page:     p.Page,
		Limit:    p.Limit,
	})
}

// HandleHealth handles the GET /health endpoint for healthcheck.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HandleListFavorites returns every favorite.
func (h *Handler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.favorites.List(r.Context())
	if err != nil {
		h.logger.Error("list favorites failed", "err", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load favorites")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"favorites": items,
		"count":     len(items),
	})
}

// HandleAddFavorite stores the launch in the request body.
func (h *Handler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var launch core.Launch
	if err := json.NewDecoder(r.Body).Decode(&launch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if launch.FlightNumber <= 0 {
		respondWithError(w, http.StatusBadRequest, "flight_number is required")
		return
	}

	added, err := h.favorites.Add(r.Context(), launch)
	if err != nil {
		h.logger.Error("add favorite failed", "flight", launch.FlightNumber, "err", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save favorite")
		return
	}

	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	respondWithJSON(w, code, map[string]bool{"added": added})
}

// HandleRemoveFavorite removes one favorite by flight number.
func (h *Handler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	flight, err := strconv.Atoi(r.PathValue("flight"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid flight number %q", r.PathValue("flight")))
		return
	}

	removed, err := h.favorites.Remove(r.Context(), flight)
	if err != nil {
		h.logger.Error("remove favorite failed", "flight", flight, "err", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to remove favorite")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

type bulkDeleteRequest struct {
	FlightNumbers []int `json:"flight_numbers"`
}

// HandleBulkDelete removes several favorites in one write.
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	removed, err := h.favorites.BulkRemove(r.Context(), req.FlightNumbers)
	if err != nil {
		h.logger.Error("bulk remove failed", "count", len(req.FlightNumbers), "err", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to remove favorites")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// respondWithError sends an error response.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		code = http.StatusInternalServerError
		response = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
