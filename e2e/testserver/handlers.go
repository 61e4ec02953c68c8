package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/liftoff/internal/core"
)

// Launch is the upstream record the catalog serves.
type Launch = core.Launch

var missionNames = []string{
	"FalconSat", "DemoSat", "Trailblazer", "RatSat", "RazakSAT",
	"Falcon 9 Test Flight", "COTS 1", "COTS 2", "CRS-1", "CRS-2",
	"CASSIOPE", "SES-8", "Thaicom 6", "CRS-3", "OG-2 Mission 1",
	"AsiaSat 8", "AsiaSat 6", "CRS-4", "CRS-5", "DSCOVR",
	"ABS-3A", "CRS-6", "TürkmenÄlem 52E", "CRS-7", "Jason 3",
	"SES-9", "CRS-8", "JCSAT-2B", "Thaicom 8", "ABS-2A",
}

// SampleLaunches returns a deterministic catalog of n launches, at most
// len(missionNames).
func SampleLaunches(n int) []Launch {
	n = min(n, len(missionNames))
	start := time.Date(2006, time.March, 24, 22, 30, 0, 0, time.UTC)

	launches := make([]Launch, n)
	for i := range n {
		rocket := core.Rocket{RocketID: "falcon9", RocketName: "Falcon 9"}
		if i < 5 {
			rocket = core.Rocket{RocketID: "falcon1", RocketName: "Falcon 1"}
		}
		success := i%7 != 0
		launches[i] = Launch{
			ID:            fmt.Sprintf("launch-%d", i+1),
			FlightNumber:  i + 1,
			MissionName:   missionNames[i],
			LaunchDateUTC: start.AddDate(0, 3*i, 0).Format("2006-01-02T15:04:05.000Z"),
			Rocket:        rocket,
			LaunchSite:    core.LaunchSite{SiteID: "ccafs_slc_40", SiteName: "CCAFS SLC 40"},
			Success:       &success,
		}
	}
	return launches
}

// Handlers provides reusable response handlers.
type Handlers struct{}

// JSON returns a handler that responds with JSON.
func (Handlers) JSON(code int, data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(data)
	}
}

// Delayed wraps h with simulated latency.
func (Handlers) Delayed(delay time.Duration, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
			h(w, r)
		case <-r.Context().Done():
		}
	}
}

// Error returns a handler that responds with an error.
func (h Handlers) Error(code int, message string) http.HandlerFunc {
	return h.JSON(code, map[string]string{"error": message})
}

// Catalog answers GET /launches the way the public service does:
// mission_name filters by substring, sort/order orders the result and
// offset/limit pick the page.
func (h Handlers) Catalog(launches []Launch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		search := strings.ToLower(q.Get("mission_name"))
		var matched []Launch
		for _, l := range launches {
			if search == "" || strings.Contains(strings.ToLower(l.MissionName), search) {
				matched = append(matched, l)
			}
		}

		sortLaunches(matched, q.Get("sort"), q.Get("order") == "desc")

		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil || limit <= 0 {
			limit = len(matched)
		}
		page := matched[min(offset, len(matched)):min(offset+limit, len(matched))]
		if page == nil {
			page = []Launch{}
		}
		h.JSON(http.StatusOK, page)(w, r)
	}
}

// Lookup answers GET /launches/{flight}.
func (h Handlers) Lookup(launches []Launch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flight, _ := strconv.Atoi(r.PathValue("flight"))
		for _, l := range launches {
			if l.FlightNumber == flight {
				h.JSON(http.StatusOK, l)(w, r)
				return
			}
		}
		h.Error(http.StatusNotFound, "Not Found")(w, r)
	}
}

func sortLaunches(launches []Launch, field string, desc bool) {
	less := func(a, b Launch) bool {
		switch field {
		case "flight_number":
			return a.FlightNumber < b.FlightNumber
		case "mission_name":
			return strings.ToLower(a.MissionName) < strings.ToLower(b.MissionName)
		}
		return false
	}
	sort.SliceStable(launches, func(i, j int) bool {
		if desc {
			return less(launches[j], launches[i])
		}
		return less(launches[i], launches[j])
	})
}
