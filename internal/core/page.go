package core

// DefaultPageSize is the number of launches requested per page.
const DefaultPageSize = 12

// PageRequest asks for one page of launches under the given filters.
type PageRequest struct {
	Filters Filters
	Page    int
	Limit   int
}

// Offset returns the zero-based index of the first launch on the page.
func (r PageRequest) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

// Page is one page of launches as returned by the relay.
type Page struct {
	Launches []Launch `json:"launches" yaml:"launches"`
	Total    int      `json:"total" yaml:"total"`
	HasMore  bool     `json:"hasMore" yaml:"hasMore"`
	Page     int      `json:"page" yaml:"page"`
	Limit    int      `json:"limit" yaml:"limit"`
}

// HasMorePolicy decides how an empty page is interpreted.
type HasMorePolicy int

const (
	// PolicyEmptyFirstPageHasMore reports more results unless a page
	// other than the first comes back empty. An empty first page still
	// reports hasMore, so callers must not loop on it.
	PolicyEmptyFirstPageHasMore HasMorePolicy = iota

	// PolicyEmptyPageEnds reports no more results whenever a page
	// comes back empty.
	PolicyEmptyPageEnds
)

// String returns the policy name.
func (p HasMorePolicy) String() string {
	if p == PolicyEmptyPageEnds {
		return "empty-page-ends"
	}
	return "empty-first-page-has-more"
}

// HasMore computes the hasMore flag for a page that returned count
// launches.
func HasMore(page, count int, policy HasMorePolicy) bool {
	if count > 0 {
		return true
	}
	if policy == PolicyEmptyPageEnds {
		return false
	}
	return page == 1
}
