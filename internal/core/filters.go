package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSort is returned when a sort field or order is not supported.
var ErrInvalidSort = errors.New("invalid sort")

// SortField is a field the upstream list can be sorted by.
type SortField string

const (
	SortFlightNumber SortField = "flight_number"
	SortMissionName  SortField = "mission_name"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// sortLabels lists the sort control values in display order.
var sortLabels = []struct {
	value string
	label string
}{
	{"flight_number-asc", "Flight # (Low)"},
	{"flight_number-desc", "Flight # (High)"},
	{"mission_name-asc", "Mission Name A-Z"},
	{"mission_name-desc", "Mission Name Z-A"},
}

// Filters is the search and sort state. SortBy and Order are always
// both set.
type Filters struct {
	Search string    `json:"search"`
	SortBy SortField `json:"sortBy"`
	Order  SortOrder `json:"order"`
}

// DefaultFilters returns the initial filter state.
func DefaultFilters() Filters {
	return Filters{
		Search: "",
		SortBy: SortMissionName,
		Order:  OrderAsc,
	}
}

// WithSearch returns a copy with the search term replaced.
func (f Filters) WithSearch(search string) Filters {
	f.Search = search
	return f
}

// WithSort returns a copy with both sort field and order replaced.
func (f Filters) WithSort(field SortField, order SortOrder) Filters {
	f.SortBy = field
	f.Order = order
	return f
}

// SortValue returns the combined "field-order" control value.
func (f Filters) SortValue() string {
	return SortValue(f.SortBy, f.Order)
}

// Validate checks that both sort fields are present and supported.
func (f Filters) Validate() error {
	if _, err := ParseSortField(string(f.SortBy)); err != nil {
		return err
	}
	if _, err := ParseSortOrder(string(f.Order)); err != nil {
		return err
	}
	return nil
}

// ParseSortField validates a sort field name.
func ParseSortField(s string) (SortField, error) {
	switch SortField(strings.ToLower(s)) {
	case SortFlightNumber:
		return SortFlightNumber, nil
	case SortMissionName:
		return SortMissionName, nil
	default:
		return "", fmt.Errorf("%w: unknown field %q", ErrInvalidSort, s)
	}
}

// ParseSortOrder validates a sort order.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case OrderAsc:
		return OrderAsc, nil
	case OrderDesc:
		return OrderDesc, nil
	default:
		return "", fmt.Errorf("%w: unknown order %q", ErrInvalidSort, s)
	}
}

// ParseSortValue splits a "field-order" value such as
// "mission_name-desc". Both halves must be valid.
func ParseSortValue(value string) (SortField, SortOrder, error) {
	i := strings.LastIndex(value, "-")
	if i <= 0 || i == len(value)-1 {
		return "", "", fmt.Errorf("%w: %q is not field-order", ErrInvalidSort, value)
	}
	field, err := ParseSortField(value[:i])
	if err != nil {
		return "", "", err
	}
	order, err := ParseSortOrder(value[i+1:])
	if err != nil {
		return "", "", err
	}
	return field, order, nil
}

// SortValue joins a field and order into a control value.
func SortValue(field SortField, order SortOrder) string {
	return string(field) + "-" + string(order)
}

// SortValues returns every supported sort control value in display
// order.
func SortValues() []string {
	values := make([]string, len(sortLabels))
	for i, s := range sortLabels {
		values[i] = s.value
	}
	return values
}

// SortLabel returns the human label for a sort control value.
func SortLabel(value string) string {
	for _, s := range sortLabels {
		if s.value == value {
			return s.label
		}
	}
	return value
}

// NextSortValue returns the control value after current, wrapping.
func NextSortValue(current string) string {
	for i, s := range sortLabels {
		if s.value == current {
			return sortLabels[(i+1)%len(sortLabels)].value
		}
	}
	return sortLabels[0].value
}
