package components

import "sort"

// Pure helpers for cursor, scroll and selection state. They take values
// and return values so the views stay easy to test.

// NearEndThreshold is how many rows from the end of the list the cursor
// may get before the next page is requested.
const NearEndThreshold = 3

// MoveCursor computes new cursor position within bounds.
func MoveCursor(cursor, delta, itemCount int) int {
	if itemCount == 0 {
		return 0
	}
	newCursor := cursor + delta
	if newCursor < 0 {
		return 0
	}
	if newCursor >= itemCount {
		return itemCount - 1
	}
	return newCursor
}

// AdjustOffset ensures cursor is visible within viewport.
func AdjustOffset(cursor, offset, visibleHeight int) int {
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visibleHeight {
		return cursor - visibleHeight + 1
	}
	return offset
}

// NearEnd reports whether cursor is within threshold rows of the last
// item. An empty list is never near its end.
func NearEnd(cursor, itemCount, threshold int) bool {
	if itemCount == 0 {
		return false
	}
	return cursor >= itemCount-1-threshold
}

// ToggleSelection returns a new selected set with flight toggled.
func ToggleSelection(selected map[int]bool, flight int) map[int]bool {
	result := make(map[int]bool, len(selected)+1)
	for k, v := range selected {
		if v {
			result[k] = true
		}
	}
	if result[flight] {
		delete(result, flight)
	} else {
		result[flight] = true
	}
	return result
}

// SelectAll returns a set holding every flight.
func SelectAll(flights []int) map[int]bool {
	result := make(map[int]bool, len(flights))
	for _, f := range flights {
		result[f] = true
	}
	return result
}

// AllSelected reports whether every flight is selected. An empty list
// is never fully selected.
func AllSelected(selected map[int]bool, flights []int) bool {
	if len(flights) == 0 {
		return false
	}
	for _, f := range flights {
		if !selected[f] {
			return false
		}
	}
	return true
}

// PruneSelection drops selected flights that are no longer listed.
func PruneSelection(selected map[int]bool, flights []int) map[int]bool {
	present := SelectAll(flights)
	result := make(map[int]bool, len(selected))
	for k, v := range selected {
		if v && present[k] {
			result[k] = true
		}
	}
	return result
}

// SelectedFlights returns the selected flights in ascending order.
func SelectedFlights(selected map[int]bool) []int {
	var result []int
	for k, v := range selected {
		if v {
			result = append(result, k)
		}
	}
	sort.Ints(result)
	return result
}

// Badge formats a count for the header badge, capped at "9+".
func Badge(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > 9:
		return "9+"
	default:
		return string(rune('0' + count))
	}
}
