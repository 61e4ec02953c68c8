package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveCursor(t *testing.T) {
	tests := []struct {
		name     string
		cursor   int
		delta    int
		count    int
		expected int
	}{
		{"move down from start", 0, 1, 10, 1},
		{"move up in middle", 5, -1, 10, 4},
		{"clamp at end", 9, 1, 10, 9},
		{"clamp at start", 0, -1, 10, 0},
		{"large jump down", 5, 100, 10, 9},
		{"empty list", 0, 1, 0, 0},
		{"single item list", 0, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MoveCursor(tt.cursor, tt.delta, tt.count))
		})
	}
}

func TestAdjustOffset(t *testing.T) {
	tests := []struct {
		name          string
		cursor        int
		offset        int
		visibleHeight int
		expected      int
	}{
		{"cursor in view", 5, 3, 10, 3},
		{"cursor above view", 2, 5, 10, 2},
		{"cursor below view", 15, 3, 10, 6},
		{"cursor at bottom of view", 12, 3, 10, 3},
		{"zero visible height", 5, 0, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AdjustOffset(tt.cursor, tt.offset, tt.visibleHeight))
		})
	}
}

func TestNearEnd(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		count  int
		want   bool
	}{
		{"empty list", 0, 0, false},
		{"top of a page", 0, 12, false},
		{"four rows from end", 7, 12, false},
		{"three rows from end", 8, 12, true},
		{"last row", 11, 12, true},
		{"short list", 0, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NearEnd(tt.cursor, tt.count, NearEndThreshold))
		})
	}
}

func TestSelection(t *testing.T) {
	t.Run("toggle does not mutate input", func(t *testing.T) {
		orig := map[int]bool{1: true}
		next := ToggleSelection(orig, 2)
		assert.Equal(t, map[int]bool{1: true}, orig)
		assert.Equal(t, map[int]bool{1: true, 2: true}, next)

		next = ToggleSelection(next, 1)
		assert.Equal(t, map[int]bool{2: true}, next)
	})

	t.Run("select all", func(t *testing.T) {
		sel := SelectAll([]int{3, 1})
		assert.True(t, AllSelected(sel, []int{1, 3}))
		assert.False(t, AllSelected(sel, []int{1, 2, 3}))
		assert.False(t, AllSelected(sel, nil))
	})

	t.Run("prune", func(t *testing.T) {
		sel := PruneSelection(map[int]bool{1: true, 2: true, 5: false}, []int{2, 3})
		assert.Equal(t, map[int]bool{2: true}, sel)
	})

	t.Run("selected flights sorted", func(t *testing.T) {
		assert.Equal(t, []int{1, 4, 9}, SelectedFlights(map[int]bool{9: true, 1: true, 4: true, 7: false}))
		assert.Empty(t, SelectedFlights(nil))
	})
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "", Badge(0))
	assert.Equal(t, "1", Badge(1))
	assert.Equal(t, "9", Badge(9))
	assert.Equal(t, "9+", Badge(10))
	assert.Equal(t, "9+", Badge(120))
}
