package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasMore(t *testing.T) {
	t.Run("default policy", func(t *testing.T) {
		p := PolicyEmptyFirstPageHasMore
		assert.True(t, HasMore(1, 12, p))
		assert.True(t, HasMore(3, 1, p))
		assert.True(t, HasMore(1, 0, p), "empty first page still reports more")
		assert.False(t, HasMore(2, 0, p))
		assert.False(t, HasMore(9, 0, p))
	})

	t.Run("empty page ends", func(t *testing.T) {
		p := PolicyEmptyPageEnds
		assert.True(t, HasMore(1, 12, p))
		assert.False(t, HasMore(1, 0, p))
		assert.False(t, HasMore(2, 0, p))
	})
}

func TestPageRequest_Offset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, Limit: 12}.Offset())
	assert.Equal(t, 12, PageRequest{Page: 2, Limit: 12}.Offset())
	assert.Equal(t, 48, PageRequest{Page: 5, Limit: 12}.Offset())
	assert.Equal(t, 0, PageRequest{Page: 0, Limit: 12}.Offset())
}
