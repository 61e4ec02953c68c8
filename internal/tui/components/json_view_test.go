package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/liftoff/internal/core"
)

func TestJSONView_SetValue(t *testing.T) {
	v := NewJSONView()
	success := true
	require.NoError(t, v.SetValue(core.Launch{
		FlightNumber: 11,
		MissionName:  `CASSIOPE "v2"`,
		Success:      &success,
	}))

	out := v.View()
	assert.Contains(t, out, `"flight_number"`)
	assert.Contains(t, out, "11")
	assert.Contains(t, out, `"CASSIOPE \"v2\""`)
	assert.Contains(t, out, "true")
	assert.Contains(t, out, "null", "mission_patch is null")
	assert.Equal(t, 0, v.Offset())
}

func TestJSONView_SetValueError(t *testing.T) {
	v := NewJSONView()
	assert.Error(t, v.SetValue(make(chan int)))
}

func TestJSONView_Scroll(t *testing.T) {
	v := NewJSONView()
	require.NoError(t, v.SetValue(core.Launch{FlightNumber: 1}))
	v.SetSize(80, 4)
	total := v.LineCount()
	require.Greater(t, total, 4)

	v.Scroll(-3)
	assert.Equal(t, 0, v.Offset())

	v.Scroll(2)
	assert.Equal(t, 2, v.Offset())
	assert.Len(t, strings.Split(v.View(), "\n"), 4)

	v.Scroll(1000)
	assert.Equal(t, total-4, v.Offset())
	assert.True(t, strings.HasSuffix(v.View(), "}"))

	require.NoError(t, v.SetValue(core.Launch{FlightNumber: 2}))
	assert.Equal(t, 0, v.Offset())
}

func TestJSONView_HighlightLine(t *testing.T) {
	v := NewJSONView()

	tests := []struct {
		line string
		want []string
	}{
		{`  "flight_number": 42,`, []string{`"flight_number"`, "42", ","}},
		{`  "upcoming": false`, []string{`"upcoming"`, "false"}},
		{`  "x": -1.5e3`, []string{"-1.5e3"}},
		{`  "a": "b:c"`, []string{`"a"`, `"b:c"`}},
		{`}`, []string{"}"}},
	}

	for _, tt := range tests {
		out := v.highlightLine(tt.line)
		for _, w := range tt.want {
			assert.Contains(t, out, w, tt.line)
		}
	}
}

func TestStringEnd(t *testing.T) {
	assert.Equal(t, 5, stringEnd([]rune(`"abc":`), 0))
	assert.Equal(t, 6, stringEnd([]rune(`"a\"b"`), 0))
	assert.Equal(t, 3, stringEnd([]rune(`"ab`), 0))
}
