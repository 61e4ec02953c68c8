package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/tui"
)

// LaunchList renders a scrollable list of launches with a cursor,
// favorite markers and optional selection boxes.
type LaunchList struct {
	*tui.BaseComponent
	styles     tui.Styles
	items      []core.Launch
	cursor     int
	offset     int
	favorites  map[int]bool
	selected   map[int]bool
	selectable bool
	emptyText  string
}

// NewLaunchList creates an empty list.
func NewLaunchList(title string) *LaunchList {
	return &LaunchList{
		BaseComponent: tui.NewBaseComponent(title),
		styles:        tui.DefaultStyles(),
		emptyText:     "No launches",
	}
}

// SetItems replaces the list contents, keeping the cursor in range.
func (l *LaunchList) SetItems(items []core.Launch) {
	l.items = items
	l.cursor = MoveCursor(l.cursor, 0, len(items))
	l.offset = AdjustOffset(l.cursor, min(l.offset, l.cursor), l.visibleRows())
}

// Items returns the listed launches.
func (l *LaunchList) Items() []core.Launch {
	return l.items
}

// Len returns the number of listed launches.
func (l *LaunchList) Len() int {
	return len(l.items)
}

// Flights returns the flight numbers in list order.
func (l *LaunchList) Flights() []int {
	flights := make([]int, len(l.items))
	for i, it := range l.items {
		flights[i] = it.FlightNumber
	}
	return flights
}

// Cursor returns the cursor index.
func (l *LaunchList) Cursor() int {
	return l.cursor
}

// Current returns the launch under the cursor.
func (l *LaunchList) Current() (core.Launch, bool) {
	if l.cursor < 0 || l.cursor >= len(l.items) {
		return core.Launch{}, false
	}
	return l.items[l.cursor], true
}

// Move moves the cursor by delta rows and scrolls it into view.
func (l *LaunchList) Move(delta int) {
	l.cursor = MoveCursor(l.cursor, delta, len(l.items))
	l.offset = AdjustOffset(l.cursor, l.offset, l.visibleRows())
}

// ResetCursor moves back to the first row.
func (l *LaunchList) ResetCursor() {
	l.cursor = 0
	l.offset = 0
}

// PageRows is the distance a page up/down moves.
func (l *LaunchList) PageRows() int {
	return max(1, l.visibleRows()-1)
}

// SetFavorites sets the flights drawn with a star.
func (l *LaunchList) SetFavorites(favorites map[int]bool) {
	l.favorites = favorites
}

// SetSelected sets the flights drawn as checked.
func (l *LaunchList) SetSelected(selected map[int]bool) {
	l.selected = selected
}

// SetSelectable turns the selection column on or off.
func (l *LaunchList) SetSelectable(selectable bool) {
	l.selectable = selectable
}

// SetEmptyText sets the text shown when there are no rows.
func (l *LaunchList) SetEmptyText(text string) {
	l.emptyText = text
}

func (l *LaunchList) visibleRows() int {
	return max(1, l.Height())
}

// View renders the visible rows.
func (l *LaunchList) View() string {
	width := l.Width()
	if width <= 0 {
		width = 80
	}
	if len(l.items) == 0 {
		return l.styles.Muted.Render(l.emptyText)
	}

	end := min(len(l.items), l.offset+l.visibleRows())
	rows := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		row := tui.PadRight(l.renderRow(l.items[i]), width)
		if i == l.cursor {
			row = l.styles.Selected.Render(row)
		}
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (l *LaunchList) renderRow(launch core.Launch) string {
	var sb strings.Builder
	if l.selectable {
		if l.selected[launch.FlightNumber] {
			sb.WriteString("[x] ")
		} else {
			sb.WriteString("[ ] ")
		}
	}
	if l.favorites[launch.FlightNumber] {
		sb.WriteString("★ ")
	} else {
		sb.WriteString("  ")
	}
	sb.WriteString(fmt.Sprintf("#%-4d ", launch.FlightNumber))
	sb.WriteString(tui.PadRight(tui.Truncate(launch.MissionName, 28), 28))
	sb.WriteString(" ")
	sb.WriteString(tui.PadRight(tui.Truncate(launch.Rocket.RocketName, 12), 12))
	sb.WriteString(" ")
	sb.WriteString(launch.Outcome().String())
	return sb.String()
}
