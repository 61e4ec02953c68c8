package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/detail"
	"github.com/artpar/liftoff/internal/favorites"
	"github.com/artpar/liftoff/internal/pagination"
	"github.com/artpar/liftoff/internal/tui"
	"github.com/artpar/liftoff/internal/tui/components"
)

type browseKeys struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Search   key.Binding
	Sort     key.Binding
	Favorite key.Binding
	Open     key.Binding
	Retry    key.Binding
	ShowFavs key.Binding
	Clear    key.Binding
}

func defaultBrowseKeys() browseKeys {
	return browseKeys{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+b")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+f")),
		Top:      key.NewBinding(key.WithKeys("home", "g")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		ShowFavs: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "favorites")),
		Clear:    key.NewBinding(key.WithKeys("esc")),
	}
}

// BrowseView is the searchable, infinitely scrolling launch list.
type BrowseView struct {
	*tui.BaseComponent
	styles    tui.Styles
	keys      browseKeys
	launches  LaunchSource
	favorites *favorites.Store
	details   *detail.Cache

	search   textinput.Model
	spinner  spinner.Model
	spinning bool
	list     *components.LaunchList
	snap     pagination.Snapshot
}

// NewBrowseView creates the browse view over launches.
func NewBrowseView(launches LaunchSource, favs *favorites.Store, details *detail.Cache) *BrowseView {
	search := textinput.New()
	search.Placeholder = "Search missions"
	search.Prompt = "/ "

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	snap := launches.Snapshot()
	search.SetValue(snap.Filters.Search)

	list := components.NewLaunchList("Launches")
	list.SetEmptyText("No launches found")

	return &BrowseView{
		BaseComponent: tui.NewBaseComponent("Launches"),
		styles:        tui.DefaultStyles(),
		keys:          defaultBrowseKeys(),
		launches:      launches,
		favorites:     favs,
		details:       details,
		search:        search,
		spinner:       spin,
		list:          list,
		snap:          snap,
	}
}

// Init initializes the view.
func (v *BrowseView) Init() tea.Cmd {
	return nil
}

// Searching reports whether the search box has focus.
func (v *BrowseView) Searching() bool {
	return v.search.Focused()
}

// SearchValue returns the search box text.
func (v *BrowseView) SearchValue() string {
	return v.search.Value()
}

// List returns the launch list component.
func (v *BrowseView) List() *components.LaunchList {
	return v.list
}

// Snapshot returns the last list state shown.
func (v *BrowseView) Snapshot() pagination.Snapshot {
	return v.snap
}

// SetFavorites marks favorite launches in the list.
func (v *BrowseView) SetFavorites(set map[int]bool) {
	v.list.SetFavorites(set)
}

// SetSnapshot shows a new list state.
func (v *BrowseView) SetSnapshot(snap pagination.Snapshot) tea.Cmd {
	if snap.Generation != v.snap.Generation {
		v.list.ResetCursor()
	}
	v.snap = snap
	v.list.SetItems(snap.Items)
	// A failed page is only requested again by the user: r, a filter
	// change or a cursor move.
	if snap.State != pagination.StateErrored {
		v.checkNearEnd()
	}

	if snap.Loading && !v.spinning {
		v.spinning = true
		return v.spinner.Tick
	}
	return nil
}

// Update handles messages.
func (v *BrowseView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.snap.Loading {
			v.spinning = false
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		if v.search.Focused() {
			return v, v.handleSearchKey(msg)
		}
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *BrowseView) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		v.search.Blur()
		return nil
	case tea.KeyCtrlU:
		v.search.SetValue("")
		v.launches.ClearSearch()
		return nil
	}

	before := v.search.Value()
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	if after := v.search.Value(); after != before {
		v.launches.EditSearch(after)
	}
	return cmd
}

func (v *BrowseView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.move(-1)
	case key.Matches(msg, v.keys.Down):
		v.move(1)
	case key.Matches(msg, v.keys.PageUp):
		v.move(-v.list.PageRows())
	case key.Matches(msg, v.keys.PageDown):
		v.move(v.list.PageRows())
	case key.Matches(msg, v.keys.Top):
		v.move(-v.list.Len())
	case key.Matches(msg, v.keys.Bottom):
		v.move(v.list.Len())

	case key.Matches(msg, v.keys.Search):
		return v.search.Focus()

	case key.Matches(msg, v.keys.Clear):
		if v.search.Value() != "" {
			v.search.SetValue("")
			v.launches.ClearSearch()
		}

	case key.Matches(msg, v.keys.Sort):
		next := core.NextSortValue(v.snap.Filters.SortValue())
		if err := v.launches.ChangeSortValue(next); err != nil {
			return tui.NotifyError(err.Error())
		}
		return tui.Notify("Sorted by " + core.SortLabel(next))

	case key.Matches(msg, v.keys.Favorite):
		if launch, ok := v.list.Current(); ok {
			return toggleFavorite(v.favorites, launch)
		}

	case key.Matches(msg, v.keys.Open):
		if launch, ok := v.list.Current(); ok {
			return openDetail(v.details, launch)
		}

	case key.Matches(msg, v.keys.Retry):
		v.launches.Refresh()

	case key.Matches(msg, v.keys.ShowFavs):
		return show(ScreenFavorites)
	}
	return nil
}

func (v *BrowseView) move(delta int) {
	v.list.Move(delta)
	v.checkNearEnd()
}

// checkNearEnd asks for the next page once the cursor is close to the
// last loaded row.
func (v *BrowseView) checkNearEnd() {
	if !v.snap.HasMore || v.snap.Loading {
		return
	}
	if components.NearEnd(v.list.Cursor(), v.list.Len(), components.NearEndThreshold) {
		v.launches.NearEnd()
	}
}

// SetSize sets dimensions.
func (v *BrowseView) SetSize(width, height int) {
	v.BaseComponent.SetSize(width, height)
	v.search.Width = max(10, width-4)
	// search, sort, status and help lines
	v.list.SetSize(width, max(1, height-4))
}

// View renders the view.
func (v *BrowseView) View() string {
	sortLine := v.styles.Muted.Render("Sort: ") + v.styles.Desc.Render(core.SortLabel(v.snap.Filters.SortValue()))

	return lipgloss.JoinVertical(lipgloss.Left,
		v.search.View(),
		sortLine,
		v.list.View(),
		v.renderStatus(),
		v.renderHelpBar(),
	)
}

func (v *BrowseView) renderStatus() string {
	switch {
	case v.snap.State == pagination.StateErrored:
		return v.styles.Error.Render("Error: "+v.snap.Err) + v.styles.Muted.Render("  press r to retry")
	case v.snap.Loading:
		return v.spinner.View() + " Loading launches..."
	case v.snap.State == pagination.StateLoaded && !v.snap.HasMore && len(v.snap.Items) > 0:
		return v.styles.Muted.Render(fmt.Sprintf("%d launches, no more results", len(v.snap.Items)))
	case v.snap.State == pagination.StateLoaded:
		return v.styles.Muted.Render(fmt.Sprintf("%d launches", len(v.snap.Items)))
	}
	return ""
}

func (v *BrowseView) renderHelpBar() string {
	if v.search.Focused() {
		return tui.RenderHints(v.styles, []tui.Hint{
			{Key: "Enter", Desc: "Done"},
			{Key: "Esc", Desc: "Done"},
			{Key: "Ctrl+U", Desc: "Clear"},
		})
	}
	hints := []tui.Hint{}
	for _, b := range []key.Binding{v.keys.Down, v.keys.Search, v.keys.Sort, v.keys.Favorite, v.keys.Open, v.keys.Retry, v.keys.ShowFavs} {
		h := b.Help()
		hints = append(hints, tui.Hint{Key: h.Key, Desc: h.Desc})
	}
	hints = append(hints, tui.Hint{Key: "q", Desc: "quit"})
	return strings.TrimRight(tui.RenderHints(v.styles, hints), " ")
}
