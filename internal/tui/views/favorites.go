package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/detail"
	"github.com/artpar/liftoff/internal/favorites"
	"github.com/artpar/liftoff/internal/tui"
	"github.com/artpar/liftoff/internal/tui/components"
)

type favoritesKeys struct {
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	SelectAll  key.Binding
	Remove     key.Binding
	BulkRemove key.Binding
	Copy       key.Binding
	Open       key.Binding
	Back       key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
}

func defaultFavoritesKeys() favoritesKeys {
	return favoritesKeys{
		Up:         key.NewBinding(key.WithKeys("up", "k")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/k", "move")),
		Select:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		SelectAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
		Remove:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		BulkRemove: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "remove selected")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy name")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Back:       key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		Confirm:    key.NewBinding(key.WithKeys("y", "enter")),
		Cancel:     key.NewBinding(key.WithKeys("n", "esc")),
	}
}

// FavoritesView lists saved launches with multi-select removal.
type FavoritesView struct {
	*tui.BaseComponent
	styles     tui.Styles
	keys       favoritesKeys
	favorites  *favorites.Store
	details    *detail.Cache
	copy       func(string) error
	list       *components.LaunchList
	selected   map[int]bool
	confirming bool
}

// NewFavoritesView creates the favorites view. copyText writes to the
// system clipboard.
func NewFavoritesView(favs *favorites.Store, details *detail.Cache, copyText func(string) error) *FavoritesView {
	list := components.NewLaunchList("Favorites")
	list.SetSelectable(true)
	list.SetEmptyText("No favorites yet. Press f on a launch to add one.")

	return &FavoritesView{
		BaseComponent: tui.NewBaseComponent("Favorites"),
		styles:        tui.DefaultStyles(),
		keys:          defaultFavoritesKeys(),
		favorites:     favs,
		details:       details,
		copy:          copyText,
		list:          list,
		selected:      map[int]bool{},
	}
}

// Init initializes the view.
func (v *FavoritesView) Init() tea.Cmd {
	return nil
}

// SetItems shows the current favorites. Selections of launches that are
// gone are dropped.
func (v *FavoritesView) SetItems(items []core.Launch) {
	v.list.SetItems(items)
	v.selected = components.PruneSelection(v.selected, v.list.Flights())
	v.list.SetSelected(v.selected)
	if len(v.selected) == 0 {
		v.confirming = false
	}
}

// Selected returns the selected flight numbers in ascending order.
func (v *FavoritesView) Selected() []int {
	return components.SelectedFlights(v.selected)
}

// Confirming reports whether a bulk removal awaits confirmation.
func (v *FavoritesView) Confirming() bool {
	return v.confirming
}

// List returns the list component.
func (v *FavoritesView) List() *components.LaunchList {
	return v.list
}

// Update handles messages.
func (v *FavoritesView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	if v.confirming {
		return v, v.handleConfirmKey(keyMsg)
	}
	return v, v.handleKey(keyMsg)
}

func (v *FavoritesView) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Confirm):
		v.confirming = false
		return v.bulkRemove(v.Selected())
	case key.Matches(msg, v.keys.Cancel):
		v.confirming = false
	}
	return nil
}

func (v *FavoritesView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.list.Move(-1)
	case key.Matches(msg, v.keys.Down):
		v.list.Move(1)

	case key.Matches(msg, v.keys.Select):
		if launch, ok := v.list.Current(); ok {
			v.setSelected(components.ToggleSelection(v.selected, launch.FlightNumber))
		}

	case key.Matches(msg, v.keys.SelectAll):
		flights := v.list.Flights()
		if components.AllSelected(v.selected, flights) {
			v.setSelected(map[int]bool{})
		} else {
			v.setSelected(components.SelectAll(flights))
		}

	case key.Matches(msg, v.keys.Remove):
		if launch, ok := v.list.Current(); ok {
			return v.remove(launch)
		}

	case key.Matches(msg, v.keys.BulkRemove):
		if len(v.selected) == 0 {
			return tui.Notify("Nothing selected")
		}
		v.confirming = true

	case key.Matches(msg, v.keys.Copy):
		if launch, ok := v.list.Current(); ok {
			return v.copyName(launch)
		}

	case key.Matches(msg, v.keys.Open):
		if launch, ok := v.list.Current(); ok {
			return openDetail(v.details, launch)
		}

	case key.Matches(msg, v.keys.Back):
		return show(ScreenBrowse)
	}
	return nil
}

func (v *FavoritesView) setSelected(selected map[int]bool) {
	v.selected = selected
	v.list.SetSelected(selected)
}

func (v *FavoritesView) remove(launch core.Launch) tea.Cmd {
	store := v.favorites
	return func() tea.Msg {
		if _, err := store.Remove(context.Background(), launch.FlightNumber); err != nil {
			return tui.NotifyMsg{Text: "Could not remove favorite: " + err.Error(), Error: true}
		}
		return tui.NotifyMsg{Text: fmt.Sprintf("Removed %s from favorites", launch.MissionName)}
	}
}

func (v *FavoritesView) bulkRemove(flights []int) tea.Cmd {
	store := v.favorites
	return func() tea.Msg {
		n, err := store.BulkRemove(context.Background(), flights)
		if err != nil {
			return tui.NotifyMsg{Text: "Could not remove favorites: " + err.Error(), Error: true}
		}
		return tui.NotifyMsg{Text: fmt.Sprintf("Removed %d favorites", n)}
	}
}

func (v *FavoritesView) copyName(launch core.Launch) tea.Cmd {
	if v.copy == nil {
		return nil
	}
	if err := v.copy(launch.MissionName); err != nil {
		return tui.NotifyError("Copy failed: " + err.Error())
	}
	return tui.Notify("Copied " + launch.MissionName)
}

// SetSize sets dimensions.
func (v *FavoritesView) SetSize(width, height int) {
	v.BaseComponent.SetSize(width, height)
	// summary, prompt and help lines
	v.list.SetSize(width, max(1, height-3))
}

// View renders the view.
func (v *FavoritesView) View() string {
	summary := v.styles.Muted.Render(fmt.Sprintf("%d favorites, %d selected", v.list.Len(), len(v.selected)))

	var bottom string
	if v.confirming {
		bottom = v.styles.Error.Render(fmt.Sprintf("Remove %d favorites? ", len(v.selected))) +
			v.styles.Key.Render("y") + v.styles.Desc.Render("/") + v.styles.Key.Render("n")
	} else {
		bottom = v.renderHelpBar()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		summary,
		v.list.View(),
		"",
		bottom,
	)
}

func (v *FavoritesView) renderHelpBar() string {
	var hints []tui.Hint
	for _, b := range []key.Binding{v.keys.Down, v.keys.Select, v.keys.SelectAll, v.keys.Remove, v.keys.BulkRemove, v.keys.Copy, v.keys.Open, v.keys.Back} {
		h := b.Help()
		hints = append(hints, tui.Hint{Key: h.Key, Desc: h.Desc})
	}
	return tui.RenderHints(v.styles, hints)
}
