package harness

import (
	"github.com/artpar/liftoff/internal/tui/views"
)

// State represents a snapshot of the entire TUI state for verification.
type State struct {
	Screen        string // "browse", "favorites", "detail"
	ShowingHelp   bool
	Notification  string
	FavoriteCount int

	Browse    *BrowseState
	Favorites *FavoritesState
	Detail    *DetailState

	Clipboard []string
	Output    string
}

// BrowseState captures the launch list screen.
type BrowseState struct {
	Missions   []string
	Cursor     int
	Current    string
	Searching  bool
	Search     string
	SortValue  string
	Loading    bool
	HasMore    bool
	Page       int
	Error      string
	Generation uint64
}

// FavoritesState captures the favorites screen.
type FavoritesState struct {
	Missions   []string
	Cursor     int
	Selected   []int
	Confirming bool
}

// DetailState captures the detail screen.
type DetailState struct {
	Flight  int
	Mission string
	Found   bool
}

func screenName(s views.Screen) string {
	switch s {
	case views.ScreenFavorites:
		return "favorites"
	case views.ScreenDetail:
		return "detail"
	default:
		return "browse"
	}
}

// captureState reads view. It runs on the program goroutine.
func captureState(view *views.MainView) *State {
	return &State{
		Screen:        screenName(view.Screen()),
		ShowingHelp:   view.ShowingHelp(),
		Notification:  view.Notification(),
		FavoriteCount: view.FavoriteCount(),
		Browse:        captureBrowseState(view.Browse()),
		Favorites:     captureFavoritesState(view.FavoritesView()),
		Detail:        captureDetailState(view.Detail()),
		Output:        view.View(),
	}
}

func captureBrowseState(b *views.BrowseView) *BrowseState {
	snap := b.Snapshot()
	list := b.List()

	st := &BrowseState{
		Cursor:     list.Cursor(),
		Searching:  b.Searching(),
		Search:     b.SearchValue(),
		SortValue:  snap.Filters.SortValue(),
		Loading:    snap.Loading,
		HasMore:    snap.HasMore,
		Page:       snap.Page,
		Error:      snap.Err,
		Generation: snap.Generation,
	}
	for _, l := range list.Items() {
		st.Missions = append(st.Missions, l.MissionName)
	}
	if current, ok := list.Current(); ok {
		st.Current = current.MissionName
	}
	return st
}

func captureFavoritesState(f *views.FavoritesView) *FavoritesState {
	st := &FavoritesState{
		Cursor:     f.List().Cursor(),
		Selected:   f.Selected(),
		Confirming: f.Confirming(),
	}
	for _, l := range f.List().Items() {
		st.Missions = append(st.Missions, l.MissionName)
	}
	return st
}

func captureDetailState(d *views.DetailView) *DetailState {
	launch, found := d.Launch()
	return &DetailState{
		Flight:  launch.FlightNumber,
		Mission: launch.MissionName,
		Found:   found,
	}
}
