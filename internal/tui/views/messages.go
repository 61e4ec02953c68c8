package views

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/detail"
	"github.com/artpar/liftoff/internal/favorites"
	"github.com/artpar/liftoff/internal/pagination"
	"github.com/artpar/liftoff/internal/tui"
)

// LaunchSource is the paged launch list behind the browse view.
type LaunchSource interface {
	Start()
	EditSearch(s string)
	ClearSearch()
	ChangeSortValue(value string) error
	NearEnd()
	Refresh()
	Updates() <-chan pagination.Snapshot
	Snapshot() pagination.Snapshot
}

// Screen identifies the active view.
type Screen int

const (
	ScreenBrowse Screen = iota
	ScreenFavorites
	ScreenDetail
)

// ShowScreenMsg switches to another screen.
type ShowScreenMsg struct {
	Screen Screen
}

// ShowDetailMsg opens the detail view for a cached launch.
type ShowDetailMsg struct {
	Flight int
	// CacheErr is set when the launch could not be written to the
	// detail cache first.
	CacheErr error
}

// BackMsg leaves the detail view.
type BackMsg struct{}

type snapshotMsg struct {
	snap pagination.Snapshot
}

type favoritesChangedMsg struct {
	change favorites.Change
}

type favoritesLoadedMsg struct {
	items []core.Launch
}

type detailLoadedMsg struct {
	flight int
	launch core.Launch
	found  bool
}

type clearNotificationMsg struct{}

func show(screen Screen) tea.Cmd {
	return func() tea.Msg { return ShowScreenMsg{Screen: screen} }
}

func back() tea.Msg { return BackMsg{} }

// waitForSnapshot blocks for the next list state. It yields nil once
// the channel closes.
func waitForSnapshot(ch <-chan pagination.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{snap: snap}
	}
}

func waitForFavorites(ch <-chan favorites.Change) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return favoritesChangedMsg{change: change}
	}
}

func loadFavorites(store *favorites.Store) tea.Cmd {
	return func() tea.Msg {
		return favoritesLoadedMsg{items: store.Load(context.Background())}
	}
}

func toggleFavorite(store *favorites.Store, launch core.Launch) tea.Cmd {
	return func() tea.Msg {
		added, err := store.Toggle(context.Background(), launch)
		if err != nil {
			return tui.NotifyMsg{Text: "Could not update favorites: " + err.Error(), Error: true}
		}
		if added {
			return tui.NotifyMsg{Text: fmt.Sprintf("Added %s to favorites", launch.MissionName)}
		}
		return tui.NotifyMsg{Text: fmt.Sprintf("Removed %s from favorites", launch.MissionName)}
	}
}

// openDetail caches launch and then opens it. The detail view reads
// from the cache, so a failed write shows up there as a missing entry.
func openDetail(cache *detail.Cache, launch core.Launch) tea.Cmd {
	return func() tea.Msg {
		err := cache.Put(context.Background(), launch)
		return ShowDetailMsg{Flight: launch.FlightNumber, CacheErr: err}
	}
}

func favoriteSet(items []core.Launch) map[int]bool {
	set := make(map[int]bool, len(items))
	for _, it := range items {
		set[it.FlightNumber] = true
	}
	return set
}
