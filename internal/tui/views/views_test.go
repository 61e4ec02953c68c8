package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/detail"
	"github.com/artpar/liftoff/internal/favorites"
	"github.com/artpar/liftoff/internal/orchestrator"
	"github.com/artpar/liftoff/internal/pagination"
	"github.com/artpar/liftoff/internal/storage/sqlite"
	"github.com/artpar/liftoff/internal/tui"
)

type fakeSource struct {
	mu        sync.Mutex
	started   int
	searches  []string
	cleared   int
	sorts     []string
	nearEnd   int
	refreshed int
	updates   chan pagination.Snapshot
}

func newFakeSource() *fakeSource {
	return &fakeSource{updates: make(chan pagination.Snapshot, 1)}
}

func (f *fakeSource) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
}

func (f *fakeSource) EditSearch(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, s)
}

func (f *fakeSource) ClearSearch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeSource) ChangeSortValue(v string) error {
	if _, _, err := core.ParseSortValue(v); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sorts = append(f.sorts, v)
	return nil
}

func (f *fakeSource) NearEnd() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nearEnd++
}

func (f *fakeSource) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed++
}

func (f *fakeSource) Updates() <-chan pagination.Snapshot { return f.updates }

func (f *fakeSource) Snapshot() pagination.Snapshot {
	return pagination.Snapshot{State: pagination.StateIdle, HasMore: true, Page: 1, Filters: core.DefaultFilters()}
}

type harness struct {
	view    *MainView
	source  *fakeSource
	favs    *favorites.Store
	details *detail.Cache
	copied  []string
}

var fixedNow = time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv, err := sqlite.NewInMemory()
	require.NoError(t, err)

	h := &harness{source: newFakeSource()}
	h.favs = favorites.New(kv)
	h.details = detail.New(kv, nil)
	h.view = NewMainView(h.source, h.favs, h.details,
		WithNow(func() time.Time { return fixedNow }),
		WithClipboard(func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		}),
	)
	h.view.SetSize(100, 30)

	t.Cleanup(func() {
		h.view.Close()
		h.favs.Close()
		kv.Close()
	})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.view.Update(msg)
	return cmd
}

func (h *harness) press(keys string) tea.Cmd {
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func (h *harness) reloadFavorites() {
	h.send(favoritesLoadedMsg{items: h.favs.Load(context.Background())})
}

func launches(from, n int) []core.Launch {
	items := make([]core.Launch, n)
	for i := range items {
		items[i] = core.Launch{
			FlightNumber:  from + i,
			MissionName:   fmt.Sprintf("Mission %d", from+i),
			LaunchDateUTC: "2020-01-07T02:19:00.000Z",
			Rocket:        core.Rocket{RocketName: "Falcon 9"},
			LaunchSite:    core.LaunchSite{SiteName: "CCAFS SLC 40"},
		}
	}
	return items
}

func loaded(items []core.Launch, hasMore bool) pagination.Snapshot {
	return pagination.Snapshot{
		State:      pagination.StateLoaded,
		Items:      items,
		TotalCount: len(items),
		HasMore:    hasMore,
		Page:       2,
		Filters:    core.DefaultFilters(),
		Generation: 1,
	}
}

func TestMainView_Init(t *testing.T) {
	h := newHarness(t)
	assert.NotNil(t, h.view.Init())
	assert.Equal(t, ScreenBrowse, h.view.Screen())
	assert.Equal(t, "liftoff", h.view.Title())
}

func TestMainView_EmptyView(t *testing.T) {
	kv, err := sqlite.NewInMemory()
	require.NoError(t, err)
	defer kv.Close()
	favs := favorites.New(kv)
	defer favs.Close()

	v := NewMainView(newFakeSource(), favs, detail.New(kv, nil))
	defer v.Close()
	assert.Equal(t, "", v.View())
}

func TestBrowse_Snapshot(t *testing.T) {
	h := newHarness(t)

	t.Run("loading shows spinner", func(t *testing.T) {
		cmd := h.send(snapshotMsg{snap: pagination.Snapshot{
			State: pagination.StateLoading, Loading: true, HasMore: true, Page: 1,
			Filters: core.DefaultFilters(), Generation: 1,
		}})
		assert.NotNil(t, cmd)
		assert.Contains(t, h.view.View(), "Loading launches")
	})

	t.Run("loaded rows", func(t *testing.T) {
		h.send(snapshotMsg{snap: loaded(launches(1, 12), true)})
		assert.Equal(t, 12, h.view.Browse().List().Len())
		assert.Contains(t, h.view.View(), "Mission 1")
		assert.Equal(t, 0, h.source.nearEnd)
	})

	t.Run("errored", func(t *testing.T) {
		snap := loaded(launches(1, 12), true)
		snap.State = pagination.StateErrored
		snap.Err = "upstream returned 503"
		h.send(snapshotMsg{snap: snap})
		assert.Contains(t, h.view.View(), "upstream returned 503")

		h.press("r")
		assert.Equal(t, 1, h.source.refreshed)
	})
}

func TestBrowse_NearEnd(t *testing.T) {
	h := newHarness(t)
	h.send(snapshotMsg{snap: loaded(launches(1, 12), true)})

	for i := 0; i < 7; i++ {
		h.press("j")
	}
	assert.Equal(t, 0, h.source.nearEnd)

	h.press("j")
	assert.Equal(t, 8, h.view.Browse().List().Cursor())
	assert.Equal(t, 1, h.source.nearEnd)

	t.Run("not while loading", func(t *testing.T) {
		snap := loaded(launches(1, 12), true)
		snap.State = pagination.StateLoading
		snap.Loading = true
		h.send(snapshotMsg{snap: snap})
		h.press("j")
		assert.Equal(t, 1, h.source.nearEnd)
	})

	t.Run("not at the end of the list", func(t *testing.T) {
		h.send(snapshotMsg{snap: loaded(launches(1, 12), false)})
		h.press("j")
		assert.Equal(t, 1, h.source.nearEnd)
		assert.Contains(t, h.view.View(), "no more results")
	})

	t.Run("cursor resets on a new generation", func(t *testing.T) {
		snap := loaded(launches(1, 12), true)
		snap.Generation = 2
		h.send(snapshotMsg{snap: snap})
		assert.Equal(t, 0, h.view.Browse().List().Cursor())
	})
}

// shortCatalog serves three launches on page 1 and fails every later page.
type shortCatalog struct {
	mu    sync.Mutex
	calls map[int]int
}

func (c *shortCatalog) FetchPage(ctx context.Context, req core.PageRequest) (core.Page, error) {
	c.mu.Lock()
	c.calls[req.Page]++
	c.mu.Unlock()

	if req.Page > 1 {
		return core.Page{}, errors.New("upstream returned 502")
	}
	items := launches(1, 3)
	return core.Page{Launches: items, Total: len(items), HasMore: true, Page: 1, Limit: req.Limit}, nil
}

func (c *shortCatalog) pageCalls(page int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[page]
}

func TestBrowse_FailedPageNotRefetched(t *testing.T) {
	catalog := &shortCatalog{calls: make(map[int]int)}
	o := orchestrator.New(catalog)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- o.Run(ctx) }()
	defer func() {
		cancel()
		<-errc
		o.Close()
	}()

	kv, err := sqlite.NewInMemory()
	require.NoError(t, err)
	defer kv.Close()
	favs := favorites.New(kv)
	defer favs.Close()

	v := NewBrowseView(o, favs, detail.New(kv, nil))
	v.SetSize(100, 30)
	o.Start()

	// The whole list is within the near-end threshold, so the loaded
	// page 1 asks for page 2 once and that request fails.
	deadline := time.After(300 * time.Millisecond)
feed:
	for {
		select {
		case snap := <-o.Updates():
			v.SetSnapshot(snap)
		case <-deadline:
			break feed
		}
	}

	assert.Equal(t, 1, catalog.pageCalls(1))
	assert.Equal(t, 1, catalog.pageCalls(2))
	assert.Equal(t, pagination.StateErrored, v.Snapshot().State)
	assert.Len(t, v.Snapshot().Items, 3)

	t.Run("cursor move asks again", func(t *testing.T) {
		v.move(1)
		require.Eventually(t, func() bool {
			return catalog.pageCalls(2) == 2
		}, 2*time.Second, 5*time.Millisecond)
	})
}

func TestBrowse_Search(t *testing.T) {
	h := newHarness(t)

	h.press("/")
	require.True(t, h.view.Browse().Searching())

	h.press("s")
	h.press("t")
	assert.Equal(t, []string{"s", "st"}, h.source.searches)
	assert.Empty(t, h.source.sorts, "keys go to the search box while it has focus")

	h.press("q")
	assert.Equal(t, "stq", h.view.Browse().SearchValue())

	h.send(tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Equal(t, "", h.view.Browse().SearchValue())
	assert.Equal(t, 1, h.source.cleared)

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.view.Browse().Searching())
}

func TestBrowse_Sort(t *testing.T) {
	h := newHarness(t)
	h.send(snapshotMsg{snap: loaded(launches(1, 3), false)})

	cmd := h.press("s")
	require.NotNil(t, cmd)
	want := core.NextSortValue(core.DefaultFilters().SortValue())
	assert.Equal(t, []string{want}, h.source.sorts)

	msg, ok := cmd().(tui.NotifyMsg)
	require.True(t, ok)
	assert.Contains(t, msg.Text, core.SortLabel(want))
}

func TestBrowse_Favorite(t *testing.T) {
	h := newHarness(t)
	h.send(snapshotMsg{snap: loaded(launches(1, 3), false)})

	cmd := h.press("f")
	require.NotNil(t, cmd)
	msg := cmd().(tui.NotifyMsg)
	assert.False(t, msg.Error)
	assert.Contains(t, msg.Text, "Added Mission 1")
	assert.True(t, h.favs.IsFavorite(context.Background(), 1))

	h.reloadFavorites()
	assert.Equal(t, 1, h.view.FavoriteCount())
	assert.Contains(t, h.view.View(), "★ #1")

	msg = h.press("f")().(tui.NotifyMsg)
	assert.Contains(t, msg.Text, "Removed Mission 1")
	assert.False(t, h.favs.IsFavorite(context.Background(), 1))
}

func TestMainView_Badge(t *testing.T) {
	h := newHarness(t)

	h.send(favoritesChangedMsg{change: favorites.Change{Count: 3}})
	assert.Contains(t, h.view.View(), "★ 3")

	h.send(favoritesChangedMsg{change: favorites.Change{Count: 12, External: true}})
	assert.Equal(t, 12, h.view.FavoriteCount())
	assert.Contains(t, h.view.View(), "★ 9+")
}

func TestMainView_Detail(t *testing.T) {
	h := newHarness(t)
	h.send(snapshotMsg{snap: loaded(launches(1, 3), false)})
	h.press("j")

	cmd := h.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	show, ok := cmd().(ShowDetailMsg)
	require.True(t, ok)
	assert.Equal(t, 2, show.Flight)

	cached, ok := h.details.Get(context.Background(), 2)
	require.True(t, ok)
	assert.Equal(t, "Mission 2", cached.MissionName)

	load := h.send(show)
	assert.Equal(t, ScreenDetail, h.view.Screen())
	h.send(load())

	launch, found := h.view.Detail().Launch()
	require.True(t, found)
	assert.Equal(t, 2, launch.FlightNumber)

	view := h.view.View()
	assert.Contains(t, view, "Mission 2")
	assert.Contains(t, view, "Falcon 9")
	assert.Contains(t, view, "CCAFS SLC 40")
	assert.Contains(t, view, "2020-01-07 02:19 UTC")
	assert.Contains(t, view, "years ago")

	h.press("v")
	assert.True(t, h.view.Detail().Raw())
	assert.Contains(t, h.view.View(), `"flight_number": 2`)
	h.press("j")
	h.press("v")
	assert.False(t, h.view.Detail().Raw())

	back := h.send(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, back)
	h.send(back())
	assert.Equal(t, ScreenBrowse, h.view.Screen())
}

func TestDetail_NotCached(t *testing.T) {
	h := newHarness(t)

	load := h.send(ShowDetailMsg{Flight: 99})
	h.send(load())
	_, found := h.view.Detail().Launch()
	assert.False(t, found)
	assert.Contains(t, h.view.View(), "Launch #99 is not in the detail cache")

	h.press("v")
	assert.False(t, h.view.Detail().Raw())
}

func TestDetail_CacheWriteFails(t *testing.T) {
	h := newHarness(t)

	kv, err := sqlite.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, kv.Close())

	show, ok := openDetail(detail.New(kv, nil), launches(7, 1)[0])().(ShowDetailMsg)
	require.True(t, ok)
	assert.Equal(t, 7, show.Flight)
	require.Error(t, show.CacheErr)

	cmd := h.send(show)
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	var notified []tui.NotifyMsg
	for _, c := range batch {
		if msg, ok := c().(tui.NotifyMsg); ok {
			notified = append(notified, msg)
		}
	}
	require.Len(t, notified, 1)
	assert.True(t, notified[0].Error)
	assert.Contains(t, notified[0].Text, "Could not cache launch details")
	assert.Equal(t, ScreenDetail, h.view.Screen())
}

func TestFavoritesView(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, l := range launches(1, 3) {
		_, err := h.favs.Add(ctx, l)
		require.NoError(t, err)
	}
	h.reloadFavorites()

	cmd := h.press("F")
	require.NotNil(t, cmd)
	h.send(cmd())
	require.Equal(t, ScreenFavorites, h.view.Screen())
	fv := h.view.FavoritesView()
	assert.Equal(t, 3, fv.List().Len())

	t.Run("nothing selected", func(t *testing.T) {
		msg := h.press("D")().(tui.NotifyMsg)
		assert.Equal(t, "Nothing selected", msg.Text)
		assert.False(t, fv.Confirming())
	})

	t.Run("select all toggles", func(t *testing.T) {
		h.press("a")
		assert.Equal(t, []int{1, 2, 3}, fv.Selected())
		h.press("a")
		assert.Empty(t, fv.Selected())
	})

	t.Run("copy mission name", func(t *testing.T) {
		msg := h.press("y")().(tui.NotifyMsg)
		assert.Equal(t, "Copied Mission 1", msg.Text)
		assert.Equal(t, []string{"Mission 1"}, h.copied)
	})

	t.Run("bulk remove with confirmation", func(t *testing.T) {
		h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		h.press("j")
		h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		assert.Equal(t, []int{1, 2}, fv.Selected())

		assert.Nil(t, h.press("D"))
		require.True(t, fv.Confirming())
		assert.Contains(t, h.view.View(), "Remove 2 favorites?")

		// q does not quit while the prompt is open
		assert.Nil(t, h.press("q"))
		require.True(t, fv.Confirming())

		cmd := h.press("y")
		require.NotNil(t, cmd)
		msg := cmd().(tui.NotifyMsg)
		assert.Equal(t, "Removed 2 favorites", msg.Text)
		assert.Equal(t, 1, h.favs.Count(ctx))

		h.reloadFavorites()
		assert.Equal(t, 1, fv.List().Len())
		assert.Empty(t, fv.Selected())
	})

	t.Run("cancel confirmation", func(t *testing.T) {
		h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		h.press("D")
		h.press("n")
		assert.False(t, fv.Confirming())
		assert.Equal(t, 1, h.favs.Count(ctx))
	})

	t.Run("remove one", func(t *testing.T) {
		msg := h.press("d")().(tui.NotifyMsg)
		assert.Contains(t, msg.Text, "Removed Mission 3")
		assert.Equal(t, 0, h.favs.Count(ctx))
	})

	t.Run("back to browse", func(t *testing.T) {
		cmd := h.send(tea.KeyMsg{Type: tea.KeyEsc})
		h.send(cmd())
		assert.Equal(t, ScreenBrowse, h.view.Screen())
	})
}

func TestMainView_Notification(t *testing.T) {
	h := newHarness(t)

	cmd := h.send(tui.NotifyMsg{Text: "Saved"})
	assert.NotNil(t, cmd)
	assert.Equal(t, "Saved", h.view.Notification())

	// the fixed clock never passes the expiry
	h.send(clearNotificationMsg{})
	assert.Equal(t, "Saved", h.view.Notification())
}

func TestMainView_HelpAndQuit(t *testing.T) {
	h := newHarness(t)

	h.press("?")
	assert.True(t, h.view.ShowingHelp())
	assert.Contains(t, h.view.View(), "Keyboard shortcuts")

	assert.Nil(t, h.press("q"))
	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.view.ShowingHelp())

	cmd := h.press("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cmd = h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
