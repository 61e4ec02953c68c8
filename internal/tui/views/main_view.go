package views

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/artpar/liftoff/internal/detail"
	"github.com/artpar/liftoff/internal/favorites"
	"github.com/artpar/liftoff/internal/logging"
	"github.com/artpar/liftoff/internal/tui"
	"github.com/artpar/liftoff/internal/tui/components"
)

const notificationTTL = 3 * time.Second

// Option configures a MainView.
type Option func(*MainView)

// WithLogger sets the view logger.
func WithLogger(l *log.Logger) Option {
	return func(v *MainView) {
		v.logger = l
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(v *MainView) {
		v.copyText = fn
	}
}

// WithNow sets the time source for relative dates and notifications.
func WithNow(now func() time.Time) Option {
	return func(v *MainView) {
		v.now = now
	}
}

// MainView switches between the browse, favorites and detail screens
// and owns the subscriptions feeding them.
type MainView struct {
	width    int
	height   int
	styles   tui.Styles
	logger   *log.Logger
	now      func() time.Time
	copyText func(string) error

	screen   Screen
	previous Screen
	browse   *BrowseView
	favsView *FavoritesView
	detail   *DetailView

	launches   LaunchSource
	favorites  *favorites.Store
	favChanges <-chan favorites.Change
	cancelFavs func()

	favoriteCount int
	showHelp      bool
	notification  string
	notifyError   bool
	notifyUntil   time.Time
}

// NewMainView creates the root view.
func NewMainView(launches LaunchSource, favs *favorites.Store, details *detail.Cache, opts ...Option) *MainView {
	v := &MainView{
		styles:    tui.DefaultStyles(),
		now:       time.Now,
		copyText:  clipboard.WriteAll,
		launches:  launches,
		favorites: favs,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = logging.OrDiscard(v.logger)

	v.browse = NewBrowseView(launches, favs, details)
	v.favsView = NewFavoritesView(favs, details, v.copyText)
	v.detail = NewDetailView(details, favs, v.now)
	v.favChanges, v.cancelFavs = favs.Subscribe()
	return v
}

// Init starts the first fetch and the update subscriptions.
func (v *MainView) Init() tea.Cmd {
	launches := v.launches
	return tea.Batch(
		func() tea.Msg {
			launches.Start()
			return nil
		},
		waitForSnapshot(launches.Updates()),
		waitForFavorites(v.favChanges),
		loadFavorites(v.favorites),
	)
}

// Close drops the favorites subscription.
func (v *MainView) Close() {
	v.cancelFavs()
}

// Update handles messages.
func (v *MainView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case snapshotMsg:
		cmd := v.browse.SetSnapshot(msg.snap)
		return v, tea.Batch(cmd, waitForSnapshot(v.launches.Updates()))

	case favoritesChangedMsg:
		v.favoriteCount = msg.change.Count
		if msg.change.External {
			v.logger.Debug("favorites changed by another process", "count", msg.change.Count)
		}
		return v, tea.Batch(loadFavorites(v.favorites), waitForFavorites(v.favChanges))

	case favoritesLoadedMsg:
		v.favoriteCount = len(msg.items)
		set := favoriteSet(msg.items)
		v.browse.SetFavorites(set)
		v.detail.SetFavorites(set)
		v.favsView.SetItems(msg.items)
		return v, nil

	case ShowScreenMsg:
		v.screen = msg.Screen
		return v, nil

	case ShowDetailMsg:
		if v.screen != ScreenDetail {
			v.previous = v.screen
		}
		v.screen = ScreenDetail
		cmd := v.detail.Load(msg.Flight)
		v.detail.SetFavorites(favoriteSet(v.favsView.List().Items()))
		if msg.CacheErr != nil {
			v.logger.Warn("detail cache write failed", "flight", msg.Flight, "err", msg.CacheErr)
			return v, tea.Batch(cmd, tui.NotifyError("Could not cache launch details: "+msg.CacheErr.Error()))
		}
		return v, cmd

	case BackMsg:
		v.screen = v.previous
		return v, nil

	case detailLoadedMsg:
		_, cmd := v.detail.Update(msg)
		return v, cmd

	case spinner.TickMsg:
		_, cmd := v.browse.Update(msg)
		return v, cmd

	case tui.NotifyMsg:
		v.notification = msg.Text
		v.notifyError = msg.Error
		v.notifyUntil = v.now().Add(notificationTTL)
		if msg.Error {
			v.logger.Warn(msg.Text)
		}
		return v, tea.Tick(notificationTTL, func(time.Time) tea.Msg {
			return clearNotificationMsg{}
		})

	case clearNotificationMsg:
		if !v.now().Before(v.notifyUntil) {
			v.notification = ""
		}
		return v, nil
	}

	return v.forward(msg)
}

func (v *MainView) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return v, tea.Quit
	}

	if v.showHelp {
		if msg.Type == tea.KeyEsc || msg.String() == "?" {
			v.showHelp = false
		}
		return v, nil
	}

	if !v.capturingInput() {
		switch msg.String() {
		case "q":
			return v, tea.Quit
		case "?":
			v.showHelp = true
			return v, nil
		}
	}

	return v.forward(msg)
}

// capturingInput reports whether the active screen consumes every key.
func (v *MainView) capturingInput() bool {
	switch v.screen {
	case ScreenBrowse:
		return v.browse.Searching()
	case ScreenFavorites:
		return v.favsView.Confirming()
	}
	return false
}

func (v *MainView) forward(msg tea.Msg) (tui.Component, tea.Cmd) {
	var cmd tea.Cmd
	switch v.screen {
	case ScreenBrowse:
		_, cmd = v.browse.Update(msg)
	case ScreenFavorites:
		_, cmd = v.favsView.Update(msg)
	case ScreenDetail:
		_, cmd = v.detail.Update(msg)
	}
	return v, cmd
}

// View renders the view.
func (v *MainView) View() string {
	if v.width == 0 || v.height == 0 {
		return ""
	}
	if v.showHelp {
		return v.renderHelp()
	}

	var body string
	switch v.screen {
	case ScreenFavorites:
		body = v.favsView.View()
	case ScreenDetail:
		body = v.detail.View()
	default:
		body = v.browse.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.renderHeader(),
		body,
		v.renderStatusBar(),
	)
}

func (v *MainView) renderHeader() string {
	tab := func(label string, active bool) string {
		if active {
			return v.styles.Selected.Render(" " + label + " ")
		}
		return v.styles.Muted.Render(" " + label + " ")
	}

	header := v.styles.Title.Render("liftoff ") +
		tab("Launches", v.screen == ScreenBrowse) +
		tab("Favorites", v.screen == ScreenFavorites)
	if badge := components.Badge(v.favoriteCount); badge != "" {
		header += " " + v.styles.Badge.Render("★ "+badge)
	}
	return header
}

func (v *MainView) renderStatusBar() string {
	if v.notification == "" {
		return ""
	}
	if v.notifyError {
		return v.styles.Error.Render(v.notification)
	}
	return v.styles.Success.Render(v.notification)
}

func (v *MainView) renderHelp() string {
	sections := []struct {
		title string
		hints []tui.Hint
	}{
		{"Launches", []tui.Hint{
			{Key: "j/k", Desc: "move"}, {Key: "/", Desc: "search"}, {Key: "s", Desc: "cycle sort"},
			{Key: "f", Desc: "toggle favorite"}, {Key: "enter", Desc: "details"},
			{Key: "r", Desc: "reload"}, {Key: "F", Desc: "favorites"},
		}},
		{"Favorites", []tui.Hint{
			{Key: "space", Desc: "select"}, {Key: "a", Desc: "select all"}, {Key: "d", Desc: "remove"},
			{Key: "D", Desc: "remove selected"}, {Key: "y", Desc: "copy mission name"}, {Key: "esc", Desc: "back"},
		}},
		{"Launch", []tui.Hint{
			{Key: "f", Desc: "toggle favorite"}, {Key: "v", Desc: "raw JSON"}, {Key: "j/k", Desc: "scroll JSON"},
			{Key: "esc", Desc: "back"},
		}},
		{"Global", []tui.Hint{{Key: "?", Desc: "help"}, {Key: "q", Desc: "quit"}}},
	}

	var sb strings.Builder
	sb.WriteString(tui.RenderTitle("Keyboard shortcuts", v.width))
	sb.WriteString("\n")
	for _, s := range sections {
		sb.WriteString("\n")
		sb.WriteString(v.styles.Title.Render(s.title))
		sb.WriteString("\n")
		for _, h := range s.hints {
			sb.WriteString("  ")
			sb.WriteString(v.styles.Key.Render(tui.PadRight(h.Key, 8)))
			sb.WriteString(v.styles.Desc.Render(h.Desc))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
	sb.WriteString(v.styles.Muted.Render("Press ? or Esc to close"))
	return sb.String()
}

// Title returns the view title.
func (v *MainView) Title() string {
	return "liftoff"
}

// SetSize sets dimensions.
func (v *MainView) SetSize(width, height int) {
	v.width = width
	v.height = height
	// header and status bar
	body := max(1, height-2)
	v.browse.SetSize(width, body)
	v.favsView.SetSize(width, body)
	v.detail.SetSize(width, body)
}

// Width returns the width.
func (v *MainView) Width() int {
	return v.width
}

// Height returns the height.
func (v *MainView) Height() int {
	return v.height
}

// Screen returns the active screen.
func (v *MainView) Screen() Screen {
	return v.screen
}

// Browse returns the browse view.
func (v *MainView) Browse() *BrowseView {
	return v.browse
}

// FavoritesView returns the favorites view.
func (v *MainView) FavoritesView() *FavoritesView {
	return v.favsView
}

// Detail returns the detail view.
func (v *MainView) Detail() *DetailView {
	return v.detail
}

// FavoriteCount returns the count shown in the badge.
func (v *MainView) FavoriteCount() int {
	return v.favoriteCount
}

// ShowingHelp reports whether the help overlay is open.
func (v *MainView) ShowingHelp() bool {
	return v.showHelp
}

// Notification returns the current status bar message.
func (v *MainView) Notification() string {
	return v.notification
}
