package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/artpar/liftoff/internal/core"
	"github.com/artpar/liftoff/internal/detail"
	"github.com/artpar/liftoff/internal/favorites"
	"github.com/artpar/liftoff/internal/tui"
	"github.com/artpar/liftoff/internal/tui/components"
)

// DetailView shows one launch read back from the detail cache.
type DetailView struct {
	*tui.BaseComponent
	styles    tui.Styles
	details   *detail.Cache
	favorites *favorites.Store
	now       func() time.Time

	flight     int
	launch     core.Launch
	found      bool
	loaded     bool
	isFavorite bool
	raw        bool
	rawView    *components.JSONView

	back     key.Binding
	favorite key.Binding
	toggle   key.Binding
	up       key.Binding
	down     key.Binding
}

// NewDetailView creates the detail view.
func NewDetailView(details *detail.Cache, favs *favorites.Store, now func() time.Time) *DetailView {
	if now == nil {
		now = time.Now
	}
	return &DetailView{
		BaseComponent: tui.NewBaseComponent("Launch"),
		styles:        tui.DefaultStyles(),
		details:       details,
		favorites:     favs,
		now:           now,
		back:          key.NewBinding(key.WithKeys("esc", "backspace", "b"), key.WithHelp("esc", "back")),
		favorite:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		toggle:        key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "json")),
		up:            key.NewBinding(key.WithKeys("up", "k")),
		down:          key.NewBinding(key.WithKeys("down", "j")),
		rawView:       components.NewJSONView(),
	}
}

// Init initializes the view.
func (v *DetailView) Init() tea.Cmd {
	return nil
}

// Load shows flight, reading it from the cache.
func (v *DetailView) Load(flight int) tea.Cmd {
	v.flight = flight
	v.loaded = false
	v.found = false
	cache := v.details
	return func() tea.Msg {
		launch, ok := cache.Get(context.Background(), flight)
		return detailLoadedMsg{flight: flight, launch: launch, found: ok}
	}
}

// SetSize sets dimensions. The JSON view gets the rows below the title
// and above the hints.
func (v *DetailView) SetSize(width, height int) {
	v.BaseComponent.SetSize(width, height)
	v.rawView.SetSize(width, max(height-4, 1))
}

// Raw reports whether the JSON view is shown.
func (v *DetailView) Raw() bool {
	return v.raw
}

// Launch returns the shown launch and whether it was found.
func (v *DetailView) Launch() (core.Launch, bool) {
	return v.launch, v.found
}

// SetFavorites updates the favorite marker.
func (v *DetailView) SetFavorites(set map[int]bool) {
	v.isFavorite = set[v.flight]
}

// Update handles messages.
func (v *DetailView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case detailLoadedMsg:
		if msg.flight != v.flight {
			return v, nil
		}
		v.loaded = true
		v.found = msg.found
		v.launch = msg.launch
		v.raw = false
		if v.found {
			if err := v.rawView.SetValue(v.launch); err != nil {
				return v, tui.NotifyError("Could not render launch: " + err.Error())
			}
		}
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.back):
			return v, back
		case key.Matches(msg, v.favorite):
			if v.found {
				return v, toggleFavorite(v.favorites, v.launch)
			}
		case key.Matches(msg, v.toggle):
			v.raw = v.found && !v.raw
		case v.raw && key.Matches(msg, v.up):
			v.rawView.Scroll(-1)
		case v.raw && key.Matches(msg, v.down):
			v.rawView.Scroll(1)
		}
	}
	return v, nil
}

// View renders the view.
func (v *DetailView) View() string {
	if !v.loaded {
		return v.styles.Muted.Render("Loading...")
	}
	if !v.found {
		return v.styles.Error.Render(fmt.Sprintf("Launch #%d is not in the detail cache", v.flight)) +
			"\n\n" + tui.RenderHints(v.styles, []tui.Hint{{Key: "esc", Desc: "back"}})
	}

	l := v.launch
	var sb strings.Builder
	sb.WriteString(v.styles.Title.Render(l.MissionName))
	if v.isFavorite {
		sb.WriteString(v.styles.Key.Render("  ★"))
	}
	sb.WriteString("\n\n")

	if v.raw {
		sb.WriteString(v.rawView.View())
		sb.WriteString("\n\n")
		sb.WriteString(tui.RenderHints(v.styles, []tui.Hint{{Key: "j/k", Desc: "scroll"}, {Key: "v", Desc: "fields"}, {Key: "esc", Desc: "back"}}))
		return sb.String()
	}

	field := func(label, value string) {
		sb.WriteString(v.styles.Muted.Render(tui.PadRight(label, 14)))
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	field("Flight", fmt.Sprintf("#%d", l.FlightNumber))
	field("Outcome", v.renderOutcome(l.Outcome()))
	field("Rocket", orDash(l.Rocket.RocketName))
	field("Launch site", orDash(l.LaunchSite.SiteName))
	field("Launch date", v.renderDate(l))
	if patch := l.PatchURL(); patch != "" {
		field("Patch", patch)
	}

	sb.WriteString("\n")
	favHint := "add favorite"
	if v.isFavorite {
		favHint = "remove favorite"
	}
	sb.WriteString(tui.RenderHints(v.styles, []tui.Hint{{Key: "f", Desc: favHint}, {Key: "v", Desc: "json"}, {Key: "esc", Desc: "back"}}))
	return sb.String()
}

func (v *DetailView) renderOutcome(o core.Outcome) string {
	switch o {
	case core.OutcomeSucceeded:
		return v.styles.Success.Render(o.String())
	case core.OutcomeFailed:
		return v.styles.Error.Render(o.String())
	default:
		return o.String()
	}
}

func (v *DetailView) renderDate(l core.Launch) string {
	t, err := l.LaunchTime()
	if err != nil {
		return orDash(l.LaunchDateUTC)
	}
	return fmt.Sprintf("%s (%s)", t.UTC().Format("2006-01-02 15:04 UTC"),
		humanize.RelTime(t, v.now(), "ago", "from now"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
