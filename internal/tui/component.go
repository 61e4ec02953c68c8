package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Component is the interface for all TUI components.
type Component interface {
	// Init initializes the component.
	Init() tea.Cmd

	// Update handles messages and returns the updated component.
	Update(msg tea.Msg) (Component, tea.Cmd)

	// View renders the component.
	View() string

	// Title returns the component title.
	Title() string

	// SetSize sets the component dimensions.
	SetSize(width, height int)

	// Width returns the component width.
	Width() int

	// Height returns the component height.
	Height() int
}

// Messages

// NotifyMsg shows a short-lived message in the status bar.
type NotifyMsg struct {
	Text  string
	Error bool
}

// Notify returns a command that emits a NotifyMsg.
func Notify(text string) tea.Cmd {
	return func() tea.Msg { return NotifyMsg{Text: text} }
}

// NotifyError returns a command that emits an error NotifyMsg.
func NotifyError(text string) tea.Cmd {
	return func() tea.Msg { return NotifyMsg{Text: text, Error: true} }
}

// BaseComponent provides size and title bookkeeping for components.
type BaseComponent struct {
	title  string
	width  int
	height int
}

// NewBaseComponent creates a new base component.
func NewBaseComponent(title string) *BaseComponent {
	return &BaseComponent{title: title}
}

// Title returns the component title.
func (c *BaseComponent) Title() string {
	return c.title
}

// SetSize sets dimensions.
func (c *BaseComponent) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the width.
func (c *BaseComponent) Width() int {
	return c.width
}

// Height returns the height.
func (c *BaseComponent) Height() int {
	return c.height
}

// Styles

// Styles holds the shared palette.
type Styles struct {
	Title    lipgloss.Style
	Key      lipgloss.Style
	Desc     lipgloss.Style
	Sep      lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Selected lipgloss.Style
	Badge    lipgloss.Style
}

// DefaultStyles returns default styling.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")),
		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		Desc:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Sep:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("62")),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("214")).
			Padding(0, 1),
	}
}

// Hint is one key/description pair of a help bar.
type Hint struct {
	Key  string
	Desc string
}

// RenderHints renders a help bar line.
func RenderHints(styles Styles, hints []Hint) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = styles.Key.Render(h.Key) + styles.Desc.Render(" "+h.Desc)
	}
	return strings.Join(parts, styles.Sep.Render(" │ "))
}

// RenderTitle renders a title bar.
func RenderTitle(title string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("62")).
		Padding(0, 1).
		Render(title)
}

// Truncate truncates a string to fit within a width.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// PadRight pads a string to a given width.
func PadRight(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
