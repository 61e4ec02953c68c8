package harness

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/artpar/liftoff/internal/app"
	"github.com/artpar/liftoff/internal/tui/views"
)

// TUIRunner provides TUI testing capabilities.
type TUIRunner struct {
	harness *E2EHarness
}

// TUISession is a running bubbletea program over a real app: orchestrator,
// SQLite stores and the harness upstream. Input is delivered through
// Send; no terminal is involved.
type TUISession struct {
	runner  *TUIRunner
	t       *testing.T
	app     *app.App
	program *tea.Program

	mu        sync.Mutex
	output    string
	state     *State
	synced    uint64
	clipboard []string

	nextSync uint64
	done     chan struct{}
}

// syncMsg marks a point in the message stream; once it has been
// processed every message sent before it has been too.
type syncMsg struct{ id uint64 }

// recorder wraps the MainView and records output and state after every
// update.
type recorder struct {
	view    *views.MainView
	session *TUISession
}

func (m recorder) Init() tea.Cmd {
	return m.view.Init()
}

func (m recorder) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if s, ok := msg.(syncMsg); ok {
		m.session.mu.Lock()
		m.session.synced = s.id
		m.session.mu.Unlock()
		return m, nil
	}
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.MainView)
	m.session.record(m.view)
	return m, cmd
}

func (m recorder) View() string {
	return m.view.View()
}

// Start starts a new TUI session with a 120x40 terminal.
func (r *TUIRunner) Start(t *testing.T) *TUISession {
	return r.StartWithSize(t, 120, 40)
}

// StartWithSize starts a TUI session with custom dimensions.
func (r *TUIRunner) StartWithSize(t *testing.T, width, height int) *TUISession {
	t.Helper()

	a, err := app.New(r.harness.AppConfig())
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	orch := a.NewOrchestrator()
	orchDone := make(chan struct{})
	go func() {
		defer close(orchDone)
		orch.Run(ctx)
	}()

	s := &TUISession{
		runner: r,
		t:      t,
		app:    a,
		done:   make(chan struct{}),
	}

	view := views.NewMainView(orch, a.Favorites(), a.Details(),
		views.WithClipboard(s.copy))

	s.program = tea.NewProgram(recorder{view: view, session: s},
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	go func() {
		defer close(s.done)
		s.program.Run()
	}()

	s.send(tea.WindowSizeMsg{Width: width, Height: height})

	t.Cleanup(func() {
		s.Quit()
		cancel()
		<-orchDone
		orch.Close()
		view.Close()
		a.Close()
	})
	return s
}

func (s *TUISession) copy(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboard = append(s.clipboard, text)
	return nil
}

func (s *TUISession) record(view *views.MainView) {
	state := captureState(view)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = state.Output
	s.state = state
}

// send delivers msg and blocks until the program has processed it.
func (s *TUISession) send(msg tea.Msg) {
	s.nextSync++
	id := s.nextSync
	s.program.Send(msg)
	s.program.Send(syncMsg{id: id})

	deadline := time.Now().Add(s.runner.harness.timeout)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		synced := s.synced
		s.mu.Unlock()
		if synced >= id {
			return
		}
		select {
		case <-s.done:
			return
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.t.Fatalf("program did not process %T within %v", msg, s.runner.harness.timeout)
}

// SendKey sends a key press.
func (s *TUISession) SendKey(key string) *TUISession {
	s.send(parseKeyMsg(key))
	return s
}

// SendKeys sends multiple key presses.
func (s *TUISession) SendKeys(keys ...string) *TUISession {
	for _, key := range keys {
		s.SendKey(key)
	}
	return s
}

// Type sends a sequence of rune keys.
func (s *TUISession) Type(text string) *TUISession {
	for _, r := range text {
		s.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return s
}

// Wait pauses for the specified duration.
func (s *TUISession) Wait(d time.Duration) *TUISession {
	time.Sleep(d)
	return s
}

// WaitFor polls until condition holds for the current state.
func (s *TUISession) WaitFor(condition func(*State) bool) error {
	timeout := s.runner.harness.timeout
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if condition(s.CaptureState()) {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	return &TimeoutError{text: "condition", timeout: timeout}
}

// WaitForOutput waits for specific text in output.
func (s *TUISession) WaitForOutput(text string) error {
	err := s.WaitFor(func(st *State) bool {
		return strings.Contains(st.Output, text)
	})
	if err != nil {
		return &TimeoutError{text: text, timeout: s.runner.harness.timeout}
	}
	return nil
}

// Output returns the current TUI output.
func (s *TUISession) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

// CaptureState returns the state recorded after the latest update.
func (s *TUISession) CaptureState() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return &State{Browse: &BrowseState{}, Favorites: &FavoritesState{}, Detail: &DetailState{}}
	}
	st := *s.state
	st.Clipboard = append([]string(nil), s.clipboard...)
	return &st
}

// Quit stops the program.
func (s *TUISession) Quit() {
	s.program.Quit()
	select {
	case <-s.done:
	case <-time.After(s.runner.harness.timeout):
		s.program.Kill()
		<-s.done
	}
}

// Done is closed when the program exits.
func (s *TUISession) Done() <-chan struct{} {
	return s.done
}

// App returns the app behind the session.
func (s *TUISession) App() *app.App {
	return s.app
}

// TimeoutError represents a timeout waiting for output.
type TimeoutError struct {
	text    string
	timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return "timeout after " + e.timeout.String() + " waiting for: " + e.text
}

// parseKeyMsg converts key string to tea.KeyMsg.
func parseKeyMsg(key string) tea.KeyMsg {
	switch strings.ToLower(key) {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc", "escape":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}
