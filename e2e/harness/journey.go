package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"
)

// Journey represents a user journey test.
type Journey struct {
	t           *testing.T
	name        string
	harness     *E2EHarness
	session     *TUISession
	steps       []*Step
	currentStep int
}

// Check inspects a state and reports what does not match yet.
type Check func(*State) error

// Step represents a single step in a journey. Its checks are polled
// until they all pass or the timeout runs out, since pages and favorites
// arrive asynchronously.
type Step struct {
	name    string
	actions []func(*TUISession)
	checks  []Check
	timeout time.Duration
}

// NewJourney creates a new journey test over the sample catalog.
func NewJourney(t *testing.T, name string) *Journey {
	return NewJourneyWith(t, name, Config{})
}

// NewJourneyWith creates a journey with a custom harness config.
func NewJourneyWith(t *testing.T, name string, cfg Config) *Journey {
	return &Journey{
		t:       t,
		name:    name,
		harness: New(t, cfg),
		steps:   make([]*Step, 0),
	}
}

// Harness returns the journey harness.
func (j *Journey) Harness() *E2EHarness {
	return j.harness
}

// Step adds a new step to the journey.
func (j *Journey) Step(name string) *StepBuilder {
	step := &Step{
		name:    name,
		actions: make([]func(*TUISession), 0),
		checks:  make([]Check, 0),
		timeout: j.harness.timeout,
	}
	j.steps = append(j.steps, step)
	return &StepBuilder{journey: j, step: step}
}

// Run executes the journey.
func (j *Journey) Run() {
	j.t.Helper()
	j.t.Run(j.name, func(t *testing.T) {
		j.session = j.harness.TUI().Start(t)

		for i, step := range j.steps {
			j.currentStep = i
			t.Logf("Step %d: %s", i+1, step.name)

			for _, action := range step.actions {
				action(j.session)
			}

			if err := j.waitForChecks(step); err != nil {
				t.Fatalf("Step %d (%s): %v\n%s", i+1, step.name, err,
					truncate(j.session.Output(), 1500))
			}
		}
	})
}

func (j *Journey) waitForChecks(step *Step) error {
	deadline := time.Now().Add(step.timeout)
	for {
		state := j.session.CaptureState()
		var errs []error
		for _, check := range step.checks {
			if err := check(state); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("after %v: %w", step.timeout, errors.Join(errs...))
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// StepBuilder provides a fluent API for building steps.
type StepBuilder struct {
	journey *Journey
	step    *Step
}

// SendKey adds a key press action.
func (b *StepBuilder) SendKey(key string) *StepBuilder {
	b.step.actions = append(b.step.actions, func(s *TUISession) {
		s.SendKey(key)
	})
	return b
}

// SendKeys adds multiple key press actions.
func (b *StepBuilder) SendKeys(keys ...string) *StepBuilder {
	b.step.actions = append(b.step.actions, func(s *TUISession) {
		s.SendKeys(keys...)
	})
	return b
}

// Type adds a typing action.
func (b *StepBuilder) Type(text string) *StepBuilder {
	b.step.actions = append(b.step.actions, func(s *TUISession) {
		s.Type(text)
	})
	return b
}

// Do adds an arbitrary action, such as changing the database from
// another process.
func (b *StepBuilder) Do(action func(*TUISession)) *StepBuilder {
	b.step.actions = append(b.step.actions, action)
	return b
}

// Wait adds a pause.
func (b *StepBuilder) Wait(d time.Duration) *StepBuilder {
	b.step.actions = append(b.step.actions, func(s *TUISession) {
		s.Wait(d)
	})
	return b
}

// Within overrides the step timeout.
func (b *StepBuilder) Within(d time.Duration) *StepBuilder {
	b.step.timeout = d
	return b
}

// Expect adds a custom check.
func (b *StepBuilder) Expect(check Check) *StepBuilder {
	b.step.checks = append(b.step.checks, check)
	return b
}

// ExpectScreen asserts the active screen.
func (b *StepBuilder) ExpectScreen(screen string) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.Screen != screen {
			return fmt.Errorf("expected screen %q, got %q", screen, s.Screen)
		}
		return nil
	})
}

// ExpectLaunchCount asserts how many launches the browse list holds.
func (b *StepBuilder) ExpectLaunchCount(n int) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.Browse == nil || len(s.Browse.Missions) != n {
			return fmt.Errorf("expected %d launches, got %d", n, browseLen(s))
		}
		return nil
	})
}

// ExpectLoaded asserts the list is idle with the given hasMore flag.
func (b *StepBuilder) ExpectLoaded(hasMore bool) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.Browse == nil || s.Browse.Loading {
			return errors.New("expected list to be loaded")
		}
		if s.Browse.HasMore != hasMore {
			return fmt.Errorf("expected hasMore=%v", hasMore)
		}
		return nil
	})
}

// ExpectCurrent asserts the mission under the browse cursor.
func (b *StepBuilder) ExpectCurrent(mission string) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.Browse == nil || s.Browse.Current != mission {
			return fmt.Errorf("expected current %q, got %q", mission, s.Browse.Current)
		}
		return nil
	})
}

// ExpectAllMissions asserts every listed mission satisfies match.
func (b *StepBuilder) ExpectAllMissions(desc string, match func(string) bool) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.Browse == nil || len(s.Browse.Missions) == 0 {
			return errors.New("expected launches")
		}
		for _, m := range s.Browse.Missions {
			if !match(m) {
				return fmt.Errorf("mission %q is not %s", m, desc)
			}
		}
		return nil
	})
}

// ExpectSearch asserts the search input value and focus.
func (b *StepBuilder) ExpectSearch(value string, focused bool) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.Browse.Search != value || s.Browse.Searching != focused {
			return fmt.Errorf("expected search %q focused=%v, got %q focused=%v",
				value, focused, s.Browse.Search, s.Browse.Searching)
		}
		return nil
	})
}

// ExpectSort asserts the applied sort value.
func (b *StepBuilder) ExpectSort(value string) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.Browse.SortValue != value {
			return fmt.Errorf("expected sort %q, got %q", value, s.Browse.SortValue)
		}
		return nil
	})
}

// ExpectError asserts the list failed to load.
func (b *StepBuilder) ExpectError() *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.Browse == nil || s.Browse.Error == "" {
			return errors.New("expected a load error")
		}
		return nil
	})
}

// ExpectFavoriteCount asserts the header badge count.
func (b *StepBuilder) ExpectFavoriteCount(n int) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.FavoriteCount != n {
			return fmt.Errorf("expected %d favorites, got %d", n, s.FavoriteCount)
		}
		return nil
	})
}

// ExpectFavorites asserts the missions on the favorites screen.
func (b *StepBuilder) ExpectFavorites(missions ...string) *StepBuilder {
	return b.Expect(func(s *State) error {
		got := s.Favorites.Missions
		if !slices.Equal(got, missions) && !(len(got) == 0 && len(missions) == 0) {
			return fmt.Errorf("expected favorites %v, got %v", missions, got)
		}
		return nil
	})
}

// ExpectSelected asserts the selected favorite flights.
func (b *StepBuilder) ExpectSelected(flights ...int) *StepBuilder {
	return b.Expect(func(s *State) error {
		if !slices.Equal(s.Favorites.Selected, flights) && !(len(s.Favorites.Selected) == 0 && len(flights) == 0) {
			return fmt.Errorf("expected selection %v, got %v", flights, s.Favorites.Selected)
		}
		return nil
	})
}

// ExpectConfirming asserts the bulk removal prompt state.
func (b *StepBuilder) ExpectConfirming(confirming bool) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.Favorites.Confirming != confirming {
			return fmt.Errorf("expected confirming=%v", confirming)
		}
		return nil
	})
}

// ExpectDetail asserts the detail screen shows mission.
func (b *StepBuilder) ExpectDetail(mission string) *StepBuilder {
	return b.Expect(func(s *State) error {
		if !s.Detail.Found || s.Detail.Mission != mission {
			return fmt.Errorf("expected detail for %q, got %q (found=%v)", mission, s.Detail.Mission, s.Detail.Found)
		}
		return nil
	})
}

// ExpectNotification asserts the status bar notification contains text.
func (b *StepBuilder) ExpectNotification(text string) *StepBuilder {
	return b.Expect(func(s *State) error {
		if !strings.Contains(s.Notification, text) {
			return fmt.Errorf("expected notification containing %q, got %q", text, s.Notification)
		}
		return nil
	})
}

// ExpectHelp asserts the help overlay visibility.
func (b *StepBuilder) ExpectHelp(visible bool) *StepBuilder {
	return b.Expect(func(s *State) error {
		if s.ShowingHelp != visible {
			return fmt.Errorf("expected help visible=%v", visible)
		}
		return nil
	})
}

// ExpectOutput asserts the rendered output contains every text.
func (b *StepBuilder) ExpectOutput(texts ...string) *StepBuilder {
	return b.Expect(func(s *State) error {
		for _, text := range texts {
			if !strings.Contains(s.Output, text) {
				return fmt.Errorf("expected output to contain %q", text)
			}
		}
		return nil
	})
}

// ExpectClipboard asserts the last copied text.
func (b *StepBuilder) ExpectClipboard(text string) *StepBuilder {
	return b.Expect(func(s *State) error {
		if len(s.Clipboard) == 0 || s.Clipboard[len(s.Clipboard)-1] != text {
			return fmt.Errorf("expected clipboard %q, got %v", text, s.Clipboard)
		}
		return nil
	})
}

// Step starts a new step (returns to journey to continue chaining).
func (b *StepBuilder) Step(name string) *StepBuilder {
	return b.journey.Step(name)
}

// Run executes the journey (terminal operation).
func (b *StepBuilder) Run() {
	b.journey.Run()
}

func browseLen(s *State) int {
	if s.Browse == nil {
		return 0
	}
	return len(s.Browse.Missions)
}
