package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drillrun/runwiz/internal/dependency"
	"github.com/drillrun/runwiz/internal/draft"
	rr "github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/wizard"
)

type stubBackend struct {
	fail bool
}

func (b *stubBackend) Fetch(_ context.Context, tier, _ string) ([]dependency.Option, error) {
	if b.fail {
		return nil, errors.New("offline")
	}
	return []dependency.Option{{ID: tier + "-1", Label: "first " + tier}}, nil
}

func (b *stubBackend) CheckUnique(context.Context, string, string) (bool, error) {
	return false, nil
}

func newTestApp(t *testing.T, b *stubBackend, sub wizard.Submitter) (*App, *draft.MemoryStore) {
	t.Helper()
	store := draft.NewMemoryStore()
	ctrl := wizard.New(wizard.Options{
		Catalog:       wizard.DefaultCatalog(5),
		Persister:     draft.NewPersister(store, "tui"),
		Fetcher:       b,
		Checker:       b,
		PersistDelay:  time.Millisecond,
		ValidateDelay: time.Millisecond,
	})
	app := NewApp(ctrl, sub, nil)
	// Init also starts the confirm listener, which blocks; only the
	// controller part is driven here.
	drain(app, ctrl.Initialize(nil))
	return app, store
}

// drain runs cmd and feeds every resulting message back into app, skipping
// spinner ticks and the blocking confirm listener.
func drain(app *App, cmd tea.Cmd) []tea.Msg {
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch msg := msg.(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case confirmRequestMsg:
			seen = append(seen, msg)
			app.Update(msg)
		default:
			seen = append(seen, msg)
			_, c := app.Update(msg)
			if !app.quitting {
				queue = append(queue, c)
			}
		}
	}
	return seen
}

func press(app *App, key string) tea.Cmd {
	_, cmd := app.Update(tea.KeyPressMsg{Text: key})
	return cmd
}

func typeLine(app *App, line string) tea.Cmd {
	app.input.SetValue(line)
	return press(app, "enter")
}

func TestApp_SetFieldFromInput(t *testing.T) {
	app, _ := newTestApp(t, &stubBackend{}, nil)

	drain(app, typeLine(app, "run_name = North spur"))

	assert.Equal(t, "North spur", app.ctrl.Slot(rr.StepRun).Fields[rr.FieldRunName])
	assert.Empty(t, app.input.Value())
	assert.False(t, app.statusErr)
	assert.Contains(t, app.render(), "North spur")
}

func TestApp_InputErrors(t *testing.T) {
	app, _ := newTestApp(t, &stubBackend{}, nil)

	typeLine(app, "no equals sign")
	assert.True(t, app.statusErr)
	assert.Equal(t, "Enter field=value", app.status)

	typeLine(app, "bogus=1")
	assert.True(t, app.statusErr)
	assert.Contains(t, app.status, "unknown field")
	assert.Equal(t, "bogus=1", app.input.Value(), "rejected input stays for correction")
}

func TestApp_Navigation(t *testing.T) {
	app, _ := newTestApp(t, &stubBackend{}, nil)

	drain(app, press(app, "ctrl+n"))
	assert.Equal(t, rr.StepLocation, app.ctrl.Current())
	assert.Contains(t, app.render(), "Step 2 of 6")

	drain(app, press(app, "ctrl+p"))
	drain(app, press(app, "ctrl+p"))
	assert.Equal(t, rr.StepRun, app.ctrl.Current(), "clamped at the first step")
}

func TestApp_DerivedValuesShown(t *testing.T) {
	app, _ := newTestApp(t, &stubBackend{}, nil)
	_, err := app.ctrl.Jump(rr.StepDepth)
	require.NoError(t, err)

	drain(app, typeLine(app, "interval_from=100"))
	drain(app, typeLine(app, "interval_to=350"))

	out := app.render()
	assert.Contains(t, out, "250 (derived)")

	typeLine(app, "interval_length=9")
	assert.True(t, app.statusErr)
	assert.Contains(t, app.status, "read-only")
}

func TestApp_SubmitIncompleteShowsProblems(t *testing.T) {
	called := false
	sub := wizard.SubmitFunc(func(context.Context, rr.Payload) error {
		called = true
		return nil
	})
	app, _ := newTestApp(t, &stubBackend{}, sub)

	cmd := press(app, "ctrl+s")
	assert.Nil(t, cmd)
	assert.True(t, app.statusErr)
	assert.Contains(t, app.status, "run.run_number")
	assert.False(t, called)
}

func TestApp_SubmitFailureKeepsSession(t *testing.T) {
	sub := wizard.SubmitFunc(func(context.Context, rr.Payload) error {
		return errors.New("503 from api")
	})
	app, store := newTestApp(t, &stubBackend{}, sub)
	fill(t, app)

	drain(app, press(app, "ctrl+s"))

	assert.True(t, app.statusErr)
	assert.Contains(t, app.status, "503 from api")
	assert.Equal(t, OutcomeQuit, app.Result().Outcome)
	assert.Equal(t, 0, store.Clears())
	assert.Equal(t, "R-5", app.ctrl.Slot(rr.StepRun).Fields[rr.FieldRunNumber])
}

func TestApp_SubmitSuccessQuits(t *testing.T) {
	var got rr.Payload
	sub := wizard.SubmitFunc(func(_ context.Context, p rr.Payload) error {
		got = p
		return nil
	})
	app, store := newTestApp(t, &stubBackend{}, sub)
	fill(t, app)

	drain(app, press(app, "ctrl+s"))

	assert.Equal(t, OutcomeSubmitted, app.Result().Outcome)
	assert.Equal(t, got.ID, app.Result().Payload.ID)
	assert.Equal(t, 1, store.Clears())
	assert.True(t, app.quitting)
}

func TestApp_CancelAsksFirst(t *testing.T) {
	app, store := newTestApp(t, &stubBackend{}, nil)
	drain(app, typeLine(app, "run_name=keep"))

	// The confirmer blocks until the modal is answered, so run the cancel
	// command on its own goroutine.
	cancelCmd := press(app, "esc")
	result := make(chan tea.Msg, 1)
	go func() { result <- cancelCmd() }()

	req := (app.confirm.Listen())()
	app.Update(req)
	require.True(t, app.confirm.IsVisible())
	assert.Contains(t, app.confirm.View(80, 20), wizard.CancelPrompt)

	press(app, "n")
	assert.False(t, app.confirm.IsVisible())

	drain(app, func() tea.Msg { return <-result })
	assert.Equal(t, "keep", app.ctrl.Slot(rr.StepRun).Fields[rr.FieldRunName])
	assert.Equal(t, 0, store.Clears())

	// Second time, answer yes.
	cancelCmd = press(app, "esc")
	go func() { result <- cancelCmd() }()
	app.Update((app.confirm.Listen())())
	press(app, "y")

	drain(app, func() tea.Msg { return <-result })
	assert.Equal(t, OutcomeCancelled, app.Result().Outcome)
	assert.Equal(t, 1, store.Clears())
}

func TestApp_ReloadFailedOptions(t *testing.T) {
	b := &stubBackend{fail: true}
	app, _ := newTestApp(t, b, nil)

	assert.Contains(t, app.render(), "options failed")

	b.fail = false
	drain(app, press(app, "ctrl+r"))
	assert.NotContains(t, app.render(), "options failed")
	assert.Contains(t, app.render(), "customers-1")

	press(app, "ctrl+r")
	assert.Equal(t, "Nothing to reload", app.status)
}

func TestApp_ReviewRendersMarkdown(t *testing.T) {
	app, _ := newTestApp(t, &stubBackend{}, nil)
	fill(t, app)
	_, err := app.ctrl.Jump(rr.StepReview)
	require.NoError(t, err)

	assert.Contains(t, reviewMarkdown(app.ctrl.Snapshot()), "**Ready to submit.**")

	// glamour styles each word on its own, so compare the plain text.
	out := ansi.Strip(app.render())
	assert.Contains(t, out, "Review run")
	assert.Contains(t, out, "Ready to submit")
	assert.NotContains(t, out, "**", "markdown is rendered, not echoed")
}

func TestReviewMarkdown_ListsProblems(t *testing.T) {
	snap := wizard.Snapshot{
		DraftID:  "abc",
		Steps:    []wizard.StepView{{ID: rr.StepRun, Fields: []wizard.FieldView{{Name: "run_number", Value: "R-1"}}}},
		Problems: []string{"missing location.latitude"},
	}
	md := reviewMarkdown(snap)
	assert.Contains(t, md, "| run_number | R-1 |")
	assert.Contains(t, md, "- missing location.latitude")
	assert.NotContains(t, md, "Ready to submit")
}

func TestApp_LayoutTogglesPersist(t *testing.T) {
	dir := t.TempDir()
	app, _ := newTestApp(t, &stubBackend{}, nil)
	app.WithUIState(dir)
	require.Contains(t, app.render(), "Location")

	press(app, "ctrl+b")
	assert.NotContains(t, app.render(), "Location", "step list hidden")
	press(app, "ctrl+g")
	assert.NotContains(t, app.render(), "ctrl+s")

	reloaded, _ := newTestApp(t, &stubBackend{}, nil)
	reloaded.WithUIState(dir)
	assert.False(t, reloaded.ui.Sidebar.Visible)
	assert.False(t, reloaded.ui.Hints.Visible)
}

func TestRenderHintBar(t *testing.T) {
	out := renderHintBar("a", "one", "b", "two")
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "•")
	assert.Empty(t, renderHintBar("odd"))
}

func TestChoiceList(t *testing.T) {
	opts := []dependency.Option{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}, {ID: "c", Label: "C"}}
	assert.Equal(t, "a (A), b (B), +1 more", choiceList(opts, 2))
}

func fill(t *testing.T, app *App) {
	t.Helper()
	set := func(step rr.StepID, fields map[string]any) {
		cmd, err := app.ctrl.UpdateStep(step, fields)
		require.NoError(t, err)
		drain(app, cmd)
	}
	set(rr.StepRun, map[string]any{
		rr.FieldRunNumber:   "R-5",
		rr.FieldCustomer:    "customers-1",
		rr.FieldWell:        "wells-1",
		rr.FieldHoleSection: "hole_sections-1",
		rr.FieldRunInType:   "run_in_types-1",
		rr.FieldRunIn:       "run_ins-1",
	})
	set(rr.StepLocation, map[string]any{rr.FieldLatDegrees: "29", rr.FieldLonDegrees: "95"})
	set(rr.StepDepth, map[string]any{rr.FieldIntervalFrom: "10", rr.FieldIntervalTo: "20"})
	set(rr.StepSurvey, map[string]any{rr.FieldExpectedInclination: "2"})
	set(rr.StepTieOn, map[string]any{rr.FieldTieOnDepth: "5"})
	require.NoError(t, app.ctrl.Validate())
}
