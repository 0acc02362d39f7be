// Package tui is the terminal front end of the run entry wizard.
package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/drillrun/runwiz/internal/dependency"
	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/state"
	"github.com/drillrun/runwiz/internal/tui/theme"
	"github.com/drillrun/runwiz/internal/validation"
	"github.com/drillrun/runwiz/internal/wizard"
)

// Outcome is how a session ended.
type Outcome int

const (
	// OutcomeQuit leaves the draft in place for the next run.
	OutcomeQuit Outcome = iota
	OutcomeSubmitted
	OutcomeCancelled
)

// Result is returned by Run.
type Result struct {
	Outcome Outcome
	Payload runrecord.Payload // set when submitted
}

// App is the bubbletea model wrapping a wizard controller.
type App struct {
	ctrl    *wizard.Controller
	sub     wizard.Submitter
	seed    runrecord.State
	confirm *ConfirmModal

	input   textinput.Model
	spinner spinner.Model

	ui       *state.UIState
	stateDir string // empty: layout changes are not saved

	width  int
	height int

	status    string
	statusErr bool
	result    Result
	quitting  bool
}

// NewApp builds the model. seed prefills an empty session and is ignored
// when a draft is restored.
func NewApp(ctrl *wizard.Controller, sub wizard.Submitter, seed runrecord.State) *App {
	t := theme.Current()

	input := textinput.New()
	input.Placeholder = "field=value"
	input.Prompt = "> "
	input.SetStyles(textinput.Styles{
		Focused: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgBase)),
			Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
			Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Secondary)),
		},
		Blurred: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
			Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
			Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.BgSurface0)),
		},
		Cursor: textinput.CursorStyle{
			Color: lipgloss.Color(t.Primary),
			Shape: tea.CursorBar,
			Blink: true,
		},
	})
	input.SetWidth(60)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary))

	return &App{
		ctrl:    ctrl,
		sub:     sub,
		seed:    seed,
		confirm: NewConfirmModal(),
		input:   input,
		spinner: s,
		ui:      state.DefaultUIState(),
		width:   100,
		height:  30,
	}
}

// WithUIState loads layout preferences from dataDir and saves changes
// back there.
func (a *App) WithUIState(dataDir string) *App {
	a.ui = state.Load(dataDir)
	a.stateDir = dataDir
	return a
}

// Run starts a bubbletea program and blocks until the user leaves.
func Run(ctx context.Context, app *App) (Result, error) {
	p := tea.NewProgram(app, tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return Result{}, fmt.Errorf("wizard failed: %w", err)
	}
	a, ok := final.(*App)
	if !ok {
		return Result{}, fmt.Errorf("unexpected model type")
	}
	return a.result, nil
}

// Result reports how the session ended so far.
func (a *App) Result() Result { return a.result }

// Init starts the controller and the background listeners.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.ctrl.Initialize(a.seed),
		a.confirm.Listen(),
		a.spinner.Tick,
		a.input.Focus(),
	)
}

// Update handles messages for the wizard.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.SetWidth(max(20, msg.Width-30))
		return a, nil

	case tea.KeyPressMsg:
		if a.confirm.IsVisible() {
			return a, a.confirm.Update(msg)
		}
		return a, a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case confirmRequestMsg:
		a.confirm.Show(msg.req)
		return a, nil

	case wizard.SubmittedMsg:
		a.result = Result{Outcome: OutcomeSubmitted, Payload: msg.Payload}
		a.quitting = true
		return a, tea.Quit

	case wizard.SubmitFailedMsg:
		a.setStatus(fmt.Sprintf("Submission failed: %v", msg.Err), true)
		return a, nil

	case wizard.CancelledMsg:
		a.result = Result{Outcome: OutcomeCancelled}
		a.quitting = true
		return a, tea.Quit
	}

	return a, a.ctrl.Update(msg)
}

func (a *App) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		// The draft stays for the next session.
		a.quitting = true
		return tea.Quit
	case "ctrl+n":
		a.clearStatus()
		return a.ctrl.Advance()
	case "ctrl+p":
		a.clearStatus()
		return a.ctrl.Retreat()
	case "ctrl+s":
		cmd, err := a.ctrl.Submit(a.sub)
		if err != nil {
			a.setStatus(err.Error(), true)
			return nil
		}
		a.setStatus("Submitting...", false)
		return cmd
	case "ctrl+r":
		return a.reloadFailed()
	case "ctrl+b":
		a.ui.Sidebar.Visible = !a.ui.Sidebar.Visible
		a.saveUIState()
		return nil
	case "ctrl+g":
		a.ui.Hints.Visible = !a.ui.Hints.Visible
		a.saveUIState()
		return nil
	case "esc":
		return a.ctrl.Cancel(a.confirm)
	case "enter":
		return a.applyInput()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return cmd
}

// applyInput parses "field=value" and updates the current step. An empty
// value clears the field.
func (a *App) applyInput() tea.Cmd {
	line := strings.TrimSpace(a.input.Value())
	if line == "" {
		return nil
	}
	field, value, ok := strings.Cut(line, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		a.setStatus("Enter field=value", true)
		return nil
	}

	step := a.ctrl.Current()
	cmd, err := a.ctrl.UpdateStep(step, map[string]any{field: strings.TrimSpace(value)})
	if err != nil {
		a.setStatus(err.Error(), true)
		return nil
	}
	a.input.Reset()
	a.setStatus(fmt.Sprintf("Set %s.%s", step, field), false)
	return cmd
}

func (a *App) reloadFailed() tea.Cmd {
	step := a.ctrl.Current()
	var cmds []tea.Cmd
	for _, f := range a.ctrl.Catalog().Fields[step] {
		ref := runrecord.Ref(step, f)
		if n, ok := a.ctrl.Options(ref); ok && n.Phase == dependency.PhaseFailed {
			cmds = append(cmds, a.ctrl.Reload(ref))
		}
	}
	if len(cmds) == 0 {
		a.setStatus("Nothing to reload", false)
		return nil
	}
	logger.Debug("Reloading %d option lists on %s", len(cmds), step)
	a.setStatus("Reloading options...", false)
	return tea.Batch(cmds...)
}

func (a *App) saveUIState() {
	if a.stateDir == "" {
		return
	}
	if err := state.Save(a.stateDir, a.ui); err != nil {
		logger.Warn("Saving layout: %v", err)
	}
}

func (a *App) setStatus(s string, isErr bool) {
	a.status = s
	a.statusErr = isErr
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusErr = false
}

// View renders the wizard UI.
func (a *App) View() tea.View {
	var view tea.View
	view.AltScreen = true

	if a.quitting {
		// Exit alt screen for proper terminal restoration
		view.AltScreen = false
		view.Content = lipgloss.NewLayer("")
		return view
	}

	content := a.render()
	if a.confirm.IsVisible() {
		content = a.confirm.View(a.width, a.height)
	}
	view.Content = lipgloss.NewLayer(content)
	view.BackgroundColor = theme.HexToColor(theme.Current().BgBase)
	return view
}

// render draws the full screen as a string.
func (a *App) render() string {
	s := theme.Current().S()
	snap := a.ctrl.Snapshot()
	steps := a.ctrl.Steps()

	counter := lipgloss.NewStyle().
		Foreground(lipgloss.Color(progressColor(snap.Cursor, steps.Count()))).
		Render(fmt.Sprintf("Step %d of %d", snap.Cursor+1, steps.Count()))
	header := s.HeaderTitle.Render("Run entry: "+stepTitle(snap.Current)) + "  " + counter

	bodyWidth := a.width - 4
	if a.ui.Sidebar.Visible {
		bodyWidth -= 26
	}
	var body string
	if snap.Current == runrecord.StepReview {
		body = renderMarkdown(reviewMarkdown(snap), bodyWidth)
	} else {
		body = a.renderFields(snap)
	}
	main := s.Panel.Render(body)
	if a.ui.Sidebar.Visible {
		main = lipgloss.JoinHorizontal(lipgloss.Top, s.Panel.Render(a.renderSteps(snap)), " ", main)
	}

	var status string
	switch {
	case a.status != "" && a.statusErr:
		status = s.Error.Render(a.status)
	case a.status != "":
		status = s.Success.Render(a.status)
	case a.ctrl.PersistErr() != nil:
		status = s.Warning.Render("Draft not saved: " + a.ctrl.PersistErr().Error())
	case a.ctrl.Restored():
		status = s.Muted.Render("Restored saved draft " + snap.DraftID)
	}

	lines := []string{header, "", main, "", a.input.View(), status}
	if a.ui.Hints.Visible {
		lines = append(lines, renderHintBar(
			"enter", "set",
			"ctrl+n/p", "next/prev",
			"ctrl+r", "reload",
			"ctrl+s", "submit",
			"esc", "cancel",
			"ctrl+b", "steps",
			"ctrl+c", "quit",
		))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderSteps(snap wizard.Snapshot) string {
	s := theme.Current().S()
	var lines []string
	for i, sv := range snap.Steps {
		title := stepTitle(sv.ID)
		switch {
		case i == snap.Cursor:
			lines = append(lines, s.StepActive.Render("▸ "+title))
		case i < snap.Cursor:
			lines = append(lines, s.StepDone.Render("✓ "+title))
		default:
			lines = append(lines, s.StepPending.Render("  "+title))
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderFields(snap wizard.Snapshot) string {
	s := theme.Current().S()
	var sv wizard.StepView
	for _, v := range snap.Steps {
		if v.ID == snap.Current {
			sv = v
		}
	}

	var lines []string
	for _, f := range sv.Fields {
		name := f.Name
		if f.Required {
			name += "*"
		}
		line := s.FieldName.Render(fmt.Sprintf("%-22s", name))

		val := runrecord.FormatValue(f.Value)
		switch {
		case f.Derived && val != "":
			line += s.FieldDerived.Render(val + " (derived)")
		case f.Derived:
			line += s.Muted.Render("(derived)")
		case val == "":
			line += s.Muted.Render("-")
		default:
			line += s.FieldValue.Render(val)
		}
		if f.Source == string(runrecord.ClassUser) {
			line += s.Warning.Render(" (manual)")
		}
		line += a.fieldStatus(f)
		lines = append(lines, line)

		if len(f.Choices) > 0 && f.Value == nil {
			lines = append(lines, s.Muted.Render("    "+choiceList(f.Choices, 5)))
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) fieldStatus(f wizard.FieldView) string {
	s := theme.Current().S()
	switch {
	case f.Options == dependency.PhaseLoading.String():
		return " " + a.spinner.View()
	case f.Options == dependency.PhaseFailed.String():
		return s.Error.Render(" options failed: " + f.Error + " (ctrl+r)")
	}
	switch f.Unique {
	case validation.StatusValidating.String():
		return " " + a.spinner.View() + s.Muted.Render(" checking")
	case validation.StatusUnique.String():
		return s.Success.Render(" ✓ available")
	case validation.StatusExists.String():
		return s.Error.Render(" ✗ already used")
	case validation.StatusUnknown.String():
		return s.Warning.Render(" ? could not check")
	}
	return ""
}

func choiceList(opts []dependency.Option, limit int) string {
	var parts []string
	for i, o := range opts {
		if i == limit {
			parts = append(parts, fmt.Sprintf("+%d more", len(opts)-limit))
			break
		}
		parts = append(parts, o.ID+" ("+o.Label+")")
	}
	return strings.Join(parts, ", ")
}
