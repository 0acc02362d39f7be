package theme

import "charm.land/lipgloss/v2"

// Styles contains all pre-built lipgloss styles for the TUI.
type Styles struct {
	HeaderTitle lipgloss.Style

	StepActive  lipgloss.Style
	StepDone    lipgloss.Style
	StepPending lipgloss.Style

	FieldName    lipgloss.Style
	FieldValue   lipgloss.Style
	FieldDerived lipgloss.Style

	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Panel       lipgloss.Style
	Modal       lipgloss.Style
	Button      lipgloss.Style
	ButtonMuted lipgloss.Style

	HintKey  lipgloss.Style
	HintDesc lipgloss.Style

	DiffInsert lipgloss.Style
	DiffDelete lipgloss.Style
	DiffHunk   lipgloss.Style
}
