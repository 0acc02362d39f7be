package theme

import (
	"image/color"
	"sync"

	"charm.land/lipgloss/v2"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	// Semantic colors
	Primary   string // lipgloss.Color is a string type
	Secondary string

	// Background hierarchy (dark→light)
	BgBase     string
	BgCrust    string
	BgSurface0 string

	// Foreground hierarchy (dim→bright)
	FgMuted  string
	FgSubtle string
	FgBase   string

	// Status colors
	Success string
	Warning string
	Error   string
	Info    string

	// Diff colors
	DiffInsert string
	DiffDelete string
	DiffHunk   string

	// Lazy-built styles
	styles     *Styles
	stylesOnce sync.Once
}

var (
	current   *Theme
	currentMu sync.RWMutex
)

// Current returns the active theme.
func Current() *Theme {
	currentMu.RLock()
	t := current
	currentMu.RUnlock()
	if t != nil {
		return t
	}

	currentMu.Lock()
	defer currentMu.Unlock()
	if current == nil {
		current = NewCatppuccinMocha()
	}
	return current
}

// HexToColor converts a theme hex string to a color usable by tea.View.
func HexToColor(hex string) color.Color {
	return lipgloss.Color(hex)
}

// S returns the pre-built styles for this theme.
// Styles are lazily initialized on first call.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

// buildStyles constructs the pre-built styles from theme colors.
func (t *Theme) buildStyles() *Styles {
	c := lipgloss.Color
	return &Styles{
		HeaderTitle: lipgloss.NewStyle().
			Foreground(c(t.Primary)).
			Bold(true),
		StepActive: lipgloss.NewStyle().
			Foreground(c(t.Primary)).
			Bold(true),
		StepDone: lipgloss.NewStyle().
			Foreground(c(t.Success)),
		StepPending: lipgloss.NewStyle().
			Foreground(c(t.FgMuted)),
		FieldName: lipgloss.NewStyle().
			Foreground(c(t.Secondary)),
		FieldValue: lipgloss.NewStyle().
			Foreground(c(t.FgBase)),
		FieldDerived: lipgloss.NewStyle().
			Foreground(c(t.Info)).
			Italic(true),
		Muted: lipgloss.NewStyle().
			Foreground(c(t.FgMuted)),
		Success: lipgloss.NewStyle().
			Foreground(c(t.Success)),
		Warning: lipgloss.NewStyle().
			Foreground(c(t.Warning)),
		Error: lipgloss.NewStyle().
			Foreground(c(t.Error)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(t.BgSurface0)).
			Padding(0, 1),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(t.Primary)).
			Padding(1, 3),
		Button: lipgloss.NewStyle().
			Foreground(c(t.BgBase)).
			Background(c(t.Primary)).
			Padding(0, 2),
		ButtonMuted: lipgloss.NewStyle().
			Foreground(c(t.FgBase)).
			Background(c(t.BgSurface0)).
			Padding(0, 2),
		HintKey: lipgloss.NewStyle().
			Foreground(c(t.FgSubtle)).
			Bold(true),
		HintDesc: lipgloss.NewStyle().
			Foreground(c(t.FgMuted)),
		DiffInsert: lipgloss.NewStyle().
			Foreground(c(t.DiffInsert)),
		DiffDelete: lipgloss.NewStyle().
			Foreground(c(t.DiffDelete)),
		DiffHunk: lipgloss.NewStyle().
			Foreground(c(t.DiffHunk)),
	}
}
