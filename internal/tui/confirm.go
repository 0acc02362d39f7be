package tui

import (
	"context"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/drillrun/runwiz/internal/tui/theme"
)

// confirmRequest is one pending yes/no question.
type confirmRequest struct {
	prompt string
	reply  chan bool
}

// confirmRequestMsg delivers a question to the model.
type confirmRequestMsg struct {
	req confirmRequest
}

// ConfirmModal asks yes/no questions on behalf of code running off the
// UI loop. Confirm blocks its caller until the user answers in the modal.
type ConfirmModal struct {
	requests chan confirmRequest

	pending *confirmRequest
	yes     bool // focused button
}

// NewConfirmModal creates a hidden modal.
func NewConfirmModal() *ConfirmModal {
	return &ConfirmModal{requests: make(chan confirmRequest)}
}

// Confirm implements wizard.Confirmer.
func (m *ConfirmModal) Confirm(ctx context.Context, prompt string) (bool, error) {
	req := confirmRequest{prompt: prompt, reply: make(chan bool, 1)}
	select {
	case m.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Listen waits for the next question. Re-issue it after each answer.
func (m *ConfirmModal) Listen() tea.Cmd {
	return func() tea.Msg {
		return confirmRequestMsg{req: <-m.requests}
	}
}

// Show displays a question.
func (m *ConfirmModal) Show(req confirmRequest) {
	m.pending = &req
	m.yes = false
}

// IsVisible reports whether a question is waiting for an answer.
func (m *ConfirmModal) IsVisible() bool {
	return m.pending != nil
}

// Update handles keys while visible. Anything but an explicit yes is no.
func (m *ConfirmModal) Update(msg tea.Msg) tea.Cmd {
	if m.pending == nil {
		return nil
	}
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "y":
		return m.answer(true)
	case "n", "esc":
		return m.answer(false)
	case "left", "right", "tab", "h", "l":
		m.yes = !m.yes
	case "enter":
		return m.answer(m.yes)
	}
	return nil
}

func (m *ConfirmModal) answer(ok bool) tea.Cmd {
	m.pending.reply <- ok
	m.pending = nil
	return m.Listen()
}

// View renders the modal centered in width x height.
func (m *ConfirmModal) View(width, height int) string {
	if m.pending == nil {
		return ""
	}
	s := theme.Current().S()

	yes, no := s.ButtonMuted, s.Button
	if m.yes {
		yes, no = s.Button, s.ButtonMuted
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		yes.Render("Yes (y)"), "  ", no.Render("No (n)"),
	)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.HeaderTitle.Render("Confirm"),
		"",
		m.pending.prompt,
		"",
		buttons,
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, s.Modal.Render(content))
}
