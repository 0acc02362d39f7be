// Package state keeps terminal preferences between wizard sessions.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/drillrun/runwiz/internal/logger"
)

// FileName is the preferences file inside the data directory.
const FileName = "ui-state.json"

// UIState holds layout preferences. It is separate from the draft so
// clearing a draft keeps the layout.
type UIState struct {
	Sidebar PanelState `json:"sidebar"`
	Hints   PanelState `json:"hints"`
}

// PanelState is the visibility of one optional panel.
type PanelState struct {
	Visible bool `json:"visible"`
}

// DefaultUIState shows every panel.
func DefaultUIState() *UIState {
	return &UIState{
		Sidebar: PanelState{Visible: true},
		Hints:   PanelState{Visible: true},
	}
}

// Path returns where preferences for dataDir live.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Load reads preferences from dataDir. A missing or unreadable file
// yields the defaults.
func Load(dataDir string) *UIState {
	path := Path(dataDir)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultUIState()
	}
	if err != nil {
		logger.Warn("Failed to read UI state file: %v", err)
		return DefaultUIState()
	}

	st := DefaultUIState()
	if err := json.Unmarshal(data, st); err != nil {
		logger.Warn("Failed to parse UI state JSON: %v", err)
		return DefaultUIState()
	}
	return st
}

// Save writes preferences to dataDir, creating it if needed.
func Save(dataDir string, st *UIState) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling UI state: %w", err)
	}

	path := Path(dataDir)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing UI state file: %w", err)
	}

	logger.Debug("UI state saved to %s", path)
	return nil
}
