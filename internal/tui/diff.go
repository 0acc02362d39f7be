package tui

import (
	"strings"

	udiff "github.com/aymanbagabas/go-udiff"

	"github.com/drillrun/runwiz/internal/tui/theme"
)

// RenderDiff returns a colored unified diff of two draft documents, or ""
// when they are identical.
func RenderDiff(before, after string) string {
	if before == after {
		return ""
	}
	s := theme.Current().S()

	lines := strings.Split(strings.TrimSuffix(udiff.Unified("saved", "edited", before, after), "\n"), "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			lines[i] = s.Muted.Render(l)
		case strings.HasPrefix(l, "@@"):
			lines[i] = s.DiffHunk.Render(l)
		case strings.HasPrefix(l, "+"):
			lines[i] = s.DiffInsert.Render(l)
		case strings.HasPrefix(l, "-"):
			lines[i] = s.DiffDelete.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}
