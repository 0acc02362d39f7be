package tui

import (
	"fmt"
	"strings"

	"charm.land/glamour/v2"

	"github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/wizard"
)

// reviewMarkdown summarizes the record for the review step.
func reviewMarkdown(snap wizard.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Review run\n\nDraft `%s`\n\n", snap.DraftID)

	for _, sv := range snap.Steps {
		if sv.ID == runrecord.StepReview {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", stepTitle(sv.ID))
		b.WriteString("| Field | Value |\n|---|---|\n")
		for _, f := range sv.Fields {
			if f.Value == nil {
				continue
			}
			v := runrecord.FormatValue(f.Value)
			if f.Derived {
				v += " _(derived)_"
			}
			fmt.Fprintf(&b, "| %s | %s |\n", f.Name, v)
		}
		b.WriteString("\n")
	}

	if len(snap.Problems) == 0 {
		b.WriteString("**Ready to submit.** Press ctrl+s.\n")
		return b.String()
	}
	b.WriteString("## Before submitting\n\n")
	for _, p := range snap.Problems {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	return b.String()
}

// renderMarkdown renders markdown with glamour.
// Falls back to the raw text if rendering fails.
func renderMarkdown(content string, width int) string {
	// Cap width to 120 for readability
	if width > 120 {
		width = 120
	}
	if width < 20 {
		width = 20
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	// Remove trailing newline that glamour adds
	return strings.TrimSuffix(rendered, "\n")
}
