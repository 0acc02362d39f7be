package tui

import (
	"strings"

	"github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/tui/theme"
)

// renderHintBar renders key/description pairs.
// Example: renderHintBar("ctrl+n", "next", "esc", "cancel")
// Returns: "ctrl+n next • esc cancel"
func renderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}
	s := theme.Current().S()

	var b strings.Builder
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(" " + s.Muted.Render("•") + " ")
		}
		b.WriteString(s.HintKey.Render(pairs[i]) + " " + s.HintDesc.Render(pairs[i+1]))
	}
	return b.String()
}

var stepTitles = map[runrecord.StepID]string{
	runrecord.StepRun:      "Run",
	runrecord.StepLocation: "Location",
	runrecord.StepDepth:    "Depth interval",
	runrecord.StepSurvey:   "Survey",
	runrecord.StepTieOn:    "Tie-on",
	runrecord.StepReview:   "Review",
}

func stepTitle(id runrecord.StepID) string {
	if t, ok := stepTitles[id]; ok {
		return t
	}
	return string(id)
}

// progressColor shades the step counter from primary to success as the
// cursor approaches the review step.
func progressColor(cursor, count int) string {
	t := theme.Current()
	if count <= 1 {
		return t.Success
	}
	return theme.InterpolateColor(t.Primary, t.Success, float64(cursor)/float64(count-1))
}
