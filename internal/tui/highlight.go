package tui

import (
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/colorprofile"
)

// HighlightJSON writes src to w with syntax colors matched to what w can
// display. Output that is not a terminal is written unchanged.
func HighlightJSON(w io.Writer, src string) error {
	formatter := formatterFor(colorprofile.Detect(w, os.Environ()))
	if formatter == "" {
		_, err := io.WriteString(w, src)
		return err
	}
	return quick.Highlight(w, src, "json", formatter, "catppuccin-mocha")
}

func formatterFor(p colorprofile.Profile) string {
	switch p {
	case colorprofile.TrueColor:
		return "terminal16m"
	case colorprofile.ANSI256:
		return "terminal256"
	case colorprofile.ANSI:
		return "terminal16"
	}
	return ""
}

// ColorWriter downsamples ANSI colors written to w to what w supports.
func ColorWriter(w io.Writer) io.Writer {
	return colorprofile.NewWriter(w, os.Environ())
}
