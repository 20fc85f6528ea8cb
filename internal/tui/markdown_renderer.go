package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minOverlayWrap is the narrowest wrap width the description overlay renders
// at; below this glamour output degrades badly.
const minOverlayWrap = 24

// markdownRenderer renders task descriptions as markdown for the v overlay.
// The glamour renderer is rebuilt only when the wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render returns ANSI-styled terminal text for the description. Any renderer
// failure falls back to the raw text so the overlay always shows something.
func (r *markdownRenderer) render(description string, width int) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}

	wrap := max(width, minOverlayWrap)
	if r.renderer == nil || r.width != wrap {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
			glamour.WithEmoji(),
		)
		if err != nil {
			return description
		}
		r.renderer = renderer
		r.width = wrap
	}

	rendered, err := r.renderer.Render(description)
	if err != nil {
		return description
	}
	return strings.TrimRight(rendered, "\n")
}
