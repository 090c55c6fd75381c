package styles

import (
	"github.com/charmbracelet/glamour/v2"
)

// MarkdownRenderer returns a glamour renderer using the current theme
func MarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	t := CurrentTheme()
	return glamour.NewTermRenderer(
		glamour.WithStyles(t.S().Markdown),
		glamour.WithWordWrap(width),
	)
}

// RenderMarkdown renders md with the current theme, falling back to the
// raw text if rendering fails
func RenderMarkdown(md string, width int) string {
	r, err := MarkdownRenderer(width)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
