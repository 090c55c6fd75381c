package styles

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// ApplyGradient renders text with a horizontal gradient from color1 to
// color2, one color per grapheme cluster
func ApplyGradient(text string, color1, color2 color.Color, bold bool) string {
	if text == "" {
		return ""
	}

	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}

	var out strings.Builder
	colors := blendColors(len(clusters), color1, color2)
	for i, cluster := range clusters {
		style := lipgloss.NewStyle().Foreground(colors[i]).Bold(bold)
		out.WriteString(style.Render(cluster))
	}
	return out.String()
}

// RenderThemeGradient renders text with the current theme's gradient
func RenderThemeGradient(text string, bold bool) string {
	theme := CurrentTheme()
	return ApplyGradient(text, theme.Primary, theme.Secondary, bold)
}

// RenderGauge draws a bar of width cells for used out of total. Filled
// cells take their color from the theme gradient at their position, so a
// nearly full gauge ends in the alarm color.
func RenderGauge(width, used, total int) string {
	if width <= 0 {
		return ""
	}

	theme := CurrentTheme()
	filled := 0
	if total > 0 {
		filled = min(width, (used*width+total-1)/total)
	}

	var bar strings.Builder
	colors := blendColors(width, theme.Primary, theme.Secondary)
	for i := range filled {
		bar.WriteString(lipgloss.NewStyle().Foreground(colors[i]).Render("█"))
	}
	if filled < width {
		empty := lipgloss.NewStyle().Foreground(theme.FgSubtle)
		bar.WriteString(empty.Render(strings.Repeat("░", width-filled)))
	}
	return bar.String()
}

// blendColors returns steps colors from color1 to color2, blended in HCL
// space so the steps look evenly spaced
func blendColors(steps int, color1, color2 color.Color) []color.Color {
	if steps <= 0 {
		return nil
	}
	if steps == 1 {
		return []color.Color{color1}
	}

	c1, _ := colorful.MakeColor(color1)
	c2, _ := colorful.MakeColor(color2)

	colors := make([]color.Color, steps)
	for i := range steps {
		t := float64(i) / float64(steps-1)
		colors[i] = c1.BlendHcl(c2, t).Clamped()
	}
	return colors
}
