package styles

import (
	"github.com/alecthomas/chroma/v2"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
)

// chromaStyleName is the name a theme's highlighting style is registered
// under in chroma's style registry
func chromaStyleName(t *Theme) string {
	return "labsync-" + t.Name
}

// chromaEntries maps the theme onto the token classes that show up in the
// JSON config snippets of run reports
func chromaEntries(t *Theme) chroma.StyleEntries {
	return chroma.StyleEntries{
		chroma.Text:          colorToHex(t.FgBase),
		chroma.Error:         colorToHex(t.Error),
		chroma.Punctuation:   colorToHex(t.FgSubtle),
		chroma.NameTag:       colorToHex(t.Accent),
		chroma.Keyword:       colorToHex(t.Primary) + " bold",
		chroma.LiteralString: colorToHex(t.Success),
		chroma.LiteralNumber: colorToHex(t.Warning),
		chroma.Background:    "bg:" + colorToHex(t.BgSubtle),
	}
}

func registerChroma(t *Theme) {
	style, err := chroma.NewStyle(chromaStyleName(t), chromaEntries(t))
	if err != nil {
		return
	}
	chromastyles.Register(style)
}
