package styles

// NewLabTheme creates the default theme: clinical teal on slate
func NewLabTheme() *Theme {
	return &Theme{
		Name:   "lab",
		IsDark: true,

		Primary:   ParseHex("#1ABC9C"), // Teal
		Secondary: ParseHex("#E74C3C"), // Alarm red, a full queue
		Accent:    ParseHex("#5DADE2"), // Sky blue

		BgBase:   ParseHex("#1C2833"),
		BgSubtle: ParseHex("#273746"),

		FgBase:     ParseHex("#ECF0F1"),
		FgMuted:    ParseHex("#A6ACAF"),
		FgSubtle:   ParseHex("#717D7E"),
		FgInverted: ParseHex("#17202A"),

		Border:      ParseHex("#566573"),
		BorderFocus: ParseHex("#5DADE2"),

		Success: ParseHex("#27AE60"),
		Error:   ParseHex("#E74C3C"),
		Warning: ParseHex("#F39C12"),
		Info:    ParseHex("#3498DB"),
	}
}

// NewEmberTheme creates a warm theme with a fire gradient
func NewEmberTheme() *Theme {
	return &Theme{
		Name:   "ember",
		IsDark: true,

		Primary:   ParseHex("#F4D03F"), // Bright yellow
		Secondary: ParseHex("#C0392B"), // Fire red
		Accent:    ParseHex("#F39C12"), // Golden orange

		BgBase:   ParseHex("#2C3E50"),
		BgSubtle: ParseHex("#3D566E"),

		FgBase:     ParseHex("#F5F6FA"),
		FgMuted:    ParseHex("#A0A0A0"),
		FgSubtle:   ParseHex("#6F6F70"),
		FgInverted: ParseHex("#1E1E1E"),

		Border:      ParseHex("#5D6D7E"),
		BorderFocus: ParseHex("#F39C12"),

		Success: ParseHex("#27AE60"),
		Error:   ParseHex("#E74C3C"),
		Warning: ParseHex("#F39C12"),
		Info:    ParseHex("#3498DB"),
	}
}
