package colors

// Lotus returns the Kanagawa Lotus color scheme (light theme with cream/paper background)
func Lotus() *ColorScheme {
	return &ColorScheme{
		Preset: "lotus",

		// Primary accent color
		Accent: lotusViolet4,

		// Text colors
		Title:  lotusBlue4,
		Subtle: lotusGray3,
		Normal: lotusInk1,

		// Status colors
		Todo:       lotusInk1,
		InProgress: lotusTeal1,
		Blocked:    lotusRed,
		Done:       lotusGreen,

		// Badge colors
		Info:     lotusTeal1,
		Warning:  lotusOrange,
		Critical: lotusRed3,
	}
}
