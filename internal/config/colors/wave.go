package colors

// Wave returns the Kanagawa Wave color scheme (dark theme with blue/purple accents)
func Wave() *ColorScheme {
	return &ColorScheme{
		Preset: "wave",

		// Primary accent color
		Accent: oniViolet,

		// Text colors
		Title:  crystalBlue,
		Subtle: fujiGray,
		Normal: fujiWhite,

		// Status colors
		Todo:       fujiWhite,
		InProgress: springBlue,
		Blocked:    peachRed,
		Done:       springGreen,

		// Badge colors
		Info:     waveAqua2,
		Warning:  roninYellow,
		Critical: samuraiRed,
	}
}
