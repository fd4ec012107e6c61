package colors

// Dragon returns the Kanagawa Dragon color scheme (dark theme with warm earth tones)
func Dragon() *ColorScheme {
	return &ColorScheme{
		Preset: "dragon",

		// Primary accent color
		Accent: dragonViolet,

		// Text colors
		Title:  dragonBlue2,
		Subtle: dragonAsh,
		Normal: dragonWhite,

		// Status colors
		Todo:       dragonGray,
		InProgress: dragonBlue2,
		Blocked:    dragonRed, // Use dragonRed for blocked indicator
		Done:       dragonGreen2,

		// Badge colors
		Info:     dragonYellow,
		Warning:  dragonOrange,
		Critical: dragonRed,
	}
}
