package colors

// Default returns the default color scheme (purple theme)
func Default() *ColorScheme {
	return &ColorScheme{
		Preset: "default",

		// Primary
		Accent: "#874BFD",

		// Text
		Title:  "#D75FD7",
		Subtle: "#585858",
		Normal: "#D0D0D0",

		// Status
		Todo:       "#D0D0D0",
		InProgress: "#5F87D7",
		Blocked:    "#FF5F5F",
		Done:       "#5FD75F",

		// Badges
		Info:     "#00AFFF",
		Warning:  "#FFD700",
		Critical: "#FF0000",
	}
}
