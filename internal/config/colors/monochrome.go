package colors

// Monochrome returns a black and white color scheme
func Monochrome() *ColorScheme {
	return &ColorScheme{
		Preset: "monochrome",

		Accent: "#FFFFFF",

		Title:  "#FFFFFF",
		Subtle: "#585858",
		Normal: "#D0D0D0",

		Todo:       "#D0D0D0",
		InProgress: "#FFFFFF",
		Blocked:    "#FFFFFF",
		Done:       "#8A8A8A",

		Info:     "#D0D0D0",
		Warning:  "#FFFFFF",
		Critical: "#FFFFFF",
	}
}
