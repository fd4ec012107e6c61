package colors

// ColorScheme defines all configurable color values
type ColorScheme struct {
	// Preset name (e.g., "default", "monochrome")
	Preset string `yaml:"preset"`

	// Primary accent color (used for headers and project names)
	Accent string `yaml:"accent"`

	// Text colors
	Title  string `yaml:"title"`
	Subtle string `yaml:"subtle"` // Muted text: ids, dates, tree guides
	Normal string `yaml:"normal"`

	// Task status colors
	Todo       string `yaml:"todo"`
	InProgress string `yaml:"in_progress"`
	Blocked    string `yaml:"blocked"`
	Done       string `yaml:"done"`

	// Badge severities
	Info     string `yaml:"info"`
	Warning  string `yaml:"warning"`
	Critical string `yaml:"critical"`
}

// Presets lists the built-in scheme names
var Presets = []string{"default", "monochrome", "wave", "dragon", "lotus"}

// GetPreset returns a preset color scheme by name
func GetPreset(name string) *ColorScheme {
	switch name {
	case "monochrome":
		return Monochrome()
	case "wave":
		return Wave()
	case "dragon":
		return Dragon()
	case "lotus":
		return Lotus()
	default:
		return Default()
	}
}

// ApplyDefaults fills in missing color values using the preset as base
// If preset is specified, loads that preset first, then overrides with custom values
func (c *ColorScheme) ApplyDefaults() {
	preset := GetPreset(c.Preset)
	if c.Preset == "" {
		c.Preset = preset.Preset
	}

	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&c.Accent, preset.Accent)
	fill(&c.Title, preset.Title)
	fill(&c.Subtle, preset.Subtle)
	fill(&c.Normal, preset.Normal)
	fill(&c.Todo, preset.Todo)
	fill(&c.InProgress, preset.InProgress)
	fill(&c.Blocked, preset.Blocked)
	fill(&c.Done, preset.Done)
	fill(&c.Info, preset.Info)
	fill(&c.Warning, preset.Warning)
	fill(&c.Critical, preset.Critical)
}

// MergeFrom overrides c with every non-empty value of other
func (c *ColorScheme) MergeFrom(other ColorScheme) {
	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&c.Preset, other.Preset)
	merge(&c.Accent, other.Accent)
	merge(&c.Title, other.Title)
	merge(&c.Subtle, other.Subtle)
	merge(&c.Normal, other.Normal)
	merge(&c.Todo, other.Todo)
	merge(&c.InProgress, other.InProgress)
	merge(&c.Blocked, other.Blocked)
	merge(&c.Done, other.Done)
	merge(&c.Info, other.Info)
	merge(&c.Warning, other.Warning)
	merge(&c.Critical, other.Critical)
}
