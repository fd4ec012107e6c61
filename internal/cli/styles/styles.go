package styles

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"
	"github.com/thenoetrevino/taskroll/internal/config"
	"github.com/thenoetrevino/taskroll/internal/dashboard"
	"github.com/thenoetrevino/taskroll/internal/models"
)

var (
	// Card styles
	CardStyle lipgloss.Style
	CardWidth = 80

	// Text styles
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	LabelStyle    lipgloss.Style // For field labels like "Due:", "Owner:"
	ValueStyle    lipgloss.Style // For field values
	SectionStyle  lipgloss.Style // For section headers like "Overdue", "Due today"

	// Status styles
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style

	statusColors   map[models.Status]string
	severityColors map[dashboard.Severity]string
	scheme         config.ColorScheme
)

func init() {
	Init(config.DefaultColorScheme())
}

// Init initializes all CLI styles with the given color scheme
func Init(colors config.ColorScheme) {
	colors.ApplyDefaults()
	scheme = colors

	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colors.Accent)).
		Padding(1, 2).
		Width(CardWidth)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Title))

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Subtle))

	LabelStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Accent))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Normal))

	SectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Accent)).
		Bold(true).
		MarginTop(1)

	SuccessStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Done))

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Critical))

	WarningStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Warning))

	statusColors = map[models.Status]string{
		models.StatusToDo:       colors.Todo,
		models.StatusInProgress: colors.InProgress,
		models.StatusBlocked:    colors.Blocked,
		models.StatusDone:       colors.Done,
	}
	severityColors = map[dashboard.Severity]string{
		dashboard.SeverityInfo:     colors.Info,
		dashboard.SeverityWarning:  colors.Warning,
		dashboard.SeverityCritical: colors.Critical,
	}
}

// ═══════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ═══════════════════════════════════════════════════════════════════

// ColoredText renders text with a hex color
func ColoredText(text, hexColor string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor)).
		Render(text)
}

// BoldColoredText renders bold text with a hex color
func BoldColoredText(text, hexColor string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(hexColor)).
		Render(text)
}

// StatusIcon returns a one-cell marker for a status
func StatusIcon(s models.Status) string {
	switch s {
	case models.StatusDone:
		return "●"
	case models.StatusInProgress:
		return "◐"
	case models.StatusBlocked:
		return "✕"
	default:
		return "○"
	}
}

// RenderStatus renders the status icon and label in the status color
func RenderStatus(s models.Status) string {
	return ColoredText(StatusIcon(s)+" "+s.Label(), statusColors[s])
}

// RenderStatusIcon renders just the colored status icon
func RenderStatusIcon(s models.Status) string {
	return ColoredText(StatusIcon(s), statusColors[s])
}

// RenderCounter renders a badge counter as "Label N" in its severity color.
// Zero counters are muted.
func RenderCounter(c dashboard.Counter) string {
	value := humanize.Comma(int64(c.Value))
	if c.Value == 0 {
		return SubtitleStyle.Render(c.Label + " " + value)
	}
	return ValueStyle.Render(c.Label+" ") + BoldColoredText(value, severityColors[c.Severity])
}

// RenderDue renders a due date relative to now. Open tasks past due are
// rendered as warnings.
func RenderDue(t *models.Task, now time.Time) string {
	if t.DueDate.IsZero() {
		return ""
	}
	rel := "due " + humanize.RelTime(t.DueDate, now, "ago", "from now")
	if t.IsOverdue(now) {
		return WarningStyle.Render(rel)
	}
	return SubtitleStyle.Render(rel)
}

// RenderProgress renders a completion bar such as "██████░░░░ 60%"
func RenderProgress(pct float64, width int) string {
	if width <= 0 {
		width = 10
	}
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(width, filled))
	bar := ColoredText(strings.Repeat("█", filled), scheme.Done) +
		SubtitleStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %s", bar, ValueStyle.Render(humanize.FtoaWithDigits(pct, 1)+"%"))
}

// RenderCritical renders a critical issue flag
func RenderCritical(issue string) string {
	return ErrorStyle.Render("⚠ " + issue)
}

// RenderCard wraps content in a styled card border
func RenderCard(content string) string {
	return CardStyle.Render(content)
}
