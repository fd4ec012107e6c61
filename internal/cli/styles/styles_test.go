package styles

import (
	"strings"
	"testing"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/thenoetrevino/taskroll/internal/config"
	"github.com/thenoetrevino/taskroll/internal/dashboard"
	"github.com/thenoetrevino/taskroll/internal/models"
)

func TestRenderStatus(t *testing.T) {
	Init(config.MonochromeColorScheme())

	for _, s := range models.AllStatuses {
		out := RenderStatus(s)
		if !strings.Contains(out, s.Label()) {
			t.Errorf("RenderStatus(%s) = %q, missing label", s, out)
		}
		if !strings.Contains(out, StatusIcon(s)) {
			t.Errorf("RenderStatus(%s) = %q, missing icon", s, out)
		}
	}
}

func TestRenderDue(t *testing.T) {
	Init(config.DefaultColorScheme())
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task *models.Task
		want string
	}{
		{"undated", &models.Task{Status: models.StatusToDo}, ""},
		{"past", &models.Task{Status: models.StatusToDo, DueDate: now.Add(-3 * 24 * time.Hour)}, "3 days ago"},
		{"future", &models.Task{Status: models.StatusToDo, DueDate: now.Add(2 * time.Hour)}, "2 hours from now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderDue(tt.task, now)
			if tt.want == "" {
				if got != "" {
					t.Errorf("Expected empty output, got %q", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("RenderDue = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestRenderCounter(t *testing.T) {
	Init(config.DefaultColorScheme())

	out := RenderCounter(dashboard.Counter{Label: "Open tasks", Value: 1234, Severity: dashboard.SeverityInfo})
	if !strings.Contains(out, "1,234") {
		t.Errorf("Expected grouped digits, got %q", out)
	}
}

func TestRenderProgress(t *testing.T) {
	Init(config.DefaultColorScheme())

	tests := []struct {
		pct    float64
		filled int
		label  string
	}{
		{0, 0, "0%"},
		{50, 5, "50%"},
		{100, 10, "100%"},
		{33.3333, 3, "33.3%"},
	}
	for _, tt := range tests {
		out := RenderProgress(tt.pct, 10)
		if got := strings.Count(out, "█"); got != tt.filled {
			t.Errorf("RenderProgress(%v) filled %d cells, want %d", tt.pct, got, tt.filled)
		}
		if !strings.Contains(out, tt.label) {
			t.Errorf("RenderProgress(%v) = %q, missing %q", tt.pct, out, tt.label)
		}
		if w := lipgloss.Width(out); w != 10+1+len(tt.label) {
			t.Errorf("RenderProgress(%v) width = %d", tt.pct, w)
		}
	}
}
