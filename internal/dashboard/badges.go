// Package dashboard turns collection aggregates into badge counters and
// keeps them current from live document store subscriptions.
package dashboard

import "github.com/thenoetrevino/taskroll/internal/aggregate"

// Severity controls how a counter is rendered
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// CounterKind identifies a badge counter
type CounterKind string

const (
	CounterProjects         CounterKind = "projects"
	CounterOpenTasks        CounterKind = "open_tasks"
	CounterOverdueTasks     CounterKind = "overdue_tasks"
	CounterCriticalProjects CounterKind = "critical_projects"
	CounterMyOpenTasks      CounterKind = "my_open_tasks"
	CounterMyOverdueTasks   CounterKind = "my_overdue_tasks"
	CounterMyDueToday       CounterKind = "my_due_today"
)

// Counter is one rendered badge
type Counter struct {
	Kind     CounterKind `json:"kind"`
	Label    string      `json:"label"`
	Value    int         `json:"value"`
	Severity Severity    `json:"severity"`
}

// Badges holds every dashboard counter
type Badges struct {
	Projects         int `json:"projects"`
	OpenTasks        int `json:"open_tasks"`
	OverdueTasks     int `json:"overdue_tasks"`
	CriticalProjects int `json:"critical_projects"`
	MyOpenTasks      int `json:"my_open_tasks"`
	MyOverdueTasks   int `json:"my_overdue_tasks"`
	MyDueToday       int `json:"my_due_today"`
}

// Project sums collection aggregates into badges
func Project(aggs ...aggregate.CollectionAggregate) Badges {
	var b Badges
	for _, a := range aggs {
		b.Projects += a.ProjectCount
		b.OpenTasks += a.Open
		b.OverdueTasks += a.Overdue
		b.CriticalProjects += a.CriticalProjects
		b.MyOpenTasks += a.MyOpen
		b.MyOverdueTasks += a.MyOverdue
		b.MyDueToday += a.MyDueToday
	}
	return b
}

// Counters lists every counter in display order, zeros included
func (b Badges) Counters() []Counter {
	return []Counter{
		{CounterProjects, "Projects", b.Projects, SeverityInfo},
		{CounterOpenTasks, "Open tasks", b.OpenTasks, SeverityInfo},
		{CounterOverdueTasks, "Overdue", b.OverdueTasks, SeverityWarning},
		{CounterCriticalProjects, "Critical projects", b.CriticalProjects, SeverityCritical},
		{CounterMyOpenTasks, "My open tasks", b.MyOpenTasks, SeverityInfo},
		{CounterMyOverdueTasks, "My overdue", b.MyOverdueTasks, SeverityCritical},
		{CounterMyDueToday, "Due today", b.MyDueToday, SeverityWarning},
	}
}

// Visible returns only the counters above zero
func (b Badges) Visible() []Counter {
	var out []Counter
	for _, c := range b.Counters() {
		if c.Value > 0 {
			out = append(out, c)
		}
	}
	return out
}
