package normalize

import (
	"time"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/tree"
)

// SerializeTask writes a task tree back into its canonical raw form.
// Dates are written as RFC 3339 strings; unset optional fields are omitted.
func SerializeTask(task *models.Task) (models.RawRecord, error) {
	out, err := serializeForest([]*models.Task{task})
	if err != nil {
		return nil, err
	}
	return out[0].(models.RawRecord), nil
}

// SerializeProject writes a project document in the canonical raw form
func SerializeProject(p *models.Project) (models.RawRecord, error) {
	tasks, err := serializeForest(p.Tasks)
	if err != nil {
		return nil, err
	}

	team := make([]any, 0, len(p.Team))
	for _, member := range p.Team {
		rec := models.RawRecord{"id": string(member.ID)}
		if member.Name != "" {
			rec["name"] = member.Name
		}
		if member.Email != "" {
			rec["email"] = member.Email
		}
		team = append(team, rec)
	}

	tags := make([]any, 0, len(p.Tags))
	for _, tag := range p.Tags {
		tags = append(tags, tag)
	}

	rec := models.RawRecord{
		"id":    string(p.ID),
		"name":  p.Name,
		"team":  team,
		"tags":  tags,
		"tasks": tasks,
	}
	setIf(rec, "kind", string(p.Kind))
	setIf(rec, "ownerId", string(p.OwnerID))
	setIf(rec, "status", p.Status)
	setDate(rec, "startDate", p.StartDate)
	setDate(rec, "endDate", p.EndDate)
	return rec, nil
}

// serializeForest uses the guarded post-order rebuild so a corrupt
// in-memory tree fails instead of recursing forever
func serializeForest(roots []*models.Task) ([]any, error) {
	records := make(map[*models.Task]models.RawRecord)
	rebuilt, err := tree.Rebuild(roots, func(node *models.Task, children []*models.Task) (*models.Task, bool) {
		rec := taskRecord(node)
		kids := make([]any, 0, len(children))
		for _, child := range children {
			kids = append(kids, records[child])
		}
		rec["children"] = kids
		records[node] = rec
		return node, true
	})
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(rebuilt))
	for _, root := range rebuilt {
		out = append(out, records[root])
	}
	return out, nil
}

func taskRecord(t *models.Task) models.RawRecord {
	assignees := make([]any, 0, len(t.AssigneeIDs))
	for _, uid := range t.AssigneeIDs {
		assignees = append(assignees, string(uid))
	}
	attachments := make([]any, 0, len(t.Attachments))
	for _, att := range t.Attachments {
		attachments = append(attachments, models.RawRecord{"name": att.Name, "url": att.URL})
	}

	rec := models.RawRecord{
		"id":          string(t.ID),
		"title":       t.Title,
		"status":      string(t.Status),
		"assigneeIds": assignees,
		"attachments": attachments,
	}
	setIf(rec, "criticalIssue", t.CriticalIssue)
	setDate(rec, "startDate", t.StartDate)
	setDate(rec, "dueDate", t.DueDate)
	setDate(rec, "doneDate", t.DoneDate)
	return rec
}

func setIf(rec models.RawRecord, key, value string) {
	if value != "" {
		rec[key] = value
	}
}

func setDate(rec models.RawRecord, key string, t time.Time) {
	if v := formatInstant(t); v != nil {
		rec[key] = v
	}
}
