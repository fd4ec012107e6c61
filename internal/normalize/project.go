package normalize

import (
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// ProjectID returns the canonical id of a raw project document: the
// first of id/projectId, trimmed, with numbers in decimal form. It is
// empty when the document has none.
func ProjectID(raw models.RawRecord) types.ProjectID {
	return types.ProjectID(stringField(raw, "id", "projectId"))
}

// NormalizeProject converts a raw project document into a Project with
// its canonical task tree. The project itself needs an id; a missing name
// falls back to the id.
func NormalizeProject(raw models.RawRecord) (*models.Project, []*models.ValidationError, error) {
	id := string(ProjectID(raw))
	if id == "" {
		return nil, nil, &models.ValidationError{Path: []string{"?"}, Reason: models.ErrMissingID}
	}

	name := stringField(raw, "name", "title", "projectName")
	if name == "" {
		name = id
	}

	project := &models.Project{
		ID:      types.ProjectID(id),
		Name:    name,
		Kind:    types.Collection(stringField(raw, "kind", "type")),
		OwnerID: types.UserID(stringField(raw, "ownerId", "userId", "createdBy")),
		Status:  stringField(raw, "status"),
		Team:    make([]models.User, 0),
		Tags:    make([]string, 0),
	}

	if t, ok := ParseInstant(raw["startDate"]); ok {
		project.StartDate = t
	}
	if t, ok := ParseInstant(raw["endDate"]); ok {
		project.EndDate = t
	}

	seenMembers := make(map[types.UserID]struct{})
	for _, item := range listField(raw, "team", "members") {
		member := models.User{ID: types.UserID(asString(item))}
		if rec, ok := asRecord(item); ok {
			member = models.User{
				ID:    types.UserID(stringField(rec, "id", "uid", "userId")),
				Name:  stringField(rec, "name", "displayName"),
				Email: stringField(rec, "email"),
			}
		}
		if member.ID == "" {
			continue
		}
		if _, dup := seenMembers[member.ID]; dup {
			continue
		}
		seenMembers[member.ID] = struct{}{}
		project.Team = append(project.Team, member)
	}

	for _, tag := range listField(raw, "tags") {
		if s := asString(tag); s != "" {
			project.Tags = append(project.Tags, s)
		}
	}

	tasks, warnings := normalizeForest(listField(raw, "tasks"), []string{id})
	project.Tasks = tasks

	return project, warnings, nil
}

// NormalizeSnapshot converts every document of a collection snapshot.
// Projects that fail validation are reported among the warnings and left
// out; the rest are returned in document order with Kind set to the
// collection when the document does not carry one.
func NormalizeSnapshot(collection types.Collection, docs []models.RawRecord) ([]*models.Project, []*models.ValidationError) {
	projects := make([]*models.Project, 0, len(docs))
	var warnings []*models.ValidationError
	seen := make(map[types.ProjectID]struct{}, len(docs))

	for _, doc := range docs {
		project, taskWarnings, err := NormalizeProject(doc)
		warnings = append(warnings, taskWarnings...)
		if err != nil {
			if verr, ok := err.(*models.ValidationError); ok {
				warnings = append(warnings, verr)
			}
			continue
		}
		if _, dup := seen[project.ID]; dup {
			warnings = append(warnings, &models.ValidationError{Path: []string{string(project.ID)}, Reason: models.ErrDuplicateID})
			continue
		}
		seen[project.ID] = struct{}{}
		if project.Kind == "" {
			project.Kind = collection
		}
		projects = append(projects, project)
	}
	return projects, warnings
}
