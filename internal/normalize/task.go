// Package normalize turns raw store documents into canonical task trees.
//
// Every conversion is pure: input records are never modified and the same
// input always yields the same output. Dates are resolved here, once, into
// UTC time.Time values so no other package needs to know whether a date
// arrived as an ISO-8601 string or a store-native timestamp object.
//
// Invalid nodes (no id, no title, duplicate id, nesting too deep) are
// dropped together with their subtree and reported as warnings; their
// parent and siblings are kept.
//
// Example usage:
//
//	project, warnings, err := normalize.NormalizeProject(doc)
//	for _, w := range warnings {
//		slog.Warn("dropped task", "error", w)
//	}
package normalize

import (
	"slices"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// taskFrame is one pending node in the iterative post-order build
type taskFrame struct {
	task  *models.Task
	raw   []any // raw children still to visit
	path  []string
	depth int
	next  int
	kids  []*models.Task
}

// NormalizeTask converts one raw task record and its descendants.
// It fails with a *models.ValidationError when the root record itself is
// invalid; invalid descendants only produce warnings.
func NormalizeTask(raw models.RawRecord) (*models.Task, []*models.ValidationError, error) {
	tasks, warnings := normalizeForest([]any{raw}, nil)
	if len(tasks) == 0 {
		if len(warnings) > 0 {
			return nil, warnings[1:], warnings[0]
		}
		return nil, nil, &models.ValidationError{Reason: models.ErrMissingID}
	}
	return tasks[0], warnings, nil
}

// normalizeForest converts a list of raw task records. prefix is the path
// of the owning record, used in warnings.
func normalizeForest(rawRoots []any, prefix []string) ([]*models.Task, []*models.ValidationError) {
	var (
		out      []*models.Task
		warnings []*models.ValidationError
	)
	seen := make(map[types.TaskID]struct{})

	// open validates a raw node and returns its frame, or records a warning
	open := func(item any, parentPath []string, depth int) *taskFrame {
		rec, ok := asRecord(item)
		if !ok {
			warnings = append(warnings, &models.ValidationError{Path: clonePath(parentPath), Reason: models.ErrMissingID})
			return nil
		}

		task, path, err := taskFields(rec, parentPath)
		if err == nil && depth > models.MaxTreeDepth {
			err = models.ErrTooDeep
		}
		if err == nil {
			if _, dup := seen[task.ID]; dup {
				err = models.ErrDuplicateID
			}
		}
		if err != nil {
			warnings = append(warnings, &models.ValidationError{Path: path, Reason: err})
			return nil
		}

		seen[task.ID] = struct{}{}
		return &taskFrame{
			task:  task,
			raw:   listField(rec, "children", "subtasks", "subTasks"),
			path:  path,
			depth: depth,
		}
	}

	for _, item := range rawRoots {
		root := open(item, prefix, 0)
		if root == nil {
			continue
		}

		stack := []*taskFrame{root}
		for len(stack) > 0 {
			top := stack[len(stack)-1]

			if top.next < len(top.raw) {
				child := top.raw[top.next]
				top.next++
				if f := open(child, top.path, top.depth+1); f != nil {
					stack = append(stack, f)
				}
				continue
			}

			stack = stack[:len(stack)-1]
			top.task.Children = top.kids
			if len(stack) == 0 {
				out = append(out, top.task)
			} else {
				parent := stack[len(stack)-1]
				parent.kids = append(parent.kids, top.task)
			}
		}
	}
	return out, warnings
}

// taskFields reads a task's own fields, applying defaults
func taskFields(rec models.RawRecord, parentPath []string) (*models.Task, []string, error) {
	id := stringField(rec, "id", "taskId")
	path := append(clonePath(parentPath), id)
	if id == "" {
		path[len(path)-1] = "?"
		return nil, path, models.ErrMissingID
	}

	title := stringField(rec, "title", "name")
	if title == "" {
		return nil, path, models.ErrMissingTitle
	}

	status, ok := models.ParseStatus(stringField(rec, "status"))
	if !ok {
		status = models.StatusToDo
	}

	task := &models.Task{
		ID:            types.TaskID(id),
		Title:         title,
		AssigneeIDs:   make([]types.UserID, 0),
		Status:        status,
		CriticalIssue: stringField(rec, "criticalIssue", "critical_issue"),
		Attachments:   make([]models.Attachment, 0),
	}

	for _, uid := range idList(rec, "assigneeIds", "assignees", "assignedTo") {
		task.AssigneeIDs = append(task.AssigneeIDs, types.UserID(uid))
	}
	if t, ok := ParseInstant(rec["startDate"]); ok {
		task.StartDate = t
	}
	if t, ok := ParseInstant(rec["dueDate"]); ok {
		task.DueDate = t
	}
	if t, ok := ParseInstant(rec["doneDate"]); ok {
		task.DoneDate = t
	}

	for _, item := range listField(rec, "attachments") {
		att, ok := asRecord(item)
		if !ok {
			continue
		}
		url := stringField(att, "url", "link")
		if url == "" {
			continue
		}
		name := stringField(att, "name", "title")
		if name == "" {
			name = url
		}
		task.Attachments = append(task.Attachments, models.Attachment{Name: name, URL: url})
	}

	return task, path, nil
}

func clonePath(path []string) []string {
	return slices.Clone(path)
}
