// Package sorter orders task trees level by level without flattening them
package sorter

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/tree"
)

// Field names a sortable task attribute
type Field string

const (
	FieldTitle     Field = "title"
	FieldStatus    Field = "status"
	FieldStartDate Field = "start_date"
	FieldDueDate   Field = "due_date"
	FieldDoneDate  Field = "done_date"
	FieldAssignees Field = "assignees"
)

// ErrUnknownField is returned by ParseChain for an unsupported field
var ErrUnknownField = errors.New("unknown sort field")

// IsDate reports whether the field holds a date. Missing dates always sort last.
func (f Field) IsDate() bool {
	switch f {
	case FieldStartDate, FieldDueDate, FieldDoneDate:
		return true
	}
	return false
}

func (f Field) valid() bool {
	switch f {
	case FieldTitle, FieldStatus, FieldStartDate, FieldDueDate, FieldDoneDate, FieldAssignees:
		return true
	}
	return false
}

// Key is one step of a comparator chain
type Key struct {
	Field      Field
	Descending bool
}

// Chain is an ordered list of sort keys. Title ascending is always the
// final tie-break, whether or not the chain names it.
type Chain []Key

// ParseChain reads a chain such as "due_date:desc,title".
// An empty string yields an empty chain (title order only).
func ParseChain(s string) (Chain, error) {
	var chain Chain
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, dir, _ := strings.Cut(part, ":")
		key := Key{Field: Field(strings.ToLower(strings.TrimSpace(name)))}
		if !key.Field.valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			key.Descending = true
		default:
			return nil, fmt.Errorf("invalid sort direction %q for %s", dir, key.Field)
		}
		chain = append(chain, key)
	}
	return chain, nil
}

// String renders the chain in the form ParseChain accepts
func (c Chain) String() string {
	parts := make([]string, 0, len(c))
	for _, k := range c {
		if k.Descending {
			parts = append(parts, string(k.Field)+":desc")
		} else {
			parts = append(parts, string(k.Field))
		}
	}
	return strings.Join(parts, ",")
}

// Compare orders two sibling tasks by the chain, then by title
func (c Chain) Compare(a, b *models.Task) int {
	for _, key := range c {
		if key.Field.IsDate() {
			if r := compareDates(dateOf(a, key.Field), dateOf(b, key.Field), key.Descending); r != 0 {
				return r
			}
			continue
		}
		r := compareField(a, b, key.Field)
		if key.Descending {
			r = -r
		}
		if r != 0 {
			return r
		}
	}
	return compareTitles(a.Title, b.Title)
}

// Apply returns a new forest where every sibling group, roots included,
// is stably sorted by the chain. The hierarchy is preserved and the input
// is not modified.
func Apply(roots []*models.Task, c Chain) ([]*models.Task, error) {
	out, err := tree.Rebuild(roots, func(node *models.Task, children []*models.Task) (*models.Task, bool) {
		slices.SortStableFunc(children, c.Compare)
		cp := node.ShallowCopy()
		cp.Children = children
		return cp, true
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, c.Compare)
	return out, nil
}

// compareDates sorts missing dates after present ones in either direction
func compareDates(a, b time.Time, desc bool) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	r := a.Compare(b)
	if desc {
		r = -r
	}
	return r
}

func dateOf(t *models.Task, f Field) time.Time {
	switch f {
	case FieldStartDate:
		return t.StartDate
	case FieldDueDate:
		return t.DueDate
	case FieldDoneDate:
		return t.DoneDate
	}
	return time.Time{}
}

func compareField(a, b *models.Task, f Field) int {
	switch f {
	case FieldTitle:
		return compareTitles(a.Title, b.Title)
	case FieldStatus:
		return cmp.Compare(statusRank(a.Status), statusRank(b.Status))
	case FieldAssignees:
		return cmp.Compare(len(a.AssigneeIDs), len(b.AssigneeIDs))
	}
	return 0
}

func compareTitles(a, b string) int {
	if r := strings.Compare(strings.ToLower(a), strings.ToLower(b)); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// statusRank follows workflow order; unknown statuses go last
func statusRank(s models.Status) int {
	if i := slices.Index(models.AllStatuses, s); i >= 0 {
		return i
	}
	return len(models.AllStatuses)
}
