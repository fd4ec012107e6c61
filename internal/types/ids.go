package types

// ID types give semantic meaning to the string keys the document store
// hands us. They are plain strings on the wire; the named types keep a
// task id from being passed where a project id is expected.

// ProjectID identifies a project document within its collection
type ProjectID string

// TaskID identifies a task node, unique within its project
type TaskID string

// UserID identifies a user referenced by team lists and assignees
type UserID string

// Collection is the path of a watched document collection (e.g. "projects")
type Collection string

// String returns the raw id
func (id ProjectID) String() string {
	return string(id)
}

func (id TaskID) String() string {
	return string(id)
}

func (id UserID) String() string {
	return string(id)
}

func (c Collection) String() string {
	return string(c)
}

// IsZero reports whether the id is empty
func (id ProjectID) IsZero() bool {
	return id == ""
}

func (id TaskID) IsZero() bool {
	return id == ""
}

func (id UserID) IsZero() bool {
	return id == ""
}
