package models

// SortField names a task attribute tasks can be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByDueDate   SortField = "dueDate"
	SortByPriority  SortField = "priority"
	SortByTitle     SortField = "title"
	SortByStatus    SortField = "status"
)

// SortOrder is the direction applied to the chosen sort field.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// TaskFilter is the structured filter record the view layer produces.
// All fields are optional; empty strings mean "unset", not an explicit
// empty match. Date bounds use YYYY-MM-DD calendar dates.
type TaskFilter struct {
	Search      string
	Status      TaskStatus
	Priority    TaskPriority
	Category    string
	ProjectID   string
	Tags        []string
	DueDateFrom string
	DueDateTo   string
	SortBy      SortField
	Order       SortOrder
}
