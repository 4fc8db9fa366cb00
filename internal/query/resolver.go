// Package query turns the view layer's filter record into a canonical
// wire query and a deterministic task ordering. Canonical means the
// same filter always yields a byte-identical query string, so the
// cache can detect "effective query changed" by plain comparison.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/valter-silva-au/taskdeck/pkg/models"
)

// Canonical produces the normalized query string for a filter. Fields
// that are empty are omitted entirely rather than sent as an explicit
// empty match. Keys are emitted in fixed order; tags are deduplicated
// with insertion order kept and comma-joined, matching the backend's
// list-endpoint contract.
func Canonical(f models.TaskFilter) string {
	var parts []string
	add := func(key, val string) {
		if val == "" {
			return
		}
		parts = append(parts, key+"="+escapeQuery(val))
	}

	add("category", f.Category)
	add("due_date_from", f.DueDateFrom)
	add("due_date_to", f.DueDateTo)
	add("order", string(f.Order))
	add("priority", string(f.Priority))
	add("project_id", f.ProjectID)
	add("search", f.Search)
	add("sort_by", string(f.SortBy))
	add("status", string(f.Status))
	add("tags", strings.Join(NormalizeTags(f.Tags), ","))

	return strings.Join(parts, "&")
}

// escapeQuery percent-encodes a query value. Only the characters that
// would break query parsing are escaped so canonical strings stay
// readable in logs and cache keys.
func escapeQuery(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '&', '=', '#', '%', '+', '?':
			b.WriteString(percentEncode(c))
		case ' ':
			b.WriteString("%20")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func percentEncode(c byte) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{'%', hex[c>>4], hex[c&0xf]})
}

// NormalizeTags removes duplicates and empty entries, preserving the
// insertion order of first occurrences.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// priorityRank orders priorities for sorting; unknown values sort last.
var priorityRank = map[models.TaskPriority]int{
	models.PriorityLow:    0,
	models.PriorityMedium: 1,
	models.PriorityHigh:   2,
	models.PriorityUrgent: 3,
}

// statusRank orders statuses in lifecycle progression.
var statusRank = map[models.TaskStatus]int{
	models.StatusTodo:       0,
	models.StatusInProgress: 1,
	models.StatusCompleted:  2,
}

// Less reports whether a sorts before b under the filter's sort key
// and order. Ties on the primary key fall back to createdAt descending
// and then id ascending, so every re-fetch renders in a total,
// deterministic order. Unset fields mean createdAt descending, the
// list view's default. Tasks missing an optional key (no due date)
// sort after tasks that have one, in either direction.
func Less(a, b models.Task, f models.TaskFilter) bool {
	if f.SortBy == models.SortByDueDate && (a.DueDate == nil) != (b.DueDate == nil) {
		return b.DueDate == nil
	}
	cmp := compareKey(a, b, f.SortBy)
	if f.Order != models.OrderAsc {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp < 0
	}
	// Tie-break: createdAt descending, then id ascending.
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// compareKey compares a and b on the chosen sort field in ascending
// sense, returning -1, 0, or 1. Tasks missing an optional key sort
// after tasks that have one, regardless of direction.
func compareKey(a, b models.Task, key models.SortField) int {
	switch key {
	case models.SortByDueDate:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		case a.DueDate.Before(*b.DueDate):
			return -1
		case a.DueDate.After(*b.DueDate):
			return 1
		}
		return 0
	case models.SortByPriority:
		return intCompare(priorityRank[a.Priority], priorityRank[b.Priority])
	case models.SortByStatus:
		return intCompare(statusRank[a.Status], statusRank[b.Status])
	case models.SortByTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case models.SortByUpdatedAt:
		return timeCompare(a.UpdatedAt, b.UpdatedAt)
	default: // createdAt, and the unset default
		return timeCompare(a.CreatedAt, b.CreatedAt)
	}
}

func intCompare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func timeCompare(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// Sort orders tasks in place per Less.
func Sort(tasks []models.Task, f models.TaskFilter) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Less(tasks[i], tasks[j], f)
	})
}

// Resolver tracks the previously resolved canonical query so callers
// can tell when the effective filter changed and a full re-fetch
// (never a merge) is required.
type Resolver struct {
	prev    string
	started bool
}

// NewResolver creates a Resolver with no prior query; the first
// Resolve always reports a change.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve canonicalizes the filter and reports whether it differs
// from the previously resolved one.
func (r *Resolver) Resolve(f models.TaskFilter) (canonical string, changed bool) {
	canonical = Canonical(f)
	changed = !r.started || canonical != r.prev
	r.prev = canonical
	r.started = true
	return canonical, changed
}

// Current returns the last resolved canonical query.
func (r *Resolver) Current() string {
	return r.prev
}
