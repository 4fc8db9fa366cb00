package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskPriority represents the urgency level of a task. Urgent is an
// open extension some surfaces expose alongside the base three.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task represents one user work item owned by exactly one user.
// The ID is server-assigned and immutable; temporary client-side IDs
// exist only while an optimistic create is in flight.
type Task struct {
	ID              string       `json:"id" yaml:"id"`
	Title           string       `json:"title" yaml:"title"`
	Description     string       `json:"description,omitempty" yaml:"description,omitempty"`
	Status          TaskStatus   `json:"status" yaml:"status"`
	Priority        TaskPriority `json:"priority" yaml:"priority"`
	DueDate         *time.Time   `json:"dueDate,omitempty" yaml:"due_date,omitempty"`
	Tags            []string     `json:"tags" yaml:"tags"`
	Category        string       `json:"category,omitempty" yaml:"category,omitempty"`
	ProjectID       string       `json:"projectId,omitempty" yaml:"project_id,omitempty"`
	EstimatedTime   int          `json:"estimatedTime,omitempty" yaml:"estimated_time,omitempty"`
	ActualTimeSpent int          `json:"actualTimeSpent,omitempty" yaml:"actual_time_spent,omitempty"`
	UserID          string       `json:"userId" yaml:"user_id"`
	CreatedAt       time.Time    `json:"createdAt" yaml:"created_at"`
	UpdatedAt       time.Time    `json:"updatedAt" yaml:"updated_at"`
}

// TaskDraft holds the user-supplied fields for creating a task.
// Server-assigned fields (id, userId, timestamps) are absent.
type TaskDraft struct {
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	Status          TaskStatus   `json:"status,omitempty"`
	Priority        TaskPriority `json:"priority,omitempty"`
	DueDate         *time.Time   `json:"dueDate,omitempty"`
	Tags            []string     `json:"tags"`
	Category        string       `json:"category,omitempty"`
	ProjectID       string       `json:"projectId,omitempty"`
	EstimatedTime   int          `json:"estimatedTime,omitempty"`
	ActualTimeSpent int          `json:"actualTimeSpent,omitempty"`
}

// TaskPatch is a partial update. Nil fields are left untouched by the
// server; the zero value patches nothing.
type TaskPatch struct {
	Title           *string       `json:"title,omitempty"`
	Description     *string       `json:"description,omitempty"`
	Status          *TaskStatus   `json:"status,omitempty"`
	Priority        *TaskPriority `json:"priority,omitempty"`
	DueDate         *time.Time    `json:"dueDate,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	Category        *string       `json:"category,omitempty"`
	ProjectID       *string       `json:"projectId,omitempty"`
	EstimatedTime   *int          `json:"estimatedTime,omitempty"`
	ActualTimeSpent *int          `json:"actualTimeSpent,omitempty"`
}

// Apply returns a copy of t with the non-nil patch fields applied.
// Timestamps are left alone so a rollback restores the exact prior
// entity; the server remains the source of truth for UpdatedAt.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), p.Tags...)
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.EstimatedTime != nil {
		t.EstimatedTime = *p.EstimatedTime
	}
	if p.ActualTimeSpent != nil {
		t.ActualTimeSpent = *p.ActualTimeSpent
	}
	return t
}

// TaskStats summarizes the cached task set for display surfaces.
type TaskStats struct {
	Total        int
	Completed    int
	Pending      int
	HighPriority int
}
