package models

import "time"

// Project is a named grouping of tasks. Deleting a project does not
// cascade to its tasks; their projectId is left dangling.
type Project struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	UserID      string    `json:"userId" yaml:"user_id"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updated_at"`
}

// ProjectDraft holds the user-supplied fields for creating a project.
type ProjectDraft struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}
