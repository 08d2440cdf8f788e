// Package issue implements the git-integrated issue workflow: markdown
// issue files on disk, a pending/active/completed lifecycle, and the
// immutable source-branch bookkeeping that lets an issue merge back to
// wherever it was branched from rather than always "main".
package issue

import "time"

// Status is an issue's position in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Issue is a single unit of work tracked as a markdown file plus metadata.
type Issue struct {
	Name         string     `json:"name"`
	Content      string     `json:"content"`
	Status       Status     `json:"status"`
	SourceBranch string     `json:"source_branch,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// WorkBranch returns the git branch name this issue works on.
func (i *Issue) WorkBranch() string {
	return "issue/" + i.Name
}
