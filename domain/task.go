package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// TaskStatus is either pending or done.
type TaskStatus string

const (
	StatusPending TaskStatus = "pending"
	StatusDone    TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusDone
}

// Toggled returns the opposite status.
func (s TaskStatus) Toggled() TaskStatus {
	if s == StatusPending {
		return StatusDone
	}
	return StatusPending
}

func ParseStatus(value string) (TaskStatus, error) {
	status := TaskStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", value)
	}
	return status, nil
}

// Priority ranks tasks as low, medium or high.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParsePriority(value string) (Priority, error) {
	priority := Priority(strings.ToLower(strings.TrimSpace(value)))
	if !priority.Valid() {
		return "", fmt.Errorf("unknown priority %q", value)
	}
	return priority, nil
}

// Task represents a unit of work owned by its creator and handled by its assignee.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *Date      `json:"due_date,omitempty"`
	CreatedBy   string     `json:"created_by"`
	AssignedTo  string     `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusDone
}

// IsOverdue reports whether a pending task is past its due date.
func (t *Task) IsOverdue(today Date) bool {
	if t == nil || t.Status != StatusPending || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(today)
}

// Touch moves UpdatedAt forward, never before CreatedAt.
func (t *Task) Touch(now time.Time) {
	if t == nil {
		return
	}
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.UpdatedAt = now
}

// Clone returns a deep copy safe to mutate independently.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	return &c
}

// TaskFields are the user-editable attributes validated on create and update.
type TaskFields struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     *Date
}

// Normalize trims the title and applies the default priority.
func (f TaskFields) Normalize() TaskFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	return f
}

// Validate returns every violated rule. When rejectPastDue is set, due dates
// before today are refused.
func (f TaskFields) Validate(today Date, rejectPastDue bool) []string {
	var problems []string
	if f.Title == "" {
		problems = append(problems, "title is required")
	}
	if utf8.RuneCountInString(f.Title) > MaxTitleLength {
		problems = append(problems, fmt.Sprintf("title must not exceed %d characters", MaxTitleLength))
	}
	if utf8.RuneCountInString(f.Description) > MaxDescriptionLength {
		problems = append(problems, fmt.Sprintf("description must not exceed %d characters", MaxDescriptionLength))
	}
	if !f.Priority.Valid() {
		problems = append(problems, fmt.Sprintf("unknown priority %q", f.Priority))
	}
	if rejectPastDue && f.DueDate != nil && f.DueDate.Before(today) {
		problems = append(problems, "due date cannot be earlier than today")
	}
	return problems
}

// TaskStats summarises a set of tasks.
type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

// Tally counts tasks in one pass so the counters always agree.
func Tally(tasks []Task, today Date) TaskStats {
	var stats TaskStats
	for i := range tasks {
		stats.Total++
		if tasks[i].IsCompleted() {
			stats.Completed++
			continue
		}
		stats.Pending++
		if tasks[i].IsOverdue(today) {
			stats.Overdue++
		}
	}
	return stats
}
