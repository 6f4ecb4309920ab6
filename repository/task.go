package repository

import (
	"context"
	"strings"

	"github.com/fastygo/taskboard/domain"
)

// TaskFilter narrows a task listing. Every set field is AND-combined.
// Visibility is restricted to VisibleTo unless Unrestricted is set, so the
// zero value matches nothing.
type TaskFilter struct {
	VisibleTo    string
	Unrestricted bool

	Search     string
	Status     domain.TaskStatus
	Priority   domain.Priority
	AssignedTo string
	DueFrom    *domain.Date
	DueTo      *domain.Date
}

// Matches evaluates the filter against a single task in memory.
func (f TaskFilter) Matches(t *domain.Task) bool {
	if t == nil {
		return false
	}
	if !f.Unrestricted && t.CreatedBy != f.VisibleTo && t.AssignedTo != f.VisibleTo {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueFrom)) {
		return false
	}
	if f.DueTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DueTo)) {
		return false
	}
	return true
}

// TaskRepository persists tasks. List returns tasks newest first, ties in
// insertion order. Create, Update and Delete are each a single transaction
// and reject references to unknown users with domain.ErrUnknownUserRef.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
