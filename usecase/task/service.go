package task

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// NewTask carries the fields of a task about to be created.
type NewTask struct {
	Title       string
	Description string
	Priority    domain.Priority
	DueDate     *domain.Date
	CreatedBy   string
	AssignedTo  string
}

// Changes is a full replacement of the editable fields. AssignedTo is applied
// only when non-nil; callers decide whether the actor may reassign.
type Changes struct {
	Title       string
	Description string
	Priority    domain.Priority
	DueDate     *domain.Date
	AssignedTo  *string
}

// Service validates and persists task mutations. It does not look at who is
// acting; access checks belong to the caller.
type Service struct {
	tasks  repository.TaskRepository
	clock  usecase.Clock
	logger *zap.Logger
}

func NewService(tasks repository.TaskRepository, clock usecase.Clock, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = usecase.SystemClock{}
	}
	return &Service{
		tasks:  tasks,
		clock:  clock,
		logger: log,
	}
}

// Create persists a new pending task. Due dates before today are rejected.
func (s *Service) Create(ctx context.Context, in NewTask) (*domain.Task, error) {
	fields := domain.TaskFields{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}.Normalize()

	problems := fields.Validate(s.clock.Today(), true)
	createdBy := strings.TrimSpace(in.CreatedBy)
	if createdBy == "" {
		problems = append(problems, "creator is required")
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	assignee := strings.TrimSpace(in.AssignedTo)
	if assignee == "" {
		assignee = createdBy
	}

	now := s.clock.Now()
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Status:      domain.StatusPending,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
		CreatedBy:   createdBy,
		AssignedTo:  assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, s.failure(ctx, "create", task.ID, err)
	}
	return task, nil
}

// Update re-validates every field and bumps UpdatedAt even when nothing
// changed. A due date may stay in the past, but cannot be moved into it.
func (s *Service) Update(ctx context.Context, task *domain.Task, ch Changes) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	fields := domain.TaskFields{
		Title:       ch.Title,
		Description: ch.Description,
		Priority:    ch.Priority,
		DueDate:     ch.DueDate,
	}.Normalize()

	dueChanged := !sameDate(task.DueDate, fields.DueDate)
	problems := fields.Validate(s.clock.Today(), dueChanged)

	var assignee string
	if ch.AssignedTo != nil {
		assignee = strings.TrimSpace(*ch.AssignedTo)
		if assignee == "" {
			problems = append(problems, "assignee is required")
		}
	}
	if len(problems) > 0 {
		return domain.NewValidationError(problems...)
	}

	return s.mutate(ctx, "update", task, func(t *domain.Task) {
		t.Title = fields.Title
		t.Description = fields.Description
		t.Priority = fields.Priority
		t.DueDate = fields.DueDate
		if ch.AssignedTo != nil {
			t.AssignedTo = assignee
		}
	})
}

// Toggle flips pending and done.
func (s *Service) Toggle(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	return s.mutate(ctx, "toggle", task, func(t *domain.Task) {
		t.Status = t.Status.Toggled()
	})
}

// Delete removes the task permanently.
func (s *Service) Delete(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return s.failure(ctx, "delete", task.ID, err)
	}
	return nil
}

// mutate applies fn and persists the result. On failure task is restored to
// its state before the call.
func (s *Service) mutate(ctx context.Context, op string, task *domain.Task, fn func(t *domain.Task)) error {
	snapshot := task.Clone()
	fn(task)
	task.Touch(s.clock.Now())

	if err := s.tasks.Update(ctx, task); err != nil {
		*task = *snapshot
		return s.failure(ctx, op, task.ID, err)
	}
	return nil
}

// failure passes classified store errors through and hides everything else
// behind a storage error.
func (s *Service) failure(ctx context.Context, op, taskID string, err error) error {
	log := logger.WithRequestID(ctx, s.logger)
	if dErr, ok := domain.AsDomainError(err); ok && dErr.Code != domain.ErrCodeInternal {
		log.Debug("task operation rejected by store",
			zap.String("operation", op),
			zap.String("task_id", taskID),
			zap.String("code", string(dErr.Code)))
		return dErr
	}
	log.Error("task operation failed",
		zap.String("operation", op),
		zap.String("task_id", taskID),
		zap.Error(err))
	return domain.NewStorageError(err)
}

func sameDate(a, b *domain.Date) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return a.Equal(*b)
	}
}
