package task

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// Filter is the caller-supplied listing filter. Empty fields are ignored.
type Filter struct {
	Search     string
	Status     string
	Priority   string
	AssignedTo string
	DueFrom    *domain.Date
	DueTo      *domain.Date
}

// QueryEngine answers read requests over the tasks an actor may see.
type QueryEngine struct {
	tasks  repository.TaskRepository
	clock  usecase.Clock
	logger *zap.Logger
}

func NewQueryEngine(tasks repository.TaskRepository, clock usecase.Clock, log *zap.Logger) *QueryEngine {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = usecase.SystemClock{}
	}
	return &QueryEngine{
		tasks:  tasks,
		clock:  clock,
		logger: log,
	}
}

// List returns the visible tasks matching f, newest first.
func (q *QueryEngine) List(ctx context.Context, actor *domain.User, f Filter) ([]domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	filter, err := q.buildFilter(actor, f)
	if err != nil {
		return nil, err
	}

	tasks, err := q.tasks.List(ctx, filter)
	if err != nil {
		return nil, q.failure(ctx, "list", err)
	}
	return tasks, nil
}

// Get loads one task. Missing and inaccessible tasks are indistinguishable.
func (q *QueryEngine) Get(ctx context.Context, id string, actor *domain.User) (*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	task, err := q.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotAccessible
		}
		return nil, q.failure(ctx, "get", err)
	}
	if !domain.CanAccessTask(actor, task) {
		return nil, domain.ErrTaskNotAccessible
	}
	return task, nil
}

// Statistics counts the actor's visible tasks without any filter.
func (q *QueryEngine) Statistics(ctx context.Context, actor *domain.User) (domain.TaskStats, error) {
	tasks, err := q.List(ctx, actor, Filter{})
	if err != nil {
		return domain.TaskStats{}, err
	}
	return domain.Tally(tasks, q.clock.Today()), nil
}

func (q *QueryEngine) buildFilter(actor *domain.User, f Filter) (repository.TaskFilter, error) {
	visibleTo, all := domain.VisibilityScope(actor)
	filter := repository.TaskFilter{
		VisibleTo:    visibleTo,
		Unrestricted: all,
		Search:       strings.TrimSpace(f.Search),
		AssignedTo:   strings.TrimSpace(f.AssignedTo),
		DueFrom:      f.DueFrom,
		DueTo:        f.DueTo,
	}

	var problems []string
	if s := strings.TrimSpace(f.Status); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			problems = append(problems, err.Error())
		}
		filter.Status = status
	}
	if p := strings.TrimSpace(f.Priority); p != "" {
		priority, err := domain.ParsePriority(p)
		if err != nil {
			problems = append(problems, err.Error())
		}
		filter.Priority = priority
	}
	if f.DueFrom != nil && f.DueTo != nil && f.DueFrom.After(*f.DueTo) {
		problems = append(problems, "due_from must not be after due_to")
	}
	if len(problems) > 0 {
		return repository.TaskFilter{}, domain.NewValidationError(problems...)
	}
	return filter, nil
}

func (q *QueryEngine) failure(ctx context.Context, op string, err error) error {
	logger.WithRequestID(ctx, q.logger).Error("task query failed", zap.String("operation", op), zap.Error(err))
	return domain.NewStorageError(err)
}
