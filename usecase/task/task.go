package task

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// CreateInput is what an actor submits to create a task. An empty AssignedTo
// assigns the task to the actor.
type CreateInput struct {
	Title       string
	Description string
	Priority    domain.Priority
	DueDate     *domain.Date
	AssignedTo  string
}

// UpdateInput replaces the editable fields. AssignedTo nil leaves the
// assignee alone.
type UpdateInput struct {
	Title       string
	Description string
	Priority    domain.Priority
	DueDate     *domain.Date
	AssignedTo  *string
}

// UseCase is the actor-facing entry point: it applies the access policy and
// then delegates to the query engine or the lifecycle service.
type UseCase struct {
	service *Service
	query   *QueryEngine
	users   repository.UserRepository
	logger  *zap.Logger
}

func New(tasks repository.TaskRepository, users repository.UserRepository, clock usecase.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		service: NewService(tasks, clock, logger),
		query:   NewQueryEngine(tasks, clock, logger),
		users:   users,
		logger:  logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, actor *domain.User, filter Filter) ([]domain.Task, error) {
	return uc.query.List(ctx, actor, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, actor *domain.User, id string) (*domain.Task, error) {
	return uc.query.Get(ctx, id, actor)
}

func (uc *UseCase) Statistics(ctx context.Context, actor *domain.User) (domain.TaskStats, error) {
	return uc.query.Statistics(ctx, actor)
}

// CreateTask creates a task owned by actor. Only admins may assign it to
// someone else.
func (uc *UseCase) CreateTask(ctx context.Context, actor *domain.User, in CreateInput) (*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	assignee := strings.TrimSpace(in.AssignedTo)
	if assignee == "" {
		assignee = actor.ID
	}
	if assignee != actor.ID && !domain.CanAssignTasks(actor) {
		return nil, domain.ErrAssignForbidden
	}

	return uc.service.Create(ctx, NewTask{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedBy:   actor.ID,
		AssignedTo:  assignee,
	})
}

// UpdateTask edits a task the actor can access. A reassignment request from
// a non-admin is refused unless it names the current assignee.
func (uc *UseCase) UpdateTask(ctx context.Context, actor *domain.User, id string, in UpdateInput) (*domain.Task, error) {
	task, err := uc.query.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	changes := Changes{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}
	if in.AssignedTo != nil {
		switch {
		case domain.CanAssignTasks(actor):
			changes.AssignedTo = in.AssignedTo
		case strings.TrimSpace(*in.AssignedTo) != task.AssignedTo:
			return nil, domain.ErrAssignForbidden
		}
	}

	if err := uc.service.Update(ctx, task, changes); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleStatus flips a visible task between pending and done.
func (uc *UseCase) ToggleStatus(ctx context.Context, actor *domain.User, id string) (*domain.Task, error) {
	task, err := uc.query.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := uc.service.Toggle(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task. Tasks the actor cannot see report not-found;
// visible tasks the actor does not own report an explicit denial.
func (uc *UseCase) DeleteTask(ctx context.Context, actor *domain.User, id string) error {
	task, err := uc.query.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	if !domain.CanDeleteTask(actor, task) {
		return domain.ErrTaskDeleteForbidden
	}
	return uc.service.Delete(ctx, task)
}

// AssigneeChoices lists who the actor may assign tasks to.
func (uc *UseCase) AssigneeChoices(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !domain.CanAssignTasks(actor) {
		return domain.ResolveAssigneeChoices(actor, nil), nil
	}
	all, err := uc.users.List(ctx)
	if err != nil {
		uc.logger.Error("failed to list users", zap.Error(err))
		return nil, domain.NewStorageError(err)
	}
	return domain.ResolveAssigneeChoices(actor, all), nil
}

// UserNames maps the creator and assignee ids of tasks to display names.
func (uc *UseCase) UserNames(ctx context.Context, tasks []domain.Task) (map[string]string, error) {
	names := make(map[string]string)
	if len(tasks) == 0 {
		return names, nil
	}
	wanted := make(map[string]struct{}, len(tasks)*2)
	for i := range tasks {
		wanted[tasks[i].CreatedBy] = struct{}{}
		wanted[tasks[i].AssignedTo] = struct{}{}
	}
	all, err := uc.users.List(ctx)
	if err != nil {
		uc.logger.Error("failed to list users", zap.Error(err))
		return nil, domain.NewStorageError(err)
	}
	for _, u := range all {
		if _, ok := wanted[u.ID]; ok {
			names[u.ID] = u.Name
		}
	}
	return names, nil
}
