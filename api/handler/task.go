package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/usecase"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc     *taskUC.UseCase
	actors ActorLoader
	clock  usecase.Clock
}

func NewTaskHandler(uc *taskUC.UseCase, actors ActorLoader, clock usecase.Clock, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	if clock == nil {
		clock = usecase.SystemClock{}
	}
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		actors:      actors,
		clock:       clock,
	}
}

// @Summary List visible tasks
// @Tags tasks
// @Param search query string false "title/description substring"
// @Param status query string false "pending|done"
// @Param priority query string false "low|medium|high"
// @Param assigned_to query string false "assignee id"
// @Param due_from query string false "YYYY-MM-DD"
// @Param due_to query string false "YYYY-MM-DD"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	filter, err := parseFilter(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	tasks, err := h.uc.ListTasks(stdCtx, actor, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	names, err := h.uc.UserNames(stdCtx, tasks)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(
		transport.NewTaskViews(tasks, names, h.clock.Today()),
		map[string]int{"count": len(tasks)},
	))
}

// @Summary Get a task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	task, err := h.uc.GetTask(stdCtx, actor, taskID(ctx))
	h.respondTask(ctx, stdCtx, http.StatusOK, task, err)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	in := taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(strings.ToLower(strings.TrimSpace(req.Priority))),
		DueDate:     due,
	}
	if req.AssignedTo != nil {
		in.AssignedTo = *req.AssignedTo
	}

	task, err := h.uc.CreateTask(stdCtx, actor, in)
	h.respondTask(ctx, stdCtx, http.StatusCreated, task, err)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	task, err := h.uc.UpdateTask(stdCtx, actor, taskID(ctx), taskUC.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(strings.ToLower(strings.TrimSpace(req.Priority))),
		DueDate:     due,
		AssignedTo:  req.AssignedTo,
	})
	h.respondTask(ctx, stdCtx, http.StatusOK, task, err)
}

// @Summary Toggle task status between pending and done
// @Tags tasks
// @Router /api/v1/tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	task, err := h.uc.ToggleStatus(stdCtx, actor, taskID(ctx))
	h.respondTask(ctx, stdCtx, http.StatusOK, task, err)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	if err := h.uc.DeleteTask(stdCtx, actor, taskID(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary Task statistics for the caller
// @Tags tasks
// @Router /api/v1/stats/tasks [get]
func (h *TaskHandler) Stats(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	stats, err := h.uc.Statistics(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewStatsView(stats))
}

// @Summary Users the caller may assign tasks to
// @Tags tasks
// @Router /api/v1/assignees [get]
func (h *TaskHandler) Assignees(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	users, err := h.uc.AssigneeChoices(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewAssigneeViews(users))
}

// respondTask renders a single task. Name lookup failures degrade to ids.
func (h *TaskHandler) respondTask(ctx *fasthttp.RequestCtx, stdCtx context.Context, status int, task *domain.Task, err error) {
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	names, nErr := h.uc.UserNames(stdCtx, []domain.Task{*task})
	if nErr != nil {
		names = nil
	}
	h.respondSuccess(ctx, status, transport.NewTaskView(task, names, h.clock.Today()))
}

func taskID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

func parseFilter(args *fasthttp.Args) (taskUC.Filter, error) {
	filter := taskUC.Filter{
		Search:     string(args.Peek("search")),
		Status:     string(args.Peek("status")),
		Priority:   string(args.Peek("priority")),
		AssignedTo: string(args.Peek("assigned_to")),
	}
	if filter.Search == "" {
		filter.Search = string(args.Peek("q"))
	}

	var problems []string
	var err error
	if filter.DueFrom, err = parseDueDate(string(args.Peek("due_from"))); err != nil {
		problems = append(problems, "due_from must be formatted as YYYY-MM-DD")
	}
	if filter.DueTo, err = parseDueDate(string(args.Peek("due_to"))); err != nil {
		problems = append(problems, "due_to must be formatted as YYYY-MM-DD")
	}
	if len(problems) > 0 {
		return taskUC.Filter{}, domain.NewValidationError(problems...)
	}
	return filter, nil
}

func parseDueDate(value string) (*domain.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return nil, domain.NewValidationError("due date must be formatted as YYYY-MM-DD")
	}
	return &d, nil
}
