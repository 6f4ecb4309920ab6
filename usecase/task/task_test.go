package task

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
	"github.com/fastygo/taskboard/usecase"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	uc    *UseCase
	tasks repository.TaskRepository
	users repository.UserRepository
	clock *fakeClock

	alice, bob, carol, admin *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := boltRepo.Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		tasks: boltRepo.NewTaskRepository(store),
		users: boltRepo.NewUserRepository(store),
		clock: &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	f.uc = New(f.tasks, f.users, usecase.ClockFunc(f.clock.Now), nil)

	f.alice = f.addUser(t, "alice", "Alice", domain.RoleUser)
	f.bob = f.addUser(t, "bob", "Bob", domain.RoleUser)
	f.carol = f.addUser(t, "carol", "Carol", domain.RoleUser)
	f.admin = f.addUser(t, "root", "Root", domain.RoleAdmin)
	return f
}

func (f *fixture) addUser(t *testing.T, id, name string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Name: name, Email: id + "@example.com", PasswordDigest: "x", Role: role, CreatedAt: f.clock.Now()}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) today() domain.Date {
	return domain.DateOf(f.clock.Now())
}

func TestCreateTask_Defaults(t *testing.T) {
	f := newFixture(t)

	task, err := f.uc.CreateTask(context.Background(), f.alice, CreateInput{Title: "  Write report  "})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, "alice", task.CreatedBy)
	assert.Equal(t, "alice", task.AssignedTo)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
}

func TestCreateTask_RejectsPastDueAndPersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Late", DueDate: domain.DatePtr(f.today().AddDays(-1))})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	dErr, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Contains(t, dErr.Details, "due date cannot be earlier than today")

	all, err := f.uc.ListTasks(ctx, f.admin, Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Today", DueDate: domain.DatePtr(f.today())})
	assert.NoError(t, err)
}

func TestCreateTask_ReportsEveryViolation(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.CreateTask(context.Background(), f.alice, CreateInput{Title: "", Priority: "urgent"})
	dErr, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Len(t, dErr.Details, 2)
}

func TestCreateTask_OnlyAdminsAssignOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "For Bob", AssignedTo: "bob"})
	assert.ErrorIs(t, err, domain.ErrAssignForbidden)

	task, err := f.uc.CreateTask(ctx, f.admin, CreateInput{Title: "For Bob", AssignedTo: "bob"})
	require.NoError(t, err)

	bobs, err := f.uc.ListTasks(ctx, f.bob, Filter{})
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, task.ID, bobs[0].ID)

	alices, err := f.uc.ListTasks(ctx, f.alice, Filter{})
	require.NoError(t, err)
	assert.Empty(t, alices)

	_, err = f.uc.CreateTask(ctx, f.admin, CreateInput{Title: "For nobody", AssignedTo: "ghost"})
	assert.ErrorIs(t, err, domain.ErrUnknownUserRef)
}

func TestVisibility_InaccessibleLooksMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Private"})
	require.NoError(t, err)

	_, hiddenErr := f.uc.GetTask(ctx, f.carol, task.ID)
	_, missingErr := f.uc.GetTask(ctx, f.carol, "does-not-exist")
	assert.ErrorIs(t, hiddenErr, domain.ErrTaskNotAccessible)
	assert.ErrorIs(t, missingErr, domain.ErrTaskNotAccessible)
	assert.Equal(t, hiddenErr.Error(), missingErr.Error())

	_, err = f.uc.ToggleStatus(ctx, f.carol, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotAccessible)
	_, err = f.uc.UpdateTask(ctx, f.carol, task.ID, UpdateInput{Title: "Mine now"})
	assert.ErrorIs(t, err, domain.ErrTaskNotAccessible)
	assert.ErrorIs(t, f.uc.DeleteTask(ctx, f.carol, task.ID), domain.ErrTaskNotAccessible)

	carols, err := f.uc.ListTasks(ctx, f.carol, Filter{})
	require.NoError(t, err)
	assert.Empty(t, carols)

	stored, err := f.uc.GetTask(ctx, f.admin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", stored.Title)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestUpdateTask_BumpsUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Draft"})
	require.NoError(t, err)
	created := task.CreatedAt

	f.clock.Advance(time.Minute)
	updated, err := f.uc.UpdateTask(ctx, f.alice, task.ID, UpdateInput{Title: "Draft", Priority: domain.PriorityHigh})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created))
	assert.Equal(t, domain.PriorityHigh, updated.Priority)

	stored, err := f.uc.GetTask(ctx, f.alice, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.Equal(updated.UpdatedAt))
	assert.True(t, stored.CreatedAt.Equal(created))
}

func TestUpdateTask_PastDueOnlyWhenChanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	due := f.today()
	task, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Soon", DueDate: domain.DatePtr(due)})
	require.NoError(t, err)

	f.clock.Advance(72 * time.Hour)

	_, err = f.uc.UpdateTask(ctx, f.alice, task.ID, UpdateInput{Title: "Renamed", DueDate: domain.DatePtr(due)})
	require.NoError(t, err, "an unchanged past due date stays editable")

	_, err = f.uc.UpdateTask(ctx, f.alice, task.ID, UpdateInput{Title: "Renamed", DueDate: domain.DatePtr(f.today().AddDays(-1))})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestUpdateTask_Reassignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Mine"})
	require.NoError(t, err)

	bob := "bob"
	_, err = f.uc.UpdateTask(ctx, f.alice, task.ID, UpdateInput{Title: "Mine", AssignedTo: &bob})
	assert.ErrorIs(t, err, domain.ErrAssignForbidden)

	same := "alice"
	_, err = f.uc.UpdateTask(ctx, f.alice, task.ID, UpdateInput{Title: "Mine", AssignedTo: &same})
	assert.NoError(t, err)

	moved, err := f.uc.UpdateTask(ctx, f.admin, task.ID, UpdateInput{Title: "Mine", AssignedTo: &bob})
	require.NoError(t, err)
	assert.Equal(t, "bob", moved.AssignedTo)
	assert.Equal(t, "alice", moved.CreatedBy)

	empty := " "
	_, err = f.uc.UpdateTask(ctx, f.admin, task.ID, UpdateInput{Title: "Mine", AssignedTo: &empty})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestToggleStatus_TwiceRestores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.uc.CreateTask(ctx, f.admin, CreateInput{Title: "Flip", AssignedTo: "bob"})
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	done, err := f.uc.ToggleStatus(ctx, f.bob, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, done.Status)
	assert.True(t, done.UpdatedAt.After(task.CreatedAt))

	again, err := f.uc.ToggleStatus(ctx, f.bob, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, again.Status)
}

func TestDeleteTask_AssigneeCannotDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.uc.CreateTask(ctx, f.admin, CreateInput{Title: "Shared", AssignedTo: "bob"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.uc.DeleteTask(ctx, f.bob, task.ID), domain.ErrTaskDeleteForbidden)
	_, err = f.uc.GetTask(ctx, f.bob, task.ID)
	require.NoError(t, err, "a refused delete leaves the task in place")

	own, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Own"})
	require.NoError(t, err)
	require.NoError(t, f.uc.DeleteTask(ctx, f.alice, own.ID))
	_, err = f.uc.GetTask(ctx, f.alice, own.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotAccessible)

	require.NoError(t, f.uc.DeleteTask(ctx, f.admin, task.ID))
}

func TestStatistics_Consistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soon, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Soon", DueDate: domain.DatePtr(f.today())})
	require.NoError(t, err)
	_, err = f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Someday"})
	require.NoError(t, err)
	finished, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Finished", DueDate: domain.DatePtr(f.today())})
	require.NoError(t, err)
	_, err = f.uc.ToggleStatus(ctx, f.alice, finished.ID)
	require.NoError(t, err)
	_, err = f.uc.CreateTask(ctx, f.bob, CreateInput{Title: "Bob's"})
	require.NoError(t, err)

	f.clock.Advance(48 * time.Hour)

	stats, err := f.uc.Statistics(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStats{Total: 3, Pending: 2, Completed: 1, Overdue: 1}, stats)

	listed, err := f.uc.ListTasks(ctx, f.alice, Filter{})
	require.NoError(t, err)
	assert.Len(t, listed, stats.Total)

	overdue, err := f.uc.GetTask(ctx, f.alice, soon.ID)
	require.NoError(t, err)
	assert.True(t, overdue.IsOverdue(f.today()))

	all, err := f.uc.Statistics(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)
	assert.Equal(t, all.Total, all.Pending+all.Completed)
}

func TestListTasks_FiltersAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Report", Priority: domain.PriorityHigh})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "report draft", Priority: domain.PriorityLow})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Groceries", Priority: domain.PriorityHigh})
	require.NoError(t, err)

	got, err := f.uc.ListTasks(ctx, f.alice, Filter{Search: "REPORT", Priority: "high"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Report", got[0].Title)

	newestFirst, err := f.uc.ListTasks(ctx, f.alice, Filter{Search: "report"})
	require.NoError(t, err)
	require.Len(t, newestFirst, 2)
	assert.Equal(t, "report draft", newestFirst[0].Title)

	_, err = f.uc.ListTasks(ctx, f.alice, Filter{Status: "archived"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = f.uc.ListTasks(ctx, f.alice, Filter{DueFrom: domain.DatePtr(f.today()), DueTo: domain.DatePtr(f.today().AddDays(-1))})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = f.uc.ListTasks(ctx, nil, Filter{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestListTasks_StatusAndPriorityIntersect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	create := func(title string, priority domain.Priority, done bool) string {
		t.Helper()
		task, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: title, Priority: priority})
		require.NoError(t, err)
		if done {
			_, err = f.uc.ToggleStatus(ctx, f.alice, task.ID)
			require.NoError(t, err)
		}
		f.clock.Advance(time.Second)
		return task.ID
	}
	urgent := create("Pay rent", domain.PriorityHigh, false)
	create("Renew passport", domain.PriorityHigh, true)
	create("Water plants", domain.PriorityLow, false)
	alsoUrgent := create("Fix heating", domain.PriorityHigh, false)

	ids := func(filter Filter) map[string]bool {
		t.Helper()
		listed, err := f.uc.ListTasks(ctx, f.alice, filter)
		require.NoError(t, err)
		out := make(map[string]bool, len(listed))
		for _, task := range listed {
			out[task.ID] = true
		}
		return out
	}

	pending := ids(Filter{Status: "pending"})
	high := ids(Filter{Priority: "high"})
	both := ids(Filter{Status: "pending", Priority: "high"})

	want := make(map[string]bool)
	for id := range pending {
		if high[id] {
			want[id] = true
		}
	}
	assert.Equal(t, map[string]bool{urgent: true, alsoUrgent: true}, want)
	assert.Equal(t, want, both)
}

func TestAssigneeChoicesAndNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.uc.AssigneeChoices(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "alice", mine[0].ID)

	everyone, err := f.uc.AssigneeChoices(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, everyone, 4)

	task, err := f.uc.CreateTask(ctx, f.admin, CreateInput{Title: "Named", AssignedTo: "bob"})
	require.NoError(t, err)
	names, err := f.uc.UserNames(ctx, []domain.Task{*task})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"root": "Root", "bob": "Bob"}, names)
}

// failingTasks fails every write after delegating reads.
type failingTasks struct {
	repository.TaskRepository
	err error
}

func (f failingTasks) Create(context.Context, *domain.Task) error { return f.err }
func (f failingTasks) Update(context.Context, *domain.Task) error { return f.err }
func (f failingTasks) Delete(context.Context, string) error       { return f.err }

func TestService_RollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.uc.CreateTask(ctx, f.alice, CreateInput{Title: "Stable", DueDate: domain.DatePtr(f.today())})
	require.NoError(t, err)
	before := task.Clone()

	cause := errors.New("disk full")
	svc := NewService(failingTasks{TaskRepository: f.tasks, err: cause}, usecase.ClockFunc(f.clock.Now), nil)

	f.clock.Advance(time.Hour)
	err = svc.Update(ctx, task, Changes{Title: "Changed", Priority: domain.PriorityHigh})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	assert.Equal(t, "operation failed", domain.PublicMessage(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, before, task)

	require.Error(t, svc.Toggle(ctx, task))
	assert.Equal(t, before, task)

	stored, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stable", stored.Title)
	assert.Equal(t, domain.StatusPending, stored.Status)

	_, err = svc.Create(ctx, NewTask{Title: "Never", CreatedBy: "alice"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	listed, err := f.uc.ListTasks(ctx, f.alice, Filter{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestService_PassesClassifiedStoreErrors(t *testing.T) {
	f := newFixture(t)
	svc := NewService(failingTasks{TaskRepository: f.tasks, err: domain.ErrUnknownUserRef}, usecase.ClockFunc(f.clock.Now), nil)

	_, err := svc.Create(context.Background(), NewTask{Title: "Ref", CreatedBy: "alice"})
	assert.ErrorIs(t, err, domain.ErrUnknownUserRef)
}
