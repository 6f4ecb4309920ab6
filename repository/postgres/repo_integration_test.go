package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/config"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	"github.com/fastygo/taskboard/repository"
)

// openPool needs TEST_DATABASE_URL pointing at a disposable database.
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := &config.Config{
		Storage:    config.StorageConfig{Driver: config.StorageDriverPostgres},
		Database:   config.DatabaseConfig{URL: url, Name: "taskboard_test"},
		Migrations: config.MigrationsConfig{Enabled: true, Path: "../../assets/migrations"},
	}
	require.NoError(t, pgInfra.RunMigrations(cfg, nil))

	ctx := context.Background()
	pool, err := pgInfra.NewPool(ctx, cfg.Database, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE tasks, users`)
	require.NoError(t, err)
	return pool
}

func TestPostgres_UserEmailConflict(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)

	now := time.Now().UTC()
	require.NoError(t, users.Create(ctx, &domain.User{ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordDigest: "x", Role: domain.RoleUser, CreatedAt: now}))

	err := users.Create(ctx, &domain.User{ID: "u2", Name: "Imposter", Email: "ALICE@example.com", PasswordDigest: "y", Role: domain.RoleUser, CreatedAt: now})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPostgres_TaskLifecycle(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	tasks := NewTaskRepository(pool)

	created := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, users.Create(ctx, &domain.User{ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordDigest: "x", Role: domain.RoleUser, CreatedAt: created}))

	ghost := &domain.Task{ID: "t0", Title: "Ghost", Status: domain.StatusPending, Priority: domain.PriorityLow, CreatedBy: "u1", AssignedTo: "nobody", CreatedAt: created, UpdatedAt: created}
	assert.ErrorIs(t, tasks.Create(ctx, ghost), domain.ErrUnknownUserRef)

	for i, id := range []string{"t1", "t2", "t3"} {
		task := &domain.Task{
			ID:         id,
			Title:      "Report " + id,
			Status:     domain.StatusPending,
			Priority:   domain.PriorityMedium,
			CreatedBy:  "u1",
			AssignedTo: "u1",
			CreatedAt:  created.Add(time.Duration(i/2) * time.Hour),
			UpdatedAt:  created.Add(time.Duration(i/2) * time.Hour),
		}
		require.NoError(t, tasks.Create(ctx, task))
	}

	listed, err := tasks.List(ctx, repository.TaskFilter{VisibleTo: "u1", Search: "report"})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []string{"t3", "t1", "t2"}, []string{listed[0].ID, listed[1].ID, listed[2].ID})

	got, err := tasks.GetByID(ctx, "t1")
	require.NoError(t, err)
	got.Status = domain.StatusDone
	got.UpdatedAt = got.UpdatedAt.Add(time.Minute)
	require.NoError(t, tasks.Update(ctx, got))

	done, err := tasks.List(ctx, repository.TaskFilter{Unrestricted: true, Status: domain.StatusDone})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "t1", done[0].ID)

	require.NoError(t, tasks.Delete(ctx, "t1"))
	assert.ErrorIs(t, tasks.Delete(ctx, "t1"), domain.ErrTaskNotFound)
}
