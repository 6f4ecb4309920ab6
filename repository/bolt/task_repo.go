package bolt

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// taskRecord stores the insertion sequence next to the task so listings can
// break CreatedAt ties deterministically.
type taskRecord struct {
	Seq uint64 `json:"seq"`
	domain.Task
}

type taskRepository struct {
	store *Store
}

// NewTaskRepository returns a Bolt-backed TaskRepository.
func NewTaskRepository(store *Store) repository.TaskRepository {
	return &taskRepository{store: store}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var task *domain.Task
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		rec, err := loadTask(tx, id)
		if err != nil {
			return err
		}
		task = rec.Task.Clone()
		return nil
	})
	return task, err
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var records []taskRecord
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTasks).ForEach(func(_, v []byte) error {
			var rec taskRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if filter.Matches(&rec.Task) {
				records = append(records, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Seq < b.Seq
	})

	tasks := make([]domain.Task, len(records))
	for i := range records {
		tasks[i] = records[i].Task
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	id := task.ID
	if id == "" {
		id = uuid.NewString()
	}

	err := r.store.update(ctx, func(tx *bbolt.Tx) error {
		if !userExists(tx, task.CreatedBy) || !userExists(tx, task.AssignedTo) {
			return domain.ErrUnknownUserRef
		}
		tasks := tx.Bucket(bucketTasks)
		if tasks.Get([]byte(id)) != nil {
			return domain.WrapError(domain.ErrCodeConflict, "duplicate record", nil)
		}
		seq, err := tasks.NextSequence()
		if err != nil {
			return err
		}
		rec := taskRecord{Seq: seq, Task: *task.Clone()}
		rec.ID = id
		return put(tasks, id, rec)
	})
	if err != nil {
		return err
	}
	task.ID = id
	return nil
}

// Update rewrites the mutable fields; CreatedBy and CreatedAt keep their
// stored values.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		rec, err := loadTask(tx, task.ID)
		if err != nil {
			return err
		}
		if !userExists(tx, task.AssignedTo) {
			return domain.ErrUnknownUserRef
		}
		next := task.Clone()
		rec.Title = next.Title
		rec.Description = next.Description
		rec.Status = next.Status
		rec.Priority = next.Priority
		rec.DueDate = next.DueDate
		rec.AssignedTo = next.AssignedTo
		rec.UpdatedAt = next.UpdatedAt
		return put(tx.Bucket(bucketTasks), rec.ID, rec)
	})
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		tasks := tx.Bucket(bucketTasks)
		if tasks.Get([]byte(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return tasks.Delete([]byte(id))
	})
}

func loadTask(tx *bbolt.Tx, id string) (taskRecord, error) {
	var rec taskRecord
	found, err := get(tx.Bucket(bucketTasks), id, &rec)
	if err != nil {
		return rec, err
	}
	if !found {
		return rec, domain.ErrTaskNotFound
	}
	return rec, nil
}
