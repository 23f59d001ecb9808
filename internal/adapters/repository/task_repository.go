package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/smartplanner/core/internal/domain/entities"
	"github.com/smartplanner/core/internal/ports"
)

// TaskRepositoryImpl is an insertion-ordered in-memory task collection.
// It is not safe for concurrent use; the owning TaskService serialises access.
type TaskRepositoryImpl struct {
	tasks []*entities.Task
	index map[uuid.UUID]int
}

// NewTaskRepository creates an empty task repository
func NewTaskRepository() ports.TaskRepository {
	return &TaskRepositoryImpl{
		index: make(map[uuid.UUID]int),
	}
}

func (r *TaskRepositoryImpl) Append(task *entities.Task) error {
	if _, exists := r.index[task.ID]; exists {
		return fmt.Errorf("append task %s: %w", task.ID, entities.ErrDuplicateTask)
	}

	r.index[task.ID] = len(r.tasks)
	r.tasks = append(r.tasks, task.Clone())
	return nil
}

func (r *TaskRepositoryImpl) GetByID(id uuid.UUID) (*entities.Task, error) {
	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("get task %s: %w", id, entities.ErrTaskNotFound)
	}
	return r.tasks[i].Clone(), nil
}

// Update replaces the stored task with the same ID, keeping its position.
func (r *TaskRepositoryImpl) Update(task *entities.Task) error {
	i, ok := r.index[task.ID]
	if !ok {
		return fmt.Errorf("update task %s: %w", task.ID, entities.ErrTaskNotFound)
	}
	r.tasks[i] = task.Clone()
	return nil
}

func (r *TaskRepositoryImpl) List() []*entities.Task {
	out := make([]*entities.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t.Clone())
	}
	return out
}

func (r *TaskRepositoryImpl) Count() int {
	return len(r.tasks)
}
