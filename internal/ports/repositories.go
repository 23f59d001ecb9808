package ports

import (
	"github.com/google/uuid"
	"github.com/smartplanner/core/internal/domain/entities"
)

// TaskRepository defines the interface for task data operations.
// Implementations keep insertion order and hand out copies only.
type TaskRepository interface {
	Append(task *entities.Task) error
	GetByID(id uuid.UUID) (*entities.Task, error)
	Update(task *entities.Task) error
	List() []*entities.Task
	Count() int
}

// TaskRepositoryFactory builds an empty repository for a new session.
type TaskRepositoryFactory func() TaskRepository
