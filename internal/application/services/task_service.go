package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartplanner/core/internal/domain/entities"
	"github.com/smartplanner/core/internal/infrastructure/logger"
	"github.com/smartplanner/core/internal/ports"
)

// TaskService is the authoritative task store of one session. Every
// operation runs to completion under a single mutex.
type TaskService struct {
	mu sync.Mutex

	taskRepo ports.TaskRepository
	observer ports.TaskObserver
	now      func() time.Time
	newID    func() uuid.UUID
	logger   *logger.Logger

	lastCreatedAt time.Time
}

// TaskServiceOption customises a TaskService
type TaskServiceOption func(*TaskService)

// WithClock overrides the time source used for CreatedAt
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *TaskService) {
		s.now = now
	}
}

// WithIDGenerator overrides the task ID generator
func WithIDGenerator(newID func() uuid.UUID) TaskServiceOption {
	return func(s *TaskService) {
		s.newID = newID
	}
}

// WithTaskObserver registers a receiver for store events
func WithTaskObserver(observer ports.TaskObserver) TaskServiceOption {
	return func(s *TaskService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logger *logger.Logger, opts ...TaskServiceOption) *TaskService {
	s := &TaskService{
		taskRepo: taskRepo,
		observer: noopObserver{},
		now:      time.Now,
		newID:    uuid.New,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTask validates the request, assigns identity and appends the task
func (s *TaskService) CreateTask(req ports.CreateTaskRequest) (*entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &entities.Task{
		Title:     req.Title,
		Priority:  req.Priority,
		IsFlagged: req.IsFlagged,
	}
	if req.Details != nil && *req.Details != "" {
		details := *req.Details
		task.Details = &details
	}
	if req.Deadline != nil {
		deadline := *req.Deadline
		task.Deadline = &deadline
	}

	if err := task.Validate(); err != nil {
		s.observer.TaskCreateRejected()
		s.logger.Debugw("Task create rejected", "error", err)
		return nil, err
	}

	task.ID = s.newID()
	task.CreatedAt = s.now()
	// creation order and CreatedAt order must agree even if the clock steps back
	if task.CreatedAt.Before(s.lastCreatedAt) {
		task.CreatedAt = s.lastCreatedAt
	}

	if err := s.taskRepo.Append(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	s.lastCreatedAt = task.CreatedAt

	s.observer.TaskCreated()
	s.logger.Infow("Task created successfully", "task_id", task.ID, "priority", task.Priority.String())

	return task.Clone(), nil
}

// ToggleTaskCompleted flips the completion state of the task with the given ID
func (s *TaskService) ToggleTaskCompleted(id uuid.UUID) (*entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	task.ToggleCompleted()

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.observer.TaskToggled(task.IsCompleted)
	s.logger.Infow("Task completion toggled", "task_id", task.ID, "completed", task.IsCompleted)

	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(id uuid.UUID) (*entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.taskRepo.GetByID(id)
}

// ListTasks returns a snapshot ordered by the given sort option
func (s *TaskService) ListTasks(sort entities.SortOption) []*entities.Task {
	return entities.SortTasks(s.All(), sort)
}

// All returns a snapshot of the store in insertion order
func (s *TaskService) All() []*entities.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.taskRepo.List()
}

func (s *TaskService) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.taskRepo.Count() == 0
}

type noopObserver struct{}

func (noopObserver) TaskCreated()        {}
func (noopObserver) TaskCreateRejected() {}
func (noopObserver) TaskToggled(bool)    {}
