package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartplanner/core/internal/domain/entities"
)

// TaskService interface for the per-session task store
type TaskService interface {
	CreateTask(req CreateTaskRequest) (*entities.Task, error)
	ToggleTaskCompleted(id uuid.UUID) (*entities.Task, error)
	GetTask(id uuid.UUID) (*entities.Task, error)
	ListTasks(sort entities.SortOption) []*entities.Task
	All() []*entities.Task
	IsEmpty() bool
}

// SessionService interface for session lifecycle operations
type SessionService interface {
	Open() (*SessionToken, error)
	Resolve(token string) (TaskService, uuid.UUID, error)
	Close(id uuid.UUID) error
	ValidateToken(token string) (*Claims, error)
	Sweep(now time.Time) int
	Run(ctx context.Context)
	Count() int
}

// TaskObserver receives task store events. Metrics implement it.
type TaskObserver interface {
	TaskCreated()
	TaskCreateRejected()
	TaskToggled(completed bool)
}

// SessionObserver receives session lifecycle events.
type SessionObserver interface {
	SessionOpened()
	SessionClosed(reason string)
}

// Request/Response Types

// CreateTaskRequest carries the user-supplied fields of a new task.
// Blank titles pass the struct tags and are rejected by the store.
type CreateTaskRequest struct {
	Title     string            `json:"title" validate:"required,max=500"`
	Details   *string           `json:"details" validate:"omitempty,max=5000"`
	Priority  entities.Priority `json:"priority"`
	IsFlagged bool              `json:"is_flagged"`
	Deadline  *time.Time        `json:"deadline"`
}

// SessionToken is returned when a session is opened
type SessionToken struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int64     `json:"expires_in"`
}

// Claims represents the validated session token claims
type Claims struct {
	SessionID uuid.UUID
	ExpiresAt time.Time
}
