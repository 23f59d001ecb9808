package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTaskNotFound    = errors.New("task not found")
	ErrDuplicateTask   = errors.New("task already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
	ErrInvalidToken    = errors.New("invalid session token")
)

// Priority is the ordered task priority: low < medium < high.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// Priorities lists every valid priority in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Task represents one to-do item owned by a session store
type Task struct {
	ID          uuid.UUID  `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	Title       string     `json:"title"`
	Details     *string    `json:"details"`
	Priority    Priority   `json:"priority"`
	IsFlagged   bool       `json:"is_flagged"`
	Deadline    *time.Time `json:"deadline"`
	IsCompleted bool       `json:"is_completed"`
}

// Clone returns a deep copy so callers never share pointers with the store.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	c := *t
	if t.Details != nil {
		details := *t.Details
		c.Details = &details
	}
	if t.Deadline != nil {
		deadline := *t.Deadline
		c.Deadline = &deadline
	}
	return &c
}

// ToggleCompleted flips the completion state.
func (t *Task) ToggleCompleted() {
	t.IsCompleted = !t.IsCompleted
}

func (t *Task) HasDetails() bool {
	return t.Details != nil && *t.Details != ""
}

// IsOverdue reports whether the deadline has passed for an open task.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Deadline == nil || t.IsCompleted {
		return false
	}
	return now.After(*t.Deadline)
}

// Validate checks the fields a caller may supply at creation.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: unknown priority %d", ErrInvalidArgument, int(t.Priority))
	}
	return nil
}

// Utility methods
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Compare returns -1, 0 or +1 following low < medium < high.
func (p Priority) Compare(other Priority) int {
	switch {
	case p < other:
		return -1
	case p > other:
		return 1
	default:
		return 0
	}
}

// ParsePriority maps a case-insensitive name to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, s)
	}
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: unknown priority %d", ErrInvalidArgument, int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
