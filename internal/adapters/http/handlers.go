package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartplanner/core/internal/adapters/presenter"
	"github.com/smartplanner/core/internal/domain/entities"
	"github.com/smartplanner/core/internal/infrastructure/logger"
	"github.com/smartplanner/core/internal/ports"
)

// Context keys set by the session middleware
const (
	ContextKeyTaskStore = "task_store"
	ContextKeySessionID = "session_id"
)

// SessionHandler handles session lifecycle requests
type SessionHandler struct {
	sessionService ports.SessionService
	logger         *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService ports.SessionService, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		logger:         logger,
	}
}

// OpenSession godoc
// @Summary Open a session
// @Description Start a session with an empty task list and return its bearer token
// @Tags sessions
// @Produce json
// @Success 201 {object} ports.SessionToken
// @Failure 503 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) OpenSession(c echo.Context) error {
	token, err := h.sessionService.Open()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, token)
}

// CloseSession godoc
// @Summary Close the current session
// @Description Discard the session and all of its tasks
// @Tags sessions
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions [delete]
func (h *SessionHandler) CloseSession(c echo.Context) error {
	sessionID := getSessionIDFromContext(c)

	if err := h.sessionService.Close(sessionID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Session closed"})
}

// TaskHandler handles task requests against the caller's session store
type TaskHandler struct {
	logger *logger.Logger
	now    func() time.Time
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(logger *logger.Logger, now func() time.Time) *TaskHandler {
	if now == nil {
		now = time.Now
	}
	return &TaskHandler{
		logger: logger,
		now:    now,
	}
}

// ListTasks godoc
// @Summary List tasks
// @Description List the session's tasks in the requested order
// @Tags tasks
// @Produce json
// @Param sort query string false "none, date_newest, date_oldest, priority_high_first, priority_low_first"
// @Success 200 {object} TaskListResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	store, err := getTaskStoreFromContext(c)
	if err != nil {
		return err
	}

	sort, err := entities.ParseSortOption(c.QueryParam("sort"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid sort parameter")
	}

	tasks := store.ListTasks(sort)
	now := h.now()

	data := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		data = append(data, NewTaskResponse(task, now))
	}

	response := TaskListResponse{
		Data:      data,
		Total:     len(data),
		Sort:      sort,
		SortLabel: presenter.SortLabel(sort),
		Empty:     len(data) == 0,
	}
	if response.Empty {
		response.EmptyText = presenter.EmptyStateText
	}

	return c.JSON(http.StatusOK, response)
}

// CreateTask godoc
// @Summary Create a task
// @Description Append a task to the session store. Blank titles are rejected.
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body CreateTaskBody true "Task data"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	store, err := getTaskStoreFromContext(c)
	if err != nil {
		return err
	}

	var body CreateTaskBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	now := h.now()
	req, err := body.toRequest(now)
	if err != nil {
		return err
	}

	task, err := store.CreateTask(req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, NewTaskResponse(task, now))
}

// GetTask godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	store, err := getTaskStoreFromContext(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	task, err := store.GetTask(taskID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, NewTaskResponse(task, h.now()))
}

// ToggleTask godoc
// @Summary Toggle task completion
// @Description Flip the completed state of a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	store, err := getTaskStoreFromContext(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	task, err := store.ToggleTaskCompleted(taskID)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			h.logger.Debugw("Toggle for unknown task", "task_id", taskID, "session_id", getSessionIDFromContext(c))
		}
		return err
	}

	return c.JSON(http.StatusOK, NewTaskResponse(task, h.now()))
}

// SortOptions godoc
// @Summary List sort options
// @Tags tasks
// @Produce json
// @Success 200 {array} SortOptionResponse
// @Router /sort-options [get]
func (h *TaskHandler) SortOptions(c echo.Context) error {
	options := make([]SortOptionResponse, 0, len(entities.SortOptions))
	for _, opt := range entities.SortOptions {
		options = append(options, SortOptionResponse{Value: opt, Label: presenter.SortLabel(opt)})
	}

	return c.JSON(http.StatusOK, options)
}

// Utility functions and helper types

func getTaskStoreFromContext(c echo.Context) (ports.TaskService, error) {
	store, ok := c.Get(ContextKeyTaskStore).(ports.TaskService)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Session required")
	}
	return store, nil
}

func getSessionIDFromContext(c echo.Context) uuid.UUID {
	sessionID, ok := c.Get(ContextKeySessionID).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return sessionID
}

// Request/Response types

// CreateTaskBody is the JSON body of a create request. Priority defaults to
// medium. Deadline accepts RFC 3339 or "dd.MM HH:mm".
type CreateTaskBody struct {
	Title     string             `json:"title" validate:"required,max=500"`
	Details   *string            `json:"details" validate:"omitempty,max=5000"`
	Priority  *entities.Priority `json:"priority"`
	IsFlagged bool               `json:"is_flagged"`
	Deadline  *string            `json:"deadline"`
}

func (b CreateTaskBody) toRequest(now time.Time) (ports.CreateTaskRequest, error) {
	req := ports.CreateTaskRequest{
		Title:     b.Title,
		Details:   b.Details,
		Priority:  entities.PriorityMedium,
		IsFlagged: b.IsFlagged,
	}
	if b.Priority != nil {
		req.Priority = *b.Priority
	}
	if b.Deadline != nil && *b.Deadline != "" {
		deadline, err := presenter.ParseDeadline(*b.Deadline, now)
		if err != nil {
			return req, err
		}
		req.Deadline = &deadline
	}
	return req, nil
}

// TaskResponse is a task plus its display fields
type TaskResponse struct {
	*entities.Task
	Display presenter.TaskView `json:"display"`
}

func NewTaskResponse(task *entities.Task, now time.Time) TaskResponse {
	return TaskResponse{
		Task:    task,
		Display: presenter.NewTaskView(task, now),
	}
}

type TaskListResponse struct {
	Data      []TaskResponse      `json:"data"`
	Total     int                 `json:"total"`
	Sort      entities.SortOption `json:"sort"`
	SortLabel string              `json:"sort_label"`
	Empty     bool                `json:"empty"`
	EmptyText string              `json:"empty_text,omitempty"`
}

type SortOptionResponse struct {
	Value entities.SortOption `json:"value"`
	Label string              `json:"label"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
