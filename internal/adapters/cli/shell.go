// Package cli is the interactive terminal adapter over a single task store.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/smartplanner/core/internal/adapters/presenter"
	"github.com/smartplanner/core/internal/domain/entities"
	"github.com/smartplanner/core/internal/infrastructure/logger"
	"github.com/smartplanner/core/internal/ports"
)

const cancelInput = "/cancel"

// maxLineSize bounds a single input line; longer lines stop the shell with
// bufio.ErrTooLong.
const maxLineSize = 1 << 20

const helpText = `Commands:
  list             show tasks in the current order
  add              open the new task form (/cancel to abandon)
  toggle <n>       toggle completion of task n from the last list
  sort <option>    none, date_newest, date_oldest, priority_high_first, priority_low_first
  help             show this help
  quit             exit`

// errFormClosed signals that the add form was abandoned
var errFormClosed = errors.New("form closed")

// Shell reads commands line by line and renders the task list after every
// change.
type Shell struct {
	store  ports.TaskService
	in     *bufio.Scanner
	out    io.Writer
	logger *logger.Logger

	debug bool
	now   func() time.Time

	sort  entities.SortOption
	shown []*entities.Task
}

// ShellOption customises a Shell
type ShellOption func(*Shell)

// WithDebug makes a missing task abort the shell instead of being logged
func WithDebug(debug bool) ShellOption {
	return func(s *Shell) {
		s.debug = debug
	}
}

func WithShellClock(now func() time.Time) ShellOption {
	return func(s *Shell) {
		s.now = now
	}
}

// NewShell creates a shell over store
func NewShell(store ports.TaskService, in io.Reader, out io.Writer, logger *logger.Logger, opts ...ShellOption) *Shell {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	s := &Shell{
		store:  store,
		in:     scanner,
		out:    out,
		logger: logger.WithComponent("shell"),
		now:    time.Now,
		sort:   entities.SortNone,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes commands until quit or end of input. It returns an error only
// when the shell cannot continue.
func (s *Shell) Run() error {
	s.println("SmartPlanner. Type help for commands.")
	s.render()

	for {
		line, ok := s.prompt("> ")
		if !ok {
			return s.inputErr()
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch strings.ToLower(fields[0]) {
		case "list", "ls":
			s.render()
		case "add", "new":
			err = s.add()
		case "toggle", "done":
			err = s.toggle(fields[1:])
		case "sort":
			s.changeSort(fields[1:])
		case "help", "?":
			s.println(helpText)
		case "quit", "exit", "q":
			return nil
		default:
			s.printf("Unknown command %q. Type help for commands.\n", fields[0])
		}

		if err != nil {
			return err
		}
	}
}

func (s *Shell) render() {
	s.shown = s.store.ListTasks(s.sort)

	s.printf("\nTasks (%s)\n", presenter.SortLabel(s.sort))
	if len(s.shown) == 0 {
		s.println("  " + presenter.EmptyStateText)
		return
	}

	now := s.now()
	for i, task := range s.shown {
		s.println(presenter.Line(i+1, task, now))
	}
}

// add fills the task form and hands it to the store. When the store rejects
// the form only the title is asked again; the other answers are kept.
func (s *Shell) add() error {
	req, err := s.readForm()
	for err == nil {
		_, err = s.store.CreateTask(req)
		if !errors.Is(err, entities.ErrInvalidArgument) {
			break
		}

		s.logger.Debugw("Task form rejected", "error", err)
		s.printf("Not saved: %v\n", err)
		req.Title, err = s.field("Title: ")
	}

	switch {
	case errors.Is(err, errFormClosed):
		if err := s.inputErr(); err != nil {
			return err
		}
		s.println("Cancelled.")
		return nil
	case err != nil:
		return fmt.Errorf("failed to create task: %w", err)
	}

	s.render()
	return nil
}

func (s *Shell) readForm() (ports.CreateTaskRequest, error) {
	var req ports.CreateTaskRequest

	title, err := s.field("Title: ")
	if err != nil {
		return req, err
	}
	req.Title = title

	details, err := s.field("Details (optional): ")
	if err != nil {
		return req, err
	}
	if details != "" {
		req.Details = &details
	}

	choices := priorityChoices()
	req.Priority = entities.PriorityMedium
	for {
		raw, err := s.field(fmt.Sprintf("Priority [%s] (%s): ", choices, req.Priority))
		if err != nil {
			return req, err
		}
		if strings.TrimSpace(raw) == "" {
			break
		}
		p, err := entities.ParsePriority(raw)
		if err == nil {
			req.Priority = p
			break
		}
		s.printf("Choose one of %s.\n", choices)
	}

	flag, err := s.field("Flag? [y/N]: ")
	if err != nil {
		return req, err
	}
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "y", "yes":
		req.IsFlagged = true
	}

	for {
		raw, err := s.field("Deadline dd.MM HH:mm (optional): ")
		if err != nil {
			return req, err
		}
		if strings.TrimSpace(raw) == "" {
			break
		}
		deadline, err := presenter.ParseDeadline(raw, s.now())
		if err == nil {
			req.Deadline = &deadline
			break
		}
		s.println("Use the form 31.12 18:30 or leave empty.")
	}

	return req, nil
}

func priorityChoices() string {
	names := make([]string, len(entities.Priorities))
	for i, p := range entities.Priorities {
		names[i] = p.String()
	}
	return strings.Join(names, "/")
}

func (s *Shell) field(label string) (string, error) {
	line, ok := s.prompt(label)
	if !ok || strings.TrimSpace(line) == cancelInput {
		return "", errFormClosed
	}
	return line, nil
}

func (s *Shell) toggle(args []string) error {
	if len(args) != 1 {
		s.println("Usage: toggle <n>")
		return nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(s.shown) {
		s.printf("No task number %s in the list.\n", args[0])
		return nil
	}

	id := s.shown[n-1].ID
	if _, err := s.store.ToggleTaskCompleted(id); err != nil {
		if !errors.Is(err, entities.ErrTaskNotFound) {
			return fmt.Errorf("failed to toggle task: %w", err)
		}
		if s.debug {
			return fmt.Errorf("toggle %s: %w", id, err)
		}
		s.logger.Warnw("Toggle ignored for missing task", "task_id", id)
	}

	s.render()
	return nil
}

func (s *Shell) changeSort(args []string) {
	if len(args) == 0 {
		for _, opt := range entities.SortOptions {
			s.printf("  %-20s %s\n", opt, presenter.SortLabel(opt))
		}
		return
	}

	opt, err := entities.ParseSortOption(args[0])
	if err != nil {
		s.printf("Unknown sort option %q.\n", args[0])
		return
	}

	s.sort = opt
	s.render()
}

func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimRight(s.in.Text(), "\r"), true
}

// inputErr reports why input ended; nil means a clean end of input
func (s *Shell) inputErr() error {
	if err := s.in.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (s *Shell) println(text string) {
	fmt.Fprintln(s.out, text)
}

func (s *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}
