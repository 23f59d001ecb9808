package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var base = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func newTask(title string, p Priority, offset time.Duration) *Task {
	return &Task{
		ID:        uuid.New(),
		CreatedAt: base.Add(offset),
		Title:     title,
		Priority:  p,
	}
}

func titles(tasks []*Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func assertTitles(t *testing.T, got []*Task, want ...string) {
	t.Helper()
	g := titles(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestSortTasksScenario(t *testing.T) {
	tasks := []*Task{
		newTask("Buy milk", PriorityLow, 0),
		newTask("File taxes", PriorityHigh, time.Second),
		newTask("Call Bob", PriorityMedium, 2*time.Second),
	}

	assertTitles(t, SortTasks(tasks, SortNone), "Buy milk", "File taxes", "Call Bob")
	assertTitles(t, SortTasks(tasks, SortPriorityHighFirst), "File taxes", "Call Bob", "Buy milk")
	assertTitles(t, SortTasks(tasks, SortPriorityLowFirst), "Buy milk", "Call Bob", "File taxes")
	assertTitles(t, SortTasks(tasks, SortDateNewest), "Call Bob", "File taxes", "Buy milk")
	assertTitles(t, SortTasks(tasks, SortDateOldest), "Buy milk", "File taxes", "Call Bob")
}

func TestSortTasksNewestIsReverseOfOldest(t *testing.T) {
	tasks := []*Task{
		newTask("c", PriorityLow, 3*time.Minute),
		newTask("a", PriorityLow, time.Minute),
		newTask("d", PriorityLow, 4*time.Minute),
		newTask("b", PriorityLow, 2*time.Minute),
	}

	newest := SortTasks(tasks, SortDateNewest)
	oldest := SortTasks(tasks, SortDateOldest)
	for i := range newest {
		if newest[i] != oldest[len(oldest)-1-i] {
			t.Fatalf("newest %v is not reverse of oldest %v", titles(newest), titles(oldest))
		}
	}
}

func TestSortTasksIsStable(t *testing.T) {
	tasks := []*Task{
		newTask("low-1", PriorityLow, 0),
		newTask("high-1", PriorityHigh, 0),
		newTask("low-2", PriorityLow, 0),
		newTask("high-2", PriorityHigh, 0),
		newTask("low-3", PriorityLow, 0),
	}

	assertTitles(t, SortTasks(tasks, SortPriorityHighFirst), "high-1", "high-2", "low-1", "low-2", "low-3")
	assertTitles(t, SortTasks(tasks, SortPriorityLowFirst), "low-1", "low-2", "low-3", "high-1", "high-2")

	// identical timestamps keep insertion order in both directions
	assertTitles(t, SortTasks(tasks, SortDateNewest), "low-1", "high-1", "low-2", "high-2", "low-3")
	assertTitles(t, SortTasks(tasks, SortDateOldest), "low-1", "high-1", "low-2", "high-2", "low-3")
}

func TestSortTasksDoesNotMutateInput(t *testing.T) {
	tasks := []*Task{
		newTask("a", PriorityLow, 0),
		newTask("b", PriorityHigh, time.Second),
	}
	before := titles(tasks)

	for _, opt := range SortOptions {
		out := SortTasks(tasks, opt)
		if len(out) != len(tasks) {
			t.Fatalf("%s: len=%d", opt, len(out))
		}
		out[0] = nil
	}

	assertTitles(t, tasks, before...)
}

func TestSortTasksEmpty(t *testing.T) {
	out := SortTasks(nil, SortPriorityHighFirst)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestSortTasksUnknownOptionKeepsOrder(t *testing.T) {
	tasks := []*Task{
		newTask("b", PriorityHigh, time.Second),
		newTask("a", PriorityLow, 0),
	}
	assertTitles(t, SortTasks(tasks, SortOption("alphabetical")), "b", "a")
}

func TestParseSortOption(t *testing.T) {
	cases := map[string]SortOption{
		"":                    SortNone,
		"none":                SortNone,
		"date_newest":         SortDateNewest,
		"date-oldest":         SortDateOldest,
		"PRIORITY_HIGH_FIRST": SortPriorityHighFirst,
		" priority-low-first": SortPriorityLowFirst,
	}
	for in, want := range cases {
		got, err := ParseSortOption(in)
		if err != nil {
			t.Fatalf("ParseSortOption(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseSortOption(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseSortOption("title"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
