// Package presenter holds display concerns shared by the HTTP and terminal
// adapters. The domain never sees these strings.
package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/smartplanner/core/internal/domain/entities"
)

const (
	// DeadlineLayout renders deadlines as day.month hour:minute
	DeadlineLayout = "02.01 15:04"

	EmptyStateText = "No tasks"

	MarkCompleted = "✓"
	MarkOpen      = "○"
	MarkFlagged   = "⚑"

	subtitleSeparator = " • "
)

var priorityLabels = map[entities.Priority]string{
	entities.PriorityLow:    "Low",
	entities.PriorityMedium: "Medium",
	entities.PriorityHigh:   "High",
}

var priorityAccents = map[entities.Priority]string{
	entities.PriorityLow:    "green",
	entities.PriorityMedium: "orange",
	entities.PriorityHigh:   "red",
}

var sortLabels = map[entities.SortOption]string{
	entities.SortNone:              "Creation order",
	entities.SortDateNewest:        "Newest first",
	entities.SortDateOldest:        "Oldest first",
	entities.SortPriorityHighFirst: "High priority first",
	entities.SortPriorityLowFirst:  "Low priority first",
}

func PriorityLabel(p entities.Priority) string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return p.String()
}

// PriorityAccent is the colour of the priority bar next to a task
func PriorityAccent(p entities.Priority) string {
	if accent, ok := priorityAccents[p]; ok {
		return accent
	}
	return "gray"
}

func SortLabel(o entities.SortOption) string {
	if label, ok := sortLabels[o]; ok {
		return label
	}
	return string(o)
}

func StatusMark(t *entities.Task) string {
	if t.IsCompleted {
		return MarkCompleted
	}
	return MarkOpen
}

func FormatDeadline(deadline time.Time) string {
	return deadline.Format(DeadlineLayout)
}

// ParseDeadline accepts RFC 3339 or the short dd.MM HH:mm form. The short
// form takes its year and location from ref.
func ParseDeadline(s string, ref time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	short, err := time.ParseInLocation(DeadlineLayout, s, ref.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: deadline %q must look like 31.12 18:30", entities.ErrInvalidArgument, s)
	}

	deadline := time.Date(ref.Year(), short.Month(), short.Day(), short.Hour(), short.Minute(), 0, 0, ref.Location())
	if deadline.Day() != short.Day() {
		// 29.02 outside a leap year
		return time.Time{}, fmt.Errorf("%w: deadline %q does not exist in %d", entities.ErrInvalidArgument, s, ref.Year())
	}
	return deadline, nil
}

// Subtitle joins the details and formatted deadline of a task
func Subtitle(t *entities.Task) string {
	var parts []string
	if t.HasDetails() {
		parts = append(parts, *t.Details)
	}
	if t.Deadline != nil {
		parts = append(parts, FormatDeadline(*t.Deadline))
	}
	return strings.Join(parts, subtitleSeparator)
}

// TaskView is the display model of one task row
type TaskView struct {
	PriorityLabel string `json:"priority_label"`
	Accent        string `json:"accent"`
	Subtitle      string `json:"subtitle"`
	StatusMark    string `json:"status_mark"`
	Flagged       bool   `json:"flagged"`
	Overdue       bool   `json:"overdue"`
}

func NewTaskView(t *entities.Task, now time.Time) TaskView {
	return TaskView{
		PriorityLabel: PriorityLabel(t.Priority),
		Accent:        PriorityAccent(t.Priority),
		Subtitle:      Subtitle(t),
		StatusMark:    StatusMark(t),
		Flagged:       t.IsFlagged,
		Overdue:       t.IsOverdue(now),
	}
}

// Line renders a task as one terminal row, numbered from 1
func Line(n int, t *entities.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%2d. %s [%s] %s", n, StatusMark(t), PriorityLabel(t.Priority), t.Title)
	if t.IsFlagged {
		b.WriteString(" " + MarkFlagged)
	}
	if t.IsOverdue(now) {
		b.WriteString(" (overdue)")
	}
	if sub := Subtitle(t); sub != "" {
		b.WriteString("\n      " + sub)
	}
	return b.String()
}
