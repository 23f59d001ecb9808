package entities

import (
	"fmt"
	"slices"
	"strings"
)

// SortOption names a display ordering over a task list.
type SortOption string

const (
	SortNone              SortOption = "none"
	SortDateNewest        SortOption = "date_newest"
	SortDateOldest        SortOption = "date_oldest"
	SortPriorityHighFirst SortOption = "priority_high_first"
	SortPriorityLowFirst  SortOption = "priority_low_first"
)

// SortOptions lists the options in menu order.
var SortOptions = []SortOption{
	SortNone,
	SortDateNewest,
	SortDateOldest,
	SortPriorityHighFirst,
	SortPriorityLowFirst,
}

func (o SortOption) IsValid() bool {
	switch o {
	case SortNone, SortDateNewest, SortDateOldest, SortPriorityHighFirst, SortPriorityLowFirst:
		return true
	default:
		return false
	}
}

// ParseSortOption accepts the canonical names, case-insensitively, with
// dashes or underscores. An empty string means SortNone.
func ParseSortOption(s string) (SortOption, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if normalized == "" {
		return SortNone, nil
	}

	opt := SortOption(normalized)
	if !opt.IsValid() {
		return SortNone, fmt.Errorf("%w: unknown sort option %q", ErrInvalidArgument, s)
	}
	return opt, nil
}

// SortTasks returns a new slice ordered by opt. The input slice is never
// reordered. All orderings are stable, so equal keys keep their input order.
// An unrecognised option behaves like SortNone.
func SortTasks(tasks []*Task, opt SortOption) []*Task {
	result := slices.Clone(tasks)
	if result == nil {
		result = []*Task{}
	}

	switch opt {
	case SortDateNewest:
		slices.SortStableFunc(result, func(a, b *Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case SortDateOldest:
		slices.SortStableFunc(result, func(a, b *Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case SortPriorityHighFirst:
		slices.SortStableFunc(result, func(a, b *Task) int {
			return b.Priority.Compare(a.Priority)
		})
	case SortPriorityLowFirst:
		slices.SortStableFunc(result, func(a, b *Task) int {
			return a.Priority.Compare(b.Priority)
		})
	}

	return result
}
