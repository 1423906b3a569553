package models

import "time"

// Task represents a row in the PostgreSQL tasks table. Description and
// DueDate are nil when the column is NULL; an empty description is stored
// as NULL, never as the empty string.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	UserID      int64      `json:"user_id"`
}

// IsOverdue reports whether the task is past due as of the given day: an
// open task whose due date falls strictly before today's calendar date.
// Derived at read time, never persisted.
func (t Task) IsOverdue(today time.Time) bool {
	if t.IsCompleted || t.DueDate == nil {
		return false
	}
	return calendarDate(*t.DueDate).Before(calendarDate(today))
}

// calendarDate strips the time-of-day and zone so two timestamps compare
// by calendar date only.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StatusFilter selects which tasks the list view shows.
type StatusFilter string

const (
	StatusAll  StatusFilter = "all"
	StatusOpen StatusFilter = "open"
	StatusDone StatusFilter = "done"
)

// ParseStatusFilter maps a query parameter to a filter; unrecognized
// values behave as "all".
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(s) {
	case StatusOpen:
		return StatusOpen
	case StatusDone:
		return StatusDone
	default:
		return StatusAll
	}
}
