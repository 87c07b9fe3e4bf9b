package planning

import "time"

// DeadlineState is the derived urgency classification of a task. It is
// computed from the task's end date and status on every read and never stored.
type DeadlineState string

const (
	DeadlineNormal   DeadlineState = "normal"
	DeadlineDueSoon  DeadlineState = "due_soon"
	DeadlineDueToday DeadlineState = "due_today"
	DeadlineOverdue  DeadlineState = "overdue"
)

// DueSoonWindowDays is the number of days before the end date during which a
// task counts as due soon
const DueSoonWindowDays = 2

// ClassifyDeadline derives the deadline state of a task from its end date,
// status and the current date. Time-of-day components are ignored; only the
// calendar date matters.
func ClassifyDeadline(endDate *time.Time, status TaskStatus, now time.Time) DeadlineState {
	if endDate == nil {
		return DeadlineNormal
	}

	today := truncateToDate(now)
	end := truncateToDate(*endDate)

	switch {
	case status != TaskStatusDone && today.After(end):
		return DeadlineOverdue
	case end.Equal(today):
		return DeadlineDueToday
	default:
		days := int(end.Sub(today).Hours() / 24)
		if days > 0 && days <= DueSoonWindowDays {
			return DeadlineDueSoon
		}
		return DeadlineNormal
	}
}

// IsOverdue reports whether the task's deadline state is overdue
func IsOverdue(endDate *time.Time, status TaskStatus, now time.Time) bool {
	return ClassifyDeadline(endDate, status, now) == DeadlineOverdue
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
