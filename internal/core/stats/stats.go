// Package stats computes dashboard aggregates from task and session
// snapshots.
//
// Every function is a pure function of its inputs plus the supplied "now"
// timestamp: no I/O, no hidden state, and bit-identical output for
// identical input. Aggregates are recomputed from the latest snapshot in
// full, never patched incrementally, so the engine tolerates snapshots
// from independent feeds arriving in any order.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/tasktide/tasktide/internal/core/pomodoro"
	"github.com/tasktide/tasktide/internal/core/task"
)

// DefaultUpcomingLimit caps the upcoming-task list on the dashboard.
const DefaultUpcomingLimit = 5

// DayCount is a single calendar day in the weekly series.
type DayCount struct {
	Day       time.Time `json:"day"` // local midnight of the calendar day
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
}

// Derived is the full dashboard projection. It is owned by whichever
// view computed it, never persisted, and rebuilt on every snapshot.
type Derived struct {
	TodayTotal         int         `json:"today_total"`
	TodayCompleted     int         `json:"today_completed"`
	ProgressPercentage int         `json:"progress_percentage"` // today's completion rate
	CompletionRate     int         `json:"completion_rate"`     // across all tasks
	FocusMinutes       int         `json:"focus_minutes"`
	Weekly             []DayCount  `json:"weekly"`
	Upcoming           []task.Task `json:"upcoming"`
}

// Compute assembles the full projection from the latest snapshots.
// upcomingLimit caps the Upcoming slice; zero or negative falls back to
// DefaultUpcomingLimit.
func Compute(tasks []task.Task, sessions []pomodoro.Session, now time.Time, upcomingLimit int) Derived {
	if upcomingLimit <= 0 {
		upcomingLimit = DefaultUpcomingLimit
	}

	today := TodaysTasks(tasks, now)

	return Derived{
		TodayTotal:         len(today),
		TodayCompleted:     countCompleted(today),
		ProgressPercentage: CompletionRate(today),
		CompletionRate:     CompletionRate(tasks),
		FocusMinutes:       TotalFocusMinutes(sessions),
		Weekly:             WeeklySeries(tasks, now),
		Upcoming:           UpcomingTasks(tasks, now, upcomingLimit),
	}
}

// TodaysTasks returns tasks whose deadline falls on the same local
// calendar day as now. This is a calendar comparison, not a rolling
// 24-hour window.
func TodaysTasks(tasks []task.Task, now time.Time) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.DueOn(now) {
			out = append(out, t)
		}
	}
	return out
}

// CompletionRate returns round(100 * completed / total) as an integer
// percentage in [0, 100]. An empty collection yields 0.
func CompletionRate(tasks []task.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(countCompleted(tasks)) / float64(len(tasks))))
}

// TotalFocusMinutes sums the durations of completed work sessions.
// Break sessions and incomplete sessions never count, regardless of
// their duration.
func TotalFocusMinutes(sessions []pomodoro.Session) int {
	total := 0
	for _, s := range sessions {
		if s.CountsTowardFocus() {
			total += s.DurationMinutes
		}
	}
	return total
}

// WeeklySeries returns per-day completed/total counts for the 7 calendar
// days ending at now inclusive, ordered oldest to newest. Days with no
// matching deadlines appear as zero entries.
func WeeklySeries(tasks []task.Task, now time.Time) []DayCount {
	series := make([]DayCount, 7)
	for i := range series {
		day := startOfDay(now.AddDate(0, 0, i-6))
		series[i].Day = day
		for _, t := range tasks {
			if !t.DueOn(day) {
				continue
			}
			series[i].Total++
			if t.IsCompleted() {
				series[i].Completed++
			}
		}
	}
	return series
}

// UpcomingTasks returns non-completed tasks with a deadline strictly
// after now, sorted ascending by deadline with ties broken by ID
// ascending, truncated to limit.
func UpcomingTasks(tasks []task.Task, now time.Time, limit int) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsCompleted() || t.Deadline == nil {
			continue
		}
		if t.Deadline.After(now) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Deadline.Equal(*out[j].Deadline) {
			return out[i].ID < out[j].ID
		}
		return out[i].Deadline.Before(*out[j].Deadline)
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func countCompleted(tasks []task.Task) int {
	n := 0
	for _, t := range tasks {
		if t.IsCompleted() {
			n++
		}
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
