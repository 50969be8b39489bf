// Package analytics derives progress metrics from a task collection. Every
// function here is read-only.
package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/colonyops/taskhive/internal/core/task"
)

// Timeframe bounds the completion window of a report.
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeAll   Timeframe = "all"
)

// ParseTimeframe validates a timeframe name. Empty selects week.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case "":
		return TimeframeWeek, nil
	case TimeframeDay, TimeframeWeek, TimeframeMonth, TimeframeAll:
		return tf, nil
	default:
		return "", &task.ValidationError{
			Field:   "timeframe",
			Message: fmt.Sprintf("unknown timeframe %q", s),
			Allowed: []string{"day", "week", "month", "all"},
		}
	}
}

// Since returns the start of the window ending at now. The zero time is
// returned for TimeframeAll.
func (tf Timeframe) Since(now time.Time) time.Time {
	switch tf {
	case TimeframeDay:
		return now.AddDate(0, 0, -1)
	case TimeframeWeek:
		return now.AddDate(0, 0, -7)
	case TimeframeMonth:
		return now.AddDate(0, 0, -30)
	default:
		return time.Time{}
	}
}

// PriorityCounts tallies one priority band.
type PriorityCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Report is a snapshot of collection health. Percentages are in [0,100]
// rounded to one decimal place.
type Report struct {
	Timeframe             Timeframe                        `json:"timeframe"`
	GeneratedAt           time.Time                        `json:"generatedAt"`
	Total                 int                              `json:"total"`
	Pending               int                              `json:"pending"`
	InProgress            int                              `json:"inProgress"`
	Completed             int                              `json:"completed"`
	Blocked               int                              `json:"blocked"`
	Cancelled             int                              `json:"cancelled"`
	Archived              int                              `json:"archived"`
	CriticalRemaining     int                              `json:"criticalRemaining"`
	Overdue               int                              `json:"overdue"`
	CompletionRate        float64                          `json:"completionRate"`
	PriorityWeightedScore float64                          `json:"priorityWeightedScore"`
	AverageAgeDays        float64                          `json:"averageAgeDays"`
	CompletedInWindow     int                              `json:"completedInWindow"`
	WeeklyVelocity        int                              `json:"weeklyVelocity"`
	ByPriority            map[task.Priority]PriorityCounts `json:"byPriority"`
}

// Compute builds a report in a single pass. Archived tasks are counted but
// otherwise excluded.
func Compute(c *task.Collection, tf Timeframe, now time.Time) Report {
	r := Report{
		Timeframe:   tf,
		GeneratedAt: now,
		ByPriority:  make(map[task.Priority]PriorityCounts, len(task.Priorities)),
	}

	var (
		weightAll, weightDone int
		ageSum                time.Duration
		ageCount              int
		windowStart           = tf.Since(now)
		weekStart             = now.AddDate(0, 0, -7)
	)

	for _, t := range c.Tasks {
		if t.Archived {
			r.Archived++
			continue
		}

		r.Total++
		pc := r.ByPriority[t.Priority]
		pc.Total++
		weightAll += t.Priority.Weight()

		switch t.Status {
		case task.StatusPending:
			r.Pending++
		case task.StatusInProgress:
			r.InProgress++
		case task.StatusCompleted:
			r.Completed++
		case task.StatusBlocked:
			r.Blocked++
		case task.StatusCancelled:
			r.Cancelled++
		}

		if t.Status == task.StatusCompleted {
			pc.Completed++
			weightDone += t.Priority.Weight()
			if t.CompletedAt != nil {
				if !t.CompletedAt.Before(windowStart) {
					r.CompletedInWindow++
				}
				if !t.CompletedAt.Before(weekStart) {
					r.WeeklyVelocity++
				}
			}
		} else {
			ageSum += now.Sub(t.CreatedAt)
			ageCount++
		}

		if !t.Status.IsTerminal() {
			if t.Priority == task.PriorityCritical {
				r.CriticalRemaining++
			}
			if t.DueDate != nil && t.DueDate.Before(now) {
				r.Overdue++
			}
		}

		r.ByPriority[t.Priority] = pc
	}

	r.CompletionRate = percent(r.Completed, r.Total)
	r.PriorityWeightedScore = percent(weightDone, weightAll)
	if ageCount > 0 {
		r.AverageAgeDays = round1(ageSum.Hours() / 24 / float64(ageCount))
	}
	return r
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return round1(float64(n) / float64(d) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
