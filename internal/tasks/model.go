// Package tasks provides the task recommendation engine and the service that
// feeds it from storage.
package tasks

import (
	"fmt"
	"time"
)

// TaskState represents the lifecycle state of a task
type TaskState string

const (
	TaskStatePending    TaskState = "pending"
	TaskStateInProgress TaskState = "in_progress"
	TaskStateCompleted  TaskState = "completed"
	TaskStateArchived   TaskState = "archived"
)

// Valid reports whether s is a known task state
func (s TaskState) Valid() bool {
	switch s {
	case TaskStatePending, TaskStateInProgress, TaskStateCompleted, TaskStateArchived:
		return true
	}
	return false
}

// Open reports whether a task in state s can still be worked on
func (s TaskState) Open() bool {
	return s == TaskStatePending || s == TaskStateInProgress
}

// ProjectState represents the lifecycle state of a project
type ProjectState string

const (
	ProjectStateNotStarted ProjectState = "not_started"
	ProjectStateInProgress ProjectState = "in_progress"
	ProjectStateCompleted  ProjectState = "completed"
	ProjectStateArchived   ProjectState = "archived"
)

// Valid reports whether s is a known project state
func (s ProjectState) Valid() bool {
	switch s {
	case ProjectStateNotStarted, ProjectStateInProgress, ProjectStateCompleted, ProjectStateArchived:
		return true
	}
	return false
}

// CandidateStates are the task states eligible for recommendation
var CandidateStates = []TaskState{TaskStatePending, TaskStateInProgress}

// Task is a unit of work, optionally attached to a project
type Task struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Priority  *int       `json:"priority,omitempty"`
	State     TaskState  `json:"state"`
	ProjectID *int64     `json:"project_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Project groups tasks
type Project struct {
	ID       int64        `json:"id"`
	State    ProjectState `json:"state"`
	Priority *int         `json:"priority,omitempty"`
}

// Planning is a scheduled occurrence of a task on a specific date
type Planning struct {
	ID          int64      `json:"id"`
	TaskID      int64      `json:"task_id"`
	PlannedDate time.Time  `json:"planned_date"`
	StartHour   *string    `json:"start_hour,omitempty"`
	EndHour     *string    `json:"end_hour,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	Done        bool       `json:"done"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Snapshot is a consistent, read-only view of the data the engine ranks.
// Task order is meaningful: it is the tie-break order for equal scores.
type Snapshot struct {
	Tasks     []Task
	Projects  []Project
	Plannings []Planning
}

// DateOf truncates t to midnight UTC of its calendar day in t's location
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
