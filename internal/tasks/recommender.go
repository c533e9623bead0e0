package tasks

import (
	"math"
	"sort"
	"time"

	"github.com/OscarCarPu/life-manager/internal/logging"
)

// Score term names, in evaluation order
const (
	TermPriority        = "priority"
	TermProjectPriority = "project_priority"
	TermOverdue         = "overdue"
	TermUpcoming        = "upcoming"
	TermFuture          = "future"
	TermNoFuturePlans   = "no_future_plans"
	TermState           = "state"
	TermAge             = "age"
)

// ScoreTerm is one additive contribution to a recommendation score
type ScoreTerm struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Recommendation is a scored candidate task
type Recommendation struct {
	Task  Task        `json:"task"`
	Score float64     `json:"score"`
	Terms []ScoreTerm `json:"terms,omitempty"`
}

// Options controls a single ranking run
type Options struct {
	// Today is the evaluation date; only its calendar day is used.
	Today time.Time
	// Limit truncates the ranking when positive.
	Limit int
	// ForPlanning ranks tasks for a calendar planning step instead of
	// general "what's next" recommendations.
	ForPlanning bool
}

// Engine ranks candidate tasks. It is safe for concurrent use.
type Engine struct {
	weights Weights
	logger  logging.Logger
}

// NewEngine creates an engine bound to an immutable weight set
func NewEngine(weights Weights, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Engine{
		weights: weights,
		logger:  logger.WithComponent("recommender"),
	}
}

// Weights returns a copy of the engine's weight set
func (e *Engine) Weights() Weights {
	return e.weights
}

// Recommend scores every candidate task of the snapshot and returns them
// ranked by score, highest first. Equal scores keep snapshot order.
func (e *Engine) Recommend(snap Snapshot, opts Options) []Recommendation {
	today := DateOf(opts.Today)

	candidates, projects := e.selectCandidates(snap)
	plans := e.groupPlannings(snap, candidates, today)

	recs := make([]Recommendation, 0, len(candidates))
	for i := range candidates {
		task := &candidates[i]
		taskPlans := plans[task.ID]

		if opts.ForPlanning && e.plannedWithinWindow(taskPlans, today) {
			continue
		}

		var project *Project
		if task.ProjectID != nil {
			if p, ok := projects[*task.ProjectID]; ok {
				project = &p
			}
		}

		recs = append(recs, e.score(task, project, taskPlans, today, opts.ForPlanning))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if opts.Limit > 0 && opts.Limit < len(recs) {
		recs = recs[:opts.Limit]
	}

	return recs
}

// selectCandidates keeps open tasks of in-progress projects. Tasks without
// a project are never candidates.
func (e *Engine) selectCandidates(snap Snapshot) ([]Task, map[int64]Project) {
	known := make(map[int64]struct{}, len(snap.Projects))
	active := make(map[int64]Project)
	for _, p := range snap.Projects {
		known[p.ID] = struct{}{}
		if p.State == ProjectStateInProgress {
			active[p.ID] = p
		}
	}

	candidates := make([]Task, 0, len(snap.Tasks))
	for _, task := range snap.Tasks {
		if task.ProjectID == nil || !task.State.Open() {
			continue
		}
		if _, ok := active[*task.ProjectID]; !ok {
			if _, exists := known[*task.ProjectID]; !exists {
				e.logger.Warn("ignoring task of unknown project",
					"task_id", task.ID, "project_id", *task.ProjectID)
			}
			continue
		}
		candidates = append(candidates, task)
	}

	return candidates, active
}

// groupPlannings indexes plannings dated today or later by candidate task id
func (e *Engine) groupPlannings(snap Snapshot, candidates []Task, today time.Time) map[int64][]Planning {
	taskIDs := make(map[int64]struct{}, len(snap.Tasks))
	for _, task := range snap.Tasks {
		taskIDs[task.ID] = struct{}{}
	}
	candidateIDs := make(map[int64]struct{}, len(candidates))
	for _, task := range candidates {
		candidateIDs[task.ID] = struct{}{}
	}

	grouped := make(map[int64][]Planning, len(candidates))
	for _, p := range snap.Plannings {
		if _, ok := taskIDs[p.TaskID]; !ok {
			e.logger.Warn("ignoring planning of unknown task",
				"planning_id", p.ID, "task_id", p.TaskID)
			continue
		}
		if _, ok := candidateIDs[p.TaskID]; !ok {
			continue
		}
		if DateOf(p.PlannedDate).Before(today) {
			continue
		}
		grouped[p.TaskID] = append(grouped[p.TaskID], p)
	}

	return grouped
}

// plannedWithinWindow reports whether any planning falls in
// [today, today+PlanningWindowDays).
func (e *Engine) plannedWithinWindow(plans []Planning, today time.Time) bool {
	windowEnd := today.AddDate(0, 0, e.weights.PlanningWindowDays)
	for _, p := range plans {
		if DateOf(p.PlannedDate).Before(windowEnd) {
			return true
		}
	}
	return false
}

// hasValidPlan reports whether an upcoming planning still serves the task:
// one dated on or before the due date, or any at all when there is none.
func hasValidPlan(task *Task, plans []Planning) bool {
	if task.DueDate == nil {
		return len(plans) > 0
	}
	due := DateOf(*task.DueDate)
	for _, p := range plans {
		if !DateOf(p.PlannedDate).After(due) {
			return true
		}
	}
	return false
}

func (e *Engine) score(task *Task, project *Project, plans []Planning, today time.Time, forPlanning bool) Recommendation {
	w := e.weights
	rec := Recommendation{Task: *task}

	add := func(name string, value float64) {
		if value <= 0 {
			return
		}
		rec.Terms = append(rec.Terms, ScoreTerm{Name: name, Value: value})
		rec.Score += value
	}

	if task.Priority != nil {
		add(TermPriority, float64(*task.Priority)*w.PriorityMultiplier)
	}

	if project != nil && project.Priority != nil {
		add(TermProjectPriority, float64(*project.Priority)*w.PriorityMultiplier*w.ProjectPriorityFactor)
	}

	if task.DueDate != nil {
		delta := DaysBetween(today, *task.DueDate)
		switch {
		case delta < 0:
			add(TermOverdue, w.OverdueBase+float64(-delta))
		case delta <= w.UpcomingDays:
			add(TermUpcoming, w.UpcomingBase-float64(delta)*w.UpcomingPenalty)
		default:
			add(TermFuture, math.Max(0, w.FutureBase-float64(delta)/w.FutureDecay))
		}
	}

	if forPlanning && !hasValidPlan(task, plans) {
		add(TermNoFuturePlans, w.NoFuturePlansBonus)
	}

	add(TermState, e.stateBonus(task.State, forPlanning))

	if task.CreatedAt != nil {
		ageDays := DaysBetween(*task.CreatedAt, today)
		if ageDays > 0 {
			add(TermAge, math.Min(w.AgeLimit, float64(ageDays)*w.AgeMultiplier))
		}
	}

	return rec
}

func (e *Engine) stateBonus(state TaskState, forPlanning bool) float64 {
	w := e.weights
	switch state {
	case TaskStateInProgress:
		if forPlanning {
			return w.InProgressPlanning
		}
		return w.InProgressBasic
	case TaskStatePending:
		if forPlanning {
			return w.PendingPlanning
		}
		return w.PendingBasic
	}
	return 0
}
