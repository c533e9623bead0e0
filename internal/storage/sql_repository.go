package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/tasks"
)

// SQLRepository reads the recommendation snapshot from PostgreSQL or SQLite
type SQLRepository struct {
	db     *sql.DB
	driver string
}

var _ tasks.Repository = (*SQLRepository)(nil)

// NewSQLRepository creates a repository for the given driver
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	return &SQLRepository{db: db, driver: driver}
}

// DB returns the underlying handle
func (r *SQLRepository) DB() *sql.DB {
	return r.db
}

// Ping checks database connectivity
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InProgressProjects returns every in-progress project ordered by id
func (r *SQLRepository) InProgressProjects(ctx context.Context) ([]tasks.Project, error) {
	query := fmt.Sprintf(`SELECT id, state, priority FROM project WHERE state = %s ORDER BY id`, r.placeholder(1))

	rows, err := r.db.QueryContext(ctx, query, string(tasks.ProjectStateInProgress))
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var projects []tasks.Project
	for rows.Next() {
		var (
			p        tasks.Project
			state    string
			priority sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &state, &priority); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.State = tasks.ProjectState(state)
		p.Priority = intPtr(priority)
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// CandidateTasks returns the tasks of the given projects in the given
// states, ordered by id.
func (r *SQLRepository) CandidateTasks(ctx context.Context, projectIDs []int64, states []tasks.TaskState) ([]tasks.Task, error) {
	if len(projectIDs) == 0 || len(states) == 0 {
		return []tasks.Task{}, nil
	}

	stateNames := make([]string, len(states))
	for i, s := range states {
		stateNames[i] = string(s)
	}

	args := make([]interface{}, 0, len(projectIDs)+len(states))
	projectClause, args := r.inClause("project_id", projectIDs, int64Args(projectIDs), args)
	stateClause, args := r.inClause("state", stateNames, stringArgs(stateNames), args)

	query := fmt.Sprintf(`
		SELECT id, title, due_date, priority, state, project_id, created_at
		FROM task
		WHERE %s AND %s
		ORDER BY id`, projectClause, stateClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []tasks.Task{}
	for rows.Next() {
		var (
			t         tasks.Task
			state     string
			dueDate   sql.NullTime
			priority  sql.NullInt64
			projectID sql.NullInt64
			createdAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Title, &dueDate, &priority, &state, &projectID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.State = tasks.TaskState(state)
		t.DueDate = datePtr(dueDate)
		t.Priority = intPtr(priority)
		t.CreatedAt = timePtr(createdAt)
		if projectID.Valid {
			id := projectID.Int64
			t.ProjectID = &id
		}
		result = append(result, t)
	}

	return result, rows.Err()
}

// Plannings returns plannings of the given tasks dated on or after from,
// ordered by planned date then id.
func (r *SQLRepository) Plannings(ctx context.Context, taskIDs []int64, from time.Time) ([]tasks.Planning, error) {
	if len(taskIDs) == 0 {
		return []tasks.Planning{}, nil
	}

	args := make([]interface{}, 0, len(taskIDs)+1)
	taskClause, args := r.inClause("task_id", taskIDs, int64Args(taskIDs), args)

	var dateClause string
	if r.driver == config.DriverSQLite {
		// SQLite stores dates as text; compare on the normalized day
		dateClause = "date(planned_date) >= ?"
		args = append(args, tasks.DateOf(from).Format(time.DateOnly))
	} else {
		dateClause = fmt.Sprintf("planned_date >= %s", r.placeholder(len(args)+1))
		args = append(args, tasks.DateOf(from))
	}

	query := fmt.Sprintf(`
		SELECT id, task_id, planned_date, start_hour, end_hour, priority, done, created_at
		FROM task_planning
		WHERE %s AND %s
		ORDER BY planned_date, id`, taskClause, dateClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plannings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []tasks.Planning{}
	for rows.Next() {
		var (
			p         tasks.Planning
			planned   time.Time
			startHour sql.NullString
			endHour   sql.NullString
			priority  sql.NullInt64
			createdAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.TaskID, &planned, &startHour, &endHour, &priority, &p.Done, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan planning: %w", err)
		}
		p.PlannedDate = tasks.DateOf(planned)
		p.StartHour = stringPtr(startHour)
		p.EndHour = stringPtr(endHour)
		p.Priority = intPtr(priority)
		p.CreatedAt = timePtr(createdAt)
		result = append(result, p)
	}

	return result, rows.Err()
}

func (r *SQLRepository) placeholder(n int) string {
	if r.driver == config.DriverSQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// inClause renders a set-membership predicate. PostgreSQL binds the whole
// set as one array parameter; SQLite expands one parameter per value.
func (r *SQLRepository) inClause(column string, set interface{}, values []interface{}, args []interface{}) (string, []interface{}) {
	if r.driver != config.DriverSQLite {
		args = append(args, pq.Array(set))
		return fmt.Sprintf("%s = ANY(%s)", column, r.placeholder(len(args))), args
	}

	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = "?"
		args = append(args, v)
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(marks, ", ")), args
}

func int64Args(values []int64) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func stringArgs(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func datePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	d := tasks.DateOf(v.Time)
	return &d
}
