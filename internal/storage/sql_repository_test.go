package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/tasks"
)

var repoToday = time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

// newSQLiteRepository returns a migrated in-memory repository, skipping the
// test when the cgo SQLite driver is unavailable.
func newSQLiteRepository(t *testing.T) *SQLRepository {
	t.Helper()

	db, err := sql.Open(config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	// Every pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Ping(); err != nil {
		t.Skipf("sqlite driver unavailable: %v", err)
	}

	require.NoError(t, Migrate(context.Background(), db, config.DriverSQLite))
	return NewSQLRepository(db, config.DriverSQLite)
}

func exec(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()

	exec(t, db, `INSERT INTO project (id, name, state, priority) VALUES (1, 'home', 'in_progress', 3)`)
	exec(t, db, `INSERT INTO project (id, name, state, priority) VALUES (2, 'work', 'in_progress', NULL)`)
	exec(t, db, `INSERT INTO project (id, name, state, priority) VALUES (3, 'someday', 'not_started', 5)`)

	due := repoToday.AddDate(0, 0, 2)
	created := repoToday.AddDate(0, 0, -10)
	exec(t, db, `INSERT INTO task (id, title, due_date, priority, state, project_id, created_at) VALUES (1, 'pay rent', ?, 4, 'pending', 1, ?)`, due, created)
	exec(t, db, `INSERT INTO task (id, title, state, project_id) VALUES (2, 'write report', 'in_progress', 2)`)
	exec(t, db, `INSERT INTO task (id, title, state, project_id) VALUES (3, 'old chore', 'completed', 1)`)
	exec(t, db, `INSERT INTO task (id, title, state, project_id) VALUES (4, 'dream', 'pending', 3)`)
	exec(t, db, `INSERT INTO task (id, title, state) VALUES (5, 'loose end', 'pending')`)

	exec(t, db, `INSERT INTO task_planning (id, task_id, planned_date, start_hour, done) VALUES (1, 1, ?, '09:00', 0)`, repoToday.AddDate(0, 0, 1))
	exec(t, db, `INSERT INTO task_planning (id, task_id, planned_date, done) VALUES (2, 1, ?, 1)`, repoToday)
	exec(t, db, `INSERT INTO task_planning (id, task_id, planned_date) VALUES (3, 2, ?)`, repoToday.AddDate(0, 0, -1))
	exec(t, db, `INSERT INTO task_planning (id, task_id, planned_date) VALUES (4, 2, '2024-05-20')`)
	exec(t, db, `INSERT INTO task_planning (id, task_id, planned_date) VALUES (5, 4, ?)`, repoToday)
}

func TestMigrate_Idempotent(t *testing.T) {
	repo := newSQLiteRepository(t)
	require.NoError(t, Migrate(context.Background(), repo.DB(), config.DriverSQLite))
}

func TestSchema_UnknownDriver(t *testing.T) {
	_, err := Schema("mysql")
	assert.Error(t, err)
}

func TestSQLRepository_InProgressProjects(t *testing.T) {
	repo := newSQLiteRepository(t)
	seed(t, repo.DB())

	projects, err := repo.InProgressProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, int64(1), projects[0].ID)
	assert.Equal(t, tasks.ProjectStateInProgress, projects[0].State)
	require.NotNil(t, projects[0].Priority)
	assert.Equal(t, 3, *projects[0].Priority)
	assert.Equal(t, int64(2), projects[1].ID)
	assert.Nil(t, projects[1].Priority)
}

func TestSQLRepository_CandidateTasks(t *testing.T) {
	repo := newSQLiteRepository(t)
	seed(t, repo.DB())
	ctx := context.Background()

	got, err := repo.CandidateTasks(ctx, []int64{1, 2}, tasks.CandidateStates)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "pay rent", first.Title)
	assert.Equal(t, tasks.TaskStatePending, first.State)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, repoToday.AddDate(0, 0, 2), *first.DueDate)
	require.NotNil(t, first.Priority)
	assert.Equal(t, 4, *first.Priority)
	require.NotNil(t, first.ProjectID)
	assert.Equal(t, int64(1), *first.ProjectID)
	require.NotNil(t, first.CreatedAt)
	assert.Equal(t, repoToday.AddDate(0, 0, -10), tasks.DateOf(*first.CreatedAt))

	second := got[1]
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, tasks.TaskStateInProgress, second.State)
	assert.Nil(t, second.DueDate)
	assert.Nil(t, second.Priority)

	t.Run("empty project set", func(t *testing.T) {
		none, err := repo.CandidateTasks(ctx, nil, tasks.CandidateStates)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestSQLRepository_Plannings(t *testing.T) {
	repo := newSQLiteRepository(t)
	seed(t, repo.DB())

	got, err := repo.Plannings(context.Background(), []int64{1, 2}, repoToday.Add(13*time.Hour))
	require.NoError(t, err)

	ids := make([]int64, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	// Yesterday's planning and other tasks' plannings are excluded
	assert.Equal(t, []int64{2, 1, 4}, ids)

	assert.Equal(t, repoToday, got[0].PlannedDate)
	assert.True(t, got[0].Done)
	require.NotNil(t, got[1].StartHour)
	assert.Equal(t, "09:00", *got[1].StartHour)
	assert.Equal(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), got[2].PlannedDate)

	none, err := repo.Plannings(context.Background(), nil, repoToday)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLRepository_FeedsService(t *testing.T) {
	repo := newSQLiteRepository(t)
	seed(t, repo.DB())

	svc := tasks.NewService(repo, tasks.NewEngine(tasks.DefaultWeights(), nil), tasks.DefaultServiceConfig())
	recs, err := svc.Recommend(context.Background(), repoToday, 0, false)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[0].Task.ID)
	assert.Equal(t, int64(2), recs[1].Task.ID)
}

func TestSQLRepository_PostgresPlaceholders(t *testing.T) {
	repo := NewSQLRepository(nil, config.DriverPostgres)

	clause, args := repo.inClause("project_id", []int64{1, 2}, int64Args([]int64{1, 2}), nil)
	assert.Equal(t, "project_id = ANY($1)", clause)
	assert.Len(t, args, 1)

	clause, args = repo.inClause("state", []string{"pending"}, stringArgs([]string{"pending"}), args)
	assert.Equal(t, "state = ANY($2)", clause)
	assert.Len(t, args, 2)

	lite := NewSQLRepository(nil, config.DriverSQLite)
	clause, args = lite.inClause("task_id", []int64{7, 8, 9}, int64Args([]int64{7, 8, 9}), nil)
	assert.Equal(t, "task_id IN (?, ?, ?)", clause)
	assert.Equal(t, []interface{}{int64(7), int64(8), int64(9)}, args)
}
