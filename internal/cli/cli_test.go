package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/tasks"
)

var cliToday = time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

type snapshotRepository struct {
	snap tasks.Snapshot
}

func (s *snapshotRepository) InProgressProjects(ctx context.Context) ([]tasks.Project, error) {
	return s.snap.Projects, nil
}

func (s *snapshotRepository) CandidateTasks(ctx context.Context, projectIDs []int64, states []tasks.TaskState) ([]tasks.Task, error) {
	return s.snap.Tasks, nil
}

func (s *snapshotRepository) Plannings(ctx context.Context, taskIDs []int64, from time.Time) ([]tasks.Planning, error) {
	return s.snap.Plannings, nil
}

func ptr[T any](v T) *T { return &v }

func testSnapshot() tasks.Snapshot {
	return tasks.Snapshot{
		Projects: []tasks.Project{{ID: 1, State: tasks.ProjectStateInProgress}},
		Tasks: []tasks.Task{
			{ID: 1, Title: "Water plants", State: tasks.TaskStatePending, ProjectID: ptr(int64(1)), Priority: ptr(1)},
			{ID: 2, Title: "File taxes", State: tasks.TaskStatePending, ProjectID: ptr(int64(1)), Priority: ptr(5)},
			{ID: 3, Title: "Write report", State: tasks.TaskStateInProgress, ProjectID: ptr(int64(1)), Priority: ptr(9)},
		},
	}
}

type testEnv struct {
	cli    *CLI
	out    *bytes.Buffer
	opened int
	closed int
}

func newTestEnv(t *testing.T, openErr error) *testEnv {
	t.Helper()
	color.NoColor = true

	env := &testEnv{out: &bytes.Buffer{}}

	load := func() (*config.Config, error) {
		cfg := config.DefaultConfig()
		cfg.Recommendation.Weights.PriorityMultiplier = 3
		return cfg, nil
	}
	open := func(ctx context.Context, cfg *config.Config) (Recommender, func() error, error) {
		env.opened++
		if openErr != nil {
			return nil, nil, openErr
		}
		svcCfg := tasks.DefaultServiceConfig()
		svcCfg.DefaultLimit = 2
		svc := tasks.NewService(&snapshotRepository{snap: testSnapshot()}, tasks.NewEngine(tasks.DefaultWeights(), nil), svcCfg,
			tasks.WithClock(func() time.Time { return cliToday.Add(8 * time.Hour) }))
		return svc, func() error { env.closed++; return nil }, nil
	}

	env.cli = NewCLI(WithConfigLoader(load), WithOpener(open))
	env.cli.RootCmd.SetOut(env.out)
	env.cli.RootCmd.SetErr(&bytes.Buffer{})
	return env
}

func (e *testEnv) run(args ...string) error {
	e.cli.RootCmd.SetArgs(args)
	return e.cli.Execute()
}

func TestRecommendCommand_Table(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.run("recommend"))

	out := env.out.String()
	assert.Contains(t, out, "Recommendations for 2024-05-15 (next up)")
	assert.Contains(t, out, "  1.   23.00  In Progress  Write report")
	assert.Contains(t, out, "  2.   12.00  Pending      File taxes")
	// Default limit comes from the service configuration
	assert.NotContains(t, out, "Water plants")
	assert.Equal(t, 1, env.opened)
	assert.Equal(t, 1, env.closed)
}

func TestRecommendCommand_ExplicitLimitAndExplain(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.run("recommend", "--limit", "0", "--explain"))

	out := env.out.String()
	assert.Contains(t, out, "Water plants")
	assert.Contains(t, out, "priority=18 state=5")
}

func TestRecommendCommand_JSON(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.run("next", "-f", "json", "-l", "1", "--date", "2024-06-01", "--planning"))

	var recs []tasks.Recommendation
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, int64(3), recs[0].Task.ID)
}

func TestRecommendCommand_Empty(t *testing.T) {
	env := newTestEnv(t, nil)
	env.cli.open = func(ctx context.Context, cfg *config.Config) (Recommender, func() error, error) {
		svc := tasks.NewService(&snapshotRepository{}, tasks.NewEngine(tasks.DefaultWeights(), nil), tasks.DefaultServiceConfig())
		return svc, func() error { return nil }, nil
	}

	require.NoError(t, env.run("recommend", "--date", "2024-05-15"))
	assert.Contains(t, env.out.String(), "Nothing to do")
}

func TestRecommendCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		openErr error
		check   func(t *testing.T, err error)
	}{
		{
			name: "negative limit",
			args: []string{"recommend", "--limit", "-1"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, tasks.ErrInvalidLimit)
			},
		},
		{
			name: "bad date",
			args: []string{"recommend", "--date", "tomorrow"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, tasks.ErrInvalidDate)
			},
		},
		{
			name: "bad format",
			args: []string{"recommend", "--format", "xml"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "unsupported format")
			},
		},
		{
			name:    "open failure",
			args:    []string{"recommend"},
			openErr: errors.New("connection refused"),
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.openErr)
			err := env.run(tt.args...)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestWeightsCommand(t *testing.T) {
	t.Run("from service", func(t *testing.T) {
		env := newTestEnv(t, nil)
		require.NoError(t, env.run("weights"))

		var w tasks.Weights
		require.NoError(t, yaml.Unmarshal(env.out.Bytes(), &w))
		assert.Equal(t, tasks.DefaultWeights(), w)
		assert.Equal(t, 1, env.opened)
	})

	t.Run("offline", func(t *testing.T) {
		env := newTestEnv(t, nil)
		require.NoError(t, env.run("weights", "--offline"))

		assert.Contains(t, env.out.String(), "priority_multiplier: 3")
		assert.Equal(t, 0, env.opened)
	})
}

func TestStateLabel(t *testing.T) {
	assert.Equal(t, "In Progress", stateLabel(tasks.TaskStateInProgress))
	assert.Equal(t, "Pending", stateLabel(tasks.TaskStatePending))
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, normalColor, colorFor(tasks.Task{}, cliToday, 7))
	assert.Equal(t, overdueColor, colorFor(tasks.Task{DueDate: ptr(cliToday.AddDate(0, 0, -1))}, cliToday, 7))
	assert.Equal(t, upcomingColor, colorFor(tasks.Task{DueDate: ptr(cliToday.AddDate(0, 0, 7))}, cliToday, 7))
	assert.Equal(t, normalColor, colorFor(tasks.Task{DueDate: ptr(cliToday.AddDate(0, 0, 8))}, cliToday, 7))
}
