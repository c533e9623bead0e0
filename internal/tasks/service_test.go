package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository serves a fixed dataset and records the batched reads
type fakeRepository struct {
	projects  []Project
	tasks     []Task
	plannings []Planning

	err error

	projectCalls  int
	taskCalls     int
	planningCalls int
	gotProjectIDs []int64
	gotStates     []TaskState
	gotTaskIDs    []int64
	gotFrom       time.Time
}

func (f *fakeRepository) InProgressProjects(ctx context.Context) ([]Project, error) {
	f.projectCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []Project
	for _, p := range f.projects {
		if p.State == ProjectStateInProgress {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepository) CandidateTasks(ctx context.Context, projectIDs []int64, states []TaskState) ([]Task, error) {
	f.taskCalls++
	f.gotProjectIDs = projectIDs
	f.gotStates = states
	in := make(map[int64]bool)
	for _, id := range projectIDs {
		in[id] = true
	}
	var out []Task
	for _, t := range f.tasks {
		if t.ProjectID != nil && in[*t.ProjectID] && t.State.Open() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepository) Plannings(ctx context.Context, taskIDs []int64, from time.Time) ([]Planning, error) {
	f.planningCalls++
	f.gotTaskIDs = taskIDs
	f.gotFrom = from
	var out []Planning
	for _, p := range f.plannings {
		if !p.PlannedDate.Before(from) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memoryCache struct {
	entries map[string][]Recommendation
	getErr  error
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]Recommendation)}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]Recommendation, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	recs, ok := m.entries[key]
	return recs, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, recs []Recommendation) error {
	m.sets++
	m.entries[key] = recs
	return nil
}

func newFakeRepository() *fakeRepository {
	snap := mixedSnapshot()
	return &fakeRepository{
		projects:  append(snap.Projects, Project{ID: 9, State: ProjectStateArchived}),
		tasks:     snap.Tasks,
		plannings: append(snap.Plannings, planning(99, 1, -3)),
	}
}

func TestService_RecommendMatchesEngine(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, newTestEngine(), DefaultServiceConfig())

	recs, err := svc.Recommend(context.Background(), testToday.Add(15*time.Hour), 3, false)
	require.NoError(t, err)

	want := newTestEngine().Recommend(mixedSnapshot(), Options{Today: testToday, Limit: 3})
	assert.Equal(t, want, recs)

	assert.Equal(t, 1, repo.projectCalls)
	assert.Equal(t, 1, repo.taskCalls)
	assert.Equal(t, 1, repo.planningCalls)
	assert.Equal(t, []int64{1, 2}, repo.gotProjectIDs)
	assert.Equal(t, CandidateStates, repo.gotStates)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, repo.gotTaskIDs)
	assert.Equal(t, testToday, repo.gotFrom)
}

func TestService_RecommendRejectsNegativeLimit(t *testing.T) {
	svc := NewService(newFakeRepository(), newTestEngine(), DefaultServiceConfig())

	_, err := svc.Recommend(context.Background(), testToday, -1, false)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestService_RecommendWrapsRepositoryErrors(t *testing.T) {
	repo := newFakeRepository()
	repo.err = errors.New("connection refused")
	svc := NewService(repo, newTestEngine(), DefaultServiceConfig())

	_, err := svc.Recommend(context.Background(), testToday, 0, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.err)
	assert.Contains(t, err.Error(), "in-progress projects")
}

func TestService_RecommendUsesCache(t *testing.T) {
	repo := newFakeRepository()
	cache := newMemoryCache()
	svc := NewService(repo, newTestEngine(), DefaultServiceConfig(), WithCache(cache))

	first, err := svc.Recommend(context.Background(), testToday, 0, true)
	require.NoError(t, err)
	second, err := svc.Recommend(context.Background(), testToday, 0, true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.projectCalls)
	assert.Equal(t, 1, cache.sets)

	// A different mode is a different key
	_, err = svc.Recommend(context.Background(), testToday, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.projectCalls)
}

func TestService_CacheFailureFallsBackToRepository(t *testing.T) {
	repo := newFakeRepository()
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	svc := NewService(repo, newTestEngine(), DefaultServiceConfig(), WithCache(cache))

	recs, err := svc.Recommend(context.Background(), testToday, 0, false)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
	assert.Equal(t, 1, repo.projectCalls)
}

func TestService_Warm(t *testing.T) {
	repo := newFakeRepository()
	cache := newMemoryCache()
	cfg := DefaultServiceConfig()
	cfg.DefaultLimit = 2
	svc := NewService(repo, newTestEngine(), cfg, WithCache(cache))

	require.NoError(t, svc.Warm(context.Background(), testToday))
	assert.Len(t, cache.entries, 2)
	assert.Contains(t, cache.entries, CacheKey(testToday, 2, false, DefaultWeights()))
	assert.Contains(t, cache.entries, CacheKey(testToday, 2, true, DefaultWeights()))

	// Without a cache warming is a no-op
	plain := NewService(repo, newTestEngine(), cfg)
	require.NoError(t, plain.Warm(context.Background(), testToday))
}

func TestService_Today(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	cfg := DefaultServiceConfig()
	cfg.Location = loc
	clock := func() time.Time { return time.Date(2024, 5, 15, 20, 0, 0, 0, time.UTC) }

	svc := NewService(newFakeRepository(), newTestEngine(), cfg, WithClock(clock))
	assert.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), svc.Today())
}

func TestCacheKey(t *testing.T) {
	key := CacheKey(testToday.Add(5*time.Hour), 10, true, DefaultWeights())
	assert.Equal(t, "2024-05-15:planning:10:"+DefaultWeights().Fingerprint(), key)
}
