package docs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OscarCarPu/life-manager/internal/api"
	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/tasks"
)

type emptyRepository struct{}

func (emptyRepository) InProgressProjects(ctx context.Context) ([]tasks.Project, error) {
	return nil, nil
}

func (emptyRepository) CandidateTasks(ctx context.Context, projectIDs []int64, states []tasks.TaskState) ([]tasks.Task, error) {
	return nil, nil
}

func (emptyRepository) Plannings(ctx context.Context, taskIDs []int64, from time.Time) ([]tasks.Planning, error) {
	return nil, nil
}

func TestLoadEmbedded(t *testing.T) {
	spec, err := LoadEmbedded()
	require.NoError(t, err)
	require.NoError(t, spec.Validate(context.Background()))

	assert.Equal(t, "Life Manager API", spec.Doc.Info.Title)
	assert.Equal(t, api.Version, spec.Doc.Info.Version)

	stats := spec.Stats()
	assert.Equal(t, 5, stats.Paths)
	assert.Equal(t, 5, stats.Operations)
	assert.Equal(t, 8, stats.Schemas)

	assert.Equal(t, []string{
		"GET /api/v1/recommendations",
		"GET /api/v1/recommendations/weights",
		"GET /health",
		"GET /liveness",
		"GET /readiness",
	}, spec.Routes())
}

func TestDocumentedRoutesAreServed(t *testing.T) {
	spec, err := LoadEmbedded()
	require.NoError(t, err)

	svc := tasks.NewService(emptyRepository{}, tasks.NewEngine(tasks.DefaultWeights(), nil), tasks.DefaultServiceConfig())
	router := api.NewRouter(config.DefaultConfig(), api.Dependencies{Recommendations: svc})

	for _, route := range spec.Routes() {
		method, path, _ := strings.Cut(route, " ")
		t.Run(route, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.Handler().ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, Embedded(), 0o600))

	spec, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, spec.Stats().Paths)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load([]byte("openapi: [unterminated"))
	assert.Error(t, err)
}

func TestValidateReportsInvalidDocument(t *testing.T) {
	spec, err := Load([]byte("openapi: 3.0.3\ninfo:\n  title: broken\npaths: {}\n"))
	require.NoError(t, err)
	assert.Error(t, spec.Validate(context.Background()))
}

func TestSwaggerUIRouter(t *testing.T) {
	spec, err := LoadEmbedded()
	require.NoError(t, err)
	router := NewSwaggerUIHandler(spec).Router()

	serve := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", target, http.NoBody)
		req.Host = "docs.local"
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("ui", func(t *testing.T) {
		w := serve("/docs")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "Life Manager API")
		assert.Contains(t, w.Body.String(), "docs.local")
	})

	t.Run("json", func(t *testing.T) {
		w := serve("/docs/openapi.json")
		require.Equal(t, http.StatusOK, w.Code)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "3.0.3", doc["openapi"])
	})

	t.Run("yaml", func(t *testing.T) {
		w := serve("/docs/openapi.yaml")
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "openapi: 3.0.3"))
	})

	t.Run("root redirects", func(t *testing.T) {
		w := serve("/")
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "/docs", w.Header().Get("Location"))
	})
}
