package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/OscarCarPu/life-manager/internal/api/response"
)

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a named health check target. Critical dependencies gate
// readiness; the rest only degrade the health report.
type Dependency struct {
	Name     string
	Pinger   Pinger
	Critical bool
}

// HealthHandler provides health check functionality
type HealthHandler struct {
	version      string
	dependencies []Dependency
	startTime    time.Time
	timeout      time.Duration
}

// HealthStatus represents the health check response structure
type HealthStatus struct {
	Status    string           `json:"status"`
	Server    string           `json:"server"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	System    SystemInfo       `json:"system"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo represents system information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemoryMB     uint64 `json:"memory_mb"`
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// NewHealthHandler creates a new health check handler
func NewHealthHandler(version string, deps ...Dependency) *HealthHandler {
	return &HealthHandler{
		version:      version,
		dependencies: deps,
		startTime:    time.Now(),
		timeout:      5 * time.Second,
	}
}

// Handle reports every dependency plus runtime stats
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	checks := h.runChecks(r.Context(), h.dependencies)

	status := HealthStatus{
		Status:    h.overallStatus(checks),
		Server:    "life-manager",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		System:    systemInfo(),
	}

	statusCode := http.StatusOK
	if status.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	response.WriteStatus(w, statusCode, status)
}

// HandleReadiness succeeds only when every critical dependency answers
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	var critical []Dependency
	for _, d := range h.dependencies {
		if d.Critical {
			critical = append(critical, d)
		}
	}

	checks := h.runChecks(r.Context(), critical)
	for name, c := range checks {
		if c.Status != statusHealthy {
			response.WriteServiceUnavailable(w, "Service not ready", name+": "+c.Message)
			return
		}
	}
	response.WriteSuccess(w, map[string]interface{}{"status": "ready", "checks": checks})
}

// HandleLiveness reports that the process is serving requests
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, map[string]string{
		"status": "alive",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// runChecks pings dependencies concurrently
func (h *HealthHandler) runChecks(ctx context.Context, deps []Dependency) map[string]Check {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]Check, len(deps))
	)
	for _, d := range deps {
		wg.Add(1)
		go func(d Dependency) {
			defer wg.Done()
			start := time.Now()
			err := d.Pinger.Ping(ctx)
			c := Check{
				Status:  statusHealthy,
				Message: "reachable",
				Latency: time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				c.Status = statusUnhealthy
				c.Message = err.Error()
			}
			mu.Lock()
			checks[d.Name] = c
			mu.Unlock()
		}(d)
	}
	wg.Wait()
	return checks
}

// overallStatus is unhealthy when a critical dependency fails and degraded
// when only optional ones do.
func (h *HealthHandler) overallStatus(checks map[string]Check) string {
	status := statusHealthy
	for _, d := range h.dependencies {
		if checks[d.Name].Status == statusHealthy {
			continue
		}
		if d.Critical {
			return statusUnhealthy
		}
		status = statusDegraded
	}
	return status
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		MemoryMB:     m.Alloc / 1024 / 1024,
	}
}
