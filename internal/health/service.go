package health

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"qsrankings/internal/logger"
)

// CheckFunc checks one dependency.
type CheckFunc func(context.Context) error

// ComponentStatus holds the status of a dependent component
type ComponentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report is the outcome of one preflight.
type Report struct {
	OverallStatus string                     `json:"overall_status"`
	Timestamp     string                     `json:"timestamp"`
	Components    map[string]ComponentStatus `json:"components"`
}

// Failed lists the components that did not pass, sorted by name.
func (r Report) Failed() []string {
	var out []string
	for name, st := range r.Components {
		if st.Status != "ok" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Checker runs registered dependency checks before a crawl starts.
type Checker struct {
	log     *logger.Logger
	timeout time.Duration
	checks  map[string]CheckFunc
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Checker{log: logger.New("HealthCheck"), timeout: timeout, checks: make(map[string]CheckFunc)}
}

// Register adds a named check. Registering a name twice replaces it.
func (h *Checker) Register(name string, check CheckFunc) {
	h.checks[name] = check
}

// Check runs every check concurrently and reports each component.
func (h *Checker) Check(ctx context.Context) Report {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	statuses := make(map[string]ComponentStatus, len(h.checks))
	var wg sync.WaitGroup
	var mu sync.Mutex
	allOk := true

	for name, check := range h.checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			componentStart := time.Now()
			st := ComponentStatus{Status: "ok"}
			if err := check(ctx); err != nil {
				st = ComponentStatus{Status: "error", Error: err.Error()}
				h.log.LogErrorf("Health check failed for %s after %v: %v", name, time.Since(componentStart), err)
			} else {
				h.log.LogDebugf("Health check passed for %s in %v", name, time.Since(componentStart))
			}
			mu.Lock()
			statuses[name] = st
			if st.Status != "ok" {
				allOk = false
			}
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	report := Report{
		OverallStatus: "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		Components:    statuses,
	}
	if !allOk {
		report.OverallStatus = "error"
	}
	h.log.LogDebugf("Health check completed in %v", time.Since(startTime))
	return report
}

// Require runs Check and turns a failed report into an error.
func (h *Checker) Require(ctx context.Context) error {
	report := h.Check(ctx)
	if report.OverallStatus == "ok" {
		return nil
	}
	failed := report.Failed()
	parts := make([]string, 0, len(failed))
	for _, name := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", name, report.Components[name].Error))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}
