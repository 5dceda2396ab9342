// Package health implements the /livez and /readyz probes for the API server.
//
// Registered checks run on their own tickers in the background; the probe
// handlers only read the cached verdicts, so a slow database ping can never
// stall a kubelet probe. Verdicts are smoothed with consecutive-failure and
// consecutive-success thresholds so one transient blip does not pull the
// server out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. nil means healthy.
type CheckFunc func(ctx context.Context) error

// failureThreshold and successThreshold smooth check verdicts: a check flips
// unhealthy only after failureThreshold consecutive failures and recovers
// after successThreshold consecutive passes.
const (
	failureThreshold = 3
	successThreshold = 1
)

// probeCheck is one registered check with its cached verdict.
//
// run is only ever called from the check's own ticker goroutine, so the
// consecutive counters are unsynchronized. healthy and lastErr are shared
// with the probe handlers and use atomics.
type probeCheck struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

// run executes the check once and folds the result into the thresholds.
func (c *probeCheck) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.check(checkCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveOK = 0
		if c.consecutiveFails++; c.consecutiveFails >= failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.consecutiveFails = 0
	if c.consecutiveOK++; c.consecutiveOK >= successThreshold {
		c.healthy.Store(true)
	}
}

// failure returns the message to report for an unhealthy check.
func (c *probeCheck) failure() string {
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error()
	}
	return "check is unhealthy"
}

// Health owns the liveness and readiness checks of the server.
type Health struct {
	ready atomic.Bool

	// mu guards the slices and cancel. Registration happens before Start;
	// the handlers only take short read locks to snapshot the slices.
	mu              sync.RWMutex
	livenessChecks  []*probeCheck
	readinessChecks []*probeCheck
	cancel          context.CancelFunc
}

// New returns a Health that reports not-ready until SetReady(true) is called
// after startup completes.
func New() *Health {
	return &Health{}
}

func newCheck(name string, timeout time.Duration, check CheckFunc) *probeCheck {
	c := &probeCheck{
		name:    name,
		timeout: timeout,
		check:   check,
	}
	// Healthy until the background runner says otherwise, so registering a
	// check does not flap the probes before Start.
	c.healthy.Store(true)
	return c
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted, such as the goroutine count watchdog.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, newCheck(name, timeout, check))
}

// AddReadinessCheck registers a check that decides whether the server should
// receive traffic, such as database connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, newCheck(name, timeout, check))
}

// Start launches one background goroutine per registered check, each running
// the check at interval until Stop or context cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := make([]*probeCheck, 0, len(h.livenessChecks)+len(h.readinessChecks))
	checks = append(checks, h.livenessChecks...)
	checks = append(checks, h.readinessChecks...)
	h.mu.Unlock()

	for _, c := range checks {
		go func(c *probeCheck) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// SetReady flips the manual readiness gate. Startup calls it with true once
// wiring is done; graceful shutdown calls it with false to drain before the
// listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the server should receive traffic: the manual gate
// is open and every readiness check currently passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	checks := h.readinessChecks
	h.mu.RUnlock()

	for _, c := range checks {
		if !c.healthy.Load() {
			return false
		}
	}
	return true
}

// Stop cancels the background check goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// Register mounts the probe endpoints on mux under the conventional
// /livez and /readyz paths.
func (h *Health) Register(mux *http.ServeMux) {
	mux.HandleFunc("/livez", h.LiveEndpoint)
	mux.HandleFunc("/readyz", h.ReadyEndpoint)
}

// statusResponse is the JSON body of both probe endpoints.
type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness check passes, 503
// with the failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := make([]*probeCheck, len(h.livenessChecks))
	copy(checks, h.livenessChecks)
	h.mu.RUnlock()

	writeProbe(w, collectFailures(checks))
}

// ReadyEndpoint serves /readyz: 200 while the manual gate is open and every
// readiness check passes, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ready := h.ready.Load()

	h.mu.RLock()
	checks := make([]*probeCheck, len(h.readinessChecks))
	copy(checks, h.readinessChecks)
	h.mu.RUnlock()

	failures := collectFailures(checks)
	if !ready {
		failures["_readiness"] = "service is not ready"
	}
	writeProbe(w, failures)
}

// collectFailures reads the cached verdicts; it never re-runs a check from
// the request path.
func collectFailures(checks []*probeCheck) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		if !c.healthy.Load() {
			failures[c.name] = c.failure()
		}
	}
	return failures
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	status := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
