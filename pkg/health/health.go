// Package health exposes liveness and readiness probe endpoints.
//
// Probes are debounced: a probe flips to failing only after failAfter
// consecutive errors and recovers after okAfter consecutive successes, so a
// single slow database ping does not bounce the pod out of the service.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	failAfter = 3
	okAfter   = 1
)

// probe holds one registered check and its debounced state. observe is only
// called from the scheduler goroutine; up and lastErr are additionally read
// by the HTTP handlers, hence the atomics.
type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	up      atomic.Bool
	lastErr atomic.Pointer[error]

	fails  int
	passes int
}

func (p *probe) observe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passes = 0
		if p.fails++; p.fails >= failAfter {
			p.up.Store(false)
		}
		return
	}
	p.fails = 0
	if p.passes++; p.passes >= okAfter {
		p.up.Store(true)
	}
}

func (p *probe) failure() (string, bool) {
	if p.up.Load() {
		return "", false
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error(), true
	}
	return "probe failing", true
}

// Health runs registered probes on a schedule and serves their state over
// HTTP. Readiness combines the probes with an explicit accepting flag which
// the server toggles off during graceful shutdown.
type Health struct {
	accepting atomic.Bool

	mu     sync.RWMutex
	live   []*probe
	ready  []*probe
	cancel context.CancelFunc
}

// New returns a Health with no probes, not yet accepting traffic.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe that decides whether the process should
// be restarted, such as a goroutine leak detector.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newProbe(name, timeout, fn))
}

// AddReadinessCheck registers a probe that decides whether the service should
// receive traffic, such as database connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = append(h.ready, newProbe(name, timeout, fn))
}

func newProbe(name string, timeout time.Duration, fn CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, fn: fn}
	// Healthy until observed otherwise, so registration order does not race
	// the first scheduler pass.
	p.up.Store(true)
	return p
}

// Start launches the scheduler goroutine. Probes run sequentially once per
// interval; each one is bounded by its own timeout. Register all probes
// before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := append(append([]*probe(nil), h.live...), h.ready...)
	h.mu.Unlock()

	go func() {
		observeAll(ctx, probes)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observeAll(ctx, probes)
			}
		}
	}()
}

func observeAll(ctx context.Context, probes []*probe) {
	for _, p := range probes {
		if ctx.Err() != nil {
			return
		}
		p.observe(ctx)
	}
}

// SetReady toggles the accepting flag. Call with true once startup completes
// and with false when draining.
func (h *Health) SetReady(ready bool) {
	h.accepting.Store(ready)
}

// IsReady reports whether the service is accepting traffic and every
// readiness probe is passing.
func (h *Health) IsReady() bool {
	if !h.accepting.Load() {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.ready {
		if !p.up.Load() {
			return false
		}
	}
	return true
}

// Stop cancels the scheduler. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

type report struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

// LiveEndpoint serves the liveness state: 200 when all liveness probes pass,
// 503 with per-probe failure messages otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := append([]*probe(nil), h.live...)
	h.mu.RUnlock()

	writeReport(w, failures(probes))
}

// ReadyEndpoint serves the readiness state. The accepting flag is reported
// alongside probe failures so a draining pod is distinguishable from a
// broken one.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := append([]*probe(nil), h.ready...)
	h.mu.RUnlock()

	failed := failures(probes)
	if !h.accepting.Load() {
		failed["accepting"] = "not accepting traffic"
	}
	writeReport(w, failed)
}

func failures(probes []*probe) map[string]string {
	failed := make(map[string]string)
	for _, p := range probes {
		if msg, down := p.failure(); down {
			failed[p.name] = msg
		}
	}
	return failed
}

func writeReport(w http.ResponseWriter, failed map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	rep := report{Status: "ok"}
	code := http.StatusOK
	if len(failed) > 0 {
		rep = report{Status: "degraded", Failures: failed}
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(rep)
}
