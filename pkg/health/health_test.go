package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysOK(_ context.Context) error { return nil }

func alwaysFail(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

// drive runs a probe enough times to flip it past the failure debounce.
func drive(p *probe, times int) {
	for range times {
		p.observe(context.Background())
	}
}

func decodeReport(t *testing.T, w *httptest.ResponseRecorder) report {
	t.Helper()
	var rep report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rep))
	return rep
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, alwaysOK)

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeReport(t, w).Status)
}

func TestLiveEndpoint_ProbeDown(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, alwaysFail("connection refused"))
	drive(h.live[0], failAfter)

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	rep := decodeReport(t, w)
	assert.Equal(t, "degraded", rep.Status)
	assert.Equal(t, "connection refused", rep.Failures["db"])
}

func TestProbe_Debounce(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, alwaysFail("blip"))

	// One failure short of the threshold stays healthy.
	drive(h.live[0], failAfter-1)
	assert.True(t, h.live[0].up.Load())

	drive(h.live[0], 1)
	assert.False(t, h.live[0].up.Load())
}

func TestProbe_Recovery(t *testing.T) {
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	p := h.live[0]

	drive(p, failAfter)
	require.False(t, p.up.Load())

	down = false
	drive(p, okAfter)
	assert.True(t, p.up.Load())
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysOK)

	// Probes pass but the accepting flag is still off.
	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decodeReport(t, w).Failures, "accepting")

	h.SetReady(true)
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Draining flips it back.
	h.SetReady(false)
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReadyEndpoint_OneProbeDown(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysOK)
	h.AddReadinessCheck("cache", time.Second, alwaysFail("cache down"))
	h.SetReady(true)
	drive(h.ready[1], failAfter)

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	rep := decodeReport(t, w)
	assert.Contains(t, rep.Failures, "cache")
	assert.NotContains(t, rep.Failures, "postgres")
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, alwaysOK)

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.AddReadinessCheck("cache", time.Second, alwaysFail("down"))
	drive(h.ready[1], failAfter)
	assert.False(t, h.IsReady())
}

func TestStartStop(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, alwaysOK)

	h.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, alwaysFail("err"))
	h.AddReadinessCheck("postgres", time.Second, alwaysOK)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()
				h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit 0")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
