package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestNewMetrics tests the Metrics constructor.
func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
	if m.handler == nil {
		t.Error("Metrics.handler should be initialized")
	}
}

// TestMetrics_Counters verifies the counter methods don't panic and that the
// exposition output reflects the recorded events.
func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.CacheEvictions(3)
	m.SetCacheSize(7)
	m.ReductionSucceeded()
	m.ReductionFailed()

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d, want 200", rec.Code)
	}
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("reading metrics body: %v", err)
	}
	output := string(body)

	expectations := []string{
		"reflred_cache_hits_total 1",
		"reflred_cache_misses_total 2",
		"reflred_cache_evictions_total 3",
		"reflred_cache_size 7",
		"reflred_reductions_total 1",
		"reflred_reduction_failures_total 1",
	}
	for _, want := range expectations {
		if !strings.Contains(output, want) {
			t.Errorf("metrics output should contain %q\noutput:\n%s", want, output)
		}
	}
}

// TestMetrics_IndependentRegistries verifies two instances do not collide.
func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.CacheHit()

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Result().Body)
	if strings.Contains(string(body), "reflred_cache_hits_total 1") {
		t.Error("second instance should not see first instance's counts")
	}
}
