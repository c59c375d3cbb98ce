package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenBucketRefillsEachSecond(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	tb := NewTokenBucket(2)
	tb.now = func() time.Time { return clock }
	tb.lastSec = clock.Unix()

	ok := func(h http.Handler) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/map.svg", nil))
		return rec.Code
	}
	h := Limit(tb, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	got := []int{ok(h), ok(h), ok(h)}
	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("codes = %v, want %v", got, want)
		}
	}
	clock = clock.Add(time.Second)
	if c := ok(h); c != http.StatusNoContent {
		t.Errorf("after refill = %d", c)
	}
}

func TestWrapDisabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := Wrap(inner)
	for i := 0; i < 1000; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d limited", i)
		}
	}
}

func TestWrapEnabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_QPS", "1")
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	limited := false
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Error("expected at least one 429 with qps=1")
	}
}
