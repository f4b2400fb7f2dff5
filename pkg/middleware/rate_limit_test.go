package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

func TestAllow_WithinLimit(t *testing.T) {
	rl := NewClientRateLimiter(3, time.Minute, RemoteIPExtractor, testLogger())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("4th request should be denied")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	rl := NewClientRateLimiter(1, time.Minute, RemoteIPExtractor, testLogger())
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second client should not share the first client's budget")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	rl := NewClientRateLimiter(1, 20*time.Millisecond, RemoteIPExtractor, testLogger())
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("second request should be denied inside the window")
	}

	time.Sleep(30 * time.Millisecond)

	if !rl.Allow("10.0.0.1") {
		t.Error("request should be allowed after the window passes")
	}
}

func TestAllow_EmptyKeyBypasses(t *testing.T) {
	rl := NewClientRateLimiter(1, time.Minute, RemoteIPExtractor, testLogger())
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		if !rl.Allow("") {
			t.Fatal("empty keys should never be limited")
		}
	}
}

func TestLimit_Returns429(t *testing.T) {
	rl := NewClientRateLimiter(1, time.Minute, RemoteIPExtractor, testLogger())
	defer rl.Stop()

	var calls int
	handle := rl.Limit(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	mkReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/member/login/", nil)
		req.RemoteAddr = "10.0.0.1:51234"
		return req
	}

	rec := httptest.NewRecorder()
	handle(rec, mkReq(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handle(rec, mkReq(), nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: expected 429, got %d", rec.Code)
	}
	if calls != 1 {
		t.Errorf("handler should run once, ran %d times", calls)
	}
}

func TestRemoteIPExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.7:55001"
	if got := RemoteIPExtractor(req); got != "192.168.1.7" {
		t.Errorf("expected host portion, got %q", got)
	}

	req.RemoteAddr = "bare-host"
	if got := RemoteIPExtractor(req); got != "bare-host" {
		t.Errorf("expected raw address fallback, got %q", got)
	}
}
