package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if key := KeyByUserOrIP()(c); !strings.HasPrefix(key, "ip:") || !strings.Contains(key, "203.0.113.9") {
		t.Fatalf("expected ip-based key; got %q", key)
	}
	c.Set(userIDKey, "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("expected user-based key; got %q", key)
	}
}

func TestNewRateLimiter_BurstCoercion_AndReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	lim := rl.getVisitor("k1")
	if got := rl.getVisitor("k1"); got != lim {
		t.Fatalf("expected same limiter instance to be reused")
	}
}

func TestRateLimiter_getVisitor_GC(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, KeyByUserOrIP())
	rl.ttl = time.Nanosecond

	rl.mu.Lock()
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.cleanupN = visitorGCEveryN - 1
	rl.mu.Unlock()

	_ = rl.getVisitor("new")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["old"]; ok {
		t.Fatalf("expected 'old' visitor to be evicted")
	}
	if _, ok := rl.visitors["new"]; !ok {
		t.Fatalf("expected 'new' visitor to be created")
	}
	if rl.cleanupN != 0 {
		t.Fatalf("cleanup counter not reset: %d", rl.cleanupN)
	}
}

func TestRateLimiter_Handler_Allow_Deny_And_Bypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1.0, 1, KeyByUserOrIP())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header(requestIDHeader, "rid-1"); c.Next() })
	r.Use(Identity(), rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request should be allowed, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be rate-limited, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != "too_many_requests" || body["request_id"] != "rid-1" {
		t.Fatalf("unexpected JSON body: %v", body)
	}

	// Another user has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(userIDHeader, "someone-else")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("other user should be allowed, got %d", w.Code)
	}

	rb := gin.New()
	rb.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	rb.Use(Identity(), rl.Handler())
	rb.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	w = httptest.NewRecorder()
	rb.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("bypass request should be allowed, got %d", w.Code)
	}
}
