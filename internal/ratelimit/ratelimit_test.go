package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestMemory_AllowsBurstThenBlocks(t *testing.T) {
	m := NewMemory(3)
	now := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := m.Allow(context.Background(), "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d should pass: %v %v", i, ok, err)
		}
	}
	if ok, _ := m.Allow(context.Background(), "1.2.3.4"); ok {
		t.Fatal("fourth request should be limited")
	}
	if ok, _ := m.Allow(context.Background(), "5.6.7.8"); !ok {
		t.Fatal("other clients are not affected")
	}

	now = now.Add(20 * time.Second)
	if ok, _ := m.Allow(context.Background(), "1.2.3.4"); !ok {
		t.Fatal("one token should refill after 20s")
	}
}

func TestMemory_SweepsIdleVisitors(t *testing.T) {
	m := NewMemory(1)
	now := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, _ = m.Allow(context.Background(), "a")
	now = now.Add(11 * time.Minute)
	_, _ = m.Allow(context.Background(), "b")

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visitors["a"]; ok {
		t.Fatal("idle visitor should be swept")
	}
	if _, ok := m.visitors["b"]; !ok {
		t.Fatal("active visitor should remain")
	}
}

type stubLimiter struct {
	ok  bool
	err error
}

func (s stubLimiter) Allow(context.Context, string) (bool, error) { return s.ok, s.err }

func runMiddleware(l Limiter, failOpen bool) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", Middleware(l, nil, failOpen, "slow down"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		limiter  Limiter
		failOpen bool
		want     int
	}{
		{"allowed", stubLimiter{ok: true}, false, http.StatusNoContent},
		{"limited", stubLimiter{ok: false}, false, http.StatusTooManyRequests},
		{"error fail open", stubLimiter{err: errors.New("down")}, true, http.StatusNoContent},
		{"error fail closed", stubLimiter{err: errors.New("down")}, false, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := runMiddleware(tt.limiter, tt.failOpen)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRedis_UnreachableReturnsError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	l := NewRedis(rdb, 5, time.Minute, "test")
	if _, err := l.Allow(context.Background(), "1.2.3.4"); err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if w := runMiddleware(l, true); w.Code != http.StatusNoContent {
		t.Fatalf("fail-open should pass, got %d", w.Code)
	}
}
