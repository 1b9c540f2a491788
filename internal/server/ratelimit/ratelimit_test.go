package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTokenBucket_Take(t *testing.T) {
	bucket := newTokenBucket(10, 1.0) // 10 tokens, 1 token per second

	// Should allow 10 requests immediately (burst)
	for i := 0; i < 10; i++ {
		allowed, remaining, _ := bucket.take()
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if remaining != 9-i {
			t.Errorf("Expected %d remaining after request %d, got %d", 9-i, i+1, remaining)
		}
	}

	// 11th request should be denied (no tokens left)
	allowed, _, resetTime := bucket.take()
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if !resetTime.After(time.Now()) {
		t.Error("Reset time should be in the future")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := newTokenBucket(10, 1.0) // 1 token per second

	// Consume all tokens
	for i := 0; i < 10; i++ {
		bucket.take()
	}

	// Wait for 1 token to refill
	time.Sleep(1100 * time.Millisecond)

	// Should allow one more request
	if allowed, _, _ := bucket.take(); !allowed {
		t.Error("Expected request to be allowed after refill")
	}

	// Should be denied again
	if allowed, _, _ := bucket.take(); allowed {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestLimiter_Allow(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	clientID := "127.0.0.1"
	endpoint := "/projects"
	method := "GET"

	// Should allow requests up to limit
	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow(clientID, endpoint, method)
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
		if info.Remaining != 9-i {
			t.Errorf("Expected remaining %d, got %d", 9-i, info.Remaining)
		}
	}

	// 11th request should be denied
	allowed, info := limiter.Allow(clientID, endpoint, method)
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if info.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", info.Remaining)
	}
	if info.RetryAfter <= 0 {
		t.Error("Expected retry after to be positive")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	// Whitelisted IP should always be allowed
	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/projects", "GET")
		if !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
		if info.Limit != 0 {
			t.Errorf("Expected limit 0 for whitelisted, got %d", info.Limit)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	// Blacklisted IP should always be denied
	allowed, _ := limiter.Allow("192.168.1.1", "/projects", "GET")
	if allowed {
		t.Error("Expected blacklisted request to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	config := &Config{
		Enabled: false,
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	// When disabled, all requests should be allowed
	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/projects", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
		if info.Limit != 0 {
			t.Errorf("Expected limit 0 when disabled, got %d", info.Limit)
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/analyze", Method: "POST", Limit: 5, Window: time.Hour, Burst: 5},
		},
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	clientID := "127.0.0.1"

	// Endpoint-specific limit (burst allows 5 immediately)
	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow(clientID, "/analyze", "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 5 {
			t.Errorf("Expected limit 5, got %d", info.Limit)
		}
	}

	// 6th request should be denied (limit reached)
	allowed, info := limiter.Allow(clientID, "/analyze", "POST")
	if allowed {
		t.Error("Expected 6th request to be denied")
	}
	if info.Limit != 5 {
		t.Errorf("Expected limit 5, got %d", info.Limit)
	}

	// Different endpoint should use default limit
	allowed, info = limiter.Allow(clientID, "/projects", "GET")
	if !allowed {
		t.Error("Expected different endpoint to be allowed")
	}
	if info.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", info.Limit)
	}
}

func TestLimiter_Burst(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/analyze", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		},
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	clientID := "127.0.0.1"

	// Should allow burst of 2 requests immediately
	for i := 0; i < 2; i++ {
		allowed, _ := limiter.Allow(clientID, "/analyze", "POST")
		if !allowed {
			t.Errorf("Expected burst request %d to be allowed", i+1)
		}
	}

	// 3rd request should be denied (burst exhausted, no refill yet)
	allowed, _ := limiter.Allow(clientID, "/analyze", "POST")
	if allowed {
		t.Error("Expected request after burst to be denied")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	clientID := "127.0.0.1"

	var wg sync.WaitGroup
	allowedCount := 0
	var mu sync.Mutex

	// Make 200 concurrent requests (should only allow 100)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _ := limiter.Allow(clientID, "/projects", "GET")
			if allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_DropIdleBuckets(t *testing.T) {
	config := &Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	}
	limiter := NewLimiter(config)
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/projects", "GET")
	}

	limiter.mu.RLock()
	before := len(limiter.buckets)
	limiter.mu.RUnlock()
	if before != 10 {
		t.Fatalf("Expected 10 buckets, got %d", before)
	}

	// A cutoff in the past keeps every bucket
	limiter.dropIdleBuckets(time.Now().Add(-time.Hour))
	limiter.mu.RLock()
	kept := len(limiter.buckets)
	limiter.mu.RUnlock()
	if kept != 10 {
		t.Errorf("Expected all buckets kept, got %d", kept)
	}

	// A cutoff in the future drops every idle bucket
	limiter.dropIdleBuckets(time.Now().Add(time.Hour))
	limiter.mu.RLock()
	remaining := len(limiter.buckets)
	limiter.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("Expected all buckets dropped, got %d", remaining)
	}
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	// Should use defaults
	allowed, info := limiter.Allow("127.0.0.1", "/projects", "GET")
	if !allowed {
		t.Error("Expected request to be allowed with default config")
	}
	if info.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", info.Limit)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	// Health check is always unlimited
	health := MatchEndpoint("/health", "GET", configs)
	if health == nil || health.Limit != 0 {
		t.Error("Expected /health to be unlimited")
	}

	// Exact match
	analyze := MatchEndpoint("/analyze", "POST", configs)
	if analyze == nil {
		t.Fatal("Expected /analyze POST to match")
	}
	if analyze.Limit != 10 {
		t.Errorf("Expected limit 10 for POST /analyze, got %d", analyze.Limit)
	}

	// Prefix match for job polling
	job := MatchEndpoint("/analyze/5e6acb2c-1f6f-4a3c-9c55-8b34cba47b4f", "GET", configs)
	if job == nil {
		t.Fatal("Expected GET /analyze/{job_id} to match the /analyze/ prefix")
	}
	if job.Limit != 300 {
		t.Errorf("Expected limit 300 for job polling, got %d", job.Limit)
	}

	// Unconfigured endpoint gets no match (falls back to default limit)
	if got := MatchEndpoint("/projects", "GET", configs); got != nil {
		t.Errorf("Expected no match for GET /projects, got %+v", got)
	}
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	config := LoadConfig()
	if config.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	config := LoadConfig()
	if !config.Enabled {
		t.Error("Expected rate limiting to be enabled")
	}
	if config.DefaultLimit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", config.DefaultLimit)
	}
	if config.DefaultWindow != time.Minute {
		t.Errorf("Expected default window 1m, got %v", config.DefaultWindow)
	}
	if !config.Whitelist["10.0.0.1"] || !config.Whitelist["10.0.0.2"] {
		t.Error("Expected whitelist entries to be parsed")
	}
	if len(config.EndpointConfigs) == 0 {
		t.Error("Expected endpoint configs to be populated")
	}
}
