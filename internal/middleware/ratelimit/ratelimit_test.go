package ratelimit

import "testing"

func TestAllowWithinWindow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("203.0.113.9") {
			t.Fatalf("request %d refused within the window", i+1)
		}
	}
	if rl.Allow("203.0.113.9") {
		t.Fatal("request over the limit was allowed")
	}

	m := rl.GetMetrics()
	if m.TotalHits != 1 {
		t.Errorf("total hits = %d, want 1", m.TotalHits)
	}
}

func TestClientsAreIndependent(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	if !rl.Allow("203.0.113.9") {
		t.Fatal("first client refused")
	}
	if !rl.Allow("203.0.113.10") {
		t.Fatal("second client throttled by the first")
	}
	if rl.Allow("203.0.113.9") {
		t.Fatal("first client should be over its limit")
	}

	if n := rl.ActiveClients(); n != 2 {
		t.Errorf("active clients = %d, want 2", n)
	}
}

func TestDefaultsApplied(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()

	if rl.requestsPerMinute != DefaultConfig().RequestsPerMinute {
		t.Errorf("requests per minute = %d", rl.requestsPerMinute)
	}
	if rl.cleanupInterval != DefaultConfig().CleanupInterval {
		t.Errorf("cleanup interval = %s", rl.cleanupInterval)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	rl.Stop()
	rl.Stop()
}

func TestCleanupDropsStaleClients(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	rl.Allow("203.0.113.9")
	rl.mu.Lock()
	rl.clients["203.0.113.9"].lastRequest = rl.clients["203.0.113.9"].lastRequest.Add(-3 * rl.cleanupInterval)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()
	if n := rl.ActiveClients(); n != 0 {
		t.Errorf("active clients after cleanup = %d, want 0", n)
	}
}
