package ratelimit

import (
	"testing"
	"time"
)

func TestAcquireSession_EnforcesConcurrency(t *testing.T) {
	l := New(Config{MaxConcurrentSessions: 1})
	now := time.Now()

	first := l.AcquireSession("p1", now)
	if !first.Allowed || first.Permit == nil {
		t.Fatalf("first allowed=%v permit=%v", first.Allowed, first.Permit)
	}

	second := l.AcquireSession("p1", now)
	if second.Allowed {
		t.Fatalf("second should be denied")
	}

	first.Permit.Release()
	third := l.AcquireSession("p1", now)
	if !third.Allowed {
		t.Fatalf("third should be allowed after release")
	}
}

func TestAcquireRequest_TokenBucketRefills(t *testing.T) {
	l := New(Config{RPS: 1, Burst: 1})
	now := time.Now()

	if dec := l.AcquireRequest("p1", now); !dec.Allowed {
		t.Fatalf("first request should pass")
	}
	dec := l.AcquireRequest("p1", now)
	if dec.Allowed {
		t.Fatalf("second request should be limited")
	}
	if dec.RetryAfter < 1 {
		t.Fatalf("RetryAfter=%d, want >= 1", dec.RetryAfter)
	}

	if dec := l.AcquireRequest("p1", now.Add(time.Second)); !dec.Allowed {
		t.Fatalf("request after refill should pass")
	}
}
