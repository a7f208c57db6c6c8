package worker

import (
	"context"
	"testing"
	"time"
)

func TestUploadLimiterBurst(t *testing.T) {
	l := NewUploadLimiter(1, 2)

	if !l.Allow("archive") {
		t.Error("first request within burst should be allowed")
	}
	if !l.Allow("archive") {
		t.Error("second request within burst should be allowed")
	}
	if l.Allow("archive") {
		t.Error("request past burst should be denied")
	}

	// Destinations are limited independently.
	if !l.Allow("mirror") {
		t.Error("fresh destination should have its own budget")
	}
}

func TestUploadLimiterSetRate(t *testing.T) {
	l := NewUploadLimiter(1, 1)
	if !l.Allow("archive") {
		t.Fatal("initial request denied")
	}
	if l.Allow("archive") {
		t.Fatal("burst of 1 should be spent")
	}

	l.SetRate("archive", 100, 10)
	if !l.Allow("archive") {
		t.Error("raised rate should allow again")
	}
}

func TestUploadLimiterWaitHonorsContext(t *testing.T) {
	l := NewUploadLimiter(0.001, 1)
	if err := l.Wait(context.Background(), "slow"); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "slow"); err == nil {
		t.Error("Wait() should fail when the context expires first")
	}
}
