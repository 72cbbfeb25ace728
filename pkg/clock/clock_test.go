package clock

import (
	"testing"
	"time"
)

func TestFake_Advance(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := NewFake(start)
	if !f.Now().Equal(start) {
		t.Fatalf("expected %s, got %s", start, f.Now())
	}
	f.Advance(5 * time.Minute)
	if want := start.Add(5 * time.Minute); !f.Now().Equal(want) {
		t.Errorf("expected %s, got %s", want, f.Now())
	}
}

func TestNew_ReturnsWallTime(t *testing.T) {
	before := time.Now()
	now := New().Now()
	if now.Before(before) || now.After(time.Now()) {
		t.Errorf("system clock returned %s outside the call window", now)
	}
}
