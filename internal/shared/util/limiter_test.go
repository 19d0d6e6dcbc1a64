package util

import "testing"

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(1, 2)
	if !l.Allow(1) || !l.Allow(1) {
		t.Fatal("burst tokens should be available")
	}
	if l.Allow(1) {
		t.Fatal("exhausted bucket still allowed an event")
	}
}
