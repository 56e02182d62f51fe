package clock

import (
	"testing"
	"time"
)

func TestMockClock_Advance(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	c.Advance(90 * time.Second)
	if got := c.Since(start); got != 90*time.Second {
		t.Errorf("expected 90s, got %v", got)
	}

	later := start.Add(time.Hour)
	c.SetTime(later)
	if !c.Now().Equal(later) {
		t.Errorf("expected %v, got %v", later, c.Now())
	}
}

func TestRealClock_Moves(t *testing.T) {
	c := NewRealClock()
	start := c.Now()
	if c.Since(start) < 0 {
		t.Error("expected non-negative elapsed time")
	}
}
