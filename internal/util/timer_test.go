package util

import (
	"testing"
	"time"
)

func TestTimerLaps(t *testing.T) {
	timer := StartTimer()
	time.Sleep(15 * time.Millisecond)
	first := timer.Lap()
	if first < 10 {
		t.Fatalf("expected first lap >= 10ms, got %d", first)
	}
	second := timer.Lap()
	if second > first {
		t.Fatalf("expected an immediate lap to be shorter, got %d after %d", second, first)
	}
	if total := timer.ElapsedMs(); total < first {
		t.Fatalf("expected total %d >= first lap %d", total, first)
	}
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	if timer.ElapsedMs() != 0 || timer.Lap() != 0 {
		t.Fatalf("expected zero values from nil timer")
	}
}
