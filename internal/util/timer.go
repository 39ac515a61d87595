package util

import "time"

// Timer measures elapsed time for a run and for the stages inside it.
type Timer struct {
	start time.Time
	lap   time.Time
}

// StartTimer creates a timer starting now.
func StartTimer() *Timer {
	now := time.Now()
	return &Timer{start: now, lap: now}
}

// ElapsedMs returns the milliseconds since the timer started.
func (t *Timer) ElapsedMs() int64 {
	if t == nil || t.start.IsZero() {
		return 0
	}
	return time.Since(t.start).Milliseconds()
}

// Lap returns the milliseconds since the previous Lap (or since start) and
// begins a new lap.
func (t *Timer) Lap() int64 {
	if t == nil || t.lap.IsZero() {
		return 0
	}
	now := time.Now()
	ms := now.Sub(t.lap).Milliseconds()
	t.lap = now
	return ms
}
