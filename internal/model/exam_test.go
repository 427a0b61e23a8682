package model

import (
	"testing"
	"time"
)

func TestExamWindowOpen(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	exam := &Exam{StartTime: start, EndTime: end}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", start.Add(-time.Minute), false},
		{"exactly at start", start, true},
		{"inside window", start.Add(time.Hour), true},
		{"exactly at end", end, true},
		{"after end", end.Add(time.Second), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := exam.WindowOpen(tc.now); got != tc.want {
				t.Errorf("WindowOpen(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestExamRetakePolicy(t *testing.T) {
	tests := []struct {
		name        string
		allow       bool
		maxRetakes  int
		unlimited   bool
		maxAttempts int
	}{
		{"retakes disabled", false, 0, false, 1},
		{"retakes disabled ignores maxRetakes", false, 5, false, 1},
		{"zero retakes means single attempt", true, 0, false, 1},
		{"two retakes means three attempts", true, 2, false, 3},
		{"negative means unlimited", true, -1, true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exam := &Exam{AllowRetakes: tc.allow, MaxRetakes: tc.maxRetakes}
			if got := exam.UnlimitedRetakes(); got != tc.unlimited {
				t.Errorf("UnlimitedRetakes() = %v, want %v", got, tc.unlimited)
			}
			if got := exam.MaxAttempts(); got != tc.maxAttempts {
				t.Errorf("MaxAttempts() = %d, want %d", got, tc.maxAttempts)
			}
		})
	}
}
