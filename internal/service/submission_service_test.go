package service

import (
	"strings"
	"testing"
	"time"
)

func TestTimeWarning(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	threshold := 5 * time.Minute

	tests := []struct {
		name     string
		duration int
		now      time.Time
		contains string
	}{
		{"plenty of time left", 60, started.Add(10 * time.Minute), ""},
		{"just outside threshold", 60, started.Add(54 * time.Minute), ""},
		{"inside threshold", 60, started.Add(56 * time.Minute), "about 4 minute(s) remaining"},
		{"one minute left", 60, started.Add(59*time.Minute + 30*time.Second), "about 1 minute(s) remaining"},
		{"exactly at deadline", 60, started.Add(60 * time.Minute), "time limit exceeded"},
		{"past deadline", 60, started.Add(75 * time.Minute), "time limit exceeded"},
		{"no duration configured", 0, started.Add(10 * time.Hour), ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := timeWarning(started, tc.duration, tc.now, threshold)
			if tc.contains == "" {
				if got != "" {
					t.Errorf("timeWarning() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tc.contains) {
				t.Errorf("timeWarning() = %q, want it to contain %q", got, tc.contains)
			}
		})
	}
}
