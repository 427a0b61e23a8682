package model

import (
	"testing"
	"time"
)

func TestAttemptStatusTransitions(t *testing.T) {
	all := []AttemptStatus{AttemptRegistered, AttemptInProgress, AttemptCompleted, AttemptReviewed}

	allowed := map[AttemptStatus]AttemptStatus{
		AttemptRegistered: AttemptInProgress,
		AttemptInProgress: AttemptCompleted,
		AttemptCompleted:  AttemptReviewed,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from] == to
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}

	// 未知状态不允许任何流转
	if AttemptStatus("cancelled").CanTransitionTo(AttemptInProgress) {
		t.Error("unknown status must not transition")
	}
}

func TestAttemptStatusPredicates(t *testing.T) {
	tests := []struct {
		status   AttemptStatus
		terminal bool
		active   bool
	}{
		{AttemptRegistered, false, false},
		{AttemptInProgress, false, true},
		{AttemptCompleted, true, false},
		{AttemptReviewed, true, false},
	}

	for _, tc := range tests {
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.terminal)
		}
		if got := tc.status.Active(); got != tc.active {
			t.Errorf("%s.Active() = %v, want %v", tc.status, got, tc.active)
		}
	}
}

func TestParticipantDeadline(t *testing.T) {
	p := &ExamParticipant{}
	if !p.Deadline(60).IsZero() {
		t.Error("deadline of an unstarted attempt must be zero")
	}

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p.StartedAt = &started
	want := started.Add(90 * time.Minute)
	if got := p.Deadline(90); !got.Equal(want) {
		t.Errorf("Deadline(90) = %v, want %v", got, want)
	}
}
