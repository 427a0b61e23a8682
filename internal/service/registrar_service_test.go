package service

import (
	"errors"
	"testing"
	"time"

	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/util"
)

func newWindowedExam(allowRetakes bool, maxRetakes int) *model.Exam {
	now := time.Now()
	return &model.Exam{
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		AllowRetakes: allowRetakes,
		MaxRetakes:   maxRetakes,
	}
}

func attemptsWithStatus(statuses ...model.AttemptStatus) []model.ExamParticipant {
	attempts := make([]model.ExamParticipant, 0, len(statuses))
	for i, s := range statuses {
		attempts = append(attempts, model.ExamParticipant{AttemptNumber: i + 1, Status: s})
	}
	return attempts
}

func TestEvaluateRegistration(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		exam        *model.Exam
		attempts    []model.ExamParticipant
		wantAttempt int
		wantErr     error
	}{
		{
			name:        "first registration",
			exam:        newWindowedExam(false, 0),
			attempts:    nil,
			wantAttempt: 1,
		},
		{
			name:     "registered attempt blocks re-registration",
			exam:     newWindowedExam(true, 3),
			attempts: attemptsWithStatus(model.AttemptRegistered),
			wantErr:  util.ErrOngoingAttemptExists,
		},
		{
			name:     "in-progress attempt blocks re-registration",
			exam:     newWindowedExam(true, 3),
			attempts: attemptsWithStatus(model.AttemptInProgress),
			wantErr:  util.ErrOngoingAttemptExists,
		},
		{
			name:     "retakes disallowed after completion",
			exam:     newWindowedExam(false, 0),
			attempts: attemptsWithStatus(model.AttemptCompleted),
			wantErr:  util.ErrRetakesDisallowed,
		},
		{
			name:     "zero retakes exhausted by one completion",
			exam:     newWindowedExam(true, 0),
			attempts: attemptsWithStatus(model.AttemptCompleted),
			wantErr:  util.ErrMaxAttemptsReached,
		},
		{
			name:        "one retake available",
			exam:        newWindowedExam(true, 1),
			attempts:    attemptsWithStatus(model.AttemptCompleted),
			wantAttempt: 2,
		},
		{
			name:     "retakes exhausted",
			exam:     newWindowedExam(true, 1),
			attempts: attemptsWithStatus(model.AttemptCompleted, model.AttemptReviewed),
			wantErr:  util.ErrMaxAttemptsReached,
		},
		{
			name:        "unlimited retakes never exhaust",
			exam:        newWindowedExam(true, -1),
			attempts:    attemptsWithStatus(model.AttemptCompleted, model.AttemptReviewed, model.AttemptCompleted),
			wantAttempt: 4,
		},
		{
			name:        "reviewed counts like completed",
			exam:        newWindowedExam(true, 2),
			attempts:    attemptsWithStatus(model.AttemptReviewed),
			wantAttempt: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := evaluateRegistration(tc.exam, tc.attempts, now)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("evaluateRegistration() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("evaluateRegistration() unexpected error: %v", err)
			}
			if got != tc.wantAttempt {
				t.Errorf("attempt number = %d, want %d", got, tc.wantAttempt)
			}
		})
	}
}

func TestEvaluateRegistrationWindow(t *testing.T) {
	exam := &model.Exam{
		StartTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	}

	if _, err := evaluateRegistration(exam, nil, exam.StartTime.Add(-time.Minute)); !errors.Is(err, util.ErrExamNotStarted) {
		t.Errorf("before window: error = %v, want ErrExamNotStarted", err)
	}
	if _, err := evaluateRegistration(exam, nil, exam.EndTime.Add(time.Minute)); !errors.Is(err, util.ErrExamWindowClosed) {
		t.Errorf("after window: error = %v, want ErrExamWindowClosed", err)
	}
	if _, err := evaluateRegistration(exam, nil, exam.StartTime); err != nil {
		t.Errorf("at window start: unexpected error %v", err)
	}
}

func TestAttemptsRemaining(t *testing.T) {
	tests := []struct {
		name string
		exam *model.Exam
		used int
		want interface{}
	}{
		{"unlimited", &model.Exam{AllowRetakes: true, MaxRetakes: -1}, 5, util.UnlimitedAttempts},
		{"some left", &model.Exam{AllowRetakes: true, MaxRetakes: 2}, 1, 2},
		{"none left", &model.Exam{AllowRetakes: true, MaxRetakes: 1}, 2, 0},
		{"never negative", &model.Exam{AllowRetakes: false}, 3, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := attemptsRemaining(tc.exam, tc.used); got != tc.want {
				t.Errorf("attemptsRemaining() = %v, want %v", got, tc.want)
			}
		})
	}
}
