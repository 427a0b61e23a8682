package repository

import (
	"math"
	"testing"

	"uni_exam_backend/internal/model"
)

func TestIncrementViolationCounters(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipantRepository(db)

	p := &model.ExamParticipant{ExamID: 1, StudentID: 2, AttemptNumber: 1, Status: model.AttemptInProgress}
	if err := repo.Create(p); err != nil {
		t.Fatalf("create participant: %v", err)
	}
	other := &model.ExamParticipant{ExamID: 1, StudentID: 3, AttemptNumber: 1, Status: model.AttemptInProgress}
	if err := repo.Create(other); err != nil {
		t.Fatalf("create other participant: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementFullscreenExits(p.ID); err != nil {
			t.Fatalf("increment exits: %v", err)
		}
	}
	if err := repo.IncrementTabSwitches(p.ID); err != nil {
		t.Fatalf("increment tab switches: %v", err)
	}

	got, err := repo.FindByID(p.ID)
	if err != nil {
		t.Fatalf("reload participant: %v", err)
	}
	if got.FullscreenExits != 3 {
		t.Fatalf("expected 3 fullscreen exits, got %d", got.FullscreenExits)
	}
	if got.TabSwitches != 1 {
		t.Fatalf("expected 1 tab switch, got %d", got.TabSwitches)
	}

	untouched, err := repo.FindByID(other.ID)
	if err != nil {
		t.Fatalf("reload other participant: %v", err)
	}
	if untouched.FullscreenExits != 0 || untouched.TabSwitches != 0 {
		t.Fatalf("expected other participant untouched, got exits=%d switches=%d",
			untouched.FullscreenExits, untouched.TabSwitches)
	}
}

func TestStatsByExam(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipantRepository(db)

	seed := []model.ExamParticipant{
		{ExamID: 1, StudentID: 1, Status: model.AttemptRegistered},
		{ExamID: 1, StudentID: 2, Status: model.AttemptCompleted, FinalScore: 80},
		{ExamID: 1, StudentID: 3, Status: model.AttemptCompleted, FinalScore: 40},
		{ExamID: 1, StudentID: 4, Status: model.AttemptReviewed, FinalScore: 90},
		// 其他考试的 attempt 不计入
		{ExamID: 2, StudentID: 5, Status: model.AttemptCompleted, FinalScore: 100},
	}
	for i := range seed {
		if err := repo.Create(&seed[i]); err != nil {
			t.Fatalf("seed participant %d: %v", i, err)
		}
	}

	stats, err := repo.StatsByExam(1, 60)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("expected 4 total attempts, got %d", stats.Total)
	}
	if stats.Completed != 3 {
		t.Errorf("expected 3 terminal attempts, got %d", stats.Completed)
	}
	if math.Abs(stats.AverageScore-70) > 1e-9 {
		t.Errorf("expected average 70, got %v", stats.AverageScore)
	}
	// 80 和 90 过线，40 没过
	if math.Abs(stats.PassRate-200.0/3.0) > 1e-9 {
		t.Errorf("expected pass rate %.4f, got %v", 200.0/3.0, stats.PassRate)
	}
}

func TestStatsByExamNoCompletions(t *testing.T) {
	db := newTestDB(t)
	repo := NewParticipantRepository(db)

	p := &model.ExamParticipant{ExamID: 9, StudentID: 1, Status: model.AttemptRegistered}
	if err := repo.Create(p); err != nil {
		t.Fatalf("seed participant: %v", err)
	}

	stats, err := repo.StatsByExam(9, 60)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 || stats.Completed != 0 {
		t.Fatalf("expected total=1 completed=0, got total=%d completed=%d", stats.Total, stats.Completed)
	}
	if stats.AverageScore != 0 || stats.PassRate != 0 {
		t.Fatalf("expected zero average and pass rate, got avg=%v rate=%v", stats.AverageScore, stats.PassRate)
	}
}
