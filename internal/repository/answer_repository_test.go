package repository

import (
	"testing"
	"time"

	"uni_exam_backend/internal/model"
)

func TestUpsertLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnswerRepository(db)

	first := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
	second := first.Add(2 * time.Minute)

	created, err := repo.Upsert(1, 7, "Raft 依靠多数派复制日志", first)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected a persisted answer with an ID")
	}

	updated, err := repo.Upsert(1, 7, "Raft 通过任期编号和多数派投票选主", second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("expected update in place, got new row %d (was %d)", updated.ID, created.ID)
	}

	var count int64
	if err := db.Model(&model.ExamAnswer{}).
		Where("participant_id = ? AND question_id = ?", 1, 7).
		Count(&count).Error; err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row per (participant, question), got %d", count)
	}

	stored, err := repo.FindByParticipantAndQuestion(1, 7)
	if err != nil {
		t.Fatalf("find answer: %v", err)
	}
	if stored.Content != "Raft 通过任期编号和多数派投票选主" {
		t.Fatalf("expected last write to win, got %q", stored.Content)
	}
	if !stored.SubmittedAt.Equal(second) {
		t.Fatalf("expected submittedAt %v, got %v", second, stored.SubmittedAt)
	}
}

func TestCountByParticipant(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnswerRepository(db)

	now := time.Now()
	for _, questionID := range []uint{1, 2, 3} {
		if _, err := repo.Upsert(5, questionID, "answer", now); err != nil {
			t.Fatalf("upsert question %d: %v", questionID, err)
		}
	}
	// 重复提交同一题不增加计数
	if _, err := repo.Upsert(5, 2, "answer v2", now); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	// 其他学生的作答互不影响
	if _, err := repo.Upsert(6, 1, "other", now); err != nil {
		t.Fatalf("upsert other participant: %v", err)
	}

	n, err := repo.CountByParticipant(5)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 answered questions, got %d", n)
	}
}
