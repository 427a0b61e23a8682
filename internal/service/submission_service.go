package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"uni_exam_backend/internal/config"
	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/repository"
	"uni_exam_backend/internal/util"

	"gorm.io/gorm"
)

// SubmissionService 处理作答提交：同一题重复提交覆盖旧答案
type SubmissionService struct {
	ParticipantRepo *repository.ParticipantRepository
	AnswerRepo      *repository.AnswerRepository
	ExamRepo        *repository.ExamRepository
	Defaults        config.ExamConfig
}

func NewSubmissionService(participantRepo *repository.ParticipantRepository, answerRepo *repository.AnswerRepository, examRepo *repository.ExamRepository, defaults config.ExamConfig) *SubmissionService {
	return &SubmissionService{
		ParticipantRepo: participantRepo,
		AnswerRepo:      answerRepo,
		ExamRepo:        examRepo,
		Defaults:        defaults,
	}
}

// AnswerReceipt 提交回执，临近时限时附带提醒但不阻止提交
type AnswerReceipt struct {
	Answer *model.ExamAnswer `json:"answer"`
	// 已作答题数，前端用来显示进度
	Answered int64  `json:"answered"`
	Warning  string `json:"warning,omitempty"`
}

// timeWarning 剩余时间提醒。提交永远不会因时间被拒绝，
// 超时与临近时限都只生成提示文案。
func timeWarning(startedAt time.Time, durationMinutes int, now time.Time, threshold time.Duration) string {
	if durationMinutes <= 0 {
		return ""
	}
	deadline := startedAt.Add(time.Duration(durationMinutes) * time.Minute)
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return "time limit exceeded, answer recorded for review"
	}
	if remaining <= threshold {
		minutes := int(math.Ceil(remaining.Minutes()))
		return fmt.Sprintf("approaching the time limit: about %d minute(s) remaining", minutes)
	}
	return ""
}

func (s *SubmissionService) Submit(participantID, questionID, studentID uint, content string) (*AnswerReceipt, error) {
	participant, err := s.ParticipantRepo.FindByIDWithExam(participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if studentID != 0 && participant.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}
	if !participant.Status.Active() {
		return nil, util.ErrAttemptNotActive
	}

	question, err := s.ExamRepo.FindQuestionByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if question.ExamID != participant.ExamID {
		return nil, util.ErrQuestionNotFound
	}

	now := time.Now()
	answer, err := s.AnswerRepo.Upsert(participantID, questionID, content, now)
	if err != nil {
		return nil, err
	}

	answered, err := s.AnswerRepo.CountByParticipant(participantID)
	if err != nil {
		return nil, err
	}

	receipt := &AnswerReceipt{Answer: answer, Answered: answered}
	if participant.StartedAt != nil && participant.Exam != nil {
		threshold := time.Duration(s.Defaults.TimeWarningMinutes) * time.Minute
		receipt.Warning = timeWarning(*participant.StartedAt, participant.Exam.Duration, now, threshold)
	}
	return receipt, nil
}

// Answers 当前已提交的全部答案
func (s *SubmissionService) Answers(participantID, requesterID uint, role model.UserRole) ([]model.ExamAnswer, error) {
	participant, err := s.ParticipantRepo.FindByID(participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if role == model.Student && participant.StudentID != requesterID {
		return nil, util.ErrPermissionDenied
	}
	return s.AnswerRepo.FindByParticipant(participantID)
}
