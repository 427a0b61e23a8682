package service

import (
	"errors"
	"time"

	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/repository"
	"uni_exam_backend/internal/util"
	"uni_exam_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegistrarService 管理 attempt 的报名与开考，执行重考策略
type RegistrarService struct {
	ExamRepo        *repository.ExamRepository
	ParticipantRepo *repository.ParticipantRepository
}

func NewRegistrarService(examRepo *repository.ExamRepository, participantRepo *repository.ParticipantRepository) *RegistrarService {
	return &RegistrarService{
		ExamRepo:        examRepo,
		ParticipantRepo: participantRepo,
	}
}

// RegistrationResult 报名成功后返回的名额信息
type RegistrationResult struct {
	Participant       *model.ExamParticipant `json:"participant"`
	AttemptNumber     int                    `json:"attemptNumber"`
	AttemptsUsed      int                    `json:"attemptsUsed"`
	AttemptsRemaining interface{}            `json:"attemptsRemaining"`
}

// evaluateRegistration 纯策略判定，按固定顺序检查：
// 窗口 → 进行中 attempt → 是否允许重考 → 剩余次数。
// 通过时返回新 attempt 的序号。
func evaluateRegistration(exam *model.Exam, attempts []model.ExamParticipant, now time.Time) (int, error) {
	if now.Before(exam.StartTime) {
		return 0, util.ErrExamNotStarted
	}
	if now.After(exam.EndTime) {
		return 0, util.ErrExamWindowClosed
	}

	terminal := 0
	for _, a := range attempts {
		if a.Status == model.AttemptRegistered || a.Status == model.AttemptInProgress {
			return 0, util.ErrOngoingAttemptExists
		}
		if a.Status.Terminal() {
			terminal++
		}
	}

	if terminal > 0 {
		if !exam.AllowRetakes {
			return 0, util.ErrRetakesDisallowed
		}
		if !exam.UnlimitedRetakes() && terminal >= exam.MaxAttempts() {
			return 0, util.ErrMaxAttemptsReached
		}
	}

	return terminal + 1, nil
}

// attemptsRemaining 剩余次数，无限重考时返回字面量 "unlimited"
func attemptsRemaining(exam *model.Exam, used int) interface{} {
	if exam.UnlimitedRetakes() {
		return util.UnlimitedAttempts
	}
	remaining := exam.MaxAttempts() - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (s *RegistrarService) Register(examID, studentID uint) (*RegistrationResult, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	if !exam.Published {
		return nil, util.ErrExamNotFound
	}

	attempts, err := s.ParticipantRepo.FindByExamAndStudent(examID, studentID)
	if err != nil {
		return nil, err
	}

	attemptNumber, err := evaluateRegistration(exam, attempts, time.Now())
	if err != nil {
		return nil, err
	}

	participant := &model.ExamParticipant{
		ExamID:        examID,
		StudentID:     studentID,
		AttemptNumber: attemptNumber,
		Status:        model.AttemptRegistered,
	}
	if err := s.ParticipantRepo.Create(participant); err != nil {
		return nil, err
	}

	logger.Log.Info("Student registered for exam",
		zap.Uint("examId", examID),
		zap.Uint("studentId", studentID),
		zap.Int("attemptNumber", attemptNumber))

	return &RegistrationResult{
		Participant:       participant,
		AttemptNumber:     attemptNumber,
		AttemptsUsed:      attemptNumber,
		AttemptsRemaining: attemptsRemaining(exam, attemptNumber),
	}, nil
}

// Start 把报名记录推进到作答状态并开始计时。
// 已有进行中的 attempt 时直接返回它，方便断线后恢复。
func (s *RegistrarService) Start(examID, studentID uint) (*model.ExamParticipant, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	now := time.Now()
	if !exam.WindowOpen(now) {
		return nil, util.ErrExamWindowClosed
	}

	attempts, err := s.ParticipantRepo.FindByExamAndStudent(examID, studentID)
	if err != nil {
		return nil, err
	}

	var registered *model.ExamParticipant
	for i := range attempts {
		switch attempts[i].Status {
		case model.AttemptInProgress:
			return &attempts[i], nil
		case model.AttemptRegistered:
			registered = &attempts[i]
		}
	}
	if registered == nil {
		return nil, util.ErrAttemptNotFound
	}

	if !registered.Status.CanTransitionTo(model.AttemptInProgress) {
		return nil, util.ErrInvalidTransition
	}
	registered.Status = model.AttemptInProgress
	registered.StartedAt = &now
	if err := s.ParticipantRepo.Update(registered); err != nil {
		return nil, err
	}

	logger.Log.Info("Exam attempt started",
		zap.Uint("participantId", registered.ID),
		zap.Uint("examId", examID),
		zap.Uint("studentId", studentID))
	return registered, nil
}

// History 学生的全部 attempt，含考试信息
func (s *RegistrarService) History(studentID uint) ([]model.ExamParticipant, error) {
	return s.ParticipantRepo.FindByStudent(studentID)
}

// AttemptsInfo 当前名额使用情况，供前端在报名页展示
func (s *RegistrarService) AttemptsInfo(examID, studentID uint) (map[string]interface{}, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	attempts, err := s.ParticipantRepo.FindByExamAndStudent(examID, studentID)
	if err != nil {
		return nil, err
	}
	used := 0
	for _, a := range attempts {
		if a.Status.Terminal() {
			used++
		}
	}

	return map[string]interface{}{
		"allowRetakes":      exam.AllowRetakes,
		"maxRetakes":        exam.MaxRetakes,
		"attemptsUsed":      used,
		"attemptsRemaining": attemptsRemaining(exam, used),
	}, nil
}
