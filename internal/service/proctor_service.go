package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uni_exam_backend/internal/config"
	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/repository"
	"uni_exam_backend/internal/util"
	"uni_exam_backend/pkg/logger"
	"uni_exam_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProctorService 记录监考事件并维护违规计数。
// 计数只增不减，服务端数值是唯一权威来源。
type ProctorService struct {
	ParticipantRepo *repository.ParticipantRepository
	Redis           *redis.Client
	Defaults        config.ExamConfig
}

func NewProctorService(participantRepo *repository.ParticipantRepository, rdb *redis.Client, defaults config.ExamConfig) *ProctorService {
	return &ProctorService{
		ParticipantRepo: participantRepo,
		Redis:           rdb,
		Defaults:        defaults,
	}
}

// ViolationState 上报事件后的最新违规状态
type ViolationState struct {
	FullscreenExits int     `json:"fullscreenExits"`
	TabSwitches     int     `json:"tabSwitches"`
	PenaltyPercent  float64 `json:"penaltyPercent"`
	PenaltyCapped   bool    `json:"penaltyCapped"`
}

// PenaltyPercent 由违规次数派生扣分百分比：每次违规扣 perViolation，
// 累计不超过 cap。相同输入恒产生相同输出。
func PenaltyPercent(violations int, perViolation, cap float64) float64 {
	if violations <= 0 || perViolation <= 0 {
		return 0
	}
	penalty := float64(violations) * perViolation
	if cap > 0 && penalty > cap {
		penalty = cap
	}
	return penalty
}

// effectivePenaltyParams 单场考试可覆盖全局扣分参数
func effectivePenaltyParams(exam *model.Exam, defaults config.ExamConfig) (perViolation, cap float64) {
	perViolation = defaults.PenaltyPerViolation
	cap = defaults.PenaltyCap
	if exam != nil {
		if exam.PenaltyPerViolation > 0 {
			perViolation = exam.PenaltyPerViolation
		}
		if exam.PenaltyCap > 0 {
			cap = exam.PenaltyCap
		}
	}
	return perViolation, cap
}

// RecordFullscreenExit 全屏退出违规：自增计数并重新派生扣分。
// eventID 非空时用于网络重试去重，重复事件不重复计数。
func (s *ProctorService) RecordFullscreenExit(participantID, studentID uint, eventID string) (*ViolationState, error) {
	participant, err := s.loadActiveParticipant(participantID, studentID)
	if err != nil {
		return nil, err
	}

	if s.isDuplicateEvent(participantID, eventID) {
		logger.Log.Debug("Duplicate proctor event ignored",
			zap.Uint("participantId", participantID),
			zap.String("eventId", eventID))
		return s.currentState(participant.ID, participant.Exam)
	}

	if err := s.ParticipantRepo.IncrementFullscreenExits(participantID); err != nil {
		return nil, err
	}
	monitoring.ProctorViolations.WithLabelValues("exit").Inc()
	if err := s.ParticipantRepo.CreateEvent(model.NewFullscreenEvent(participantID, "exit", eventID)); err != nil {
		return nil, err
	}

	state, err := s.currentState(participantID, participant.Exam)
	if err != nil {
		return nil, err
	}
	if err := s.ParticipantRepo.UpdatePenalty(participantID, state.PenaltyPercent); err != nil {
		return nil, err
	}

	logger.Log.Warn("Fullscreen exit recorded",
		zap.Uint("participantId", participantID),
		zap.Int("fullscreenExits", state.FullscreenExits),
		zap.Float64("penaltyPercent", state.PenaltyPercent))
	return state, nil
}

// RecordFullscreenReturn 回到全屏只记流水，不影响计数和扣分
func (s *ProctorService) RecordFullscreenReturn(participantID, studentID uint, eventID string) (*ViolationState, error) {
	participant, err := s.loadActiveParticipant(participantID, studentID)
	if err != nil {
		return nil, err
	}

	if !s.isDuplicateEvent(participantID, eventID) {
		if err := s.ParticipantRepo.CreateEvent(model.NewFullscreenEvent(participantID, "return", eventID)); err != nil {
			return nil, err
		}
	}
	return s.currentState(participantID, participant.Exam)
}

// RecordTabSwitch 切屏计数单独维护，上报教务系统但不参与扣分
func (s *ProctorService) RecordTabSwitch(participantID, studentID uint, eventID string) (*ViolationState, error) {
	participant, err := s.loadActiveParticipant(participantID, studentID)
	if err != nil {
		return nil, err
	}

	if s.isDuplicateEvent(participantID, eventID) {
		return s.currentState(participant.ID, participant.Exam)
	}

	if err := s.ParticipantRepo.IncrementTabSwitches(participantID); err != nil {
		return nil, err
	}
	monitoring.ProctorViolations.WithLabelValues("tab_switch").Inc()
	if err := s.ParticipantRepo.CreateEvent(model.NewFullscreenEvent(participantID, "tab_switch", eventID)); err != nil {
		return nil, err
	}
	return s.currentState(participantID, participant.Exam)
}

// Events attempt 的事件流水，供教师端审计
func (s *ProctorService) Events(participantID uint) ([]model.FullscreenEvent, error) {
	return s.ParticipantRepo.EventsByParticipant(participantID)
}

func (s *ProctorService) loadActiveParticipant(participantID, studentID uint) (*model.ExamParticipant, error) {
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
	return participant, nil
}

// isDuplicateEvent 用 Redis SETNX 对带 eventID 的事件做 24 小时去重。
// Redis 不可用时放行，宁可重计也不丢事件。
func (s *ProctorService) isDuplicateEvent(participantID uint, eventID string) bool {
	if s.Redis == nil || eventID == "" {
		return false
	}
	key := fmt.Sprintf("proctor:event:%d:%s", participantID, eventID)
	ok, err := s.Redis.SetNX(context.Background(), key, 1, 24*time.Hour).Result()
	if err != nil {
		logger.Log.Warn("Proctor event dedup check failed", zap.Error(err))
		return false
	}
	return !ok
}

func (s *ProctorService) currentState(participantID uint, exam *model.Exam) (*ViolationState, error) {
	participant, err := s.ParticipantRepo.FindByID(participantID)
	if err != nil {
		return nil, err
	}
	perViolation, cap := effectivePenaltyParams(exam, s.Defaults)
	penalty := PenaltyPercent(participant.FullscreenExits, perViolation, cap)
	return &ViolationState{
		FullscreenExits: participant.FullscreenExits,
		TabSwitches:     participant.TabSwitches,
		PenaltyPercent:  penalty,
		PenaltyCapped:   cap > 0 && penalty >= cap,
	}, nil
}
