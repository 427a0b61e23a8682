package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"uni_exam_backend/internal/config"
	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/repository"
	"uni_exam_backend/internal/util"
	"uni_exam_backend/pkg/logger"
	"uni_exam_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletionService 完成考试的协调器：评分、扣分、同步教务系统、
// 落库并异步归档。同一 attempt 的完成请求串行执行。
type CompletionService struct {
	DB              *gorm.DB
	ExamRepo        *repository.ExamRepository
	ParticipantRepo *repository.ParticipantRepository
	AnswerRepo      *repository.AnswerRepository
	Grader          *GradingService
	Records         *RecordsClient
	Storage         *StorageService
	Defaults        config.ExamConfig

	locks sync.Map
}

func NewCompletionService(
	db *gorm.DB,
	examRepo *repository.ExamRepository,
	participantRepo *repository.ParticipantRepository,
	answerRepo *repository.AnswerRepository,
	grader *GradingService,
	records *RecordsClient,
	storage *StorageService,
	defaults config.ExamConfig,
) *CompletionService {
	return &CompletionService{
		DB:              db,
		ExamRepo:        examRepo,
		ParticipantRepo: participantRepo,
		AnswerRepo:      answerRepo,
		Grader:          grader,
		Records:         records,
		Storage:         storage,
		Defaults:        defaults,
	}
}

// ClientPenaltyReport 客户端随完成请求附带的违规自报，仅作对账参考，
// 服务端计数始终是权威值
type ClientPenaltyReport struct {
	FullscreenExits int `json:"fullscreenExits"`
	TabSwitches     int `json:"tabSwitches"`
}

// CompletionResult 完成考试的最终结果
type CompletionResult struct {
	Participant    *model.ExamParticipant `json:"participant"`
	RawScore       float64                `json:"rawScore"`
	PenaltyPercent float64                `json:"penaltyPercent"`
	FinalScore     float64                `json:"finalScore"`
	Passed         bool                   `json:"passed"`
	QuestionScores []ScoreBreakdown       `json:"questionScores"`
	// 部分答案因评分服务不可用未评分，等待教师复核
	NeedsReview bool        `json:"needsReview"`
	RecordsAck  *RecordsAck `json:"recordsAck,omitempty"`
}

// lockFor 每个 attempt 一把互斥锁，保证完成流程单写者
func (s *CompletionService) lockFor(participantID uint) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(participantID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *CompletionService) Complete(participantID, studentID uint, report *ClientPenaltyReport) (*CompletionResult, error) {
	lock := s.lockFor(participantID)
	lock.Lock()
	defer lock.Unlock()

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
	if !participant.Status.CanTransitionTo(model.AttemptCompleted) {
		return nil, util.ErrAttemptNotActive
	}
	exam := participant.Exam
	if exam == nil {
		return nil, util.ErrExamNotFound
	}

	if report != nil && report.FullscreenExits > participant.FullscreenExits {
		logger.Log.Warn("Client reported more violations than server recorded",
			zap.Uint("participantId", participantID),
			zap.Int("clientExits", report.FullscreenExits),
			zap.Int("serverExits", participant.FullscreenExits))
	}

	perViolation, cap := effectivePenaltyParams(exam, s.Defaults)
	penalty := PenaltyPercent(participant.FullscreenExits, perViolation, cap)

	scores, needsReview, err := s.gradeAnswers(exam, participant)
	if err != nil {
		return nil, err
	}

	rawScore := 0.0
	for _, b := range scores {
		rawScore += b.Score
	}
	if exam.TotalPoints > 0 && rawScore > exam.TotalPoints {
		rawScore = exam.TotalPoints
	}
	rawScore = Round2(rawScore)
	finalScore := Round2(rawScore * (1 - penalty/100))

	// 先同步教务系统：失败时不落任何本地状态，attempt 保持进行中，
	// 错误按第一种接口形态原样上抛
	var ack *RecordsAck
	if s.Records.Enabled() {
		ack, err = s.Records.CompleteAttempt(exam.ID, participantID, CompletionReport{
			FullscreenExits: participant.FullscreenExits,
			TabSwitches:     participant.TabSwitches,
			PenaltyPercent:  penalty,
			FinalScore:      finalScore,
		})
		if err != nil {
			logger.Log.Error("Records backend rejected completion",
				zap.Uint("participantId", participantID),
				zap.Error(err))
			return nil, err
		}
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range scores {
			update := map[string]interface{}{
				"score":              scores[i].Score,
				"keywords_matched":   scores[i].Similarity.KeywordsMatched,
				"total_keywords":     scores[i].Similarity.TotalKeywords,
				"keyword_score":      scores[i].Similarity.KeywordScore,
				"content_similarity": scores[i].Similarity.ContentSimilarity,
				"total_similarity":   scores[i].Similarity.TotalSimilarity,
				"graded_at":          now,
				"graded_by":          scores[i].GradedBy,
			}
			if err := tx.Model(&model.ExamAnswer{}).
				Where("participant_id = ? AND question_id = ?", participantID, scores[i].QuestionID).
				Updates(update).Error; err != nil {
				return err
			}
		}

		participant.Status = model.AttemptCompleted
		participant.CompletedAt = &now
		participant.PenaltyPercent = penalty
		participant.RawScore = rawScore
		participant.FinalScore = finalScore
		participant.NeedsReview = needsReview
		return tx.Save(participant).Error
	})
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{
		Participant:    participant,
		RawScore:       rawScore,
		PenaltyPercent: penalty,
		FinalScore:     finalScore,
		Passed:         finalScore >= exam.PassingScore,
		QuestionScores: scores,
		NeedsReview:    needsReview,
		RecordsAck:     ack,
	}

	gradedBy := "local"
	if s.Grader != nil && s.Grader.Remote.Enabled() {
		gradedBy = "remote"
	}
	monitoring.AttemptCompletions.WithLabelValues(gradedBy, strconv.FormatBool(needsReview)).Inc()

	go s.archive(exam.ID, participantID, result)

	logger.Log.Info("Exam attempt completed",
		zap.Uint("participantId", participantID),
		zap.Float64("rawScore", rawScore),
		zap.Float64("penaltyPercent", penalty),
		zap.Float64("finalScore", finalScore),
		zap.Bool("needsReview", needsReview))
	return result, nil
}

// gradeAnswers 逐题评分。未作答的题记 0 分；评分服务整体不可用的
// 答案保持未评分并标记复核，不编造分数。
func (s *CompletionService) gradeAnswers(exam *model.Exam, participant *model.ExamParticipant) ([]ScoreBreakdown, bool, error) {
	questions, err := s.ExamRepo.QuestionsByExam(exam.ID)
	if err != nil {
		return nil, false, err
	}
	answers, err := s.AnswerRepo.FindByParticipant(participant.ID)
	if err != nil {
		return nil, false, err
	}
	answerByQuestion := make(map[uint]*model.ExamAnswer, len(answers))
	for i := range answers {
		answerByQuestion[answers[i].QuestionID] = &answers[i]
	}

	scores := make([]ScoreBreakdown, 0, len(questions))
	needsReview := false
	for i := range questions {
		question := &questions[i]
		answer, ok := answerByQuestion[question.ID]
		if !ok {
			scores = append(scores, ScoreBreakdown{
				QuestionID: question.ID,
				MaxPoints:  question.Points,
				GradedBy:   "local",
			})
			continue
		}

		breakdown, err := s.Grader.Grade(exam.ID, participant.ID, question, answer.Content)
		if err != nil {
			if errors.Is(err, util.ErrGradingUnavailable) {
				logger.Log.Warn("Answer left ungraded, grading unavailable",
					zap.Uint("participantId", participant.ID),
					zap.Uint("questionId", question.ID))
				needsReview = true
				continue
			}
			return nil, false, err
		}
		scores = append(scores, *breakdown)
	}
	return scores, needsReview, nil
}

func (s *CompletionService) archive(examID, participantID uint, result *CompletionResult) {
	if s.Storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url, err := s.Storage.ArchiveCompletion(ctx, examID, participantID, result)
	if err != nil {
		logger.Log.Error("Failed to archive completion snapshot",
			zap.Uint("participantId", participantID),
			zap.Error(err))
		return
	}
	logger.Log.Info("Completion snapshot archived",
		zap.Uint("participantId", participantID),
		zap.String("url", url))
}
