package service

import (
	"errors"
	"fmt"
	"time"

	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/repository"
	"uni_exam_backend/internal/util"
	"uni_exam_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResultsService 成绩查询与教师复核
type ResultsService struct {
	DB              *gorm.DB
	ExamRepo        *repository.ExamRepository
	ParticipantRepo *repository.ParticipantRepository
	AnswerRepo      *repository.AnswerRepository
}

func NewResultsService(db *gorm.DB, examRepo *repository.ExamRepository, participantRepo *repository.ParticipantRepository, answerRepo *repository.AnswerRepository) *ResultsService {
	return &ResultsService{
		DB:              db,
		ExamRepo:        examRepo,
		ParticipantRepo: participantRepo,
		AnswerRepo:      answerRepo,
	}
}

// AnswerResult 单题成绩，含题面与相似度明细
type AnswerResult struct {
	QuestionID uint    `json:"questionId"`
	Question   string  `json:"question"`
	MaxPoints  float64 `json:"maxPoints"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	Graded     bool    `json:"graded"`

	KeywordsMatched   int     `json:"keywordsMatched"`
	TotalKeywords     int     `json:"totalKeywords"`
	ContentSimilarity float64 `json:"contentSimilarity"`
	TotalSimilarity   float64 `json:"totalSimilarity"`
}

// AttemptResults 一次 attempt 的完整成绩单
type AttemptResults struct {
	Participant *model.ExamParticipant `json:"participant"`
	ExamTitle   string                 `json:"examTitle"`
	Answers     []AnswerResult         `json:"answers"`
}

func (s *ResultsService) FetchResults(participantID, requesterID uint, role model.UserRole) (*AttemptResults, error) {
	participant, err := s.ParticipantRepo.FindByIDWithExam(participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if role == model.Student && participant.StudentID != requesterID {
		return nil, util.ErrPermissionDenied
	}
	if !participant.Status.Terminal() {
		return nil, util.ErrAttemptNotCompleted
	}

	questions, err := s.ExamRepo.QuestionsByExam(participant.ExamID)
	if err != nil {
		return nil, err
	}
	answers, err := s.AnswerRepo.FindByParticipant(participantID)
	if err != nil {
		return nil, err
	}
	answerByQuestion := make(map[uint]*model.ExamAnswer, len(answers))
	for i := range answers {
		answerByQuestion[answers[i].QuestionID] = &answers[i]
	}

	results := &AttemptResults{Participant: participant}
	if participant.Exam != nil {
		results.ExamTitle = participant.Exam.Title
	}
	for i := range questions {
		q := &questions[i]
		item := AnswerResult{
			QuestionID: q.ID,
			Question:   q.Content,
			MaxPoints:  q.Points,
		}
		if a, ok := answerByQuestion[q.ID]; ok {
			item.Content = a.Content
			item.Score = a.Score
			item.Graded = a.GradedAt != nil
			item.KeywordsMatched = a.KeywordsMatched
			item.TotalKeywords = a.TotalKeywords
			item.ContentSimilarity = a.ContentSimilarity
			item.TotalSimilarity = a.TotalSimilarity
		}
		results.Answers = append(results.Answers, item)
	}
	return results, nil
}

// ScoreAdjustment 教师复核时对单题分数的改判
type ScoreAdjustment struct {
	QuestionID uint    `json:"questionId" binding:"required"`
	Score      float64 `json:"score"`
}

// normalizeAdjustments 校验改判条目：未知题目直接拒绝，
// 分数压到 [0, 题目满分] 区间
func normalizeAdjustments(adjustments []ScoreAdjustment, questions []model.ExamQuestion) ([]ScoreAdjustment, error) {
	maxPoints := make(map[uint]float64, len(questions))
	for i := range questions {
		maxPoints[questions[i].ID] = questions[i].Points
	}

	normalized := make([]ScoreAdjustment, 0, len(adjustments))
	for _, adj := range adjustments {
		limit, ok := maxPoints[adj.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %d: %w", adj.QuestionID, util.ErrQuestionNotFound)
		}
		score := adj.Score
		if score < 0 {
			score = 0
		}
		if score > limit {
			score = limit
		}
		normalized = append(normalized, ScoreAdjustment{QuestionID: adj.QuestionID, Score: score})
	}
	return normalized, nil
}

// Review 教师复核：改判题目分数、按原扣分比例重算最终分，
// 并把 attempt 推进到 reviewed 终态
func (s *ResultsService) Review(participantID, reviewerID uint, adjustments []ScoreAdjustment) (*model.ExamParticipant, error) {
	participant, err := s.ParticipantRepo.FindByIDWithExam(participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if !participant.Status.CanTransitionTo(model.AttemptReviewed) {
		return nil, util.ErrInvalidTransition
	}
	exam := participant.Exam
	if exam != nil && exam.CreatorID != 0 && exam.CreatorID != reviewerID {
		return nil, util.ErrPermissionDenied
	}

	questions, err := s.ExamRepo.QuestionsByExam(participant.ExamID)
	if err != nil {
		return nil, err
	}
	adjustments, err = normalizeAdjustments(adjustments, questions)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, adj := range adjustments {
			update := map[string]interface{}{
				"score":     Round2(adj.Score),
				"graded_at": now,
				"graded_by": "review",
			}
			res := tx.Model(&model.ExamAnswer{}).
				Where("participant_id = ? AND question_id = ?", participantID, adj.QuestionID).
				Updates(update)
			if res.Error != nil {
				return res.Error
			}
			// 学生没交过这题的答案，改判无处落地
			if res.RowsAffected == 0 {
				return fmt.Errorf("question %d: %w", adj.QuestionID, util.ErrAnswerNotFound)
			}
		}

		var raw *float64
		if err := tx.Model(&model.ExamAnswer{}).
			Where("participant_id = ?", participantID).
			Select("SUM(score)").Scan(&raw).Error; err != nil {
			return err
		}
		rawScore := 0.0
		if raw != nil {
			rawScore = *raw
		}
		if exam != nil && exam.TotalPoints > 0 && rawScore > exam.TotalPoints {
			rawScore = exam.TotalPoints
		}

		participant.RawScore = Round2(rawScore)
		participant.FinalScore = Round2(rawScore * (1 - participant.PenaltyPercent/100))
		participant.Status = model.AttemptReviewed
		participant.NeedsReview = false
		return tx.Save(participant).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Attempt reviewed",
		zap.Uint("participantId", participantID),
		zap.Uint("reviewerId", reviewerID),
		zap.Float64("finalScore", participant.FinalScore))
	return participant, nil
}

// PendingReview 某场考试下已完成、待复核的 attempt
func (s *ResultsService) PendingReview(examID uint) ([]model.ExamParticipant, error) {
	return s.ParticipantRepo.FindNeedingReview(examID)
}
