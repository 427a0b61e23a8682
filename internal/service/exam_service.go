package service

import (
	"encoding/json"
	"errors"
	"time"

	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/repository"
	"uni_exam_backend/internal/util"
	"uni_exam_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExamService 考试目录与教师端管理
type ExamService struct {
	ExamRepo        *repository.ExamRepository
	TemplateRepo    *repository.TemplateRepository
	ParticipantRepo *repository.ParticipantRepository
}

func NewExamService(examRepo *repository.ExamRepository, templateRepo *repository.TemplateRepository, participantRepo *repository.ParticipantRepository) *ExamService {
	return &ExamService{
		ExamRepo:        examRepo,
		TemplateRepo:    templateRepo,
		ParticipantRepo: participantRepo,
	}
}

func (s *ExamService) ListExams(page, limit int) ([]model.Exam, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.ExamRepo.ListPublished(page, limit)
}

func (s *ExamService) UpcomingExams(limit int) ([]model.Exam, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return s.ExamRepo.ListUpcoming(time.Now(), limit)
}

// GetExam 学生视角的考试详情，未发布的考试不可见。
// 题目内容仅在作答窗口内返回。
func (s *ExamService) GetExam(examID uint) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByIDWithQuestions(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	if !exam.Published {
		return nil, util.ErrExamNotFound
	}
	if !exam.WindowOpen(time.Now()) {
		exam.Questions = nil
	}
	return exam, nil
}

// ExamInput 创建/更新考试的字段
type ExamInput struct {
	Title               string    `json:"title" binding:"required"`
	Description         string    `json:"description"`
	CourseCode          string    `json:"courseCode"`
	StartTime           time.Time `json:"startTime" binding:"required"`
	EndTime             time.Time `json:"endTime" binding:"required"`
	Duration            int       `json:"duration"`
	TotalPoints         float64   `json:"totalPoints"`
	PassingScore        float64   `json:"passingScore"`
	AllowRetakes        bool      `json:"allowRetakes"`
	MaxRetakes          int       `json:"maxRetakes"`
	PenaltyPerViolation float64   `json:"penaltyPerViolation"`
	PenaltyCap          float64   `json:"penaltyCap"`
	Published           bool      `json:"published"`
}

func (s *ExamService) CreateExam(creatorID uint, input *ExamInput) (*model.Exam, error) {
	exam := &model.Exam{
		Title:               input.Title,
		Description:         input.Description,
		CourseCode:          input.CourseCode,
		StartTime:           input.StartTime,
		EndTime:             input.EndTime,
		Duration:            input.Duration,
		TotalPoints:         input.TotalPoints,
		PassingScore:        input.PassingScore,
		AllowRetakes:        input.AllowRetakes,
		MaxRetakes:          input.MaxRetakes,
		PenaltyPerViolation: input.PenaltyPerViolation,
		PenaltyCap:          input.PenaltyCap,
		Published:           input.Published,
		CreatorID:           creatorID,
	}
	if exam.Duration <= 0 {
		exam.Duration = 60
	}
	if exam.TotalPoints <= 0 {
		exam.TotalPoints = 100
	}
	if err := s.ExamRepo.Create(exam); err != nil {
		return nil, err
	}

	logger.Log.Info("Exam created",
		zap.Uint("examId", exam.ID),
		zap.Uint("creatorId", creatorID),
		zap.String("title", exam.Title))
	return exam, nil
}

func (s *ExamService) UpdateExam(examID, teacherID uint, input *ExamInput) (*model.Exam, error) {
	exam, err := s.ownedExam(examID, teacherID)
	if err != nil {
		return nil, err
	}

	exam.Title = input.Title
	exam.Description = input.Description
	exam.CourseCode = input.CourseCode
	exam.StartTime = input.StartTime
	exam.EndTime = input.EndTime
	exam.Duration = input.Duration
	exam.TotalPoints = input.TotalPoints
	exam.PassingScore = input.PassingScore
	exam.AllowRetakes = input.AllowRetakes
	exam.MaxRetakes = input.MaxRetakes
	exam.PenaltyPerViolation = input.PenaltyPerViolation
	exam.PenaltyCap = input.PenaltyCap
	exam.Published = input.Published
	if err := s.ExamRepo.Update(exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// DeleteExam 已有学生报名的考试不允许删除
func (s *ExamService) DeleteExam(examID, teacherID uint) error {
	if _, err := s.ownedExam(examID, teacherID); err != nil {
		return err
	}
	participants, err := s.ParticipantRepo.FindByExam(examID)
	if err != nil {
		return err
	}
	if len(participants) > 0 {
		return util.ErrExamHasAttempts
	}

	logger.Log.Info("Exam deleted",
		zap.Uint("examId", examID),
		zap.Uint("teacherId", teacherID))
	return s.ExamRepo.Delete(examID)
}

// SetRetakePolicy 只调整重考策略，不动其他字段
func (s *ExamService) SetRetakePolicy(examID, teacherID uint, allowRetakes bool, maxRetakes int) (*model.Exam, error) {
	exam, err := s.ownedExam(examID, teacherID)
	if err != nil {
		return nil, err
	}
	exam.AllowRetakes = allowRetakes
	exam.MaxRetakes = maxRetakes
	if err := s.ExamRepo.Update(exam); err != nil {
		return nil, err
	}

	logger.Log.Info("Retake policy updated",
		zap.Uint("examId", examID),
		zap.Bool("allowRetakes", allowRetakes),
		zap.Int("maxRetakes", maxRetakes))
	return exam, nil
}

func (s *ExamService) ListByCreator(teacherID uint) ([]model.Exam, error) {
	return s.ExamRepo.ListByCreator(teacherID)
}

// QuestionInput 题目字段
type QuestionInput struct {
	Content    string  `json:"content" binding:"required"`
	Points     float64 `json:"points"`
	OrderIndex int     `json:"orderIndex"`
}

func (s *ExamService) AddQuestion(examID, teacherID uint, input *QuestionInput) (*model.ExamQuestion, error) {
	if _, err := s.ownedExam(examID, teacherID); err != nil {
		return nil, err
	}

	question := &model.ExamQuestion{
		ExamID:     examID,
		Content:    input.Content,
		Points:     input.Points,
		OrderIndex: input.OrderIndex,
	}
	if question.Points <= 0 {
		question.Points = 10
	}
	if err := s.ExamRepo.CreateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *ExamService) UpdateQuestion(questionID, teacherID uint, input *QuestionInput) (*model.ExamQuestion, error) {
	question, err := s.ExamRepo.FindQuestionByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if _, err := s.ownedExam(question.ExamID, teacherID); err != nil {
		return nil, err
	}

	question.Content = input.Content
	question.Points = input.Points
	question.OrderIndex = input.OrderIndex
	if err := s.ExamRepo.UpdateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

// DeleteQuestion 连同参考答案一并删除
func (s *ExamService) DeleteQuestion(questionID, teacherID uint) error {
	question, err := s.ExamRepo.FindQuestionByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuestionNotFound
		}
		return err
	}
	if _, err := s.ownedExam(question.ExamID, teacherID); err != nil {
		return err
	}

	if err := s.TemplateRepo.DeleteByQuestion(questionID); err != nil {
		return err
	}
	return s.ExamRepo.DeleteQuestion(questionID)
}

// TemplateInput 参考答案字段
type TemplateInput struct {
	Content         string   `json:"content" binding:"required"`
	Keywords        []string `json:"keywords"`
	MinMatchPercent float64  `json:"minMatchPercent"`
}

func (s *ExamService) SetTemplate(questionID, teacherID uint, input *TemplateInput) (*model.ExamAnswerTemplate, error) {
	question, err := s.ExamRepo.FindQuestionByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if _, err := s.ownedExam(question.ExamID, teacherID); err != nil {
		return nil, err
	}

	keywords, err := json.Marshal(input.Keywords)
	if err != nil {
		return nil, err
	}
	template := &model.ExamAnswerTemplate{
		ExamID:          question.ExamID,
		QuestionID:      questionID,
		Content:         input.Content,
		Keywords:        keywords,
		MinMatchPercent: input.MinMatchPercent,
		CreatorID:       teacherID,
	}
	if err := s.TemplateRepo.Upsert(template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *ExamService) TemplatesByExam(examID, teacherID uint) ([]model.ExamAnswerTemplate, error) {
	if _, err := s.ownedExam(examID, teacherID); err != nil {
		return nil, err
	}
	return s.TemplateRepo.FindByExam(examID)
}

// ExamStats 教师端统计，附带题量
type ExamStats struct {
	*repository.AttemptStats
	QuestionCount int64 `json:"questionCount"`
}

// Stats 教师端考试统计
func (s *ExamService) Stats(examID, teacherID uint) (*ExamStats, error) {
	exam, err := s.ownedExam(examID, teacherID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.ParticipantRepo.StatsByExam(examID, exam.PassingScore)
	if err != nil {
		return nil, err
	}
	questions, err := s.ExamRepo.CountQuestions(examID)
	if err != nil {
		return nil, err
	}
	return &ExamStats{AttemptStats: attempts, QuestionCount: questions}, nil
}

// Participants 某场考试的全部 attempt
func (s *ExamService) Participants(examID, teacherID uint) ([]model.ExamParticipant, error) {
	if _, err := s.ownedExam(examID, teacherID); err != nil {
		return nil, err
	}
	return s.ParticipantRepo.FindByExam(examID)
}

// ownedExam 管理操作要求考试归属当前教师，管理员放行由上层角色中间件处理
func (s *ExamService) ownedExam(examID, teacherID uint) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	if teacherID != 0 && exam.CreatorID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return exam, nil
}
