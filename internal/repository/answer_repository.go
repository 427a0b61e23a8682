package repository

import (
	"time"

	"uni_exam_backend/internal/model"

	"gorm.io/gorm"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

// Upsert 同一 (participant, question) 只保留最新一次提交
func (r *AnswerRepository) Upsert(participantID, questionID uint, content string, submittedAt time.Time) (*model.ExamAnswer, error) {
	var existing model.ExamAnswer
	err := r.DB.Where("participant_id = ? AND question_id = ?", participantID, questionID).
		First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if existing.ID == 0 {
		answer := model.ExamAnswer{
			ParticipantID: participantID,
			QuestionID:    questionID,
			Content:       content,
			SubmittedAt:   submittedAt,
		}
		if err := r.DB.Create(&answer).Error; err != nil {
			return nil, err
		}
		return &answer, nil
	}

	existing.Content = content
	existing.SubmittedAt = submittedAt
	if err := r.DB.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *AnswerRepository) FindByParticipant(participantID uint) ([]model.ExamAnswer, error) {
	var answers []model.ExamAnswer
	err := r.DB.Where("participant_id = ?", participantID).
		Order("question_id ASC").Find(&answers).Error
	return answers, err
}

func (r *AnswerRepository) FindByParticipantAndQuestion(participantID, questionID uint) (*model.ExamAnswer, error) {
	var answer model.ExamAnswer
	err := r.DB.Where("participant_id = ? AND question_id = ?", participantID, questionID).
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerRepository) CountByParticipant(participantID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamAnswer{}).
		Where("participant_id = ?", participantID).Count(&count).Error
	return count, err
}
