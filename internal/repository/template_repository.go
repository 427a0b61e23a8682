package repository

import (
	"uni_exam_backend/internal/model"

	"gorm.io/gorm"
)

type TemplateRepository struct {
	DB *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

// Upsert 每道题只保留一份参考答案
func (r *TemplateRepository) Upsert(template *model.ExamAnswerTemplate) error {
	var existing model.ExamAnswerTemplate
	err := r.DB.Where("question_id = ?", template.QuestionID).First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	if existing.ID == 0 {
		return r.DB.Create(template).Error
	}

	existing.Content = template.Content
	existing.Keywords = template.Keywords
	existing.MinMatchPercent = template.MinMatchPercent
	if err := r.DB.Save(&existing).Error; err != nil {
		return err
	}
	template.ID = existing.ID
	return nil
}

func (r *TemplateRepository) FindByQuestion(questionID uint) (*model.ExamAnswerTemplate, error) {
	var template model.ExamAnswerTemplate
	err := r.DB.Where("question_id = ?", questionID).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) FindByExam(examID uint) ([]model.ExamAnswerTemplate, error) {
	var templates []model.ExamAnswerTemplate
	err := r.DB.Where("exam_id = ?", examID).
		Order("question_id ASC").Find(&templates).Error
	return templates, err
}

func (r *TemplateRepository) DeleteByQuestion(questionID uint) error {
	return r.DB.Where("question_id = ?", questionID).Delete(&model.ExamAnswerTemplate{}).Error
}
