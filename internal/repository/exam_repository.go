package repository

import (
	"time"

	"uni_exam_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(exam *model.Exam) error {
	return r.DB.Create(exam).Error
}

func (r *ExamRepository) Update(exam *model.Exam) error {
	return r.DB.Save(exam).Error
}

func (r *ExamRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Exam{}, id).Error
}

func (r *ExamRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.DB.First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) FindByIDWithQuestions(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC, id ASC")
	}).First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) ListPublished(page, limit int) ([]model.Exam, int64, error) {
	var exams []model.Exam
	var total int64

	query := r.DB.Model(&model.Exam{}).Where("published = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("start_time ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&exams).Error
	return exams, total, err
}

func (r *ExamRepository) ListUpcoming(now time.Time, limit int) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Where("published = ? AND end_time > ?", true, now).
		Order("start_time ASC").Limit(limit).
		Find(&exams).Error
	return exams, err
}

func (r *ExamRepository) ListByCreator(creatorID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Where("creator_id = ?", creatorID).
		Order("created_at DESC").Find(&exams).Error
	return exams, err
}

func (r *ExamRepository) CreateQuestion(question *model.ExamQuestion) error {
	return r.DB.Create(question).Error
}

func (r *ExamRepository) UpdateQuestion(question *model.ExamQuestion) error {
	return r.DB.Save(question).Error
}

func (r *ExamRepository) DeleteQuestion(id uint) error {
	return r.DB.Delete(&model.ExamQuestion{}, id).Error
}

func (r *ExamRepository) FindQuestionByID(id uint) (*model.ExamQuestion, error) {
	var question model.ExamQuestion
	if err := r.DB.First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *ExamRepository) QuestionsByExam(examID uint) ([]model.ExamQuestion, error) {
	var questions []model.ExamQuestion
	err := r.DB.Where("exam_id = ?", examID).
		Order("order_index ASC, id ASC").Find(&questions).Error
	return questions, err
}

func (r *ExamRepository) CountQuestions(examID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamQuestion{}).Where("exam_id = ?", examID).Count(&count).Error
	return count, err
}
