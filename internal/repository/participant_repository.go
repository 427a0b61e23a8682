package repository

import (
	"uni_exam_backend/internal/model"

	"gorm.io/gorm"
)

type ParticipantRepository struct {
	DB *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

func (r *ParticipantRepository) Create(p *model.ExamParticipant) error {
	return r.DB.Create(p).Error
}

func (r *ParticipantRepository) Update(p *model.ExamParticipant) error {
	return r.DB.Save(p).Error
}

func (r *ParticipantRepository) FindByID(id uint) (*model.ExamParticipant, error) {
	var p model.ExamParticipant
	if err := r.DB.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) FindByIDWithExam(id uint) (*model.ExamParticipant, error) {
	var p model.ExamParticipant
	if err := r.DB.Preload("Exam").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByExamAndStudent 按 attempt 序号升序返回该学生在该考试的全部 attempt
func (r *ParticipantRepository) FindByExamAndStudent(examID, studentID uint) ([]model.ExamParticipant, error) {
	var attempts []model.ExamParticipant
	err := r.DB.Where("exam_id = ? AND student_id = ?", examID, studentID).
		Order("attempt_number ASC").Find(&attempts).Error
	return attempts, err
}

func (r *ParticipantRepository) FindByStudent(studentID uint) ([]model.ExamParticipant, error) {
	var attempts []model.ExamParticipant
	err := r.DB.Preload("Exam").Where("student_id = ?", studentID).
		Order("created_at DESC").Find(&attempts).Error
	return attempts, err
}

func (r *ParticipantRepository) FindByExam(examID uint) ([]model.ExamParticipant, error) {
	var attempts []model.ExamParticipant
	err := r.DB.Where("exam_id = ?", examID).
		Order("student_id ASC, attempt_number ASC").Find(&attempts).Error
	return attempts, err
}

// IncrementFullscreenExits 原子自增，保证并发违规上报不丢计数
func (r *ParticipantRepository) IncrementFullscreenExits(id uint) error {
	return r.DB.Model(&model.ExamParticipant{}).Where("id = ?", id).
		UpdateColumn("fullscreen_exits", gorm.Expr("fullscreen_exits + 1")).Error
}

func (r *ParticipantRepository) IncrementTabSwitches(id uint) error {
	return r.DB.Model(&model.ExamParticipant{}).Where("id = ?", id).
		UpdateColumn("tab_switches", gorm.Expr("tab_switches + 1")).Error
}

func (r *ParticipantRepository) UpdatePenalty(id uint, penaltyPercent float64) error {
	return r.DB.Model(&model.ExamParticipant{}).Where("id = ?", id).
		UpdateColumn("penalty_percent", penaltyPercent).Error
}

// FindNeedingReview 评分未完成、等待教师复核的 attempt
func (r *ParticipantRepository) FindNeedingReview(examID uint) ([]model.ExamParticipant, error) {
	var attempts []model.ExamParticipant
	err := r.DB.Where("exam_id = ? AND (needs_review = ? OR status = ?)",
		examID, true, model.AttemptCompleted).
		Order("completed_at ASC").Find(&attempts).Error
	return attempts, err
}

type AttemptStats struct {
	Total        int64   `json:"total"`
	Completed    int64   `json:"completed"`
	AverageScore float64 `json:"averageScore"`
	PassRate     float64 `json:"passRate"`
}

func (r *ParticipantRepository) StatsByExam(examID uint, passingScore float64) (*AttemptStats, error) {
	var stats AttemptStats

	if err := r.DB.Model(&model.ExamParticipant{}).
		Where("exam_id = ?", examID).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	// 每条查询都从 r.DB 重新起链，链式对象不复用
	terminal := []model.AttemptStatus{model.AttemptCompleted, model.AttemptReviewed}
	if err := r.DB.Model(&model.ExamParticipant{}).
		Where("exam_id = ? AND status IN ?", examID, terminal).
		Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if stats.Completed == 0 {
		return &stats, nil
	}

	var avg *float64
	if err := r.DB.Model(&model.ExamParticipant{}).
		Where("exam_id = ? AND status IN ?", examID, terminal).
		Select("AVG(final_score)").Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		stats.AverageScore = *avg
	}

	var passed int64
	err := r.DB.Model(&model.ExamParticipant{}).
		Where("exam_id = ? AND status IN ? AND final_score >= ?", examID, terminal, passingScore).
		Count(&passed).Error
	if err != nil {
		return nil, err
	}
	stats.PassRate = float64(passed) / float64(stats.Completed) * 100
	return &stats, nil
}

func (r *ParticipantRepository) CreateEvent(event *model.FullscreenEvent) error {
	return r.DB.Create(event).Error
}

func (r *ParticipantRepository) EventsByParticipant(participantID uint) ([]model.FullscreenEvent, error) {
	var events []model.FullscreenEvent
	err := r.DB.Where("participant_id = ?", participantID).
		Order("created_at ASC").Find(&events).Error
	return events, err
}
