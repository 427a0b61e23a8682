package model

import "time"

// AttemptStatus 一次考试参与记录的生命周期状态
type AttemptStatus string

const (
	AttemptRegistered AttemptStatus = "registered"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptReviewed   AttemptStatus = "reviewed"
)

// Terminal 终态不再参与重考次数之外的任何流转
func (s AttemptStatus) Terminal() bool {
	return s == AttemptCompleted || s == AttemptReviewed
}

// Active 学生是否仍可提交答案
func (s AttemptStatus) Active() bool {
	return s == AttemptInProgress
}

var attemptTransitions = map[AttemptStatus]AttemptStatus{
	AttemptRegistered: AttemptInProgress,
	AttemptInProgress: AttemptCompleted,
	AttemptCompleted:  AttemptReviewed,
}

// CanTransitionTo 状态机只允许 registered → in_progress → completed → reviewed
func (s AttemptStatus) CanTransitionTo(next AttemptStatus) bool {
	return attemptTransitions[s] == next
}

// ExamParticipant 学生在某场考试中的一次 attempt
// swagger:model ExamParticipant
type ExamParticipant struct {
	BaseModel
	ExamID    uint `gorm:"index:idx_exam_student;type:bigint unsigned" json:"examId"`
	StudentID uint `gorm:"index:idx_exam_student;type:bigint unsigned" json:"studentId"`
	// 同一学生在同一考试中的第几次 attempt，从 1 开始
	AttemptNumber int           `gorm:"default:1" json:"attemptNumber"`
	Status        AttemptStatus `gorm:"size:20;default:'registered'" json:"status"`
	StartedAt     *time.Time    `json:"startedAt,omitempty"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`

	// 全屏违规计数与由此派生的扣分百分比
	FullscreenExits int     `gorm:"default:0" json:"fullscreenExits"`
	TabSwitches     int     `gorm:"default:0" json:"tabSwitches"`
	PenaltyPercent  float64 `gorm:"default:0" json:"penaltyPercent"`

	RawScore   float64 `gorm:"default:0" json:"rawScore"`
	FinalScore float64 `gorm:"default:0" json:"finalScore"`
	// 评分服务不可用导致部分答案未评分时置位，等待教师复核
	NeedsReview bool `gorm:"default:false" json:"needsReview"`

	Exam *Exam `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
}

func (ExamParticipant) TableName() string {
	return "exam_participants"
}

// Deadline 作答截止时间，未开始时返回零值
func (p *ExamParticipant) Deadline(durationMinutes int) time.Time {
	if p.StartedAt == nil {
		return time.Time{}
	}
	return p.StartedAt.Add(time.Duration(durationMinutes) * time.Minute)
}
