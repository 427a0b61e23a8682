package model

import "time"

// swagger:model Exam
type Exam struct {
	BaseModel
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CourseCode  string    `gorm:"size:50;index" json:"courseCode"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	// 考试时长（分钟），从学生点击开始计时，独立于报名窗口
	Duration     int     `gorm:"default:60" json:"duration"`
	TotalPoints  float64 `gorm:"default:100" json:"totalPoints"`
	PassingScore float64 `gorm:"default:60" json:"passingScore"`

	// 重考策略：AllowRetakes 为 false 时只允许一次考试机会；
	// MaxRetakes < 0 表示不限次数
	AllowRetakes bool `gorm:"default:false" json:"allowRetakes"`
	MaxRetakes   int  `gorm:"default:0" json:"maxRetakes"`

	// 违规扣分参数，为 0 时使用全局默认值
	PenaltyPerViolation float64 `gorm:"default:0" json:"penaltyPerViolation"`
	PenaltyCap          float64 `gorm:"default:0" json:"penaltyCap"`

	CreatorID uint           `gorm:"index;type:bigint unsigned" json:"creatorId"`
	Published bool           `gorm:"default:false" json:"published"`
	Questions []ExamQuestion `gorm:"foreignKey:ExamID" json:"questions,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

// WindowOpen 报名/作答窗口是否开放
func (e *Exam) WindowOpen(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// UnlimitedRetakes 是否允许无限次重考
func (e *Exam) UnlimitedRetakes() bool {
	return e.AllowRetakes && e.MaxRetakes < 0
}

// MaxAttempts 允许的最大考试次数（首考 + 重考），无限时返回 0
func (e *Exam) MaxAttempts() int {
	if !e.AllowRetakes {
		return 1
	}
	if e.MaxRetakes < 0 {
		return 0
	}
	return e.MaxRetakes + 1
}

// swagger:model ExamQuestion
type ExamQuestion struct {
	BaseModel
	ExamID     uint    `gorm:"index;type:bigint unsigned" json:"examId"`
	Content    string  `gorm:"type:text;not null" json:"content"`
	Points     float64 `gorm:"default:10" json:"points"`
	OrderIndex int     `gorm:"default:0" json:"orderIndex"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}
