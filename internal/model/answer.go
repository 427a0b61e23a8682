package model

import "time"

// ExamAnswer 学生对单道题的最新作答，重复提交覆盖旧值
// swagger:model ExamAnswer
type ExamAnswer struct {
	BaseModel
	ParticipantID uint   `gorm:"uniqueIndex:idx_participant_question;type:bigint unsigned" json:"participantId"`
	QuestionID    uint   `gorm:"uniqueIndex:idx_participant_question;type:bigint unsigned" json:"questionId"`
	Content       string `gorm:"type:text" json:"content"`
	SubmittedAt   time.Time `json:"submittedAt"`

	// 评分结果，完成考试时写入
	Score             float64    `gorm:"default:0" json:"score"`
	KeywordsMatched   int        `gorm:"default:0" json:"keywordsMatched"`
	TotalKeywords     int        `gorm:"default:0" json:"totalKeywords"`
	KeywordScore      float64    `gorm:"default:0" json:"keywordScore"`
	ContentSimilarity float64    `gorm:"default:0" json:"contentSimilarity"`
	TotalSimilarity   float64    `gorm:"default:0" json:"totalSimilarity"`
	GradedAt          *time.Time `json:"gradedAt,omitempty"`
	// remote 或 local，未评分时为空
	GradedBy string `gorm:"size:20" json:"gradedBy,omitempty"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}
