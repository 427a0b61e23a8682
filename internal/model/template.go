package model

import "encoding/json"

// ExamAnswerTemplate 教师为每道题维护的参考答案，本地评分的依据
// swagger:model ExamAnswerTemplate
type ExamAnswerTemplate struct {
	BaseModel
	ExamID     uint            `gorm:"index;type:bigint unsigned" json:"examId"`
	QuestionID uint            `gorm:"uniqueIndex;type:bigint unsigned" json:"questionId"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Keywords   json.RawMessage `gorm:"type:json" json:"keywords"`
	// 低于该相似度的答案会被标记为需要复核，0 表示不启用
	MinMatchPercent float64 `gorm:"default:0" json:"minMatchPercent"`
	CreatorID       uint    `gorm:"type:bigint unsigned" json:"creatorId"`
}

func (ExamAnswerTemplate) TableName() string {
	return "exam_answer_templates"
}

// KeywordList 解析 JSON 关键词数组，内容损坏时按空列表处理
func (t *ExamAnswerTemplate) KeywordList() []string {
	if len(t.Keywords) == 0 {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal(t.Keywords, &keywords); err != nil {
		return nil
	}
	return keywords
}
