package service

import (
	"errors"
	"math"
	"strings"

	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/repository"
	"uni_exam_backend/internal/util"
	"uni_exam_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 本地评分权重：关键词覆盖 70%，文本相似度 30%
const (
	keywordWeight    = 0.7
	similarityWeight = 0.3
)

// SimilarityResult 单道题的相似度明细，所有百分比取值 0-100
type SimilarityResult struct {
	KeywordsMatched   int     `json:"keywordsMatched"`
	TotalKeywords     int     `json:"totalKeywords"`
	KeywordScore      float64 `json:"keywordScore"`
	ContentSimilarity float64 `json:"contentSimilarity"`
	TotalSimilarity   float64 `json:"totalSimilarity"`
}

// ScoreBreakdown 单道题的评分结果
type ScoreBreakdown struct {
	QuestionID uint             `json:"questionId"`
	Score      float64          `json:"score"`
	MaxPoints  float64          `json:"maxPoints"`
	Similarity SimilarityResult `json:"similarity"`
	// remote 或 local
	GradedBy string `json:"gradedBy"`
	// 相似度低于模板设定的最低匹配度
	BelowMinimum bool `json:"belowMinimum,omitempty"`
}

// CountKeywordMatches 统计答案中出现的关键词个数，不区分大小写，按子串匹配
func CountKeywordMatches(answer string, keywords []string) int {
	if answer == "" || len(keywords) == 0 {
		return 0
	}
	lowered := strings.ToLower(answer)
	matched := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, kw) {
			matched++
		}
	}
	return matched
}

// JaccardSimilarity 基于空白分词后词集合的 Jaccard 相似度，返回 0-100
func JaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union) * 100
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		set[word] = struct{}{}
	}
	return set
}

// CompareAnswer 本地评分：加权合成关键词覆盖率与文本相似度。
// 答案或模板为空时各项均为 0，关键词总数仍如实返回。
func CompareAnswer(answer, template string, keywords []string) SimilarityResult {
	result := SimilarityResult{TotalKeywords: len(keywords)}
	if strings.TrimSpace(answer) == "" || strings.TrimSpace(template) == "" {
		return result
	}

	result.KeywordsMatched = CountKeywordMatches(answer, keywords)
	if result.TotalKeywords > 0 {
		result.KeywordScore = float64(result.KeywordsMatched) / float64(result.TotalKeywords) * 100
	}
	result.ContentSimilarity = JaccardSimilarity(answer, template)
	result.TotalSimilarity = Round2(result.KeywordScore*keywordWeight + result.ContentSimilarity*similarityWeight)
	return result
}

// Round2 保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GradingService 评分引擎：优先调用远端评分服务，不可用时回退本地相似度评分。
// 两条路径都失败时返回 ErrGradingUnavailable，绝不编造分数。
type GradingService struct {
	TemplateRepo *repository.TemplateRepository
	ExamRepo     *repository.ExamRepository
	AnswerRepo   *repository.AnswerRepository
	Remote       *GradingClient
}

func NewGradingService(templateRepo *repository.TemplateRepository, examRepo *repository.ExamRepository, answerRepo *repository.AnswerRepository, remote *GradingClient) *GradingService {
	return &GradingService{
		TemplateRepo: templateRepo,
		ExamRepo:     examRepo,
		AnswerRepo:   answerRepo,
		Remote:       remote,
	}
}

// GradeSubmitted 即时评分：answer 为空时取该学生已提交的答案。
// 只返回评分结果，不写任何状态。
func (s *GradingService) GradeSubmitted(examID, participantID, questionID uint, answer string) (*ScoreBreakdown, error) {
	question, err := s.ExamRepo.FindQuestionByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if examID != 0 && question.ExamID != examID {
		return nil, util.ErrQuestionNotFound
	}

	if answer == "" && participantID != 0 {
		stored, err := s.AnswerRepo.FindByParticipantAndQuestion(participantID, questionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if stored != nil {
			answer = stored.Content
		}
	}

	return s.Grade(question.ExamID, participantID, question, answer)
}

func (s *GradingService) Grade(examID, participantID uint, question *model.ExamQuestion, answer string) (*ScoreBreakdown, error) {
	if s.Remote != nil && s.Remote.Enabled() {
		remote, err := s.Remote.GradeAnswer(examID, participantID, question.ID, answer)
		if err == nil {
			return &ScoreBreakdown{
				QuestionID: question.ID,
				Score:      Round2(math.Min(remote.Score, question.Points)),
				MaxPoints:  question.Points,
				Similarity: SimilarityResult{
					KeywordsMatched:   remote.KeywordsMatched,
					TotalKeywords:     remote.TotalKeywords,
					KeywordScore:      remote.KeywordScore,
					ContentSimilarity: remote.ContentSimilarity,
					TotalSimilarity:   remote.TotalSimilarity,
				},
				GradedBy: "remote",
			}, nil
		}
		logger.Log.Warn("Remote grading failed, falling back to local scoring",
			zap.Uint("questionId", question.ID),
			zap.Uint("participantId", participantID),
			zap.Error(err))
	}

	template, err := s.TemplateRepo.FindByQuestion(question.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGradingUnavailable
		}
		return nil, err
	}

	similarity := CompareAnswer(answer, template.Content, template.KeywordList())
	breakdown := &ScoreBreakdown{
		QuestionID: question.ID,
		Score:      Round2(similarity.TotalSimilarity / 100 * question.Points),
		MaxPoints:  question.Points,
		Similarity: similarity,
		GradedBy:   "local",
	}
	if template.MinMatchPercent > 0 && similarity.TotalSimilarity < template.MinMatchPercent {
		breakdown.BelowMinimum = true
	}
	return breakdown, nil
}
