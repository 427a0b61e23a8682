package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"uni_exam_backend/internal/config"
	"uni_exam_backend/pkg/logger"

	"go.uber.org/zap"
)

// GradingClient 调用远端评分服务。该服务存在两代路由，
// 依次尝试，先成功者生效。
type GradingClient struct {
	baseURL string
	client  *http.Client
}

func NewGradingClient(cfg config.GradingConfig) *GradingClient {
	return &GradingClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (c *GradingClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type remoteGradeRequest struct {
	ParticipantID uint   `json:"participantId"`
	Answer        string `json:"answer"`
}

type RemoteGradeResult struct {
	Score             float64 `json:"score"`
	KeywordsMatched   int     `json:"keywordsMatched"`
	TotalKeywords     int     `json:"totalKeywords"`
	KeywordScore      float64 `json:"keywordScore"`
	ContentSimilarity float64 `json:"contentSimilarity"`
	TotalSimilarity   float64 `json:"totalSimilarity"`
}

func (c *GradingClient) GradeAnswer(examID, participantID, questionID uint, answer string) (*RemoteGradeResult, error) {
	urls := []string{
		fmt.Sprintf("%s/api/exams/%d/participants/%d/questions/%d/grade", c.baseURL, examID, participantID, questionID),
		fmt.Sprintf("%s/api/exams/%d/questions/%d/grade", c.baseURL, examID, questionID),
	}

	var firstErr error
	for i, url := range urls {
		result, err := c.postGrade(url, remoteGradeRequest{ParticipantID: participantID, Answer: answer})
		if err == nil {
			return result, nil
		}
		if i == 0 {
			firstErr = err
		}
		logger.Log.Debug("Grading endpoint variant failed",
			zap.String("url", url),
			zap.Error(err))
	}
	return nil, firstErr
}

func (c *GradingClient) postGrade(url string, payload remoteGradeRequest) (*RemoteGradeResult, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readAPIError("grading", resp)
	}

	var result RemoteGradeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// readAPIError 尽量保留对端返回的 message 字段
func readAPIError(api string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return fmt.Errorf("%s API error (status %d): %s", api, resp.StatusCode, envelope.Message)
	}
	return fmt.Errorf("%s API error (status %d): %s", api, resp.StatusCode, string(body))
}
