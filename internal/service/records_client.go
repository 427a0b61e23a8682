package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"uni_exam_backend/internal/config"
	"uni_exam_backend/pkg/logger"

	"go.uber.org/zap"
)

// RecordsClient 对接教务成绩系统。该系统经历过多次接口改版，
// 三代完成接口并存且不同部署只保留其中一种，因此按新到旧的顺序
// 依次尝试，先成功者生效；全部失败时报告第一种形态的错误。
type RecordsClient struct {
	baseURL string
	client  *http.Client
}

func NewRecordsClient(cfg config.RecordsConfig) *RecordsClient {
	return &RecordsClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (c *RecordsClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// CompletionReport 完成考试时上报给教务系统的诚信数据
type CompletionReport struct {
	FullscreenExits int     `json:"fullscreenExits"`
	TabSwitches     int     `json:"tabSwitches"`
	PenaltyPercent  float64 `json:"penaltyPercent"`
	FinalScore      float64 `json:"finalScore"`
}

type RecordsAck struct {
	Status  string   `json:"status,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Message string   `json:"message,omitempty"`
}

func (c *RecordsClient) CompleteAttempt(examID, participantID uint, report CompletionReport) (*RecordsAck, error) {
	urls := []string{
		fmt.Sprintf("%s/api/exams/%d/participants/%d/complete", c.baseURL, examID, participantID),
		fmt.Sprintf("%s/api/exams/participants/%d/complete", c.baseURL, participantID),
		fmt.Sprintf("%s/api/exams/%d/complete", c.baseURL, participantID),
	}

	var firstErr error
	for i, url := range urls {
		ack, err := c.postCompletion(url, report)
		if err == nil {
			if i > 0 {
				logger.Log.Info("Records backend completed via fallback endpoint",
					zap.Int("variant", i+1),
					zap.Uint("participantId", participantID))
			}
			return ack, nil
		}
		if i == 0 {
			firstErr = err
		}
		logger.Log.Debug("Records endpoint variant failed",
			zap.String("url", url),
			zap.Error(err))
	}
	return nil, firstErr
}

func (c *RecordsClient) postCompletion(url string, report CompletionReport) (*RecordsAck, error) {
	jsonData, err := json.Marshal(report)
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
		return nil, readAPIError("records", resp)
	}

	var ack RecordsAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
