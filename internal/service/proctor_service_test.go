package service

import (
	"testing"

	"uni_exam_backend/internal/config"
	"uni_exam_backend/internal/model"
)

func TestPenaltyPercent(t *testing.T) {
	tests := []struct {
		name         string
		violations   int
		perViolation float64
		cap          float64
		want         float64
	}{
		{"no violations", 0, 5, 30, 0},
		{"single violation", 1, 5, 30, 5},
		{"accumulates", 4, 5, 30, 20},
		{"exactly at cap", 6, 5, 30, 30},
		{"capped", 10, 5, 30, 30},
		{"custom rate", 2, 7.5, 30, 15},
		{"no cap", 10, 5, 0, 50},
		{"negative violations", -3, 5, 30, 0},
		{"zero rate", 5, 0, 30, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PenaltyPercent(tc.violations, tc.perViolation, tc.cap); got != tc.want {
				t.Errorf("PenaltyPercent(%d, %v, %v) = %v, want %v",
					tc.violations, tc.perViolation, tc.cap, got, tc.want)
			}
		})
	}

	// 相同输入必须恒产生相同输出
	for i := 0; i < 3; i++ {
		if got := PenaltyPercent(7, 5, 30); got != 30 {
			t.Fatalf("PenaltyPercent not deterministic, got %v", got)
		}
	}
}

func TestEffectivePenaltyParams(t *testing.T) {
	defaults := config.ExamConfig{PenaltyPerViolation: 5, PenaltyCap: 30}

	tests := []struct {
		name     string
		exam     *model.Exam
		wantRate float64
		wantCap  float64
	}{
		{"nil exam uses defaults", nil, 5, 30},
		{"zero overrides use defaults", &model.Exam{}, 5, 30},
		{"exam overrides rate", &model.Exam{PenaltyPerViolation: 10}, 10, 30},
		{"exam overrides both", &model.Exam{PenaltyPerViolation: 2, PenaltyCap: 20}, 2, 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rate, cap := effectivePenaltyParams(tc.exam, defaults)
			if rate != tc.wantRate || cap != tc.wantCap {
				t.Errorf("effectivePenaltyParams() = (%v, %v), want (%v, %v)",
					rate, cap, tc.wantRate, tc.wantCap)
			}
		})
	}
}
