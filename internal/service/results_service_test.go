package service

import (
	"errors"
	"math"
	"testing"

	"uni_exam_backend/internal/model"
	"uni_exam_backend/internal/util"
)

func reviewQuestions() []model.ExamQuestion {
	return []model.ExamQuestion{
		{BaseModel: model.BaseModel{ID: 1}, Points: 10},
		{BaseModel: model.BaseModel{ID: 2}, Points: 25},
	}
}

func TestNormalizeAdjustments(t *testing.T) {
	tests := []struct {
		name        string
		adjustments []ScoreAdjustment
		want        []float64
	}{
		{
			name:        "within range passes through",
			adjustments: []ScoreAdjustment{{QuestionID: 1, Score: 7.5}, {QuestionID: 2, Score: 25}},
			want:        []float64{7.5, 25},
		},
		{
			name:        "score above question points is clamped",
			adjustments: []ScoreAdjustment{{QuestionID: 1, Score: 42}},
			want:        []float64{10},
		},
		{
			name:        "negative score is clamped to zero",
			adjustments: []ScoreAdjustment{{QuestionID: 2, Score: -3}},
			want:        []float64{0},
		},
		{
			name:        "empty adjustments",
			adjustments: nil,
			want:        []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeAdjustments(tt.adjustments, reviewQuestions())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d adjustments, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if math.Abs(got[i].Score-tt.want[i]) > 1e-9 {
					t.Errorf("adjustment %d: expected score %v, got %v", i, tt.want[i], got[i].Score)
				}
			}
		})
	}
}

func TestNormalizeAdjustmentsUnknownQuestion(t *testing.T) {
	_, err := normalizeAdjustments(
		[]ScoreAdjustment{{QuestionID: 99, Score: 5}},
		reviewQuestions(),
	)
	if !errors.Is(err, util.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}
