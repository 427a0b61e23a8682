package model

import (
	"encoding/json"
	"testing"
)

func TestTemplateKeywordList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"valid list", `["loop","array"]`, []string{"loop", "array"}},
		{"empty list", `[]`, []string{}},
		{"corrupted json", `["loop",`, nil},
		{"wrong shape", `{"a":1}`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := &ExamAnswerTemplate{Keywords: json.RawMessage(tc.raw)}
			got := tmpl.KeywordList()
			if len(got) != len(tc.want) {
				t.Fatalf("KeywordList() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("KeywordList()[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}
