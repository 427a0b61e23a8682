package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"uni_exam_backend/internal/config"
)

func newGradingTestClient(url string) *GradingClient {
	return NewGradingClient(config.GradingConfig{BaseURL: url, TimeoutSeconds: 2})
}

func TestGradingClientPrimaryEndpoint(t *testing.T) {
	var gotPath string
	var gotReq remoteGradeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(RemoteGradeResult{Score: 8.5, TotalSimilarity: 85})
	}))
	defer srv.Close()

	result, err := newGradingTestClient(srv.URL).GradeAnswer(7, 42, 3, "use a loop")
	if err != nil {
		t.Fatalf("GradeAnswer() error: %v", err)
	}
	if gotPath != "/api/exams/7/participants/42/questions/3/grade" {
		t.Errorf("path = %q, want primary endpoint", gotPath)
	}
	if gotReq.ParticipantID != 42 || gotReq.Answer != "use a loop" {
		t.Errorf("request = %+v, want participant 42 with answer", gotReq)
	}
	if result.Score != 8.5 || result.TotalSimilarity != 85 {
		t.Errorf("result = %+v", result)
	}
}

func TestGradingClientFallsBackToLegacyRoute(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/exams/7/questions/3/grade" {
			json.NewEncoder(w).Encode(RemoteGradeResult{Score: 6})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	result, err := newGradingTestClient(srv.URL).GradeAnswer(7, 42, 3, "answer")
	if err != nil {
		t.Fatalf("GradeAnswer() error: %v", err)
	}
	if result.Score != 6 {
		t.Errorf("score = %v, want 6", result.Score)
	}
	if len(paths) != 2 || paths[1] != "/api/exams/7/questions/3/grade" {
		t.Errorf("paths = %v, want legacy route on second attempt", paths)
	}
}

func TestGradingClientAllRoutesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "scoring model unavailable"})
	}))
	defer srv.Close()

	_, err := newGradingTestClient(srv.URL).GradeAnswer(7, 42, 3, "answer")
	if err == nil {
		t.Fatal("expected error when every route fails")
	}
	if !strings.Contains(err.Error(), "scoring model unavailable") {
		t.Errorf("error = %q, want remote message preserved", err.Error())
	}
	if !strings.Contains(err.Error(), "grading API error") {
		t.Errorf("error = %q, want grading API error prefix", err.Error())
	}
}
