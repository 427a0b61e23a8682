package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"uni_exam_backend/internal/config"
)

func newRecordsTestClient(url string) *RecordsClient {
	return NewRecordsClient(config.RecordsConfig{BaseURL: url, TimeoutSeconds: 2})
}

func TestRecordsClientDisabled(t *testing.T) {
	var nilClient *RecordsClient
	if nilClient.Enabled() {
		t.Error("nil client must report disabled")
	}
	if newRecordsTestClient("").Enabled() {
		t.Error("client without base URL must report disabled")
	}
	if !newRecordsTestClient("http://records.local").Enabled() {
		t.Error("configured client must report enabled")
	}
}

func TestRecordsClientPrimaryEndpoint(t *testing.T) {
	var gotPath string
	var gotReport CompletionReport
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReport)
		json.NewEncoder(w).Encode(RecordsAck{Status: "recorded"})
	}))
	defer srv.Close()

	report := CompletionReport{FullscreenExits: 2, TabSwitches: 1, PenaltyPercent: 10, FinalScore: 72.5}
	ack, err := newRecordsTestClient(srv.URL).CompleteAttempt(7, 42, report)
	if err != nil {
		t.Fatalf("CompleteAttempt() error: %v", err)
	}
	if ack.Status != "recorded" {
		t.Errorf("ack status = %q, want %q", ack.Status, "recorded")
	}
	if gotPath != "/api/exams/7/participants/42/complete" {
		t.Errorf("path = %q, want primary endpoint", gotPath)
	}
	if gotReport != report {
		t.Errorf("report = %+v, want %+v", gotReport, report)
	}
}

func TestRecordsClientFallsBackThroughVariants(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		// 只有最老的一代接口存在
		if r.URL.Path == "/api/exams/42/complete" {
			score := 80.0
			json.NewEncoder(w).Encode(RecordsAck{Status: "recorded", Score: &score})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "route not found"})
	}))
	defer srv.Close()

	ack, err := newRecordsTestClient(srv.URL).CompleteAttempt(7, 42, CompletionReport{FinalScore: 80})
	if err != nil {
		t.Fatalf("CompleteAttempt() error: %v", err)
	}
	if ack.Score == nil || *ack.Score != 80 {
		t.Errorf("ack score = %v, want 80", ack.Score)
	}

	want := []string{
		"/api/exams/7/participants/42/complete",
		"/api/exams/participants/42/complete",
		"/api/exams/42/complete",
	}
	if len(paths) != len(want) {
		t.Fatalf("tried %d endpoints %v, want %d", len(paths), paths, len(want))
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("attempt %d hit %q, want %q", i+1, paths[i], want[i])
		}
	}
}

func TestRecordsClientAllVariantsFail(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		if calls == 1 {
			json.NewEncoder(w).Encode(map[string]string{"message": "records database offline"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "secondary failure"})
	}))
	defer srv.Close()

	_, err := newRecordsTestClient(srv.URL).CompleteAttempt(7, 42, CompletionReport{})
	if err == nil {
		t.Fatal("expected error when every variant fails")
	}
	if calls != 3 {
		t.Errorf("tried %d variants, want 3", calls)
	}
	// 报告第一种形态的错误，保留对端 message
	if !strings.Contains(err.Error(), "records database offline") {
		t.Errorf("error = %q, want first variant's message preserved", err.Error())
	}
}
