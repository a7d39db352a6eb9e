package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/infra/memory"
	"ai-tools-platform/internal/usecase"
)

// idleAIManager satisfies the summarize executor's dependency; handler
// tests never execute jobs, they only exercise the HTTP surface.
type idleAIManager struct{}

func (idleAIManager) HealthCheck(ctx context.Context) bool { return true }
func (idleAIManager) Generate(ctx context.Context, req adapter.GenerateRequest) (*adapter.GenerateResponse, error) {
	return &adapter.GenerateResponse{}, nil
}
func (idleAIManager) Summarize(ctx context.Context, req adapter.SummarizeRequest) (*adapter.SummarizeResponse, error) {
	return &adapter.SummarizeResponse{Summary: "s"}, nil
}
func (idleAIManager) Flashcards(ctx context.Context, req adapter.FlashcardsRequest) (*adapter.FlashcardsResponse, error) {
	return &adapter.FlashcardsResponse{}, nil
}
func (idleAIManager) SolveMath(ctx context.Context, req adapter.MathSolveRequest) (*adapter.MathSolveResponse, error) {
	return &adapter.MathSolveResponse{}, nil
}

type testServer struct {
	jobs    *memory.JobRepo
	results *memory.AIResultRepo
	auth    *AuthManager
	ts      *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	jobs := memory.NewJobRepo()
	results := memory.NewAIResultRepo()

	summarizer := usecase.NewSummarizeExecutor(jobs, results, idleAIManager{}, nil, nil, nil, &log)
	orch := usecase.NewJobOrchestrator(jobs, results, usecase.NewExecutorSet(summarizer), &log)

	auth := NewAuthManager("test-secret")
	ts := httptest.NewServer(NewServer(orch, auth, &log).Router())
	t.Cleanup(ts.Close)

	return &testServer{jobs: jobs, results: results, auth: auth, ts: ts}
}

func (s *testServer) request(t *testing.T, method, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.ts.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func (s *testServer) seedJob(t *testing.T, id string, tool model.ToolType, userID string) *model.Job {
	t.Helper()
	job, err := model.NewJob(id, tool, model.JobInput{Source: "hello"}, nil, userID)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := s.jobs.Create(context.Background(), nil, job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestSubmit_Returns202WithHandle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, body := s.request(t, http.MethodPost, "/api/summarize",
		`{"input":{"content_type":"text","source":"hello world"}}`, "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if body["success"] != true {
		t.Fatalf("expected success envelope, got %+v", body)
	}
	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatalf("missing job_id")
	}
	if !strings.Contains(body["poll_url"].(string), jobID) {
		t.Fatalf("poll_url must reference the job")
	}

	// create+queue never blocks on execution: job is queued, not terminal
	stored, err := s.jobs.FindByID(context.Background(), nil, jobID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if stored.Status != model.JobStatusQueued {
		t.Fatalf("expected queued after submit, got %s", stored.Status)
	}
}

func TestSubmit_MalformedBody(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	resp, body := s.request(t, http.MethodPost, "/api/summarize", `{not json`, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["success"] != false {
		t.Fatalf("error envelope must have success=false")
	}
}

func TestSubmit_ValidationFailure(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	resp, _ := s.request(t, http.MethodPost, "/api/summarize", `{"input":{}}`, "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestStatus_UnknownJob404(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	resp, body := s.request(t, http.MethodGet, "/api/summarize/status?job_id=unknown-id", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body["error"] != "Job not found" {
		t.Fatalf("expected 'Job not found', got %v", body["error"])
	}
}

func TestStatus_OwnershipEnforced(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	job := s.seedJob(t, "owned-job", model.ToolSummarize, "42")

	intruder, _ := s.auth.Mint("7")
	resp, _ := s.request(t, http.MethodGet, "/api/summarize/status?job_id="+job.ID, "", intruder)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("caller 7 on job of user 42: expected 403, got %d", resp.StatusCode)
	}

	owner, _ := s.auth.Mint("42")
	resp, body := s.request(t, http.MethodGet, "/api/summarize/status?job_id="+job.ID, "", owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner must read own job, got %d", resp.StatusCode)
	}
	if body["job_id"] != job.ID {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestStatus_AnonymousJobPollableAnonymously(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	job := s.seedJob(t, "anon-job", model.ToolSummarize, "")

	resp, body := s.request(t, http.MethodGet, "/api/summarize/status?job_id="+job.ID, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["stage_message"] == "" {
		t.Fatalf("status must carry a stage message")
	}
}

func TestStatus_ToolMismatch400(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	job := s.seedJob(t, "sum-job", model.ToolSummarize, "")

	resp, _ := s.request(t, http.MethodGet, "/api/flashcards/status?job_id="+job.ID, "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("tool mismatch: expected 400, got %d", resp.StatusCode)
	}
}

func TestStatus_FailedJobIs200(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	job := s.seedJob(t, "failed-job", model.ToolSummarize, "")
	st := model.JobStatusFailed
	if _, err := s.jobs.Update(context.Background(), job.ID, model.JobUpdate{
		Status: &st,
		Error:  &model.JobError{Message: "boom", Recoverable: true, RetryAfter: 60},
	}); err != nil {
		t.Fatalf("fail job: %v", err)
	}

	resp, body := s.request(t, http.MethodGet, "/api/summarize/status?job_id="+job.ID, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("failed job status must be 200, got %d", resp.StatusCode)
	}
	if body["status"] != "failed" {
		t.Fatalf("expected failed status in body, got %v", body["status"])
	}
	if body["error"] == nil {
		t.Fatalf("failed job status must include the error payload")
	}
}

func TestResult_NotReady202WithoutData(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	job := s.seedJob(t, "pending-job", model.ToolSummarize, "")

	resp, body := s.request(t, http.MethodGet, "/api/summarize/result?job_id="+job.ID, "", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if _, hasData := body["data"]; hasData {
		t.Fatalf("incomplete job must never expose partial result data")
	}
	if body["status"] != "pending" {
		t.Fatalf("expected status in 202 body, got %+v", body)
	}
}

func TestResult_Completed200(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	job := s.seedJob(t, "done-job", model.ToolSummarize, "")
	st := model.JobStatusCompleted
	if _, err := s.jobs.Update(context.Background(), job.ID, model.JobUpdate{
		Status: &st,
		Result: map[string]any{"summary": "short"},
	}); err != nil {
		t.Fatalf("complete job: %v", err)
	}

	resp, body := s.request(t, http.MethodGet, "/api/summarize/result?job_id="+job.ID, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	data, _ := body["data"].(map[string]any)
	if data["summary"] != "short" {
		t.Fatalf("unexpected data: %+v", body)
	}
}

func TestListResults_RequiresAuth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	resp, _ := s.request(t, http.MethodGet, "/api/results", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous listing: expected 401, got %d", resp.StatusCode)
	}
}

func TestListResults_OnlyCallersArtifacts(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	mine, _ := model.NewAIResult("r-mine", "42", model.ToolSummarize, "My summary", model.JobInput{Source: "x"}, nil)
	theirs, _ := model.NewAIResult("r-theirs", "7", model.ToolSummarize, "Not mine", model.JobInput{Source: "y"}, nil)
	if err := s.results.Save(ctx, nil, mine); err != nil {
		t.Fatalf("seed result: %v", err)
	}
	if err := s.results.Save(ctx, nil, theirs); err != nil {
		t.Fatalf("seed result: %v", err)
	}

	token, _ := s.auth.Mint("42")
	resp, body := s.request(t, http.MethodGet, "/api/results", "", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	items, _ := body["results"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected exactly the caller's artifact, got %v", body["results"])
	}
	first, _ := items[0].(map[string]any)
	if first["id"] != "r-mine" || first["title"] != "My summary" {
		t.Fatalf("unexpected artifact: %+v", first)
	}
}

func TestAuth_InvalidToken401(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	resp, _ := s.request(t, http.MethodGet, "/api/summarize/status?job_id=x", "", "garbage-token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	resp, _ := s.request(t, http.MethodGet, "/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
