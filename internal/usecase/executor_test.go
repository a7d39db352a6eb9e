package usecase

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
)

func TestSummarize_HappyPath(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	manager := &fakeAIManager{healthy: true, summary: "a concise summary"}
	e := NewSummarizeExecutor(env.jobs, env.results, manager,
		&fakeDocIntel{healthy: true}, &fakeTranscriber{}, &fakeLLM{}, &env.log)

	job := env.newJob(model.ToolSummarize, model.JobInput{ContentType: "text", Source: "hello world"}, nil, "")
	if err := e.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if job.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed, got %s (err=%+v)", job.Status, job.Error)
	}
	summary, _ := job.Result["summary"].(string)
	if summary == "" {
		t.Fatalf("result.summary must be non-empty")
	}
	if job.Progress != 100 {
		t.Fatalf("completed job must be at 100%%, got %d", job.Progress)
	}
	resultID, _ := job.Result["result_id"].(string)
	if resultID == "" {
		t.Fatalf("completed summarize must reference an artifact")
	}
	if _, err := env.results.FindByID(context.Background(), nil, resultID); err != nil {
		t.Fatalf("artifact not persisted: %v", err)
	}
}

func TestSummarize_FallbackWhenManagerUnhealthy(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	manager := &fakeAIManager{healthy: false}
	llm := &fakeLLM{reply: "llm summary"}
	e := NewSummarizeExecutor(env.jobs, env.results, manager,
		&fakeDocIntel{healthy: true}, &fakeTranscriber{}, llm, &env.log)

	job := env.newJob(model.ToolSummarize, model.JobInput{ContentType: "text", Source: "hello"}, nil, "")
	if err := e.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if job.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed via fallback, got %s", job.Status)
	}
	if used, _ := job.Metadata["fallback_used"].(bool); !used {
		t.Fatalf("metadata.fallback_used must be true, got %+v", job.Metadata)
	}
	if n, _ := job.Metadata["prompt_tokens"].(int); n != 10 {
		t.Fatalf("fallback must record the counted prompt tokens, got %v", job.Metadata["prompt_tokens"])
	}
	if manager.calls != 0 {
		t.Fatalf("unhealthy manager must not be called")
	}
	if llm.calls == 0 {
		t.Fatalf("fallback llm was not used")
	}
}

func TestSummarize_TimeoutFailsRecoverably(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	transcriber := &fakeTranscriber{err: unavailableErr("transcriber")}
	e := NewSummarizeExecutor(env.jobs, env.results,
		&fakeAIManager{healthy: true, summary: "s"},
		&fakeDocIntel{healthy: true}, transcriber, &fakeLLM{}, &env.log)

	job := env.newJob(model.ToolSummarize, model.JobInput{ContentType: "audio", Source: "https://media/x.mp3"}, nil, "")
	if err := e.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if job.Status != model.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.Error == nil || !job.Error.Recoverable {
		t.Fatalf("timeout failure must be recoverable: %+v", job.Error)
	}
	if job.Error.RetryAfter == 0 {
		t.Fatalf("recoverable failure must carry a retry hint")
	}
	if job.Result != nil {
		t.Fatalf("failed job must not carry a result")
	}
}

func TestContentWriter_RejectedErrorIsTerminal(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	manager := &fakeAIManager{
		healthy: true,
		callErr: &adapter.ServiceError{Service: "ai_manager", Kind: adapter.Rejected, Status: 422, Msg: "prompt too long"},
	}
	llm := &fakeLLM{reply: "should not be used"}
	e := NewContentWriterExecutor(env.jobs, env.results, manager, llm, &env.log)

	job := env.newJob(model.ToolContentWrite, model.JobInput{Prompt: "write"}, nil, "")
	if err := e.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if job.Status != model.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.Error.Recoverable {
		t.Fatalf("rejected payloads are not recoverable")
	}
	if llm.calls != 0 {
		t.Fatalf("rejected payloads must not trigger the fallback")
	}
	if manager.calls != 1 {
		t.Fatalf("rejected calls must not be retried, got %d attempts", manager.calls)
	}
}

func TestMath_Completes(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	e := NewMathExecutor(env.jobs, env.results, &fakeAIManager{healthy: true, mathAnswer: "42"}, &env.log)

	job := env.newJob(model.ToolMath, model.JobInput{Source: "6*7"}, nil, "7")
	if err := e.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.Result["answer"] != "42" {
		t.Fatalf("unexpected answer: %v", job.Result["answer"])
	}
}

func TestDocumentChat_ProcessesThenAnswers(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	e := NewDocumentExecutor(env.jobs, env.results, &fakeDocIntel{healthy: true, answer: "page 3 says so"}, &env.log)

	job := env.newJob(model.ToolDocumentChat, model.JobInput{FileID: "file-9", Question: "why?"}, nil, "")
	if err := e.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.Result["answer"] != "page 3 says so" {
		t.Fatalf("unexpected answer: %v", job.Result["answer"])
	}
	if job.Metadata["doc_id"] != "doc-1" {
		t.Fatalf("doc id from processing must be recorded, got %v", job.Metadata["doc_id"])
	}
}

func TestPresentation_FullPipeline(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	renderer := &fakeRenderer{healthy: true, title: "Go Concurrency"}
	e := NewPresentationExecutor(env.jobs, env.results, renderer, &fakeLLM{}, env.guard, &env.log)

	job := env.newJob(model.ToolPresentation, model.JobInput{Prompt: "Go concurrency"}, nil, "42")
	if err := e.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed, got %s (%+v)", job.Status, job.Error)
	}
	if job.Result["title"] != "Go Concurrency" {
		t.Fatalf("unexpected title: %v", job.Result["title"])
	}
	if n, _ := job.Result["slide_count"].(int); n != 2 {
		t.Fatalf("unexpected slide count: %v", job.Result["slide_count"])
	}
}

func TestPresentation_OutlineFallbackWhenRendererDown(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	renderer := &fakeRenderer{healthy: false}
	llm := &fakeLLM{reply: "1. Intro\n2. Body"}
	e := NewPresentationExecutor(env.jobs, env.results, renderer, llm, env.guard, &env.log)

	job := env.newJob(model.ToolPresentation, model.JobInput{Prompt: "topic"}, nil, "")
	if err := e.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed via fallback, got %s", job.Status)
	}
	if used, _ := job.Metadata["fallback_used"].(bool); !used {
		t.Fatalf("fallback_used must be set")
	}
	if only, _ := job.Result["outline_only"].(bool); !only {
		t.Fatalf("fallback result must be outline-only")
	}
}

func TestExport_ConcurrentIdenticalFingerprints_OneRun(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	renderer := &fakeRenderer{healthy: true, title: "Deck"}
	llm := &fakeLLM{}
	e := NewPresentationExecutor(env.jobs, env.results, renderer, llm, env.guard, &env.log)

	// produce the artifact both exports will reference
	genJob := env.newJob(model.ToolPresentation, model.JobInput{Prompt: "deck"}, nil, "42")
	if err := e.Execute(context.Background(), genJob); err != nil {
		t.Fatalf("generate: %v", err)
	}
	resultID, _ := genJob.Result["result_id"].(string)

	options := map[string]string{"format": "pptx"}
	jobA, _ := model.NewJob("export-a", model.ToolPresentationExport, model.JobInput{ResultID: resultID}, options, "42")
	jobB, _ := model.NewJob("export-b", model.ToolPresentationExport, model.JobInput{ResultID: resultID}, options, "42")
	for _, j := range []*model.Job{jobA, jobB} {
		if err := env.jobs.Create(context.Background(), nil, j); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var wg sync.WaitGroup
	for _, j := range []*model.Job{jobA, jobB} {
		wg.Add(1)
		go func(j *model.Job) {
			defer wg.Done()
			if err := e.Execute(context.Background(), j); err != nil {
				t.Errorf("execute %s: %v", j.ID, err)
			}
		}(j)
	}
	wg.Wait()

	if jobA.Status != model.JobStatusCompleted || jobB.Status != model.JobStatusCompleted {
		t.Fatalf("both exports must complete: %s / %s", jobA.Status, jobB.Status)
	}
	if got := renderer.exported(); got != 1 {
		t.Fatalf("identical fingerprints must render exactly once, got %d", got)
	}
	if jobA.Result["file_url"] != jobB.Result["file_url"] {
		t.Fatalf("both callers must see the same artifact: %v vs %v", jobA.Result["file_url"], jobB.Result["file_url"])
	}
}

func TestExport_CachedFingerprintSkipsRender(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	renderer := &fakeRenderer{healthy: true, title: "Deck"}
	e := NewPresentationExecutor(env.jobs, env.results, renderer, &fakeLLM{}, env.guard, &env.log)

	genJob := env.newJob(model.ToolPresentation, model.JobInput{Prompt: "deck"}, nil, "")
	if err := e.Execute(context.Background(), genJob); err != nil {
		t.Fatalf("generate: %v", err)
	}
	resultID, _ := genJob.Result["result_id"].(string)
	options := map[string]string{"format": "pdf"}

	first := env.newJob(model.ToolPresentationExport, model.JobInput{ResultID: resultID}, options, "")
	if err := e.Execute(context.Background(), first); err != nil {
		t.Fatalf("first export: %v", err)
	}

	second, _ := model.NewJob("export-2", model.ToolPresentationExport, model.JobInput{ResultID: resultID}, options, "")
	if err := env.jobs.Create(context.Background(), nil, second); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := e.Execute(context.Background(), second); err != nil {
		t.Fatalf("second export: %v", err)
	}

	if got := renderer.exported(); got != 1 {
		t.Fatalf("cached export must not re-render, got %d renders", got)
	}
	if second.Metadata["deduplicated"] != "cache" {
		t.Fatalf("expected cache dedup marker, got %v", second.Metadata["deduplicated"])
	}
	if !reflect.DeepEqual(first.Result["file_url"], second.Result["file_url"]) {
		t.Fatalf("cached result must match the original")
	}
}

func TestTranscription_Completes(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	e := NewTranscriptionExecutor(env.jobs, env.results, &fakeTranscriber{transcript: "hello there"}, &env.log)

	job := env.newJob(model.ToolTranscription, model.JobInput{Source: "https://youtu.be/x"}, nil, "")
	if err := e.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.Result["transcript"] != "hello there" {
		t.Fatalf("unexpected transcript: %v", job.Result["transcript"])
	}
}

func TestFingerprint_CanonicalAndVersionSensitive(t *testing.T) {
	t.Parallel()
	a := Fingerprint(model.ToolPresentationExport, "res-1", 3, map[string]string{"format": "pptx", "theme": "dark"})
	b := Fingerprint(model.ToolPresentationExport, "res-1", 3, map[string]string{"theme": "dark", "format": "pptx"})
	if a != b {
		t.Fatalf("option order must not change the fingerprint")
	}
	if a == Fingerprint(model.ToolPresentationExport, "res-1", 4, map[string]string{"format": "pptx", "theme": "dark"}) {
		t.Fatalf("version bump must change the fingerprint")
	}
	if a == Fingerprint(model.ToolPresentationExport, "res-2", 3, map[string]string{"format": "pptx", "theme": "dark"}) {
		t.Fatalf("source change must change the fingerprint")
	}
}
