package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/infra/memory"
)

// ---- shared test wiring ----

type testEnv struct {
	jobs    *memory.JobRepo
	results *memory.AIResultRepo
	guard   *memory.Guard
	log     zerolog.Logger
}

func newTestEnv() *testEnv {
	return &testEnv{
		jobs:    memory.NewJobRepo(),
		results: memory.NewAIResultRepo(),
		guard:   memory.NewGuard(),
		log:     zerolog.Nop(),
	}
}

func (env *testEnv) newJob(tool model.ToolType, input model.JobInput, options map[string]string, userID string) *model.Job {
	job, err := model.NewJob("job-"+string(tool), tool, input, options, userID)
	if err != nil {
		panic(err)
	}
	if err := env.jobs.Create(context.Background(), nil, job); err != nil {
		panic(err)
	}
	return job
}

func unavailableErr(service string) error {
	return &adapter.ServiceError{Service: service, Kind: adapter.Unavailable, Msg: service + " timed out"}
}

// ---- fake AI manager ----

type fakeAIManager struct {
	healthy    bool
	callErr    error
	summary    string
	content    string
	cards      []adapter.Flashcard
	mathAnswer string
	calls      int32
}

func (f *fakeAIManager) HealthCheck(ctx context.Context) bool { return f.healthy }

func (f *fakeAIManager) Generate(ctx context.Context, req adapter.GenerateRequest) (*adapter.GenerateResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &adapter.GenerateResponse{Content: f.content, TokensUsed: 42}, nil
}

func (f *fakeAIManager) Summarize(ctx context.Context, req adapter.SummarizeRequest) (*adapter.SummarizeResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &adapter.SummarizeResponse{Summary: f.summary, TokensUsed: 42}, nil
}

func (f *fakeAIManager) Flashcards(ctx context.Context, req adapter.FlashcardsRequest) (*adapter.FlashcardsResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &adapter.FlashcardsResponse{Cards: f.cards, TokensUsed: 42}, nil
}

func (f *fakeAIManager) SolveMath(ctx context.Context, req adapter.MathSolveRequest) (*adapter.MathSolveResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &adapter.MathSolveResponse{Solution: "solution", Steps: []string{"step 1"}, Answer: f.mathAnswer}, nil
}

// ---- fake document intelligence ----

type fakeDocIntel struct {
	healthy bool
	content string
	answer  string
}

func (f *fakeDocIntel) HealthCheck(ctx context.Context) bool { return f.healthy }

func (f *fakeDocIntel) ProcessDocument(ctx context.Context, req adapter.ProcessDocumentRequest) (*adapter.ProcessDocumentResponse, error) {
	return &adapter.ProcessDocumentResponse{DocID: "doc-1", PageCount: 3}, nil
}

func (f *fakeDocIntel) Extract(ctx context.Context, req adapter.ExtractRequest) (*adapter.ExtractResponse, error) {
	return &adapter.ExtractResponse{Content: f.content, PageCount: 3, Confidence: 0.9}, nil
}

func (f *fakeDocIntel) Converse(ctx context.Context, req adapter.ConversationRequest) (*adapter.ConversationResponse, error) {
	return &adapter.ConversationResponse{Answer: f.answer, ConversationID: "conv-1"}, nil
}

func (f *fakeDocIntel) SubmitPDFEdit(ctx context.Context, req adapter.PDFEditRequest) (*adapter.RemoteJobResponse, error) {
	return &adapter.RemoteJobResponse{RemoteJobID: "edit-1", Status: "completed", Progress: 100, ResultURL: "https://files/edited.pdf"}, nil
}

func (f *fakeDocIntel) JobStatus(ctx context.Context, remoteJobID string) (*adapter.RemoteJobResponse, error) {
	return &adapter.RemoteJobResponse{RemoteJobID: remoteJobID, Status: "completed", Progress: 100}, nil
}

// ---- fake presentation renderer ----

type fakeRenderer struct {
	mu          sync.Mutex
	healthy     bool
	outlineErr  error
	exportCalls int
	title       string
}

func (f *fakeRenderer) HealthCheck(ctx context.Context) bool { return f.healthy }

func (f *fakeRenderer) Outline(ctx context.Context, req adapter.OutlineRequest) (*adapter.OutlineResponse, error) {
	if f.outlineErr != nil {
		return nil, f.outlineErr
	}
	return &adapter.OutlineResponse{
		Title:  f.title,
		Slides: []adapter.Slide{{Title: "Intro"}, {Title: "Body"}},
	}, nil
}

func (f *fakeRenderer) SlideContent(ctx context.Context, req adapter.SlideContentRequest) (*adapter.SlideContentResponse, error) {
	return &adapter.SlideContentResponse{Slides: req.Outline.Slides}, nil
}

func (f *fakeRenderer) SubmitExport(ctx context.Context, req adapter.ExportRequest) (*adapter.RemoteJobResponse, error) {
	f.mu.Lock()
	f.exportCalls++
	f.mu.Unlock()
	return &adapter.RemoteJobResponse{RemoteJobID: "render-1", Status: "completed", Progress: 100, ResultURL: "https://files/deck.pptx"}, nil
}

func (f *fakeRenderer) SubmitDiagram(ctx context.Context, req adapter.DiagramRequest) (*adapter.RemoteJobResponse, error) {
	return &adapter.RemoteJobResponse{RemoteJobID: "diagram-1", Status: "completed", Progress: 100, ResultURL: "https://files/diagram.png"}, nil
}

func (f *fakeRenderer) RenderStatus(ctx context.Context, remoteJobID string) (*adapter.RemoteJobResponse, error) {
	return &adapter.RemoteJobResponse{RemoteJobID: remoteJobID, Status: "completed", Progress: 100}, nil
}

func (f *fakeRenderer) exported() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exportCalls
}

// ---- fake transcriber ----

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) HealthCheck(ctx context.Context) bool { return f.err == nil }

func (f *fakeTranscriber) Transcribe(ctx context.Context, req adapter.TranscribeRequest) (*adapter.TranscribeResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &adapter.TranscribeResponse{Transcript: f.transcript, Language: "en", DurationS: 12.5}, nil
}

// ---- fake local LLM ----

type fakeLLM struct {
	reply string
	err   error
	calls int32
}

func (f *fakeLLM) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return 10, nil
}

func (f *fakeLLM) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	reply, err := f.Chat(ctx, model, messages)
	return reply, adapter.Usage{TotalTokens: 10}, err
}
