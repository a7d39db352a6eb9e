package adapter

import "context"

// Typed contracts for the downstream microservices. The HTTP mechanics live
// in infra; executors depend only on these.

// --- AI manager ---

type GenerateRequest struct {
	Prompt  string            `json:"prompt"`
	Mode    string            `json:"mode,omitempty"` // write | rewrite
	Source  string            `json:"source,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

type GenerateResponse struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
	Model      string `json:"model"`
}

type SummarizeRequest struct {
	Content string            `json:"content"`
	Options map[string]string `json:"options,omitempty"`
}

type SummarizeResponse struct {
	Summary    string `json:"summary"`
	TokensUsed int    `json:"tokens_used"`
}

type FlashcardsRequest struct {
	Content string            `json:"content"`
	Count   int               `json:"count,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type FlashcardsResponse struct {
	Cards      []Flashcard `json:"cards"`
	TokensUsed int         `json:"tokens_used"`
}

type MathSolveRequest struct {
	Problem  string `json:"problem,omitempty"`
	ImageRef string `json:"image_ref,omitempty"`
}

type MathSolveResponse struct {
	Solution string   `json:"solution"`
	Steps    []string `json:"steps"`
	Answer   string   `json:"answer"`
}

type AIManagerService interface {
	HealthCheck(ctx context.Context) bool
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
	Flashcards(ctx context.Context, req FlashcardsRequest) (*FlashcardsResponse, error)
	SolveMath(ctx context.Context, req MathSolveRequest) (*MathSolveResponse, error)
}

// --- document intelligence ---

type ProcessDocumentRequest struct {
	FileID  string            `json:"file_id"`
	Options map[string]string `json:"options,omitempty"`
}

type ProcessDocumentResponse struct {
	DocID     string `json:"doc_id"`
	PageCount int    `json:"page_count"`
}

type ExtractRequest struct {
	DocID string `json:"doc_id"`
}

type ExtractResponse struct {
	Content    string  `json:"content"`
	PageCount  int     `json:"page_count"`
	Confidence float64 `json:"confidence"`
}

type ConversationRequest struct {
	DocID    string `json:"doc_id"`
	Question string `json:"question"`
}

type ConversationResponse struct {
	Answer         string   `json:"answer"`
	ConversationID string   `json:"conversation_id"`
	Citations      []string `json:"citations,omitempty"`
}

type PDFEditRequest struct {
	FileID     string            `json:"file_id"`
	Operations []map[string]any  `json:"operations"`
	Options    map[string]string `json:"options,omitempty"`
}

// RemoteJobResponse is the shared handle for submit-then-poll operations on
// downstream services (PDF edits, exports, diagram renders).
type RemoteJobResponse struct {
	RemoteJobID string `json:"job_id"`
	Status      string `json:"status"` // pending | processing | completed | failed
	Progress    int    `json:"progress"`
	ResultURL   string `json:"result_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (r *RemoteJobResponse) Done() bool   { return r.Status == "completed" }
func (r *RemoteJobResponse) Failed() bool { return r.Status == "failed" }

type DocumentIntelligenceService interface {
	HealthCheck(ctx context.Context) bool
	ProcessDocument(ctx context.Context, req ProcessDocumentRequest) (*ProcessDocumentResponse, error)
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)
	Converse(ctx context.Context, req ConversationRequest) (*ConversationResponse, error)
	SubmitPDFEdit(ctx context.Context, req PDFEditRequest) (*RemoteJobResponse, error)
	JobStatus(ctx context.Context, remoteJobID string) (*RemoteJobResponse, error)
}

// --- presentation renderer ---

type OutlineRequest struct {
	Topic      string            `json:"topic"`
	SlideCount int               `json:"slide_count,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
}

type Slide struct {
	Title  string   `json:"title"`
	Points []string `json:"points,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

type OutlineResponse struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

type SlideContentRequest struct {
	Outline OutlineResponse   `json:"outline"`
	Options map[string]string `json:"options,omitempty"`
}

type SlideContentResponse struct {
	Slides []Slide `json:"slides"`
}

type ExportRequest struct {
	ResultID string            `json:"result_id"`
	Format   string            `json:"format"` // pptx | pdf
	Slides   []Slide           `json:"slides"`
	Options  map[string]string `json:"options,omitempty"`
}

type DiagramRequest struct {
	Description string            `json:"description"`
	Format      string            `json:"format,omitempty"` // png | svg
	Options     map[string]string `json:"options,omitempty"`
}

type PresentationService interface {
	HealthCheck(ctx context.Context) bool
	Outline(ctx context.Context, req OutlineRequest) (*OutlineResponse, error)
	SlideContent(ctx context.Context, req SlideContentRequest) (*SlideContentResponse, error)
	SubmitExport(ctx context.Context, req ExportRequest) (*RemoteJobResponse, error)
	SubmitDiagram(ctx context.Context, req DiagramRequest) (*RemoteJobResponse, error)
	RenderStatus(ctx context.Context, remoteJobID string) (*RemoteJobResponse, error)
}

// --- media transcriber ---

type TranscribeRequest struct {
	Source  string            `json:"source"`            // media URL (YouTube, direct)
	FileID  string            `json:"file_id,omitempty"` // or an uploaded file
	Options map[string]string `json:"options,omitempty"`
}

type TranscribeResponse struct {
	Transcript string  `json:"transcript"`
	Language   string  `json:"language,omitempty"`
	DurationS  float64 `json:"duration_seconds,omitempty"`
}

type TranscriberService interface {
	HealthCheck(ctx context.Context) bool
	Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResponse, error)
}
