package usecase

import "ai-tools-platform/internal/domain/model"

// StageInfo is the user-facing description of a pipeline stage, surfaced by
// the status endpoint. It never affects execution.
type StageInfo struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

type stageKey struct {
	tool  model.ToolType
	stage string
}

// genericStage is returned for any (tool, stage) pair without an entry, so
// executors may introduce ad hoc stages without registry updates.
var genericStage = StageInfo{
	Message:     "Processing...",
	Description: "Your request is being processed",
}

// StageFor returns the display info for a tool's stage.
func StageFor(tool model.ToolType, stage string) StageInfo {
	if info, ok := stageTable[stageKey{tool, stage}]; ok {
		return info
	}
	if info, ok := commonStages[stage]; ok {
		return info
	}
	return genericStage
}

// Stages shared by every tool.
var commonStages = map[string]StageInfo{
	model.StageInitializing: {"Initializing...", "Setting up your request"},
	"completed":             {"Completed", "Your request has been completed"},
	"failed":                {"Failed", "Your request could not be completed"},
}

var stageTable = map[stageKey]StageInfo{
	// summarize
	{model.ToolSummarize, "analyzing_content"}:   {"Analyzing content...", "Examining the provided content"},
	{model.ToolSummarize, "extracting_content"}:  {"Extracting content...", "Pulling text from the source"},
	{model.ToolSummarize, "generating_summary"}:  {"Generating summary...", "Writing a concise summary"},
	{model.ToolSummarize, "finalizing"}:          {"Finalizing...", "Preparing your summary"},

	// content_write / content_rewrite
	{model.ToolContentWrite, "validating_input"}:     {"Validating input...", "Checking your writing brief"},
	{model.ToolContentWrite, "generating_content"}:   {"Generating content...", "Writing your content"},
	{model.ToolContentWrite, "refining_content"}:     {"Refining content...", "Polishing tone and structure"},
	{model.ToolContentWrite, "finalizing"}:           {"Finalizing...", "Preparing your content"},
	{model.ToolContentRewrite, "validating_input"}:   {"Validating input...", "Checking the source text"},
	{model.ToolContentRewrite, "generating_content"}: {"Rewriting content...", "Rewriting your text"},
	{model.ToolContentRewrite, "refining_content"}:   {"Refining content...", "Polishing tone and structure"},
	{model.ToolContentRewrite, "finalizing"}:         {"Finalizing...", "Preparing your content"},

	// math
	{model.ToolMath, "analyzing_problem"}: {"Analyzing problem...", "Reading the problem statement"},
	{model.ToolMath, "solving_problem"}:   {"Solving...", "Working through the solution"},
	{model.ToolMath, "finalizing"}:        {"Finalizing...", "Formatting the solution steps"},

	// flashcards
	{model.ToolFlashcards, "analyzing_content"}:      {"Analyzing content...", "Examining the study material"},
	{model.ToolFlashcards, "generating_flashcards"}:  {"Generating flashcards...", "Creating question and answer cards"},
	{model.ToolFlashcards, "finalizing"}:             {"Finalizing...", "Preparing your deck"},

	// presentation
	{model.ToolPresentation, "analyzing_content"}:  {"Analyzing topic...", "Examining your presentation topic"},
	{model.ToolPresentation, "generating_outline"}: {"Generating outline...", "Structuring the presentation"},
	{model.ToolPresentation, "generating_content"}: {"Generating slides...", "Writing slide content"},
	{model.ToolPresentation, "finalizing"}:         {"Finalizing...", "Preparing your presentation"},

	// presentation_export
	{model.ToolPresentationExport, "preparing_slides"}:       {"Preparing slides...", "Loading your presentation"},
	{model.ToolPresentationExport, "rendering_presentation"}: {"Rendering...", "Producing the downloadable file"},
	{model.ToolPresentationExport, "finalizing"}:             {"Finalizing...", "Preparing your download"},

	// diagram
	{model.ToolDiagram, "generating_diagram"}: {"Generating diagram...", "Designing the diagram"},
	{model.ToolDiagram, "polling_renderer"}:   {"Rendering diagram...", "Waiting for the renderer"},
	{model.ToolDiagram, "downloading_image"}:  {"Downloading image...", "Fetching the rendered diagram"},
	{model.ToolDiagram, "finalizing"}:         {"Finalizing...", "Preparing your diagram"},

	// document_chat
	{model.ToolDocumentChat, "validating_file"}:     {"Validating file...", "Checking your document"},
	{model.ToolDocumentChat, "processing_document"}: {"Processing document...", "Indexing your document"},
	{model.ToolDocumentChat, "extracting_content"}:  {"Answering...", "Searching your document for an answer"},
	{model.ToolDocumentChat, "finalizing"}:          {"Finalizing...", "Preparing the answer"},

	// document_extraction
	{model.ToolDocumentExtraction, "validating_file"}:       {"Validating file...", "Checking your document"},
	{model.ToolDocumentExtraction, "extracting_content"}:    {"Extracting content...", "Running text extraction"},
	{model.ToolDocumentExtraction, "monitoring_extraction"}: {"Extracting content...", "Waiting for extraction to finish"},
	{model.ToolDocumentExtraction, "finalizing"}:            {"Finalizing...", "Preparing the extracted text"},

	// pdf_edit
	{model.ToolPDFEdit, "validating"}:          {"Validating...", "Checking the requested edits"},
	{model.ToolPDFEdit, "preparing_files"}:     {"Preparing files...", "Staging your PDF"},
	{model.ToolPDFEdit, "starting_remote_job"}: {"Starting edit...", "Submitting the edit job"},
	{model.ToolPDFEdit, "monitoring"}:          {"Editing...", "Waiting for the edit to finish"},
	{model.ToolPDFEdit, "fetching_result"}:     {"Fetching result...", "Retrieving the edited PDF"},

	// transcription
	{model.ToolTranscription, "fetching_media"}: {"Fetching media...", "Downloading the audio or video"},
	{model.ToolTranscription, "transcribing"}:   {"Transcribing...", "Converting speech to text"},
	{model.ToolTranscription, "finalizing"}:     {"Finalizing...", "Preparing your transcript"},
}
