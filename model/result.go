package model

// Result type tags produced by the step executor.
const (
	ResultRedirect   = "redirect"
	ResultModal      = "modal"
	ResultGoBack     = "goBack"
	ResultToast      = "toast"
	ResultFileUpload = "fileUpload"
	ResultDownload   = "download"
	ResultAISummary  = "aiSummary"
	ResultDBFind     = "dbFind"
)

// ExecutorRequest is the single call submitted to the remote step
// executor: the whole graph plus the accumulated context.
type ExecutorRequest struct {
	AppID   string         `json:"appId"`
	Nodes   []WorkflowNode `json:"nodes"`
	Edges   []WorkflowEdge `json:"edges"`
	Context map[string]any `json:"context"`
}

// ExecutorResponse is the ordered per-node result list.
type ExecutorResponse struct {
	Success bool         `json:"success"`
	Results []StepResult `json:"results"`
	Message string       `json:"message,omitempty"`
}

type StepResult struct {
	NodeLabel string      `json:"nodeLabel"`
	Result    *NodeResult `json:"result"`
}

// NodeResult is the union of shapes the executor reports per node. A
// result may satisfy more than one handler; the tags are not mutually
// exclusive.
type NodeResult struct {
	Type     string         `json:"type,omitempty"`
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Redirect *Redirect      `json:"redirect,omitempty"`
	Toast    *Toast         `json:"toast,omitempty"`
	Download *Download      `json:"download,omitempty"`
	Summary  *Summary       `json:"summary,omitempty"`
	Action   *Action        `json:"action,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
	Data     any            `json:"data,omitempty"`
}

// Redirect targets either a canvas page or an external URL.
type Redirect struct {
	Type   string `json:"type"` // "page" or "url"
	Target string `json:"target"`
	NewTab bool   `json:"newTab,omitempty"`
}

type Toast struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Variant string `json:"variant,omitempty"` // "success" or "failure"
}

type Download struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Summary is the payload of an AI summarization step.
type Summary struct {
	Text             string  `json:"text"`
	Filename         string  `json:"filename,omitempty"`
	OriginalLength   int     `json:"originalLength,omitempty"`
	SummaryLength    int     `json:"summaryLength,omitempty"`
	CompressionRatio float64 `json:"compressionRatio,omitempty"`
}

type Action struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// MediaFile is the descriptor the media endpoint returns for an
// uploaded file.
type MediaFile struct {
	Path     string `json:"path"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// MediaUploadResponse is the media endpoint's envelope.
type MediaUploadResponse struct {
	Success bool        `json:"success"`
	Files   []MediaFile `json:"files"`
	Message string      `json:"message,omitempty"`
}
