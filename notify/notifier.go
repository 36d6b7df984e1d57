// Package notify delivers side-effect instructions from the engine to
// the rendering layer of each session.
package notify

import "sync"

// Kind tags the instruction the rendering layer should carry out.
type Kind string

const (
	KindToast         Kind = "toast"
	KindModal         Kind = "modal"
	KindDownload      Kind = "download"
	KindSummaryPopup  Kind = "summaryPopup"
	KindUploadFailure Kind = "uploadFailure"
	KindNavigation    Kind = "navigation"
	KindConfirmation  Kind = "confirmation"
)

// Variants for toast-like instructions.
const (
	VariantSuccess = "success"
	VariantFailure = "failure"
)

// Instruction is one user-facing side effect.
type Instruction struct {
	Kind    Kind           `json:"kind"`
	Title   string         `json:"title,omitempty"`
	Message string         `json:"message,omitempty"`
	Variant string         `json:"variant,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Notifier delivers instructions to a session's UI. Delivery is best
// effort and never blocks engine execution.
type Notifier interface {
	Send(sessionID string, in Instruction)
}

// Recorder is a Notifier that captures instructions for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []RecordedInstruction
}

type RecordedInstruction struct {
	SessionID   string
	Instruction Instruction
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(sessionID string, in Instruction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, RecordedInstruction{SessionID: sessionID, Instruction: in})
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []RecordedInstruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedInstruction, len(r.sent))
	copy(out, r.sent)
	return out
}

// Kinds returns the recorded instruction kinds in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, 0, len(r.sent))
	for _, ri := range r.sent {
		out = append(out, ri.Instruction.Kind)
	}
	return out
}
