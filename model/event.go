package model

// EventType identifies the UI interaction reported by the rendering layer.
type EventType string

const (
	EventClick    EventType = "click"
	EventChange   EventType = "change"
	EventSubmit   EventType = "submit"
	EventDrop     EventType = "drop"
	EventHover    EventType = "hover"
	EventFocus    EventType = "focus"
	EventPageLoad EventType = "pageLoad"
	EventLogin    EventType = "login"

	// EventInvalidPhone is a validation signal, not a trigger lookup; it
	// bypasses the index and goes straight to a notification.
	EventInvalidPhone EventType = "invalidPhone"
)

// DroppedFile describes one file carried by a drop event. Content is
// base64 on the wire.
type DroppedFile struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Content  []byte `json:"content,omitempty"`
}

// DropPosition is the canvas coordinate where a drop landed.
type DropPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EventPayload carries the event-specific data of one dispatch.
type EventPayload struct {
	FormGroupID string         `json:"formGroupId,omitempty"`
	FormData    map[string]any `json:"formData,omitempty"`
	Value       any            `json:"value,omitempty"`
	Files       []DroppedFile  `json:"files,omitempty"`
	Position    *DropPosition  `json:"position,omitempty"`
	PageID      string         `json:"pageId,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// FileUpload is a file a user selected on a canvas element, pending
// upload to the media endpoint when its form is submitted.
type FileUpload struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType,omitempty"`
	Content  []byte `json:"content"`
}

// FormSubmissionContext is the caller-owned snapshot of form state at
// dispatch time: current element values, pending file selections, and
// the element to form-group assignment. It replaces any ambient shared
// state between the rendering layer and the engine.
type FormSubmissionContext struct {
	Values  map[string]any        `json:"values,omitempty"`
	Uploads map[string]FileUpload `json:"uploads,omitempty"`
	Groups  map[string]string     `json:"groups,omitempty"`
}

// GroupValues returns the values of elements assigned to the form group.
func (f *FormSubmissionContext) GroupValues(groupID string) map[string]any {
	out := make(map[string]any)
	if f == nil {
		return out
	}
	for elementID, group := range f.Groups {
		if group != groupID {
			continue
		}
		if v, ok := f.Values[elementID]; ok {
			out[elementID] = v
		}
	}
	return out
}

// GroupUploads returns the pending file selections of elements assigned
// to the form group, keyed by element id.
func (f *FormSubmissionContext) GroupUploads(groupID string) map[string]FileUpload {
	out := make(map[string]FileUpload)
	if f == nil {
		return out
	}
	for elementID, group := range f.Groups {
		if group != groupID {
			continue
		}
		if u, ok := f.Uploads[elementID]; ok {
			out[elementID] = u
		}
	}
	return out
}

// ExecutionRequest is one unit of work for the execution engine: a
// matched workflow plus the context assembled at dispatch time.
type ExecutionRequest struct {
	InvocationID string
	SessionID    string
	StorageKey   string
	Workflow     *Workflow
	Context      map[string]any
	Uploads      map[string]FileUpload
}
