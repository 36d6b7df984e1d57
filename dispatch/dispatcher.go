// Package dispatch resolves UI events against the trigger index and
// hands matched workflows to the execution engine.
package dispatch

import (
	"sync"
	"time"

	"github.com/appforge/canvasflow/logger"
	"github.com/appforge/canvasflow/metric"
	"github.com/appforge/canvasflow/model"
	"github.com/appforge/canvasflow/notify"
	"github.com/appforge/canvasflow/session"
	"github.com/appforge/canvasflow/trigger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Executor accepts matched work. In production this queues to the
// worker pool; tests inject a synchronous fake.
type Executor interface {
	Execute(req model.ExecutionRequest) error
}

type Dispatcher struct {
	mu       sync.RWMutex
	index    *trigger.Index
	executor Executor
	notifier notify.Notifier
	metrics  *metric.Metrics
}

func NewDispatcher(index *trigger.Index, exec Executor, notifier notify.Notifier, metrics *metric.Metrics) *Dispatcher {
	return &Dispatcher{
		index:    index,
		executor: exec,
		notifier: notifier,
		metrics:  metrics,
	}
}

// SetIndex swaps in a freshly built index. The index itself is never
// mutated; store changes produce a new one.
func (d *Dispatcher) SetIndex(index *trigger.Index) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.index = index
}

func (d *Dispatcher) Index() *trigger.Index {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index
}

// Has reports whether any workflow is indexed under the key, for the
// rendering layer's hover affordances.
func (d *Dispatcher) Has(key string) bool {
	return d.Index().Has(key)
}

// OnEvent resolves one UI event to zero or more engine invocations.
// Fire-and-forget: no return value, failures surface as notifications
// or diagnostics only.
func (d *Dispatcher) OnEvent(sessionID, elementID string, eventType model.EventType,
	payload model.EventPayload, forms *model.FormSubmissionContext) {

	if eventType == model.EventInvalidPhone {
		// Validation signal, not a trigger lookup.
		message := payload.Message
		if message == "" {
			message = "The phone number entered is not valid."
		}
		d.notifier.Send(sessionID, notify.Instruction{
			Kind:    notify.KindToast,
			Title:   "Invalid Phone Number",
			Message: message,
			Variant: notify.VariantFailure,
		})
		return
	}

	if eventType == model.EventSubmit && payload.FormGroupID != "" {
		if d.dispatchFormSubmit(sessionID, payload, forms) {
			// A matched form submission must not also run as a generic
			// element event.
			return
		}
	}

	key := trigger.Key(elementID, eventType)
	workflows := d.Index().Lookup(key)
	if len(workflows) == 0 {
		d.metrics.EventsDispatched.WithLabelValues(string(eventType), "false").Inc()
		logger.Debug("no workflow for event",
			zap.String("session", sessionID), zap.String("key", key))
		return
	}
	d.metrics.EventsDispatched.WithLabelValues(string(eventType), "true").Inc()

	for _, wf := range workflows {
		contextData := d.baseContext(payload)
		if eventType == model.EventDrop {
			if !hasDropNode(wf) {
				logger.Debug("drop event matched workflow without onDrop node",
					zap.String("session", sessionID), zap.String("key", key))
			}
			contextData[session.KeyDropData] = dropContext(payload)
		}
		d.submit(sessionID, key, wf, contextData, nil)
	}
}

// dispatchFormSubmit runs the form-group lookup. It reports whether a
// workflow matched; an unmatched group falls through to element:event.
func (d *Dispatcher) dispatchFormSubmit(sessionID string, payload model.EventPayload,
	forms *model.FormSubmissionContext) bool {

	groupID := payload.FormGroupID
	key := trigger.FormGroupKey(groupID)
	workflows := d.Index().Lookup(key)
	if len(workflows) == 0 {
		return false
	}
	d.metrics.EventsDispatched.WithLabelValues(string(model.EventSubmit), "true").Inc()

	formData := payload.FormData
	if len(formData) == 0 {
		formData = forms.GroupValues(groupID)
	}
	uploads := forms.GroupUploads(groupID)

	for _, wf := range workflows {
		contextData := map[string]any{
			session.KeyFormData:    formData,
			session.KeyFormGroupID: groupID,
		}
		if len(uploads) > 0 {
			names := make([]string, 0, len(uploads))
			for elementID := range uploads {
				names = append(names, elementID)
			}
			contextData[session.KeyUploadedFiles] = names
		}
		d.submit(sessionID, key, wf, contextData, uploads)
	}
	return true
}

func (d *Dispatcher) submit(sessionID, key string, wf *model.Workflow,
	contextData map[string]any, uploads map[string]model.FileUpload) {

	req := model.ExecutionRequest{
		InvocationID: uuid.New().String(),
		SessionID:    sessionID,
		StorageKey:   key,
		Workflow:     wf,
		Context:      contextData,
		Uploads:      uploads,
	}
	if err := d.executor.Execute(req); err != nil {
		logger.Error("error submitting workflow execution",
			zap.String("session", sessionID), zap.String("key", key), zap.Error(err))
	}
}

func (d *Dispatcher) baseContext(payload model.EventPayload) map[string]any {
	contextData := make(map[string]any)
	if payload.PageID != "" {
		contextData[session.KeyPageID] = payload.PageID
	}
	if payload.Value != nil {
		contextData["value"] = payload.Value
	}
	if len(payload.FormData) > 0 {
		contextData[session.KeyFormData] = payload.FormData
	}
	return contextData
}

func hasDropNode(wf *model.Workflow) bool {
	for i := range wf.Nodes {
		if wf.Nodes[i].Data.Label() == "onDrop" {
			return true
		}
	}
	return false
}

func dropContext(payload model.EventPayload) map[string]any {
	files := make([]map[string]any, 0, len(payload.Files))
	for _, f := range payload.Files {
		files = append(files, map[string]any{
			"filename": f.Filename,
			"mimeType": f.MimeType,
			"size":     f.Size,
		})
	}
	out := map[string]any{
		"files":     files,
		"timestamp": time.Now().UnixMilli(),
	}
	if payload.Position != nil {
		out["position"] = map[string]any{"x": payload.Position.X, "y": payload.Position.Y}
	}
	return out
}
