// Package engine drives one workflow invocation: media uploads, the
// step executor call, context accumulation and side-effect application.
package engine

import (
	"context"
	"errors"
	"sort"

	"github.com/appforge/canvasflow/executor"
	"github.com/appforge/canvasflow/logger"
	"github.com/appforge/canvasflow/metric"
	"github.com/appforge/canvasflow/model"
	"github.com/appforge/canvasflow/nav"
	"github.com/appforge/canvasflow/notify"
	"github.com/appforge/canvasflow/session"
	"github.com/appforge/canvasflow/util"
	"go.uber.org/zap"
)

type Engine struct {
	appID    string
	executor executor.StepExecutor
	media    executor.MediaUploader
	sessions *session.Registry
	notifier notify.Notifier
	metrics  *metric.Metrics
}

func NewEngine(appID string, step executor.StepExecutor, media executor.MediaUploader,
	sessions *session.Registry, notifier notify.Notifier, metrics *metric.Metrics) *Engine {
	return &Engine{
		appID:    appID,
		executor: step,
		media:    media,
		sessions: sessions,
		notifier: notifier,
		metrics:  metrics,
	}
}

// Execute runs one matched workflow. Failures are contained here: the
// user is notified, nothing propagates past this boundary.
func (e *Engine) Execute(req model.ExecutionRequest) error {
	sess := e.sessions.Get(req.SessionID)
	logger.Info("executing workflow",
		zap.String("invocation", req.InvocationID),
		zap.String("workflow", req.StorageKey),
		zap.String("session", req.SessionID))

	if req.Context == nil {
		req.Context = make(map[string]any)
	}
	e.uploadFiles(&req)

	// Session context first, per-dispatch fields on top.
	contextData := sess.Snapshot()
	for k, v := range req.Context {
		contextData[k] = v
	}

	nodes := util.ResolveNodeParams(req.Workflow.Nodes, contextData)
	resp, err := e.executor.Submit(context.Background(), model.ExecutorRequest{
		AppID:   e.appID,
		Nodes:   nodes,
		Edges:   req.Workflow.Edges,
		Context: contextData,
	})
	if err != nil || !resp.Success {
		// Fatal for this invocation: no retry, session context untouched.
		e.metrics.ExecutorFailures.Inc()
		e.metrics.WorkflowsExecuted.WithLabelValues("failure").Inc()
		message := "The workflow could not be executed."
		if err != nil {
			logger.Error("step executor call failed",
				zap.String("invocation", req.InvocationID), zap.Error(err))
		} else {
			logger.Error("step executor reported failure",
				zap.String("invocation", req.InvocationID), zap.String("message", resp.Message))
			if resp.Message != "" {
				message = resp.Message
			}
		}
		e.notifier.Send(req.SessionID, notify.Instruction{
			Kind:    notify.KindToast,
			Title:   "Workflow Error",
			Message: message,
			Variant: notify.VariantFailure,
		})
		return nil
	}

	e.mergeResults(sess, resp.Results)
	plan := PlanEffects(resp.Results)
	e.apply(req.SessionID, sess, plan)
	e.metrics.WorkflowsExecuted.WithLabelValues("success").Inc()
	return nil
}

// uploadFiles pushes each pending file to the media endpoint before
// graph execution, one element at a time. A failed upload leaves that
// element absent from the context; execution proceeds regardless.
func (e *Engine) uploadFiles(req *model.ExecutionRequest) {
	if len(req.Uploads) == 0 {
		return
	}
	elementIDs := make([]string, 0, len(req.Uploads))
	for id := range req.Uploads {
		elementIDs = append(elementIDs, id)
	}
	sort.Strings(elementIDs)
	for _, elementID := range elementIDs {
		file := req.Uploads[elementID]
		descriptor, err := e.media.Upload(context.Background(), e.appID, file)
		if err != nil {
			e.metrics.FilesUploaded.WithLabelValues("failure").Inc()
			logger.Error("file upload failed, continuing without it",
				zap.String("invocation", req.InvocationID),
				zap.String("element", elementID),
				zap.String("filename", file.Filename),
				zap.Error(err))
			continue
		}
		e.metrics.FilesUploaded.WithLabelValues("success").Inc()
		req.Context[elementID] = descriptor
		req.Context[session.KeyLastUploadedFile] = descriptor
	}
}

// mergeResults folds named results into the session-persistent context
// so subsequent, unrelated invocations can read them.
func (e *Engine) mergeResults(sess *session.Session, results []model.StepResult) {
	for _, step := range results {
		res := step.Result
		if res == nil || res.Data == nil {
			continue
		}
		if res.Type == model.ResultDBFind {
			sess.Set(session.KeyDBFindResult, res.Data)
		}
		if step.NodeLabel != "" {
			sess.Set(step.NodeLabel, res.Data)
		}
	}
}

func (e *Engine) apply(sessionID string, sess *session.Session, plan Plan) {
	for _, effect := range plan.Effects {
		switch effect.Kind {
		case EffectNavigate:
			e.applyNavigate(sessionID, sess, effect.Page)
		case EffectOpenURL:
			e.notifier.Send(sessionID, notify.Instruction{
				Kind: notify.KindNavigation,
				Payload: map[string]any{
					"type":   "url",
					"url":    effect.URL,
					"newTab": effect.NewTab,
				},
			})
		case EffectGoBack:
			e.applyGoBack(sessionID, sess)
		case EffectToast:
			e.notifier.Send(sessionID, notify.Instruction{
				Kind:    notify.KindToast,
				Title:   effect.Toast.Title,
				Message: effect.Toast.Message,
				Variant: effect.Toast.Variant,
			})
		case EffectModal:
			merged := sess.OpenModal(effect.Modal)
			e.notifier.Send(sessionID, notify.Instruction{
				Kind:    notify.KindModal,
				Payload: merged,
			})
		case EffectUploadFailure:
			e.notifier.Send(sessionID, notify.Instruction{
				Kind:    notify.KindUploadFailure,
				Title:   "File Upload Failed",
				Message: effect.Message,
				Variant: notify.VariantFailure,
			})
		case EffectDownload:
			e.notifier.Send(sessionID, notify.Instruction{
				Kind: notify.KindDownload,
				Payload: map[string]any{
					"url":      effect.Download.URL,
					"filename": effect.Download.Filename,
					"mimeType": effect.Download.MimeType,
				},
			})
		case EffectDownloadFailed:
			e.notifier.Send(sessionID, notify.Instruction{
				Kind:    notify.KindToast,
				Title:   "Download Failed",
				Message: effect.Message,
				Variant: notify.VariantFailure,
			})
		case EffectSummary:
			sess.SetSummary(effect.Summary)
			e.notifier.Send(sessionID, notify.Instruction{
				Kind: notify.KindSummaryPopup,
				Payload: map[string]any{
					"text":             effect.Summary.Text,
					"filename":         effect.Summary.Filename,
					"originalLength":   effect.Summary.OriginalLength,
					"summaryLength":    effect.Summary.SummaryLength,
					"compressionRatio": effect.Summary.CompressionRatio,
				},
			})
		case EffectSummaryFailed:
			e.notifier.Send(sessionID, notify.Instruction{
				Kind:    notify.KindToast,
				Title:   "Summarization Failed",
				Message: effect.Message,
				Variant: notify.VariantFailure,
			})
		case EffectConfirmation:
			e.notifier.Send(sessionID, notify.Instruction{
				Kind:    notify.KindConfirmation,
				Title:   "Request Completed",
				Variant: notify.VariantSuccess,
				Payload: effect.Data,
			})
			if merged, open := sess.MergeOpenModal(effect.Data); open {
				e.notifier.Send(sessionID, notify.Instruction{
					Kind:    notify.KindModal,
					Payload: merged,
				})
			}
		}
	}
}

func (e *Engine) applyNavigate(sessionID string, sess *session.Session, page string) {
	if err := sess.Nav.NavigateTo(page); err != nil {
		logger.Warn("navigation aborted",
			zap.String("session", sessionID), zap.String("target", page), zap.Error(err))
		e.notifier.Send(sessionID, notify.Instruction{
			Kind:    notify.KindToast,
			Title:   "Navigation Error",
			Message: "The target page does not exist.",
			Variant: notify.VariantFailure,
		})
		return
	}
	e.notifier.Send(sessionID, notify.Instruction{
		Kind: notify.KindNavigation,
		Payload: map[string]any{
			"type":   "page",
			"pageId": page,
			"url":    "/p/" + page,
		},
	})
}

func (e *Engine) applyGoBack(sessionID string, sess *session.Session) {
	popped, err := sess.Nav.GoBack()
	if errors.Is(err, nav.ErrEmptyStack) {
		return
	}
	if err != nil {
		e.notifier.Send(sessionID, notify.Instruction{
			Kind:    notify.KindToast,
			Title:   "Navigation Error",
			Message: "The previous page no longer exists.",
			Variant: notify.VariantFailure,
		})
		return
	}
	e.notifier.Send(sessionID, notify.Instruction{
		Kind: notify.KindNavigation,
		Payload: map[string]any{
			"type":   "page",
			"pageId": popped,
			"url":    "/p/" + popped,
		},
	})
}
