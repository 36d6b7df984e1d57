package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/appforge/canvasflow/metric"
	"github.com/appforge/canvasflow/model"
	"github.com/appforge/canvasflow/nav"
	"github.com/appforge/canvasflow/notify"
	"github.com/appforge/canvasflow/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	requests []model.ExecutorRequest
	response *model.ExecutorResponse
	err      error
}

func (f *fakeExecutor) Submit(_ context.Context, req model.ExecutorRequest) (*model.ExecutorResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeMedia struct {
	uploaded []string
	failFor  map[string]bool
}

func (f *fakeMedia) Upload(_ context.Context, _ string, file model.FileUpload) (*model.MediaFile, error) {
	if f.failFor[file.Filename] {
		return nil, errors.New("upload rejected")
	}
	f.uploaded = append(f.uploaded, file.Filename)
	return &model.MediaFile{Path: "/media/" + file.Filename, Filename: file.Filename}, nil
}

type engineFixture struct {
	engine   *Engine
	executor *fakeExecutor
	media    *fakeMedia
	sessions *session.Registry
	recorder *notify.Recorder
}

func newFixture(resp *model.ExecutorResponse, execErr error) *engineFixture {
	pages := nav.NewPages("page-1", "page-2")
	sessions := session.NewRegistry(pages, "page-1", time.Hour)
	recorder := notify.NewRecorder()
	exec := &fakeExecutor{response: resp, err: execErr}
	media := &fakeMedia{failFor: map[string]bool{}}
	eng := NewEngine("app-1", exec, media, sessions, recorder, metric.NewMetrics())
	return &engineFixture{engine: eng, executor: exec, media: media, sessions: sessions, recorder: recorder}
}

func okResponse(results ...model.StepResult) *model.ExecutorResponse {
	return &model.ExecutorResponse{Success: true, Results: results}
}

func clickRequest() model.ExecutionRequest {
	return model.ExecutionRequest{
		InvocationID: "inv-1",
		SessionID:    "s1",
		StorageKey:   "btn1:click",
		Workflow: &model.Workflow{
			ElementID: "btn1",
			Nodes: model.NodeList{
				{ID: "n1", Data: model.NodeData{"label": "onClick"}},
				{ID: "n2", Data: model.NodeData{"label": "page.redirect", "pageId": "page-2"}},
			},
			Edges: model.EdgeList{{Source: "n1", Target: "n2"}},
		},
		Context: map[string]any{},
	}
}

func TestExecuteRedirectScenario(t *testing.T) {
	fx := newFixture(okResponse(model.StepResult{
		NodeLabel: "page.redirect",
		Result: &model.NodeResult{
			Type: model.ResultRedirect, Success: true,
			Redirect: &model.Redirect{Type: "page", Target: "page-2"},
		},
	}), nil)

	require.NoError(t, fx.engine.Execute(clickRequest()))

	sess := fx.sessions.Get("s1")
	assert.Equal(t, "page-2", sess.Nav.Current())
	assert.Equal(t, 1, sess.Nav.Depth())

	kinds := fx.recorder.Kinds()
	require.Len(t, kinds, 1)
	assert.Equal(t, notify.KindNavigation, kinds[0])

	require.Len(t, fx.executor.requests, 1)
	assert.Equal(t, "app-1", fx.executor.requests[0].AppID)
	assert.Len(t, fx.executor.requests[0].Nodes, 2)
}

func TestExecuteExecutorErrorNotifiesAndLeavesContext(t *testing.T) {
	fx := newFixture(nil, errors.New("connection refused"))
	sess := fx.sessions.Get("s1")
	sess.Set("existing", "value")

	require.NoError(t, fx.engine.Execute(clickRequest()))

	sent := fx.recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.KindToast, sent[0].Instruction.Kind)
	assert.Equal(t, "Workflow Error", sent[0].Instruction.Title)
	assert.Equal(t, notify.VariantFailure, sent[0].Instruction.Variant)

	snap := sess.Snapshot()
	assert.Equal(t, map[string]any{"existing": "value"}, snap)
}

func TestExecuteExecutorNonOKResponse(t *testing.T) {
	fx := newFixture(&model.ExecutorResponse{Success: false, Message: "bad graph"}, nil)
	require.NoError(t, fx.engine.Execute(clickRequest()))

	sent := fx.recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Workflow Error", sent[0].Instruction.Title)
	assert.Equal(t, "bad graph", sent[0].Instruction.Message)
}

func TestExecuteMergesResultsIntoSession(t *testing.T) {
	fx := newFixture(okResponse(
		model.StepResult{
			NodeLabel: "db.find",
			Result: &model.NodeResult{
				Type: model.ResultDBFind, Success: true,
				Data: []any{map[string]any{"id": "row-1"}},
			},
		},
		model.StepResult{
			NodeLabel: "http.request",
			Result:    &model.NodeResult{Type: "httpProxy", Success: true, Data: map[string]any{"body": "ok"}},
		},
	), nil)

	require.NoError(t, fx.engine.Execute(clickRequest()))

	sess := fx.sessions.Get("s1")
	dbResult, ok := sess.Get(session.KeyDBFindResult)
	require.True(t, ok)
	assert.Equal(t, []any{map[string]any{"id": "row-1"}}, dbResult)
	byLabel, ok := sess.Get("db.find")
	require.True(t, ok)
	assert.Equal(t, dbResult, byLabel)
	httpData, ok := sess.Get("http.request")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"body": "ok"}, httpData)
}

func TestExecutePersistentContextFeedsNextInvocation(t *testing.T) {
	fx := newFixture(okResponse(model.StepResult{
		NodeLabel: "db.find",
		Result:    &model.NodeResult{Type: model.ResultDBFind, Success: true, Data: "rows"},
	}), nil)

	require.NoError(t, fx.engine.Execute(clickRequest()))
	require.NoError(t, fx.engine.Execute(clickRequest()))

	require.Len(t, fx.executor.requests, 2)
	assert.Equal(t, "rows", fx.executor.requests[1].Context[session.KeyDBFindResult])
}

func TestExecuteUploadsBeforeGraphPartialFailure(t *testing.T) {
	fx := newFixture(okResponse(), nil)
	fx.media.failFor["broken.bin"] = true

	req := clickRequest()
	req.Uploads = map[string]model.FileUpload{
		"file-input-a": {Filename: "ok.png", Content: []byte("png")},
		"file-input-b": {Filename: "broken.bin", Content: []byte("x")},
	}
	require.NoError(t, fx.engine.Execute(req))

	// The failed element is simply absent; execution proceeded.
	require.Len(t, fx.executor.requests, 1)
	ctx := fx.executor.requests[0].Context
	uploaded, ok := ctx["file-input-a"].(*model.MediaFile)
	require.True(t, ok)
	assert.Equal(t, "/media/ok.png", uploaded.Path)
	_, present := ctx["file-input-b"]
	assert.False(t, present)
	last, ok := ctx[session.KeyLastUploadedFile].(*model.MediaFile)
	require.True(t, ok)
	assert.Equal(t, "ok.png", last.Filename)
}

func TestExecuteNavigationErrorOnUnknownTarget(t *testing.T) {
	fx := newFixture(okResponse(model.StepResult{
		NodeLabel: "page.redirect",
		Result: &model.NodeResult{
			Type: model.ResultRedirect, Success: true,
			Redirect: &model.Redirect{Type: "page", Target: "missing-page"},
		},
	}), nil)

	require.NoError(t, fx.engine.Execute(clickRequest()))

	sess := fx.sessions.Get("s1")
	assert.Equal(t, "page-1", sess.Nav.Current())
	sent := fx.recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Navigation Error", sent[0].Instruction.Title)
}

func TestExecuteModalEnrichedByConfirmation(t *testing.T) {
	fx := newFixture(okResponse(model.StepResult{
		NodeLabel: "http.request",
		Result: &model.NodeResult{
			Type:    "httpProxy",
			Success: true,
			Action:  &model.Action{Type: "openModal", Payload: map[string]any{"title": "Response"}},
			Context: map[string]any{
				"response": map[string]any{"statusCode": float64(200), "data": map[string]any{"ok": true}},
			},
		},
	}), nil)

	require.NoError(t, fx.engine.Execute(clickRequest()))

	kinds := fx.recorder.Kinds()
	// Modal opens, confirmation fires, then the open modal is enriched.
	require.Equal(t, []notify.Kind{notify.KindModal, notify.KindConfirmation, notify.KindModal}, kinds)
	sent := fx.recorder.Sent()
	enriched := sent[2].Instruction.Payload
	assert.Equal(t, "Response", enriched["title"])
	assert.Contains(t, enriched, "statusCode")
}

func TestExecuteParamTokensResolvedAgainstSessionContext(t *testing.T) {
	fx := newFixture(okResponse(), nil)
	fx.sessions.Get("s1").Set("dbFindResult", map[string]any{"name": "Ada"})

	req := clickRequest()
	req.Workflow.Nodes = append(req.Workflow.Nodes, model.WorkflowNode{
		ID:   "n3",
		Data: model.NodeData{"label": "toast.show", "message": "Hello {$.dbFindResult.name}"},
	})
	require.NoError(t, fx.engine.Execute(req))

	require.Len(t, fx.executor.requests, 1)
	nodes := fx.executor.requests[0].Nodes
	assert.Equal(t, "Hello Ada", nodes[2].Data["message"])
}
