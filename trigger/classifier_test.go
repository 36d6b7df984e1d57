package trigger

import (
	"testing"

	"github.com/appforge/canvasflow/model"
	"github.com/stretchr/testify/assert"
)

func workflowWithNodes(nodes ...model.WorkflowNode) *model.Workflow {
	return &model.Workflow{ElementID: "el-1", Nodes: nodes}
}

func TestClassifyLabelMapping(t *testing.T) {
	cases := []struct {
		label string
		kind  Kind
		event model.EventType
	}{
		{"onClick", Click, model.EventClick},
		{"onChange", Change, model.EventChange},
		{"onDrop", Drop, model.EventDrop},
		{"onPageLoad", PageLoad, model.EventPageLoad},
		{"onLogin", Login, model.EventLogin},
	}
	for _, tc := range cases {
		wf := workflowWithNodes(model.WorkflowNode{
			ID:   "n1",
			Data: model.NodeData{"label": tc.label},
		})
		c := Classify(wf)
		assert.Equal(t, tc.kind, c.Kind, tc.label)
		assert.Equal(t, tc.event, c.EventType, tc.label)
		assert.False(t, c.Fallback, tc.label)
		assert.Equal(t, "n1", c.TriggerNode.ID)
	}
}

func TestClassifyFirstTriggerNodeWins(t *testing.T) {
	wf := workflowWithNodes(
		model.WorkflowNode{ID: "n0", Data: model.NodeData{"label": "db.find"}},
		model.WorkflowNode{ID: "n1", Data: model.NodeData{"label": "onChange"}},
		model.WorkflowNode{ID: "n2", Data: model.NodeData{"label": "onClick"}},
	)
	c := Classify(wf)
	assert.Equal(t, Change, c.Kind)
	assert.Equal(t, "n1", c.TriggerNode.ID)
}

func TestClassifyTriggerTypeOverride(t *testing.T) {
	wf := workflowWithNodes(model.WorkflowNode{
		ID:   "n1",
		Data: model.NodeData{"label": "onClick", "triggerType": "hover"},
	})
	c := Classify(wf)
	assert.Equal(t, Click, c.Kind)
	assert.Equal(t, model.EventHover, c.EventType)
}

func TestClassifyCategoryAndFlagPredicate(t *testing.T) {
	byCategory := workflowWithNodes(model.WorkflowNode{
		ID:   "n1",
		Data: model.NodeData{"label": "whatever", "category": "Triggers"},
	})
	assert.Equal(t, Click, Classify(byCategory).Kind)

	byFlag := workflowWithNodes(model.WorkflowNode{
		ID:   "n1",
		Data: model.NodeData{"label": "custom", "isTrigger": true},
	})
	assert.Equal(t, Click, Classify(byFlag).Kind)
}

func TestClassifyOnPrefixHeuristicLabel(t *testing.T) {
	wf := workflowWithNodes(model.WorkflowNode{
		ID:   "n1",
		Data: model.NodeData{"label": "onSomethingCustom"},
	})
	c := Classify(wf)
	// Unknown trigger labels default to click.
	assert.Equal(t, Click, c.Kind)
	assert.Equal(t, model.EventClick, c.EventType)
	assert.False(t, c.Fallback)
}

func TestClassifySubmitWithFormGroup(t *testing.T) {
	wf := workflowWithNodes(model.WorkflowNode{
		ID:   "n1",
		Data: model.NodeData{"label": "onSubmit", "selectedFormGroup": "grp-7"},
	})
	c := Classify(wf)
	assert.Equal(t, Submit, c.Kind)
	assert.Equal(t, "grp-7", c.FormGroupID)
}

func TestClassifySubmitWithoutFormGroupIsDiagnosedGap(t *testing.T) {
	wf := workflowWithNodes(model.WorkflowNode{
		ID:   "n1",
		Data: model.NodeData{"label": "onSubmit"},
	})
	c := Classify(wf)
	assert.Equal(t, Submit, c.Kind)
	assert.Empty(t, c.FormGroupID)
}

func TestClassifyPageLoadTarget(t *testing.T) {
	wf := workflowWithNodes(model.WorkflowNode{
		ID:   "n1",
		Data: model.NodeData{"label": "onPageLoad", "targetPageId": "page-9"},
	})
	c := Classify(wf)
	assert.Equal(t, PageLoad, c.Kind)
	assert.Equal(t, "page-9", c.TargetPageID)
}

func TestClassifyFallbackSubmitShaped(t *testing.T) {
	wf := workflowWithNodes(
		model.WorkflowNode{ID: "n1", Data: model.NodeData{"label": "form.Submit"}},
		model.WorkflowNode{ID: "n2", Data: model.NodeData{"label": "db.insert", "selectedFormGroup": "grp-3"}},
	)
	c := Classify(wf)
	assert.Equal(t, Submit, c.Kind)
	assert.Equal(t, "grp-3", c.FormGroupID)
	assert.True(t, c.Fallback)
}

func TestClassifyFallbackSubmitWithoutGroupBecomesClick(t *testing.T) {
	wf := workflowWithNodes(
		model.WorkflowNode{ID: "n1", Data: model.NodeData{"label": "handleSubmit"}},
	)
	c := Classify(wf)
	assert.Equal(t, Click, c.Kind)
	assert.True(t, c.Fallback)
}

func TestClassifyFallbackClick(t *testing.T) {
	wf := workflowWithNodes(
		model.WorkflowNode{ID: "n1", Data: model.NodeData{"label": "db.find"}},
	)
	c := Classify(wf)
	assert.Equal(t, Click, c.Kind)
	assert.True(t, c.Fallback)
}

func TestClassifyEmptyWorkflow(t *testing.T) {
	wf := &model.Workflow{ElementID: "el-1"}
	assert.Equal(t, Unclassified, Classify(wf).Kind)
}
