// Package trigger classifies workflows by the UI event that fires them
// and builds the derived lookup index the dispatcher resolves against.
package trigger

import (
	"strings"

	"github.com/appforge/canvasflow/model"
)

// Kind is the classified trigger variant of a workflow.
type Kind int

const (
	// Unclassified marks a workflow with no usable trigger (empty node
	// list); it never enters the index.
	Unclassified Kind = iota
	Click
	Change
	Submit
	PageLoad
	Login
	Drop
)

func (k Kind) String() string {
	switch k {
	case Click:
		return "click"
	case Change:
		return "change"
	case Submit:
		return "submit"
	case PageLoad:
		return "pageLoad"
	case Login:
		return "login"
	case Drop:
		return "drop"
	default:
		return "unclassified"
	}
}

// Classification is the decoded trigger of one workflow. Fallback marks
// the lower-confidence heuristic path taken when no node satisfied the
// trigger predicate.
type Classification struct {
	Kind         Kind
	TriggerNode  *model.WorkflowNode
	EventType    model.EventType
	FormGroupID  string
	TargetPageID string
	Fallback     bool
}

const triggerCategory = "Triggers"

var triggerLabels = map[string]model.EventType{
	"onClick":    model.EventClick,
	"onChange":   model.EventChange,
	"onSubmit":   model.EventSubmit,
	"onDrop":     model.EventDrop,
	"onHover":    model.EventHover,
	"onFocus":    model.EventFocus,
	"onPageLoad": model.EventPageLoad,
	"onLogin":    model.EventLogin,
}

// isTriggerNode is the trigger predicate: explicit category, explicit
// flag, a known trigger label, or any label of the "onXxx" shape.
func isTriggerNode(n *model.WorkflowNode) bool {
	if n.Data.Category() == triggerCategory || n.Data.IsTrigger() {
		return true
	}
	label := n.Data.Label()
	if _, ok := triggerLabels[label]; ok {
		return true
	}
	return strings.HasPrefix(label, "on")
}

// Classify decodes the trigger of one workflow. The first node
// satisfying the predicate wins, in node-list order; at most one
// classification is taken per workflow.
func Classify(wf *model.Workflow) Classification {
	if len(wf.Nodes) == 0 {
		return Classification{Kind: Unclassified}
	}
	for i := range wf.Nodes {
		node := &wf.Nodes[i]
		if !isTriggerNode(node) {
			continue
		}
		return classifyNode(node)
	}
	return classifyFallback(wf)
}

func classifyNode(node *model.WorkflowNode) Classification {
	c := Classification{TriggerNode: node}
	switch node.Data.Label() {
	case "onClick":
		c.Kind = Click
		c.EventType = model.EventClick
		// Authors may override the fired event type on a click trigger.
		if custom := node.Data.TriggerType(); custom != "" {
			c.EventType = model.EventType(custom)
		}
	case "onChange":
		c.Kind = Change
		c.EventType = model.EventChange
	case "onDrop":
		c.Kind = Drop
		c.EventType = model.EventDrop
	case "onPageLoad":
		c.Kind = PageLoad
		c.EventType = model.EventPageLoad
		c.TargetPageID = node.Data.TargetPageID()
	case "onLogin":
		c.Kind = Login
		c.EventType = model.EventLogin
	case "onSubmit":
		// A form's submit workflow is addressed by which form it belongs
		// to, not which element declared the trigger. An empty group is a
		// diagnosed authoring gap left for the index builder to report.
		c.Kind = Submit
		c.EventType = model.EventSubmit
		c.FormGroupID = node.Data.SelectedFormGroup()
	default:
		c.Kind = Click
		c.EventType = model.EventClick
	}
	return c
}

// classifyFallback keeps inconsistently authored workflows reachable:
// anything submit-shaped becomes a Submit, everything else a Click.
func classifyFallback(wf *model.Workflow) Classification {
	submitLike := false
	group := ""
	for i := range wf.Nodes {
		data := wf.Nodes[i].Data
		label := data.Label()
		if label == "onSubmit" || strings.Contains(label, "Submit") {
			submitLike = true
		}
		if g := data.SelectedFormGroup(); g != "" && group == "" {
			submitLike = true
			group = g
		}
	}
	if submitLike && group != "" {
		return Classification{
			Kind:        Submit,
			EventType:   model.EventSubmit,
			FormGroupID: group,
			Fallback:    true,
		}
	}
	return Classification{
		Kind:      Click,
		EventType: model.EventClick,
		Fallback:  true,
	}
}
