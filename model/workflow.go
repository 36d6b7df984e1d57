package model

import (
	"encoding/json"
	"fmt"
)

// NodeData holds the freeform authoring payload of a node. Well-known
// fields are exposed through accessors so the freeform remainder survives
// a round trip to the step executor untouched.
type NodeData map[string]any

func (d NodeData) stringField(key string) string {
	if d == nil {
		return ""
	}
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

func (d NodeData) Label() string             { return d.stringField("label") }
func (d NodeData) Category() string          { return d.stringField("category") }
func (d NodeData) TriggerType() string       { return d.stringField("triggerType") }
func (d NodeData) SelectedFormGroup() string { return d.stringField("selectedFormGroup") }
func (d NodeData) TargetPageID() string      { return d.stringField("targetPageId") }
func (d NodeData) PageID() string            { return d.stringField("pageId") }

func (d NodeData) IsTrigger() bool {
	if d == nil {
		return false
	}
	v, ok := d["isTrigger"].(bool)
	return ok && v
}

type WorkflowNode struct {
	ID   string   `json:"id"`
	Type string   `json:"type,omitempty"`
	Data NodeData `json:"data,omitempty"`
}

// WorkflowEdge connects two nodes. Label or SourceHandle may carry a
// branch name ("next", "onError", "yes", "no").
type WorkflowEdge struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Label        string `json:"label,omitempty"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// NodeList tolerates the shapes the backend serves: a JSON array, a JSON
// string containing an array, a single bare object, or null.
type NodeList []WorkflowNode

func (l *NodeList) UnmarshalJSON(data []byte) error {
	raw, err := normalizeListJSON(data)
	if err != nil {
		return fmt.Errorf("nodes: %w", err)
	}
	var nodes []WorkflowNode
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return fmt.Errorf("nodes: %w", err)
	}
	*l = nodes
	return nil
}

// EdgeList applies the same coercions as NodeList.
type EdgeList []WorkflowEdge

func (l *EdgeList) UnmarshalJSON(data []byte) error {
	raw, err := normalizeListJSON(data)
	if err != nil {
		return fmt.Errorf("edges: %w", err)
	}
	var edges []WorkflowEdge
	if err := json.Unmarshal(raw, &edges); err != nil {
		return fmt.Errorf("edges: %w", err)
	}
	*l = edges
	return nil
}

// normalizeListJSON coerces null to [], a bare object to a one-element
// array, and unwraps a JSON-encoded string payload.
func normalizeListJSON(data []byte) ([]byte, error) {
	for len(data) > 0 {
		switch data[0] {
		case 'n': // null
			return []byte("[]"), nil
		case '[':
			return data, nil
		case '{':
			wrapped := make([]byte, 0, len(data)+2)
			wrapped = append(wrapped, '[')
			wrapped = append(wrapped, data...)
			wrapped = append(wrapped, ']')
			return wrapped, nil
		case '"':
			var inner string
			if err := json.Unmarshal(data, &inner); err != nil {
				return nil, err
			}
			data = []byte(inner)
		default:
			return nil, fmt.Errorf("unexpected JSON shape %q", data[0])
		}
	}
	return []byte("[]"), nil
}

// Workflow is one event-triggered node graph attached to a canvas element.
type Workflow struct {
	ID        string   `json:"id,omitempty"`
	ElementID string   `json:"elementId,omitempty"`
	PageID    string   `json:"pageId,omitempty"`
	Nodes     NodeList `json:"nodes"`
	Edges     EdgeList `json:"edges"`
}

// IndexIdentity returns the id the trigger index files this workflow
// under: the attached element when present, otherwise a synthetic key
// from the workflow id, otherwise the storage key it was loaded with.
func (w *Workflow) IndexIdentity(storageKey string) string {
	if w.ElementID != "" {
		return w.ElementID
	}
	if w.ID != "" {
		return "wf-" + w.ID
	}
	return storageKey
}

// StoredWorkflow pairs a workflow with its storage key so index builds
// see entries in a stable order.
type StoredWorkflow struct {
	StorageKey string
	Workflow   *Workflow
}
