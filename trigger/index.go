package trigger

import (
	"fmt"

	"github.com/appforge/canvasflow/logger"
	"github.com/appforge/canvasflow/model"
	"go.uber.org/zap"
)

// Key builds the element:event composite key.
func Key(elementID string, eventType model.EventType) string {
	return fmt.Sprintf("%s:%s", elementID, eventType)
}

// FormGroupKey builds the submit key of a form group.
func FormGroupKey(groupID string) string {
	return fmt.Sprintf("formGroup:%s:submit", groupID)
}

// PageKey builds the page-load key of a page.
func PageKey(pageID string) string {
	return fmt.Sprintf("page:%s:pageLoad", pageID)
}

// AppKey builds the app-level login key.
func AppKey(elementID string) string {
	return fmt.Sprintf("app:%s:login", elementID)
}

// Index maps a composite trigger key to the workflows it fires, in
// insertion order. It is derived data: rebuilt whole on every store
// change, never mutated in place.
type Index struct {
	entries map[string][]*model.Workflow
	keys    []string
}

func newIndex() *Index {
	return &Index{entries: make(map[string][]*model.Workflow)}
}

func (ix *Index) add(key string, wf *model.Workflow) {
	if _, ok := ix.entries[key]; !ok {
		ix.keys = append(ix.keys, key)
	}
	ix.entries[key] = append(ix.entries[key], wf)
}

// Lookup returns the workflows behind a key in insertion order.
func (ix *Index) Lookup(key string) []*model.Workflow {
	return ix.entries[key]
}

// Has reports whether any workflow is indexed under the key. The
// rendering layer uses this for hover affordances without executing.
func (ix *Index) Has(key string) bool {
	return len(ix.entries[key]) > 0
}

// Keys returns all keys in first-indexed order.
func (ix *Index) Keys() []string {
	out := make([]string, len(ix.keys))
	copy(out, ix.keys)
	return out
}

func (ix *Index) Len() int {
	return len(ix.entries)
}

// BuildIndex classifies every stored workflow and files it under its
// trigger keys. The build is pure and deterministic for a given entry
// order; duplicates are allowed, order within a key is preserved.
func BuildIndex(entries []model.StoredWorkflow) *Index {
	ix := newIndex()
	for _, entry := range entries {
		wf := entry.Workflow
		c := Classify(wf)
		elementID := wf.IndexIdentity(entry.StorageKey)
		if c.Fallback {
			logger.Warn("no trigger node found, using heuristic classification",
				zap.String("workflow", entry.StorageKey),
				zap.String("kind", c.Kind.String()))
		}
		switch c.Kind {
		case Unclassified:
			logger.Warn("workflow has no nodes, excluded from index",
				zap.String("workflow", entry.StorageKey))
		case Submit:
			if c.FormGroupID == "" {
				// Known authoring gap: an onSubmit trigger without a form
				// group is unreachable until authored correctly.
				logger.Warn("onSubmit trigger without selectedFormGroup, workflow unreachable",
					zap.String("workflow", entry.StorageKey),
					zap.String("element", elementID))
				continue
			}
			ix.add(FormGroupKey(c.FormGroupID), wf)
		case PageLoad:
			ix.add(Key(elementID, c.EventType), wf)
			target := c.TargetPageID
			if target == "" {
				target = elementID
			}
			ix.add(PageKey(target), wf)
		case Login:
			ix.add(Key(elementID, c.EventType), wf)
			ix.add(AppKey(elementID), wf)
		default:
			ix.add(Key(elementID, c.EventType), wf)
		}
	}
	if ix.Len() == 0 && len(entries) > 0 {
		// Emergency fallback: degrade to everything-is-click-triggered
		// rather than silently executing nothing.
		logger.Error("trigger index empty for non-empty store, indexing everything as click",
			zap.Int("workflows", len(entries)))
		for _, entry := range entries {
			ix.add(Key(entry.StorageKey, model.EventClick), entry.Workflow)
		}
	}
	logger.Info("trigger index built",
		zap.Int("workflows", len(entries)),
		zap.Int("keys", ix.Len()))
	return ix
}
