// Package store keeps the loaded workflow definitions the trigger index
// is derived from.
package store

import "github.com/appforge/canvasflow/model"

// Store is a keyed collection of workflow definitions. GetAll returns
// entries in a stable order so index builds stay deterministic.
type Store interface {
	GetAll() ([]model.StoredWorkflow, error)
	Get(key string) (*model.Workflow, error)
	Put(key string, wf *model.Workflow) error
	Delete(key string) error
	// Replace swaps the whole collection atomically, preserving the
	// given order.
	Replace(entries []model.StoredWorkflow) error
}
