package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/appforge/canvasflow/logger"
	"github.com/appforge/canvasflow/model"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxFetchRetries = 4

// Loader fetches raw workflow definitions from the backend and fills
// the store. Definitions may carry nodes/edges as JSON-encoded strings;
// a workflow that fails to decode is dropped, the rest load normally.
type Loader struct {
	backendURL string
	appID      string
	httpClient *http.Client
	store      Store
}

func NewLoader(backendURL, appID string, store Store) *Loader {
	return &Loader{
		backendURL: backendURL,
		appID:      appID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
	}
}

// Load fetches with exponential backoff, normalizes and replaces the
// store contents. It returns the number of loaded and dropped
// workflows.
func (l *Loader) Load(ctx context.Context) (loaded, dropped int, err error) {
	var body []byte
	operation := func() error {
		var fetchErr error
		body, fetchErr = l.fetch(ctx)
		return fetchErr
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries)
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return 0, 0, fmt.Errorf("fetching workflows: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, 0, fmt.Errorf("decoding workflow list: %w", err)
	}

	entries := make([]model.StoredWorkflow, 0, len(raw))
	for i, item := range raw {
		var wf model.Workflow
		if err := json.Unmarshal(item, &wf); err != nil {
			dropped++
			logger.Warn("dropping undecodable workflow",
				zap.Int("position", i), zap.Error(err))
			continue
		}
		entries = append(entries, model.StoredWorkflow{
			StorageKey: storageKey(&wf),
			Workflow:   &wf,
		})
	}
	if err := l.store.Replace(entries); err != nil {
		return 0, dropped, err
	}
	logger.Info("workflows loaded",
		zap.Int("loaded", len(entries)), zap.Int("dropped", dropped))
	return len(entries), dropped, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	url := fmt.Sprintf("%s/apps/%s/workflows", l.backendURL, l.appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func storageKey(wf *model.Workflow) string {
	if wf.ElementID != "" {
		return wf.ElementID
	}
	if wf.ID != "" {
		return "wf-" + wf.ID
	}
	return "wf-" + uuid.New().String()
}
