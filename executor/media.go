package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/appforge/canvasflow/model"
)

// MediaUploader stores one user-selected file and returns its
// descriptor.
type MediaUploader interface {
	Upload(ctx context.Context, appID string, file model.FileUpload) (*model.MediaFile, error)
}

// MediaClient is the multipart HTTP MediaUploader.
type MediaClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ MediaUploader = new(MediaClient)

func NewMediaClient(baseURL string) *MediaClient {
	return &MediaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (m *MediaClient) Upload(ctx context.Context, appID string, file model.FileUpload) (*model.MediaFile, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", file.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewReader(file.Content)); err != nil {
		return nil, err
	}
	if err := writer.WriteField("appId", appID); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/media/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("media endpoint returned status %d", resp.StatusCode)
	}
	var out model.MediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding media response: %w", err)
	}
	if !out.Success || len(out.Files) == 0 {
		return nil, fmt.Errorf("media upload rejected: %s", out.Message)
	}
	return &out.Files[0], nil
}
