package executor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appforge/canvasflow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSubmit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/execute", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req model.ExecutorRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "app-1", req.AppID)
		require.Len(t, req.Nodes, 1)

		json.NewEncoder(w).Encode(model.ExecutorResponse{
			Success: true,
			Results: []model.StepResult{
				{NodeLabel: "toast.show", Result: &model.NodeResult{Type: model.ResultToast, Success: true}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Submit(context.Background(), model.ExecutorRequest{
		AppID: "app-1",
		Nodes: []model.WorkflowNode{{ID: "n1"}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "toast.show", resp.Results[0].NodeLabel)
}

func TestClientSubmitNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Submit(context.Background(), model.ExecutorRequest{AppID: "app-1"})
	assert.Error(t, err)
}

func TestMediaClientUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/media/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "app-1", r.FormValue("appId"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "photo.png", header.Filename)
		content, _ := io.ReadAll(file)
		assert.Equal(t, []byte("pngbytes"), content)

		json.NewEncoder(w).Encode(model.MediaUploadResponse{
			Success: true,
			Files:   []model.MediaFile{{Path: "/media/photo.png", Filename: "photo.png", Size: 8}},
		})
	}))
	defer server.Close()

	client := NewMediaClient(server.URL)
	file, err := client.Upload(context.Background(), "app-1", model.FileUpload{
		Filename: "photo.png",
		Content:  []byte("pngbytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "/media/photo.png", file.Path)
}

func TestMediaClientUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.MediaUploadResponse{Success: false, Message: "quota exceeded"})
	}))
	defer server.Close()

	client := NewMediaClient(server.URL)
	_, err := client.Upload(context.Background(), "app-1", model.FileUpload{Filename: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
