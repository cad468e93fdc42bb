package transform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "loom-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_Humanize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/humanize", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "stiff text", req["text"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"transformed": "natural text",
			"metadata":    map[string]interface{}{"model": "test"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())

	result, err := client.Humanize(context.Background(), "stiff text", nil)
	require.NoError(t, err)
	assert.Equal(t, "natural text", result.Transformed)
	assert.Equal(t, "test", result.Metadata["model"])
}

func TestClient_PersonaSendsPersona(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/persona", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pirate", req["persona"])

		json.NewEncoder(w).Encode(map[string]interface{}{"transformed": "arr"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())

	result, err := client.TransformPersona(context.Background(), "hello", "pirate", nil)
	require.NoError(t, err)
	assert.Equal(t, "arr", result.Transformed)
}

func TestClient_AnalyzeSentences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sentences": []map[string]interface{}{
				{"sentence": "First.", "stance": "neutral", "entropy": 0.4, "score": 0.9},
				{"sentence": "Second.", "stance": "assertive", "entropy": 0.7, "score": 0.5},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())

	var progressDone, progressTotal int
	sentences, err := client.AnalyzeSentences(context.Background(), "First. Second.",
		func(done, total int) { progressDone, progressTotal = done, total })
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	assert.Equal(t, "First.", sentences[0].Sentence)
	assert.Equal(t, 0.9, sentences[0].Score)
	assert.Equal(t, 2, progressDone)
	assert.Equal(t, 2, progressTotal)
}

func TestClient_ServerErrorIsExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())

	_, err := client.Humanize(context.Background(), "text", nil)
	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeExternal, appErr.Type)
}

func TestClient_CancellationIsCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.Humanize(ctx, "text", nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCancelled(err))
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())

	// Trip the breaker, then observe fast failures without a request
	for i := 0; i < 6; i++ {
		_, err := client.Humanize(context.Background(), "text", nil)
		require.Error(t, err)
	}

	requests := 0
	counting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer counting.Close()
	client.baseURL = counting.URL

	_, err := client.Humanize(context.Background(), "text", nil)
	require.Error(t, err)
	assert.Equal(t, 0, requests)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeExternal, appErr.Type)
}
