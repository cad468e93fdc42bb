package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"loom-backend/application/operators"
	"loom-backend/application/ports"
	"loom-backend/application/services"
	"loom-backend/domain/core/aggregates"
	"loom-backend/domain/core/valueobjects"
	"loom-backend/infrastructure/config"
	"loom-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubFetcher fakes the archive server
type stubFetcher struct{}

func (stubFetcher) FetchMessage(_ context.Context, folder string, index int) (*ports.ImportedContent, error) {
	i := index
	return &ports.ImportedContent{
		Text:  fmt.Sprintf("message %d", index),
		Title: folder,
		Source: valueobjects.ArchiveSource{
			Type:               valueobjects.SourceChatGPT,
			ConversationFolder: folder,
			MessageIndex:       &i,
		},
	}, nil
}

func (stubFetcher) FetchConversation(_ context.Context, folder string) (*ports.ImportedContent, error) {
	return &ports.ImportedContent{
		Text:  "whole conversation",
		Title: folder,
		Source: valueobjects.ArchiveSource{
			Type:               valueobjects.SourceChatGPT,
			ConversationFolder: folder,
		},
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	registry := operators.NewRegistry(nil, logger)
	require.NoError(t, operators.RegisterBuiltins(registry))
	require.NoError(t, operators.RegisterDefaultPipelines(registry))

	graph := aggregates.NewContentGraph(nil)
	manager := services.NewBufferManager(graph, registry, nil, logger, observability.NewCollector("test"))

	cfg := &config.Config{
		ServerAddress:    ":0",
		Environment:      "development",
		MetricsNamespace: "test",
	}

	router := NewRouter(cfg, manager, registry, stubFetcher{}, observability.NewCollector("test_http"), logger)
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = nil
	}
	return resp, decoded
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}

func TestRouter_ImportAndTransformFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, node := doJSON(t, http.MethodPost, srv.URL+"/api/v1/import",
		map[string]interface{}{"text": "hello world", "title": "Demo"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "hello world", node["text"])
	assert.Equal(t, "import", node["operation"].(map[string]interface{})["kind"])
	rootID := node["id"].(string)

	resp, node = doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers/active/operators/uppercase", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "HELLO WORLD", node["text"])
	assert.Equal(t, rootID, node["parentId"])

	resp, node = doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers/active/undo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, rootID, node["id"])

	resp, node = doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers/active/redo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HELLO WORLD", node["text"])

	resp, history := doJSON(t, http.MethodGet, srv.URL+"/api/v1/buffers/active/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), history["operations"])
	assert.Len(t, history["nodes"], 2)
}

func TestRouter_PipelineEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/import",
		map[string]interface{}{"text": "  One. Two.  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, node := doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers/active/pipelines/clean-split", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, node["isList"])
	assert.Len(t, node["items"], 2)
}

func TestRouter_OperatorValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/v1/import", map[string]interface{}{"text": "hello"})

	// Unknown operator
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers/active/operators/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Bad params
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers/active/operators/sort-length",
		map[string]interface{}{"params": map[string]interface{}{"direction": "sideways"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, true, body["error"])
}

func TestRouter_BufferLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, buf := doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers",
		map[string]interface{}{"name": "Draft"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bufID := buf["id"].(string)
	assert.Equal(t, "Draft", buf["name"])

	resp, listing := doJSON(t, http.MethodGet, srv.URL+"/api/v1/buffers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, bufID, listing["activeBufferId"])

	resp, buf = doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers/"+bufID+"/pin",
		map[string]interface{}{"pinned": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, buf["pinned"])

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/buffers/"+bufID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/buffers/"+bufID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Malformed id
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/buffers/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_ForkEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/v1/import", map[string]interface{}{"text": "hello", "title": "Base"})

	resp, listing := doJSON(t, http.MethodGet, srv.URL+"/api/v1/buffers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sourceID := listing["activeBufferId"].(string)

	resp, forked := doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers/"+sourceID+"/fork", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Base (fork)", forked["name"])
	assert.NotEqual(t, sourceID, forked["id"])
}

func TestRouter_ArchiveImport(t *testing.T) {
	srv := newTestServer(t)

	resp, node := doJSON(t, http.MethodPost, srv.URL+"/api/v1/import/archive",
		map[string]interface{}{"conversationFolder": "writing-notes", "messageIndex": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "message 2", node["text"])
	assert.Equal(t, "chatgpt", node["source"].(map[string]interface{})["type"])

	resp, node = doJSON(t, http.MethodPost, srv.URL+"/api/v1/import/archive",
		map[string]interface{}{"conversationFolder": "writing-notes"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "whole conversation", node["text"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/import/archive", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_CatalogEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/operators", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["operators"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/operators?type=split", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, raw := range body["operators"].([]interface{}) {
		assert.Equal(t, "split", raw.(map[string]interface{})["type"])
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/pipelines", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["pipelines"])
}

func TestRouter_NodeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, root := doJSON(t, http.MethodPost, srv.URL+"/api/v1/import", map[string]interface{}{"text": "hello"})
	rootID := root["id"].(string)
	_, child := doJSON(t, http.MethodPost, srv.URL+"/api/v1/buffers/active/operators/uppercase", nil)
	childID := child["id"].(string)

	resp, node := doJSON(t, http.MethodGet, srv.URL+"/api/v1/nodes/"+rootID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{childID}, node["childIds"])

	resp, history := doJSON(t, http.MethodGet, srv.URL+"/api/v1/nodes/"+childID+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, history["nodes"], 2)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/nodes/"+valueobjects.NewNodeID().String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
