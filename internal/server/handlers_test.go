package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codedesk/internal/agent"
	"codedesk/internal/config"
	"codedesk/internal/contextmgr"
	"codedesk/internal/conversation"
	"codedesk/internal/orchestrator"
	"codedesk/internal/types"
	"codedesk/internal/workspace"
)

// echoModel answers every generation with a fixed line.
type echoModel struct{}

func (echoModel) Generate(ctx context.Context, modelID, prompt string, opts types.GenerateOptions) (types.Generation, error) {
	return types.Generation{Text: "echo response", ModelID: "stub/echo", FinishReason: "stop"}, nil
}

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()

	cfg := config.DefaultAgentsConfig()
	engine, err := orchestrator.New(
		[]types.Agent{
			agent.NewChatAgent(echoModel{}, cfg),
			agent.NewCodeAgent(echoModel{}, cfg),
			agent.NewReasoningAgent(echoModel{}, cfg),
		},
		conversation.NewStore(nil), contextmgr.NewManager(), cfg, orchestrator.Options{},
	)
	require.NoError(t, err)

	files, err := workspace.NewFiles(t.TempDir())
	require.NoError(t, err)

	handlers := NewHandlers(engine, files, nil, func() map[string]bool {
		return map[string]bool{"local": true}
	})
	return New("127.0.0.1:0", 0, handlers)
}

func doJSON(t *testing.T, srv *HTTPServer, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Contains(t, resp, "providers")
}

func TestProcessRoute(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/process", map[string]any{
		"input":    "hello there",
		"workflow": "chat-first",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result types.WorkflowResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Contains(t, result.Response, "echo response")
	assert.Equal(t, types.WorkflowChatFirst, result.Workflow)
	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, []string{"chat"}, result.Metadata.Steps)
}

func TestProcessRouteEmptyInput(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/process", map[string]any{"input": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestProcessRouteUnknownWorkflow(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/process", map[string]any{
		"input":    "hello",
		"workflow": "banana",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unknown_workflow", resp.Code)
}

func TestConversationLifecycle(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/conversations", map[string]any{
		"context": map[string]any{"projectInfo": "demo"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["conversation_id"]
	require.NotEmpty(t, id)

	w = doJSON(t, srv, http.MethodGet, "/v1/conversations/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/v1/conversations/unknown-id", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Code)
}

func TestContextRoutes(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/conversations", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["conversation_id"]

	w = doJSON(t, srv, http.MethodPut, "/v1/conversations/"+id+"/context", map[string]any{
		"currentFile": "main.go",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/v1/conversations/"+id+"/context", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Context types.Context `json:"context"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "main.go", resp.Context.GetString("currentFile"))
}

func TestInvokeAgentRoute(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/v1/agents/code", map[string]any{
		"input": "reverse a string",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result types.AgentResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "echo response", result.Response)

	w = doJSON(t, srv, http.MethodPost, "/v1/agents/librarian", map[string]any{"input": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilesRoutes(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPut, "/v1/files/notes/todo.md", map[string]any{
		"content": "- ship it",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodGet, "/v1/files/notes/todo.md", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var read map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &read))
	assert.Equal(t, "- ship it", read["content"])

	w = doJSON(t, srv, http.MethodGet, "/v1/files/notes?list=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Entries []string `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, []string{"todo.md"}, listing.Entries)

	w = doJSON(t, srv, http.MethodGet, "/v1/files/ghost.txt", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/v1/process", map[string]any{"input": "hello there", "workflow": "chat-first"})

	w := doJSON(t, srv, http.MethodGet, "/v1/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap orchestrator.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Len(t, snap.Agents, 3)
	assert.Equal(t, 1, snap.Conversations)
}
