package toolsurface

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quintant/lumora/internal/config"
	"github.com/quintant/lumora/internal/logging"
	"github.com/quintant/lumora/internal/query"
	"github.com/quintant/lumora/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tempDir := t.TempDir()
	logger := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})

	db, err := storage.Open(tempDir, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultConfig()
	engine := query.NewEngine(tempDir, db, cfg)

	return NewServer(engine, nil, logger, false)
}

func sendRequest(t *testing.T, s *Server, method string, id int, params interface{}) *Message {
	t.Helper()

	req := Message{Jsonrpc: "2.0", ID: id, Method: method, Params: params}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	data = append(data, '\n')

	var out bytes.Buffer
	s.SetStdin(bytes.NewReader(data))
	s.SetStdout(&out)

	msg, err := s.readMessage()
	require.NoError(t, err)

	resp := s.handleMessage(msg)
	require.NotNil(t, resp)
	return resp
}

func TestInitializeReturnsServerInfo(t *testing.T) {
	s := newTestServer(t)
	resp := sendRequest(t, s, "initialize", 1, map[string]interface{}{})
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	info, ok := result["serverInfo"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "lumora", info["name"])
}

func TestToolsListReturnsEightOperations(t *testing.T) {
	s := newTestServer(t)
	resp := sendRequest(t, s, "tools/list", 1, map[string]interface{}{})
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	tools, ok := result["tools"].([]Tool)
	require.True(t, ok)
	assert.Len(t, tools, 8)
}

func TestToolsCallUnknownToolErrors(t *testing.T) {
	s := newTestServer(t)
	resp := sendRequest(t, s, "tools/call", 1, map[string]interface{}{"name": "nonexistent"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestToolsCallSelectorDiscoverRoundTrips(t *testing.T) {
	s := newTestServer(t)

	resp := sendRequest(t, s, "tools/call", 1, map[string]interface{}{
		"name":      "selector_discover",
		"arguments": map[string]interface{}{"query": "anything"},
	})
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	content, ok := result["content"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, content, 1)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(content[0]["text"].(string)), &decoded))
	assert.Equal(t, float64(0), decoded["total"])
}

func TestMethodNotFound(t *testing.T) {
	s := newTestServer(t)
	resp := sendRequest(t, s, "nonexistent/method", 1, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}
