package runtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/http-executor/internal/audit"
	"github.com/codex-k8s/http-executor/internal/constants"
	"github.com/codex-k8s/http-executor/internal/dsl"
	"github.com/codex-k8s/http-executor/internal/idempotency"
	"github.com/codex-k8s/http-executor/internal/protocol"
	"github.com/codex-k8s/http-executor/internal/request"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Record(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAudit) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

func usersServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		switch r.URL.Path {
		case "/users/42":
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "full", r.URL.Query().Get("view"))
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Set-Cookie", "session=abc")
			_, _ = w.Write([]byte(`{"id":42,"name":"Ada"}`))
		case "/users":
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, http.MethodPost, r.Method)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(body)
		case "/broken":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":`))
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func getUserTool(url string) dsl.ToolConfig {
	return dsl.ToolConfig{
		Name: "get_user",
		Request: dsl.RequestConfig{
			Method:  "GET",
			URL:     url + `/users/[[ arg "id" ]]`,
			Headers: map[string]string{"Authorization": `Bearer [[ arg "token" ]]`},
			Query:   map[string]string{"view": "full"},
			Codec:   "json",
		},
	}
}

func TestToolCallSuccess(t *testing.T) {
	server := usersServer(t, nil)
	rec := &recordingAudit{}
	tool, err := Builder{Audit: rec}.NewTool(getUserTool(server.URL))
	require.NoError(t, err)

	resp := tool.Call(context.Background(), map[string]any{"id": 42, "token": "secret", "correlation_id": "corr-1"})
	assert.Equal(t, protocol.StatusSuccess, resp.Status)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "corr-1", resp.CorrelationID)
	assert.Equal(t, map[string]any{"id": float64(42), "name": "Ada"}, resp.Body)
	assert.Equal(t, "***", resp.Headers["Set-Cookie"])
	assert.Empty(t, resp.ErrorKind)
	assert.Equal(t, []string{audit.TypeToolCall, audit.TypeExchangeOK}, rec.types())
}

func TestToolCallBodyArg(t *testing.T) {
	server := usersServer(t, nil)
	tool, err := Builder{}.NewTool(dsl.ToolConfig{
		Name: "create_user",
		Request: dsl.RequestConfig{
			Method:  "POST",
			URL:     server.URL + "/users",
			BodyArg: "user",
			Codec:   "json",
		},
	})
	require.NoError(t, err)

	resp := tool.Call(context.Background(), map[string]any{"user": map[string]any{"name": "Grace"}})
	assert.Equal(t, protocol.StatusSuccess, resp.Status)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, map[string]any{"name": "Grace"}, resp.Body)
	assert.NotEmpty(t, resp.CorrelationID)
}

func TestToolCallFailures(t *testing.T) {
	server := usersServer(t, nil)

	tests := []struct {
		name     string
		request  dsl.RequestConfig
		timeout  string
		args     map[string]any
		wantKind string
		wantCode int
	}{
		{
			name:     "decode",
			request:  dsl.RequestConfig{URL: server.URL + "/broken", Codec: "json"},
			wantKind: "decode",
			wantCode: http.StatusOK,
		},
		{
			name:     "timeout",
			request:  dsl.RequestConfig{URL: server.URL + "/slow", Codec: "json"},
			timeout:  "50ms",
			wantKind: "timeout",
		},
		{
			name:     "status",
			request:  dsl.RequestConfig{URL: server.URL + "/missing", Codec: "json", ExpectSuccess: true},
			wantKind: "status",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "render",
			request:  dsl.RequestConfig{URL: server.URL + `/users/[[ required "id" ]]`, Codec: "json"},
			wantKind: "internal",
		},
		{
			name:     "invalid url",
			request:  dsl.RequestConfig{URL: `[[ arg "target" ]]`, Codec: "json"},
			args:     map[string]any{"target": "ftp://example.com"},
			wantKind: "internal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, err := Builder{}.NewTool(dsl.ToolConfig{Name: tt.name, Timeout: tt.timeout, Request: tt.request})
			require.NoError(t, err)

			resp := tool.Call(context.Background(), tt.args)
			assert.Equal(t, protocol.StatusError, resp.Status)
			assert.Equal(t, tt.wantKind, resp.ErrorKind)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.NotEmpty(t, resp.Reason)
		})
	}
}

func TestToolCallUsesCache(t *testing.T) {
	var hits atomic.Int32
	server := usersServer(t, &hits)
	rec := &recordingAudit{}
	builder := Builder{
		Audit:            rec,
		Cache:            idempotency.NewCache(time.Minute, 10),
		CacheKeyStrategy: constants.CacheKeyStrategyArgumentsHash,
	}
	tool, err := builder.NewTool(getUserTool(server.URL))
	require.NoError(t, err)

	args := map[string]any{"id": 42, "token": "secret"}
	first := tool.Call(context.Background(), args)
	second := tool.Call(context.Background(), args)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, first.Body, second.Body)
	assert.NotEqual(t, first.CorrelationID, second.CorrelationID)
	assert.Contains(t, rec.types(), audit.TypeCacheHit)

	broken, err := builder.NewTool(dsl.ToolConfig{Name: "broken", Request: dsl.RequestConfig{URL: server.URL + "/broken"}})
	require.NoError(t, err)
	broken.Call(context.Background(), nil)
	broken.Call(context.Background(), nil)
	assert.Equal(t, int32(3), hits.Load())
}

func TestToolCallMarkdownFormat(t *testing.T) {
	server := usersServer(t, nil)
	tool, err := Builder{}.NewTool(dsl.ToolConfig{
		Name:    "missing",
		Request: dsl.RequestConfig{URL: server.URL + "/missing", ExpectSuccess: true},
	})
	require.NoError(t, err)

	resp := tool.Call(context.Background(), map[string]any{"response_format": "Markdown"})
	assert.Contains(t, resp.Reason, "**status**: error (404)")
}

func TestCallGeneric(t *testing.T) {
	server := usersServer(t, nil)
	builder := Builder{DefaultHeaders: map[string]string{"Authorization": "Bearer secret"}}

	resp := builder.CallGeneric(context.Background(), protocol.GenericRequest{
		URL:           server.URL + "/users/42",
		Query:         map[string]string{"view": "full"},
		CorrelationID: "corr-9",
	})
	assert.Equal(t, protocol.StatusSuccess, resp.Status)
	assert.Equal(t, "corr-9", resp.CorrelationID)
	assert.Equal(t, "Ada", resp.Body.(map[string]any)["name"])

	resp = builder.CallGeneric(context.Background(), protocol.GenericRequest{URL: server.URL, Codec: "xml"})
	assert.Equal(t, "internal", resp.ErrorKind)

	resp = builder.CallGeneric(context.Background(), protocol.GenericRequest{URL: server.URL, Timeout: "soon"})
	assert.Equal(t, "internal", resp.ErrorKind)
	assert.Contains(t, resp.Reason, "invalid timeout")

	resp = builder.CallGeneric(context.Background(), protocol.GenericRequest{Method: "GE T", URL: server.URL})
	assert.Equal(t, "internal", resp.ErrorKind)
}

func TestNewToolRejectsBadDeclarations(t *testing.T) {
	_, err := Builder{}.NewTool(dsl.ToolConfig{Name: "x", Request: dsl.RequestConfig{URL: "http://a", Codec: "xml"}})
	assert.Error(t, err)
	_, err = Builder{}.NewTool(dsl.ToolConfig{Name: "x", Request: dsl.RequestConfig{URL: "http://a", Method: "BAD VERB"}})
	assert.Error(t, err)
}

func TestToolCallDoesNotCacheErrorStatus(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"busy"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	t.Cleanup(server.Close)

	tool, err := Builder{
		Cache:            idempotency.NewCache(time.Minute, 10),
		CacheKeyStrategy: constants.CacheKeyStrategyArgumentsHash,
	}.NewTool(dsl.ToolConfig{Name: "flaky", Request: dsl.RequestConfig{URL: server.URL + `/items/[[ arg "id" ]]`}})
	require.NoError(t, err)

	args := map[string]any{"id": 42}
	first := tool.Call(context.Background(), args)
	assert.Equal(t, http.StatusServiceUnavailable, first.StatusCode)

	second := tool.Call(context.Background(), args)
	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, map[string]any{"id": float64(42)}, second.Body)

	third := tool.Call(context.Background(), args)
	assert.Equal(t, http.StatusOK, third.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

func mustBuild(t *testing.T, b *request.Builder) request.Request {
	t.Helper()
	req, err := b.Build()
	require.NoError(t, err)
	return req
}

func TestExchangeKey(t *testing.T) {
	args := map[string]any{"b": 2, "a": []any{1, "x"}, "correlation_id": "c1"}
	req := mustBuild(t, request.NewBuilder().URL("http://api/items").Query("a", "1").Header("X-Token", "t"))
	sameWire := mustBuild(t, request.NewBuilder().URL("http://api/items").Query("a", "1").Header("X-Token", "t").CorrelationID("other"))
	otherWire := mustBuild(t, request.NewBuilder().URL("http://api/items").Query("a", "2").Header("X-Token", "t"))
	get := exchangeKey{tool: "items", verb: request.GET}
	post := exchangeKey{tool: "items", verb: request.POST}

	t.Run("arguments hash ignores reserved args", func(t *testing.T) {
		first, err := get.build(constants.CacheKeyStrategyArgumentsHash, "c1", true, args, req)
		require.NoError(t, err)
		second, err := get.build(constants.CacheKeyStrategyArgumentsHash, "c2", true, map[string]any{"a": []any{1, "x"}, "b": 2}, req)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.True(t, strings.HasPrefix(first, "items:GET:args:"))
	})

	t.Run("request hash follows the wire", func(t *testing.T) {
		first, err := get.build(constants.CacheKeyStrategyRequestHash, "c1", false, args, req)
		require.NoError(t, err)
		same, err := get.build(constants.CacheKeyStrategyRequestHash, "c1", false, nil, sameWire)
		require.NoError(t, err)
		other, err := get.build(constants.CacheKeyStrategyRequestHash, "c1", false, args, otherWire)
		require.NoError(t, err)
		assert.Equal(t, first, same)
		assert.NotEqual(t, first, other)
	})

	t.Run("verb scopes the key", func(t *testing.T) {
		read, err := get.build(constants.CacheKeyStrategyArgumentsHash, "", false, args, req)
		require.NoError(t, err)
		write, err := post.build(constants.CacheKeyStrategyArgumentsHash, "", false, args, req)
		require.NoError(t, err)
		assert.NotEqual(t, read, write)
	})

	t.Run("correlation id", func(t *testing.T) {
		key, err := get.build(constants.CacheKeyStrategyCorrelationID, "c1", true, args, req)
		require.NoError(t, err)
		assert.Equal(t, "items:GET:id:c1", key)

		key, err = get.build(constants.CacheKeyStrategyCorrelationID, "generated", false, args, req)
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("auto", func(t *testing.T) {
		byID, err := post.build(constants.CacheKeyStrategyAuto, "c1", true, args, req)
		require.NoError(t, err)
		assert.Equal(t, "items:POST:id:c1", byID)

		byRequest, err := get.build("", "generated", false, args, req)
		require.NoError(t, err)
		wire, err := get.build(constants.CacheKeyStrategyRequestHash, "c1", false, nil, req)
		require.NoError(t, err)
		assert.Equal(t, wire, byRequest)

		write, err := post.build(constants.CacheKeyStrategyAuto, "generated", false, args, req)
		require.NoError(t, err)
		assert.Empty(t, write)
	})

	_, err := get.build("random", "c1", true, args, req)
	assert.Error(t, err)
}

func TestBuildServesToolsOverMCP(t *testing.T) {
	server := usersServer(t, nil)
	cfg := &dsl.Config{
		Server: dsl.ServerConfig{Name: "users", Version: "1.0.0", GenericTool: true},
		Tools:  []dsl.ToolConfig{getUserTool(server.URL)},
		Resources: []dsl.ResourceConfig{
			{Name: "readme", URI: "doc://readme", MIMEType: "text/plain", Text: "hello"},
		},
	}
	require.NoError(t, dsl.Validate(cfg))

	mcpServer, err := Builder{}.Build(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := mcpServer.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"get_user", constants.GenericToolName}, names)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_user",
		Arguments: map[string]any{"id": 42, "token": "secret"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var got protocol.ToolResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, protocol.StatusSuccess, got.Status)
	assert.Equal(t, http.StatusOK, got.StatusCode)
}
