package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProviderForTest(t *testing.T, handler http.Handler) *providerClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return newProviderClient(ProviderConfig{BaseURL: server.URL, APIKey: "test-key"}, 5*time.Second, zap.NewNop())
}

func TestResetUserPasswordSuccess(t *testing.T) {
	client := newProviderForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/recover", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	tool := &resetUserPasswordTool{client: client}

	output, err := tool.Invoke(context.Background(), map[string]any{"user_id": "u1"})

	require.NoError(t, err)
	assert.NotContains(t, output, "error")
	assert.Equal(t, "password reset email sent", output["result"])
}

func TestResetUserPasswordFailureReportsError(t *testing.T) {
	client := newProviderForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	tool := &resetUserPasswordTool{client: client}

	output, err := tool.Invoke(context.Background(), map[string]any{"user_id": "u1"})

	require.NoError(t, err)
	assert.Contains(t, output["error"], "failed to send password reset email")
}

func TestResetUserPasswordRequiresUserID(t *testing.T) {
	tool := &resetUserPasswordTool{}

	output, err := tool.Invoke(context.Background(), map[string]any{})

	require.NoError(t, err)
	assert.Equal(t, "user_id argument required", output["error"])
}

func TestCheckUserPermissions(t *testing.T) {
	client := newProviderForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/users", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"u1","role":"admin","permissions":["tickets:write"]}]`))
	}))
	tool := &checkUserPermissionsTool{client: client}

	output, err := tool.Invoke(context.Background(), map[string]any{"user_id": "u1"})

	require.NoError(t, err)
	assert.Equal(t, true, output["can_reset_password"])
	assert.Equal(t, true, output["admin"])
}

func TestCheckUserPermissionsUnknownUser(t *testing.T) {
	client := newProviderForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	tool := &checkUserPermissionsTool{client: client}

	output, err := tool.Invoke(context.Background(), map[string]any{"user_id": "ghost"})

	require.NoError(t, err)
	assert.Equal(t, false, output["can_reset_password"])
	assert.NotEmpty(t, output["error"])
}

func TestVerifySystemStatus(t *testing.T) {
	client := newProviderForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	tool := &verifySystemStatusTool{client: client}

	output, err := tool.Invoke(context.Background(), map[string]any{"service": "auth"})

	require.NoError(t, err)
	assert.Equal(t, true, output["operational"])
	assert.Contains(t, output, "latency_ms")
}

func TestVerifySystemStatusUnknownService(t *testing.T) {
	tool := &verifySystemStatusTool{}

	output, err := tool.Invoke(context.Background(), map[string]any{"service": "mainframe"})

	require.NoError(t, err)
	assert.Equal(t, false, output["operational"])
	assert.Equal(t, "unknown service: mainframe", output["error"])
}

func TestBuildRegistryHonorsManifest(t *testing.T) {
	manifest := &Manifest{
		Tools: []ToolSpec{
			{Name: ToolVerifySystemStatus, Enabled: true},
			{Name: ToolResetUserPassword, Enabled: false},
		},
	}

	registry := BuildRegistry(manifest, nil, time.Second, zap.NewNop())

	_, ok := registry.Lookup(ToolVerifySystemStatus)
	assert.True(t, ok)
	_, ok = registry.Lookup(ToolResetUserPassword)
	assert.False(t, ok)
	_, ok = registry.Lookup(ToolSearchKnowledgeBase)
	assert.False(t, ok)
}
