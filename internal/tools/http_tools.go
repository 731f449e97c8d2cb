package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Built-in tool names referenced by resolution plans.
const (
	ToolSearchKnowledgeBase  = "search_knowledge_base"
	ToolCheckUserPermissions = "check_user_permissions"
	ToolResetUserPassword    = "reset_user_password"
	ToolVerifySystemStatus   = "verify_system_status"
)

// providerClient wraps HTTP access to the account platform the built-in
// tools act on.
type providerClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

func newProviderClient(cfg ProviderConfig, timeout time.Duration, logger *zap.Logger) *providerClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &providerClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *providerClient) get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	c.setHeaders(req)
	return c.do(req, out)
}

func (c *providerClient) post(ctx context.Context, path string, payload, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)
	return c.do(req, out)
}

func (c *providerClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *providerClient) do(req *http.Request, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// checkUserPermissionsTool queries what the user may do on the platform.
type checkUserPermissionsTool struct {
	client *providerClient
}

func (t *checkUserPermissionsTool) Name() string { return ToolCheckUserPermissions }

func (t *checkUserPermissionsTool) Description() string {
	return "Check what permissions a user has on the account platform"
}

func (t *checkUserPermissionsTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	userID, _ := args["user_id"].(string)
	if userID == "" {
		return map[string]any{"error": "user_id argument required"}, nil
	}

	var users []struct {
		ID          string   `json:"id"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	status, err := t.client.get(ctx, "/rest/v1/users?id=eq."+userID+"&select=id,role,permissions", &users)
	if err != nil {
		return map[string]any{"error": err.Error(), "can_reset_password": false}, nil
	}
	if status != http.StatusOK || len(users) == 0 {
		return map[string]any{"error": "failed to fetch user permissions", "can_reset_password": false}, nil
	}

	return map[string]any{
		"can_reset_password": true,
		"admin":              users[0].Role == "admin",
		"permissions":        users[0].Permissions,
	}, nil
}

// resetUserPasswordTool triggers the platform's password recovery flow.
type resetUserPasswordTool struct {
	client *providerClient
}

func (t *resetUserPasswordTool) Name() string { return ToolResetUserPassword }

func (t *resetUserPasswordTool) Description() string {
	return "Reset a user's password and send them reset instructions"
}

func (t *resetUserPasswordTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	userID, _ := args["user_id"].(string)
	if userID == "" {
		return map[string]any{"error": "user_id argument required"}, nil
	}

	status, err := t.client.post(ctx, "/auth/v1/recover", map[string]any{"user_id": userID}, nil)
	if err != nil {
		return map[string]any{"error": fmt.Sprintf("error resetting password: %v", err)}, nil
	}
	if status != http.StatusOK {
		return map[string]any{"error": fmt.Sprintf("failed to send password reset email: status %d", status)}, nil
	}
	return map[string]any{"result": "password reset email sent"}, nil
}

// verifySystemStatusTool checks whether a platform subsystem is up.
type verifySystemStatusTool struct {
	client *providerClient
}

func (t *verifySystemStatusTool) Name() string { return ToolVerifySystemStatus }

func (t *verifySystemStatusTool) Description() string {
	return "Check if a specific service or system is operational"
}

var serviceHealthPaths = map[string]string{
	"auth":     "/auth/v1/health",
	"database": "/rest/v1/health",
	"storage":  "/storage/v1/health",
}

func (t *verifySystemStatusTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	service, _ := args["service"].(string)
	path, ok := serviceHealthPaths[service]
	if !ok {
		return map[string]any{"operational": false, "error": "unknown service: " + service}, nil
	}

	start := time.Now()
	status, err := t.client.get(ctx, path, nil)
	latency := time.Since(start)
	if err != nil {
		return map[string]any{"operational": false, "error": err.Error()}, nil
	}

	return map[string]any{
		"operational": status == http.StatusOK,
		"latency_ms":  latency.Milliseconds(),
		"status_code": status,
	}, nil
}
