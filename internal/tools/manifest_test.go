package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifestMissingFileUsesDefaults(t *testing.T) {
	manifest, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.True(t, manifest.Enabled(ToolSearchKnowledgeBase))
	assert.True(t, manifest.Enabled(ToolResetUserPassword))
	assert.True(t, manifest.Enabled(ToolCheckUserPermissions))
	assert.True(t, manifest.Enabled(ToolVerifySystemStatus))
}

func TestLoadManifestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	content := `
provider:
  baseUrl: "http://provider.local"
  apiKey: "secret"
tools:
  - name: reset_user_password
    enabled: false
  - name: verify_system_status
    enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	manifest, err := LoadManifest(path)

	require.NoError(t, err)
	assert.Equal(t, "http://provider.local", manifest.Provider.BaseURL)
	assert.False(t, manifest.Enabled(ToolResetUserPassword))
	assert.True(t, manifest.Enabled(ToolVerifySystemStatus))
	// not listed means not enabled
	assert.False(t, manifest.Enabled(ToolSearchKnowledgeBase))
}

func TestLoadManifestRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [broken"), 0o600))

	_, err := LoadManifest(path)

	assert.Error(t, err)
}
