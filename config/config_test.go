package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaynamir/archbench/archbench"
)

func TestLoadMissingDefaultFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gateway:
  base_url: http://ha.local:8123
  token: secret
models:
  - name: phi3:mini
    backend: ollama
  - name: mistral
    backend: openai
    base_url: http://localhost:4000/v1
profile: lite
repeats: 3
workers: 4
unit_timeout: 45s
redis_url: redis://localhost:6379/0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://ha.local:8123", cfg.Gateway.BaseURL)
	assert.Equal(t, "lite", cfg.Profile)
	assert.Equal(t, 3, cfg.Repeats)
	assert.Equal(t, 45*time.Second, cfg.UnitTimeout.Std())
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)

	handles := cfg.ModelHandles()
	require.Len(t, handles, 2)
	assert.Equal(t, archbench.BackendOllama, handles[0].Backend)
	assert.Equal(t, archbench.BackendOpenAI, handles[1].Backend)
	// defaults survive for fields the file does not set
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsBadBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - name: phi3:mini
    backend: carrier-pigeon
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
