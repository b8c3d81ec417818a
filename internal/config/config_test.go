package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 8675, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Mode)
	assert.Equal(t, "/root/ai-toolkit", cfg.Toolkit.Dir)
	assert.Equal(t, "/root/.cache", cfg.Toolkit.CacheLink)
	assert.Equal(t, []string{"npm", "run", "start"}, cfg.Toolkit.StartCommand)
	assert.Equal(t, []string{"npm", "run", "update_db"}, cfg.Toolkit.DBInitCommand)
	assert.Equal(t, "/mnt/output", cfg.Volumes.OutputMount)
	assert.Equal(t, "/mnt/cache", cfg.Volumes.CacheMount)
	assert.Equal(t, "aitoolkit-output", cfg.Volumes.OutputName)
	assert.Equal(t, "aitoolkit-cache", cfg.Volumes.CacheName)
	assert.Equal(t, "all", cfg.Container.GPUs)

	require.NoError(t, cfg.Validate())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8675, cfg.Server.Port)
	// UIDir is derived from the toolkit dir when unset.
	assert.Equal(t, "/root/ai-toolkit/ui", cfg.Toolkit.UIDir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aikit.yaml")
	content := `
server:
  port: 9000
  mode: development
toolkit:
  dir: /opt/ai-toolkit
volumes:
  output_mount: /data/output
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Mode)
	assert.Equal(t, "/opt/ai-toolkit", cfg.Toolkit.Dir)
	assert.Equal(t, "/opt/ai-toolkit/ui", cfg.Toolkit.UIDir)
	// Unset fields keep their defaults.
	assert.Equal(t, "/data/output", cfg.Volumes.OutputMount)
	assert.Equal(t, "/mnt/cache", cfg.Volumes.CacheMount)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AIKIT_SERVER_PORT", "9001")
	t.Setenv("AIKIT_TOOLKIT_HF_TOKEN", "hf_secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "hf_secret", cfg.Toolkit.HFToken)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "invalid port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"bad mode", func(c *Config) { c.Server.Mode = "staging" }, "invalid mode"},
		{"no toolkit dir", func(c *Config) { c.Toolkit.Dir = "" }, "toolkit directory"},
		{"no start command", func(c *Config) { c.Toolkit.StartCommand = nil }, "start command"},
		{"no output mount", func(c *Config) { c.Volumes.OutputMount = "" }, "mount paths"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "/root/ai-toolkit/output", cfg.OutputLink())
	assert.Equal(t, "/root/ai-toolkit/aitk_db.db", cfg.LocalDatabasePath())
	assert.Equal(t, "/mnt/output/database/aitk_db.db", cfg.DurableDatabasePath())
	assert.Equal(t, "file:/root/ai-toolkit/aitk_db.db", cfg.DatabaseURL())
}

func TestEnviron(t *testing.T) {
	cfg := NewDefaultConfig()

	env := cfg.Environ()
	assert.Equal(t, []string{
		"DATABASE_URL=file:/root/ai-toolkit/aitk_db.db",
		"NODE_ENV=production",
		"PORT=8675",
		"PYTHONPATH=/root/ai-toolkit",
		"PYTHONUNBUFFERED=1",
	}, env)
}

func TestEnvironOptionalTokens(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.AuthToken = "secret"
	cfg.Toolkit.HFToken = "hf_abc"

	env := cfg.Environ()
	assert.Contains(t, env, "AI_TOOLKIT_AUTH=secret")
	assert.Contains(t, env, "HF_TOKEN=hf_abc")
	// Sorted output keeps launches deterministic.
	assert.Equal(t, "AI_TOOLKIT_AUTH=secret", env[0])
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "aikit.yaml")

	require.NoError(t, WriteDefault(path))

	// The written file round-trips to the default configuration.
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8675, cfg.Server.Port)
	assert.Equal(t, "/mnt/output", cfg.Volumes.OutputMount)
	require.NoError(t, cfg.Validate())

	// Refuses to clobber an existing file.
	err = WriteDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exists")
}
