// Package config provides configuration management for the aikit application.
//
// This package handles all configuration-related functionality including:
//   - UI server settings (port, mode, optional auth token)
//   - Toolkit paths and the commands used to launch it
//   - Durable volume mount points and volume names
//   - Container provisioning settings (image, name, GPU selection)
//
// Configuration is loaded from an optional YAML file and can be overridden
// field by field through AIKIT_* environment variables. The resulting Config
// is an explicit record passed to the components that need it; nothing in
// this package mutates the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultUIPort is the port the toolkit web UI listens on.
	DefaultUIPort = 8675

	// DefaultToolkitDir is where the toolkit checkout lives inside the
	// container image.
	DefaultToolkitDir = "/root/ai-toolkit"

	// DefaultCacheLink is the local path the toolkit uses for model and
	// build caches. It is re-pointed into the cache volume on every boot.
	DefaultCacheLink = "/root/.cache"

	// DefaultOutputMount is the container path of the durable output volume.
	DefaultOutputMount = "/mnt/output"

	// DefaultCacheMount is the container path of the durable cache volume.
	DefaultCacheMount = "/mnt/cache"

	// DefaultOutputVolume is the name of the durable output volume.
	DefaultOutputVolume = "aitoolkit-output"

	// DefaultCacheVolume is the name of the durable cache volume.
	DefaultCacheVolume = "aitoolkit-cache"

	// DefaultImage is the container image with the toolkit, its UI build
	// and aikit itself baked in. Built externally; aikit only consumes it.
	DefaultImage = "ghcr.io/ostrisops/aikit-toolkit:cu128"

	// DefaultContainerName is the name given to the provisioned container.
	DefaultContainerName = "aikit-toolkit-ui"

	// DatabaseFileName is the SQLite database file the toolkit UI expects
	// next to its checkout.
	DatabaseFileName = "aitk_db.db"

	// DatabaseSubdir is the subdirectory of the output volume that holds
	// the durable copy of the database.
	DatabaseSubdir = "database"
)

// Config represents the complete application configuration.
type Config struct {
	// Server holds the toolkit UI server configuration.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Toolkit holds paths and commands for the external toolkit.
	Toolkit ToolkitConfig `mapstructure:"toolkit" yaml:"toolkit"`

	// Volumes holds the durable volume layout.
	Volumes VolumeConfig `mapstructure:"volumes" yaml:"volumes"`

	// Container holds provisioning settings for the GPU container.
	Container ContainerConfig `mapstructure:"container" yaml:"container"`
}

// ServerConfig controls the toolkit UI server process.
type ServerConfig struct {
	// Port is the TCP port the UI listens on. Exposed by the platform as
	// the HTTP endpoint.
	Port int `mapstructure:"port" yaml:"port"`

	// Mode selects the UI build mode, "production" or "development".
	Mode string `mapstructure:"mode" yaml:"mode"`

	// AuthToken, when non-empty, enables token authentication on the UI.
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token,omitempty"`
}

// ToolkitConfig describes the external toolkit installation.
type ToolkitConfig struct {
	// Dir is the toolkit checkout directory.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// UIDir is the directory containing the built web UI. Defaults to
	// Dir/ui when empty.
	UIDir string `mapstructure:"ui_dir" yaml:"ui_dir,omitempty"`

	// CacheLink is the local cache path re-pointed into the cache volume.
	CacheLink string `mapstructure:"cache_link" yaml:"cache_link"`

	// StartCommand launches the UI server. Run from UIDir.
	StartCommand []string `mapstructure:"start_command" yaml:"start_command"`

	// DBInitCommand initializes the UI database on first run. Run from
	// UIDir; must write the database to Dir/DatabaseFileName.
	DBInitCommand []string `mapstructure:"db_init_command" yaml:"db_init_command"`

	// HFToken is an optional model-hub access token, injected by the
	// platform as a secret and passed through to the toolkit.
	HFToken string `mapstructure:"hf_token" yaml:"hf_token,omitempty"`
}

// VolumeConfig describes the durable volumes and their mount points.
type VolumeConfig struct {
	// OutputMount is the container path of the output volume.
	OutputMount string `mapstructure:"output_mount" yaml:"output_mount"`

	// CacheMount is the container path of the cache volume.
	CacheMount string `mapstructure:"cache_mount" yaml:"cache_mount"`

	// OutputName is the platform-side name of the output volume.
	OutputName string `mapstructure:"output_name" yaml:"output_name"`

	// CacheName is the platform-side name of the cache volume.
	CacheName string `mapstructure:"cache_name" yaml:"cache_name"`
}

// ContainerConfig describes the GPU container to provision.
type ContainerConfig struct {
	// Image is the container image to run.
	Image string `mapstructure:"image" yaml:"image"`

	// Name is the container name.
	Name string `mapstructure:"name" yaml:"name"`

	// GPUs selects GPU devices, "all" or a device count. Empty disables
	// the GPU device request (useful for local smoke tests).
	GPUs string `mapstructure:"gpus" yaml:"gpus"`
}

// NewDefaultConfig returns a Config populated with the fixed paths the
// toolkit expects and the standard volume layout.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: DefaultUIPort,
			Mode: "production",
		},
		Toolkit: ToolkitConfig{
			Dir:           DefaultToolkitDir,
			CacheLink:     DefaultCacheLink,
			StartCommand:  []string{"npm", "run", "start"},
			DBInitCommand: []string{"npm", "run", "update_db"},
		},
		Volumes: VolumeConfig{
			OutputMount: DefaultOutputMount,
			CacheMount:  DefaultCacheMount,
			OutputName:  DefaultOutputVolume,
			CacheName:   DefaultCacheVolume,
		},
		Container: ContainerConfig{
			Image: DefaultImage,
			Name:  DefaultContainerName,
			GPUs:  "all",
		},
	}
}

// Load reads configuration from the given file path, falling back to
// defaults for anything not set. An empty path searches the standard
// locations (./aikit.yaml, ~/.aikit/aikit.yaml, /etc/aikit/aikit.yaml) and
// silently uses defaults when no file is found.
//
// Every field can be overridden with an AIKIT_* environment variable using
// underscores for nesting, e.g. AIKIT_SERVER_PORT=9000 or
// AIKIT_TOOLKIT_HF_TOKEN for secret injection.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AIKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("aikit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".aikit"))
		}
		v.AddConfigPath("/etc/aikit")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			// No config file is fine; defaults plus env apply.
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.Toolkit.UIDir == "" {
		cfg.Toolkit.UIDir = filepath.Join(cfg.Toolkit.Dir, "ui")
	}

	return cfg, nil
}

// setDefaults registers every recognized key with viper so that environment
// overrides work even without a config file.
func setDefaults(v *viper.Viper) {
	def := NewDefaultConfig()

	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.mode", def.Server.Mode)
	v.SetDefault("server.auth_token", "")

	v.SetDefault("toolkit.dir", def.Toolkit.Dir)
	v.SetDefault("toolkit.ui_dir", "")
	v.SetDefault("toolkit.cache_link", def.Toolkit.CacheLink)
	v.SetDefault("toolkit.start_command", def.Toolkit.StartCommand)
	v.SetDefault("toolkit.db_init_command", def.Toolkit.DBInitCommand)
	v.SetDefault("toolkit.hf_token", "")

	v.SetDefault("volumes.output_mount", def.Volumes.OutputMount)
	v.SetDefault("volumes.cache_mount", def.Volumes.CacheMount)
	v.SetDefault("volumes.output_name", def.Volumes.OutputName)
	v.SetDefault("volumes.cache_name", def.Volumes.CacheName)

	v.SetDefault("container.image", def.Container.Image)
	v.SetDefault("container.name", def.Container.Name)
	v.SetDefault("container.gpus", def.Container.GPUs)
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1-65535)", c.Server.Port)
	}
	if c.Server.Mode != "production" && c.Server.Mode != "development" {
		return fmt.Errorf("invalid mode: %q (must be production or development)", c.Server.Mode)
	}
	if c.Toolkit.Dir == "" {
		return fmt.Errorf("toolkit directory is required")
	}
	if len(c.Toolkit.StartCommand) == 0 {
		return fmt.Errorf("toolkit start command is required")
	}
	if c.Volumes.OutputMount == "" || c.Volumes.CacheMount == "" {
		return fmt.Errorf("both volume mount paths are required")
	}
	return nil
}

// OutputLink returns the local path the toolkit writes artifacts to. It is
// re-pointed into the output volume on every boot.
func (c *Config) OutputLink() string {
	return filepath.Join(c.Toolkit.Dir, "output")
}

// LocalDatabasePath returns the path the toolkit UI expects its SQLite
// database at.
func (c *Config) LocalDatabasePath() string {
	return filepath.Join(c.Toolkit.Dir, DatabaseFileName)
}

// DurableDatabasePath returns the path of the persisted database copy
// inside the output volume.
func (c *Config) DurableDatabasePath() string {
	return filepath.Join(c.Volumes.OutputMount, DatabaseSubdir, DatabaseFileName)
}

// DatabaseURL returns the connection string handed to the toolkit UI. The
// toolkit opens the database through its local expected path, which
// resolves into durable storage after reconciliation.
func (c *Config) DatabaseURL() string {
	return "file:" + c.LocalDatabasePath()
}

// Environ builds the environment record for the toolkit server process.
//
// This is the complete, explicit set of variables the launch call passes to
// the process. The recognized keys are:
//
//	PORT             UI listen port
//	DATABASE_URL     SQLite connection string
//	NODE_ENV         production/development mode flag
//	PYTHONUNBUFFERED unbuffered output so container logs stream promptly
//	PYTHONPATH       toolkit module search path
//	AI_TOOLKIT_AUTH  optional UI auth token
//	HF_TOKEN         optional model-hub token
//
// The result is sorted so launches and tests are deterministic. The parent
// environment (PATH and friends) is appended by the launcher, with these
// keys taking precedence.
func (c *Config) Environ() []string {
	env := map[string]string{
		"PORT":             fmt.Sprintf("%d", c.Server.Port),
		"DATABASE_URL":     c.DatabaseURL(),
		"NODE_ENV":         c.Server.Mode,
		"PYTHONUNBUFFERED": "1",
		"PYTHONPATH":       c.Toolkit.Dir,
	}
	if c.Server.AuthToken != "" {
		env["AI_TOOLKIT_AUTH"] = c.Server.AuthToken
	}
	if c.Toolkit.HFToken != "" {
		env["HF_TOKEN"] = c.Toolkit.HFToken
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
