package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileHeader is prepended to generated config files.
const fileHeader = `# aikit configuration.
#
# Every key can also be set through an AIKIT_* environment variable, e.g.
# AIKIT_SERVER_PORT=9000 or AIKIT_TOOLKIT_HF_TOKEN=<secret>. Environment
# variables take precedence over this file.
`

// WriteDefault writes a default configuration file to the given path.
//
// Parent directories are created as needed. The write is refused if the
// file already exists, so an existing deployment configuration is never
// clobbered.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(NewDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(fileHeader), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}
