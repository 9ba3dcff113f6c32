package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mattsolo1/grove-core/config"
	"github.com/mattsolo1/grove-macrocycle/pkg/agent"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// MacrocycleConfig defines the structure for the 'macrocycle' section in grove.yml.
type MacrocycleConfig struct {
	// WorkspaceDir overrides workspace discovery. Relative paths are resolved
	// against the directory the config was loaded from.
	WorkspaceDir  string                         `yaml:"workspace_dir,omitempty" jsonschema_description:"Directory holding .macrocycle; defaults to the git root"`
	AgentTimeout  string                         `yaml:"agent_timeout,omitempty" jsonschema_description:"Per-step agent timeout as a Go duration (e.g. 10m); empty means none"`
	DefaultEngine string                         `yaml:"default_engine,omitempty" jsonschema_description:"Engine used by macros that do not name one"`
	Model         string                         `yaml:"model,omitempty" jsonschema_description:"Model passed to engines that accept one"`
	Engines       map[string]agent.EngineCommand `yaml:"engines,omitempty" jsonschema_description:"Additional or overriding CLI engines keyed by name"`
}

// Timeout parses AgentTimeout.
func (c *MacrocycleConfig) Timeout() (time.Duration, error) {
	if c.AgentTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.AgentTimeout)
	if err != nil {
		return 0, fmt.Errorf("parse agent_timeout %q: %w", c.AgentTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("agent_timeout must not be negative: %s", c.AgentTimeout)
	}
	return d, nil
}

// loadMacrocycleConfig loads the core grove config found from dir and
// unmarshals the 'macrocycle' extension.
func loadMacrocycleConfig(dir string) (*MacrocycleConfig, error) {
	// Load the config using LoadFrom to get the full hierarchy (global -> project -> override)
	var cfg MacrocycleConfig
	coreCfg, err := config.LoadFrom(dir)
	if err != nil {
		// It's okay if the core config doesn't exist, defaults apply.
		return &cfg, nil
	}

	if err := coreCfg.UnmarshalExtension("macrocycle", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse 'macrocycle' configuration from grove.yml: %w", err)
	}

	if cfg.WorkspaceDir != "" && !filepath.IsAbs(cfg.WorkspaceDir) {
		cfg.WorkspaceDir = filepath.Join(dir, cfg.WorkspaceDir)
	}
	return &cfg, nil
}
