package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// PluginName names the config directory: <data>/config/aimg/config.yaml
	PluginName     = "aimg"
	ConfigDirName  = "config"
	ConfigFileName = "config.yaml"

	defaultModel = "cogView-4"
)

type TriggerMode string

const (
	TriggerKeyword TriggerMode = "keyword"
	TriggerCommand TriggerMode = "command"
	TriggerBoth    TriggerMode = "both"
)

func (m TriggerMode) Keyword() bool {
	return m == TriggerKeyword || m == TriggerBoth
}

func (m TriggerMode) Command() bool {
	return m == TriggerCommand || m == TriggerBoth
}

// PluginConfig is the image plugin's file config. It is read once at startup.
type PluginConfig struct {
	APIKey        string      `yaml:"api_key"`
	Model         string      `yaml:"model"`
	BaseURL       string      `yaml:"base_url,omitempty"`
	TriggerMode   TriggerMode `yaml:"trigger_mode"`
	CommandPrefix string      `yaml:"command_prefix"`
}

func DefaultPluginConfig() PluginConfig {
	return PluginConfig{
		APIKey:        "",
		Model:         defaultModel,
		TriggerMode:   TriggerKeyword,
		CommandPrefix: "/",
	}
}

// Path returns dataDir/config/pluginName/config.yaml
func Path(dataDir, pluginName string) string {
	return filepath.Join(dataDir, ConfigDirName, pluginName, ConfigFileName)
}

func Exists(dataDir, pluginName string) bool {
	_, err := os.Stat(Path(dataDir, pluginName))
	return err == nil
}

// Read unmarshals the plugin file into dest. A missing or empty file leaves dest unchanged.
func Read(dataDir, pluginName string, dest any) error {
	data, err := os.ReadFile(Path(dataDir, pluginName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config read: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("config unmarshal: %w", err)
	}
	return nil
}

// Save writes v to the plugin file, creating parent directories.
func Save(dataDir, pluginName string, v any) error {
	if err := os.MkdirAll(filepath.Dir(Path(dataDir, pluginName)), 0o755); err != nil {
		return fmt.Errorf("config mkdir: %w", err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("config marshal: %w", err)
	}
	if err := os.WriteFile(Path(dataDir, pluginName), data, 0o600); err != nil {
		return fmt.Errorf("config write: %w", err)
	}
	return nil
}

// LoadPlugin reads the aimg plugin file, writing defaults when it does not exist yet.
// ZHIPU_API_KEY and ZHIPU_MODEL override the file values.
func LoadPlugin(dataDir string) (PluginConfig, error) {
	cfg := DefaultPluginConfig()

	if err := Read(dataDir, PluginName, &cfg); err != nil {
		return PluginConfig{}, err
	}

	if !Exists(dataDir, PluginName) {
		if err := Save(dataDir, PluginName, &cfg); err != nil {
			return PluginConfig{}, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("ZHIPU_API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("ZHIPU_MODEL")); v != "" {
		cfg.Model = v
	}

	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "/"
	}

	switch cfg.TriggerMode {
	case "":
		cfg.TriggerMode = TriggerKeyword
	case TriggerKeyword, TriggerCommand, TriggerBoth:
	default:
		return PluginConfig{}, fmt.Errorf("config: unknown trigger_mode %q", cfg.TriggerMode)
	}

	return cfg, nil
}
