package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/docpipe/internal/common"
	"gopkg.in/yaml.v3"
)

// GlobalConfig is the validated, strongly typed configuration constructed once
// at startup and passed by reference to each component that needs it.
type GlobalConfig struct {
	SourceConfig       SourceConfig       `json:"source_config,omitempty" yaml:"source_config,omitempty"`
	DestinationConfig  DestinationConfig  `json:"destination_config,omitempty" yaml:"destination_config,omitempty"`
	ScheduleConfig     ScheduleConfig     `json:"schedule_config,omitempty" yaml:"schedule_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	RetentionConfig    RetentionConfig    `json:"retention_config,omitempty" yaml:"retention_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	RetryConfig        RetryConfig        `json:"retry_config,omitempty" yaml:"retry_config,omitempty"`
}

// NewDefaultGlobalConfig creates a GlobalConfig populated with defaults.
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		SourceConfig:       NewDefaultSourceConfig(),
		DestinationConfig:  NewDefaultDestinationConfig(),
		ScheduleConfig:     NewDefaultScheduleConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
		RetentionConfig:    NewDefaultRetentionConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		LogConfig:          NewDefaultLogConfig(),
		RetryConfig:        NewDefaultRetryConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath and supports both
// JSON and YAML formats; YAML is preferred if the extension is .yaml or .yml.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		if providedPath != "" {
			return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
		}
		return cfg, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to read config file '%s'", filePath)
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	return cfg, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
