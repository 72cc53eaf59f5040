package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/compresr/omni-transform/internal/config"
)

//go:embed configs/*.yaml
var configsFS embed.FS

const defaultConfigName = "default"

// getEmbeddedConfig returns the raw bytes of an embedded config file.
// name can be with or without the .yaml extension.
func getEmbeddedConfig(name string) ([]byte, error) {
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	return configsFS.ReadFile("configs/" + name)
}

// listEmbeddedConfigs returns the names of all embedded config files (without extension).
func listEmbeddedConfigs() ([]string, error) {
	entries, err := configsFS.ReadDir("configs")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded configs: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// resolveConfig resolves the config bytes to use.
// Checks: user flag -> filesystem locations -> embedded default.
// Returns raw bytes and source description.
func resolveConfig(userConfig string) ([]byte, string, error) {
	if userConfig != "" {
		data, err := os.ReadFile(userConfig)
		if err != nil {
			return nil, userConfig, fmt.Errorf("config file not found: %s", userConfig)
		}
		return data, userConfig, nil
	}

	var searchPaths []string
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".config", "omni-transform", "config.yaml"))
	}
	searchPaths = append(searchPaths, "configs/config.yaml")

	for _, path := range searchPaths {
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	data, err := getEmbeddedConfig(defaultConfigName)
	if err != nil {
		return nil, "", fmt.Errorf("no config file found. Specify --config path")
	}
	return data, "(embedded) " + defaultConfigName + ".yaml", nil
}

// defaultMonitoring is the monitoring section of the embedded default,
// used to log a failure to load any other configuration.
func defaultMonitoring() config.MonitoringConfig {
	data, err := getEmbeddedConfig(defaultConfigName)
	if err == nil {
		if cfg, err := config.ParseBytes(data); err == nil && cfg.Monitoring.Validate() == nil {
			return cfg.Monitoring
		}
	}
	return config.MonitoringConfig{LogLevel: "info", LogFormat: "json", LogOutput: "stderr"}
}
