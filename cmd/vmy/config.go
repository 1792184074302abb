package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/vmem/pkg/fs"
	"github.com/calvinalkan/vmem/pkg/vmem"
)

// Config holds all configuration options for vmy.
type Config struct {
	PageSize  int    `json:"page_size,omitempty"` //nolint:tagliatelle // snake_case for config file
	PoolPages int    `json:"pool_pages,omitempty"`
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`
	LogFile   string `json:"log_file,omitempty"`
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".vmy.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:  vmem.DefaultPageSize,
		PoolPages: vmem.DefaultPoolPages,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Project config file at default location (.vmy.json, if exists)
// 3. Explicit config file via configPath (if non-empty)
//
// Config files are JSONC (JSON with comments and trailing commas). All file
// reads go through fsys so tests can serve configs from a fake filesystem.
func LoadConfig(fsys fs.FS, workDir, configPath string) (Config, error) {
	cfg := DefaultConfig()

	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
	}

	fileCfg, loaded, err := loadConfigFile(fsys, cfgFile, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = mergeConfig(cfg, fileCfg)
	}

	return cfg, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config.
func loadConfigFile(fsys fs.FS, path string, mustExist bool) (Config, bool, error) {
	data, err := fsys.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.PageSize != 0 {
		base.PageSize = overlay.PageSize
	}

	if overlay.PoolPages != 0 {
		base.PoolPages = overlay.PoolPages
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.LogFormat != "" {
		base.LogFormat = overlay.LogFormat
	}

	if overlay.LogFile != "" {
		base.LogFile = overlay.LogFile
	}

	return base
}
