package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateInclude(&cfg); err != nil {
		return nil, err
	}
	if err := validateExclude(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validatePerformance(&cfg); err != nil {
		return nil, err
	}
	if err := validateLog(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.ScanPaths) == 0 {
		cfg.ScanPaths = []string{"."}
	}
	if len(cfg.Include.Extensions) == 0 {
		cfg.Include.Extensions = []string{".il"}
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "cilscan.db"
	}
	if strings.TrimSpace(cfg.DB.ProjectKey) == "" {
		cfg.DB.ProjectKey = "default"
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Performance.Workers == 0 {
		cfg.Performance.Workers = 4
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
}

func normalize(cfg *Config) {
	cfg.ScanPaths = trimAll(cfg.ScanPaths)
	cfg.Include.Extensions = trimAll(cfg.Include.Extensions)
	cfg.Exclude.Dirs = trimAll(cfg.Exclude.Dirs)
	cfg.Exclude.Files = trimAll(cfg.Exclude.Files)
	cfg.DB.Path = strings.TrimSpace(cfg.DB.Path)
	cfg.DB.ProjectKey = strings.TrimSpace(cfg.DB.ProjectKey)
	cfg.Metrics.Address = strings.TrimSpace(cfg.Metrics.Address)
	cfg.Tracing.Endpoint = strings.TrimSpace(cfg.Tracing.Endpoint)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
