package config

import (
	"time"
)

type Config struct {
	Version     int         `toml:"version"`
	ScanPaths   []string    `toml:"scan_paths"`
	Include     Include     `toml:"include"`
	Exclude     Exclude     `toml:"exclude"`
	DB          Database    `toml:"db"`
	Watch       Watch       `toml:"watch"`
	Performance Performance `toml:"performance"`
	Metrics     Metrics     `toml:"metrics"`
	Tracing     Tracing     `toml:"tracing"`
	Log         Log         `toml:"log"`
}

type Include struct {
	Extensions []string `toml:"extensions"`
}

// Exclude patterns are gobwas/glob expressions matched against base names.
type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Database struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	ProjectKey string `toml:"project_key"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Performance struct {
	Workers           int     `toml:"workers"`
	MaxFilesPerSecond float64 `toml:"max_files_per_second"`
}

type Metrics struct {
	Address string `toml:"address"`
}

type Tracing struct {
	Endpoint string `toml:"endpoint"`
	Insecure bool   `toml:"insecure"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
