package config

import (
	"cilscan/internal/shared/util"
	"fmt"
	"log/slog"
	"strings"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateInclude(cfg *Config) error {
	if len(cfg.Include.Extensions) == 0 {
		return fmt.Errorf("include.extensions must not be empty")
	}
	for i, ext := range cfg.Include.Extensions {
		if strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("include.extensions[%d] must be a file extension, got %q", i, ext)
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	if _, err := util.CompileGlobs(cfg.Exclude.Dirs); err != nil {
		return fmt.Errorf("invalid exclude.dirs pattern: %w", err)
	}
	if _, err := util.CompileGlobs(cfg.Exclude.Files); err != nil {
		return fmt.Errorf("invalid exclude.files pattern: %w", err)
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if cfg.DB.Path == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	return nil
}

func validatePerformance(cfg *Config) error {
	if cfg.Performance.Workers < 1 {
		return fmt.Errorf("performance.workers must be >= 1, got %d", cfg.Performance.Workers)
	}
	if cfg.Performance.MaxFilesPerSecond < 0 {
		return fmt.Errorf("performance.max_files_per_second must be >= 0")
	}
	return nil
}

func validateLog(cfg *Config) error {
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps log.level to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", level)
	}
}
