package main

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/ini.v1"
)

// appConfig carries the CLI defaults an ini file can supply; flags override.
type appConfig struct {
	LogLevel     slog.Level
	Addr         string
	SequencesDir string
}

func defaultConfig() appConfig {
	return appConfig{
		LogLevel:     slog.LevelInfo,
		Addr:         ":8080",
		SequencesDir: "sequences",
	}
}

// loadConfig reads the [autoseq] section of an ini file. An empty path
// returns the defaults.
func loadConfig(path string) (appConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config file: %w", err)
	}
	section := file.Section("autoseq")

	cfg.Addr = section.Key("addr").MustString(cfg.Addr)
	cfg.SequencesDir = section.Key("sequences_dir").MustString(cfg.SequencesDir)

	levelName := section.Key("log_level").MustString("info")
	level, err := parseLogLevel(levelName)
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = level
	return cfg, nil
}

func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

// splitVarFlag parses a name=value pair from the --var flag.
func splitVarFlag(pair string) (string, string, error) {
	name, value, ok := strings.Cut(pair, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("--var %q must be name=value", pair)
	}
	return name, value, nil
}
