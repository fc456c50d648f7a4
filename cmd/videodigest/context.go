package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"VideoDigest/internal/config"
	"VideoDigest/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

// loadConfig reads and validates the configuration. Any validation error is
// fatal.
func (c *commandContext) loadConfig() (config.Config, error) {
	path := config.ResolvePath(*c.configFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration in %s:\n%w", path, err)
	}
	return cfg, nil
}

// setup loads configuration and builds the logger. The closer must be
// closed when the command ends.
func (c *commandContext) setup() (config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger, closer, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	for _, warning := range cfg.Warnings() {
		logger.Warn("configuration warning", "detail", warning)
	}
	return cfg, logger, closer, nil
}
