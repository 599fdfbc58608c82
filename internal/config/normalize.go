package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConversion()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	c.Paths.LogDir = strings.TrimSpace(c.Paths.LogDir)
	if c.Paths.LogDir == "" {
		return nil
	}
	expanded, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.LogDir = expanded
	return nil
}

func (c *Config) normalizeConversion() {
	c.Conversion.InputExtension = normalizeExtension(c.Conversion.InputExtension, defaultInputExtension)
	c.Conversion.OutputExtension = normalizeExtension(c.Conversion.OutputExtension, defaultOutputExtension)
}

func (c *Config) normalizeExport() {
	c.Export.UpAxis = strings.ToUpper(strings.TrimSpace(c.Export.UpAxis))
	if c.Export.UpAxis == "" {
		c.Export.UpAxis = defaultUpAxis
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeExtension(value, fallback string) string {
	ext := strings.ToLower(strings.TrimSpace(value))
	if ext == "" {
		return fallback
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
