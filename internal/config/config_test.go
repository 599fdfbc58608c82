package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"splatconv/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "splatconv", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.Conversion.InputExtension != ".ply" {
		t.Fatalf("unexpected input extension: %q", cfg.Conversion.InputExtension)
	}
	if cfg.Conversion.OutputExtension != ".usdz" {
		t.Fatalf("unexpected output extension: %q", cfg.Conversion.OutputExtension)
	}
	if cfg.Conversion.Workers != 4 {
		t.Fatalf("unexpected worker default: %d", cfg.Conversion.Workers)
	}
	if cfg.Model.MaxSHDegree != 3 {
		t.Fatalf("unexpected sh degree default: %d", cfg.Model.MaxSHDegree)
	}
	if cfg.Export.UpAxis != "Y" {
		t.Fatalf("unexpected up axis default: %q", cfg.Export.UpAxis)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Paths.LogDir)
	if err != nil {
		t.Fatalf("expected log directory to exist: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected %q to be directory", cfg.Paths.LogDir)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "splatconv.toml")

	type payload struct {
		Conversion struct {
			InputExtension string `toml:"input_extension"`
			Workers        int    `toml:"workers"`
		} `toml:"conversion"`
		Model struct {
			MaxSHDegree int `toml:"max_sh_degree"`
		} `toml:"model"`
		Export struct {
			UpAxis string `toml:"up_axis"`
		} `toml:"export"`
	}
	custom := payload{}
	custom.Conversion.InputExtension = "PLY"
	custom.Conversion.Workers = 2
	custom.Model.MaxSHDegree = 1
	custom.Export.UpAxis = "z"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Conversion.InputExtension != ".ply" {
		t.Fatalf("expected extension normalized to .ply, got %q", cfg.Conversion.InputExtension)
	}
	if cfg.Conversion.Workers != 2 {
		t.Fatalf("expected workers 2, got %d", cfg.Conversion.Workers)
	}
	if cfg.Model.MaxSHDegree != 1 {
		t.Fatalf("expected sh degree 1, got %d", cfg.Model.MaxSHDegree)
	}
	if cfg.Export.UpAxis != "Z" {
		t.Fatalf("expected up axis normalized to Z, got %q", cfg.Export.UpAxis)
	}
}

func TestLoadMissingCustomPathUsesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists to be false")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Conversion.Workers != config.Default().Conversion.Workers {
		t.Fatalf("expected default workers, got %d", cfg.Conversion.Workers)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*config.Config)
		fragment string
	}{
		{"zero workers", func(c *config.Config) { c.Conversion.Workers = 0 }, "conversion.workers"},
		{"negative sh degree", func(c *config.Config) { c.Model.MaxSHDegree = -1 }, "model.max_sh_degree"},
		{"sh degree too high", func(c *config.Config) { c.Model.MaxSHDegree = 4 }, "model.max_sh_degree"},
		{"bad up axis", func(c *config.Config) { c.Export.UpAxis = "X" }, "export.up_axis"},
		{"zero meters per unit", func(c *config.Config) { c.Export.MetersPerUnit = 0 }, "export.meters_per_unit"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bare extension", func(c *config.Config) { c.Conversion.InputExtension = "." }, "conversion.input_extension"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("expected %q in error %q", tc.fragment, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	samplePath := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(samplePath); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := config.Load(samplePath)
	if err != nil {
		t.Fatalf("loading sample config failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
	if cfg.Conversion.InputExtension != ".ply" {
		t.Fatalf("unexpected sample input extension: %q", cfg.Conversion.InputExtension)
	}
}

func TestExpandPathTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	expanded, err := config.ExpandPath("~/scenes")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if expanded != filepath.Join(tempHome, "scenes") {
		t.Fatalf("unexpected expansion: %q", expanded)
	}
}
