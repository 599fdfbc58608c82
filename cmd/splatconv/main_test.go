package main

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"splatconv/internal/runlock"
	"splatconv/internal/testsupport"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func testConfigPath(t *testing.T) string {
	t.Helper()
	return testsupport.WriteConfig(t, testsupport.NewConfig(t))
}

func readArchiveLayer(t *testing.T, path string) (string, string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open package %s: %v", path, err)
	}
	defer zr.Close()
	if len(zr.File) == 0 {
		t.Fatalf("package %s has no entries", path)
	}
	entry := zr.File[0]
	rc, err := entry.Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	return entry.Name, string(data)
}

func TestCLIConvertCommand(t *testing.T) {
	configPath := testConfigPath(t)

	sceneDir := t.TempDir()
	scenePath := filepath.Join(sceneDir, "lego.ply")
	testsupport.WriteSplatPLY(t, scenePath, testsupport.NewSplatScene(4, 1))

	stdout, _, err := runCLI(t, "--config", configPath, "convert", scenePath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(stdout, "Converted lego.ply") {
		t.Fatalf("unexpected output: %q", stdout)
	}

	name, layer := readArchiveLayer(t, filepath.Join(sceneDir, "lego.usdz"))
	if name != "lego.usda" {
		t.Fatalf("unexpected layer entry %q", name)
	}
	if !strings.Contains(layer, `def Points "lego"`) {
		t.Fatalf("layer missing points prim:\n%s", layer)
	}
	if !strings.Contains(layer, "custom int splat:shDegree = 1") {
		t.Fatalf("layer missing harmonics degree:\n%s", layer)
	}
}

func TestCLIConvertCommandOutputFlag(t *testing.T) {
	configPath := testConfigPath(t)

	scenePath := filepath.Join(t.TempDir(), "room.ply")
	testsupport.WriteSplatPLY(t, scenePath, testsupport.NewSplatScene(3, 0))

	outputPath := filepath.Join(t.TempDir(), "nested", "dir", "scene.usdz")
	if _, _, err := runCLI(t, "--config", configPath, "convert", scenePath, "-o", outputPath); err != nil {
		t.Fatalf("convert -o: %v", err)
	}

	name, _ := readArchiveLayer(t, outputPath)
	if name != "scene.usda" {
		t.Fatalf("unexpected layer entry %q", name)
	}
}

func TestCLIConvertCommandReducedFeatures(t *testing.T) {
	configPath := testConfigPath(t)

	scenePath := filepath.Join(t.TempDir(), "garden.ply")
	testsupport.WriteSplatPLY(t, scenePath, testsupport.NewSplatScene(5, 2))

	outputPath := filepath.Join(t.TempDir(), "garden.usdz")
	if _, _, err := runCLI(t, "--config", configPath, "convert", scenePath, "--reduced-features", "-o", outputPath); err != nil {
		t.Fatalf("convert --reduced-features: %v", err)
	}

	_, layer := readArchiveLayer(t, outputPath)
	if strings.Contains(layer, "splat:shRest") {
		t.Fatalf("reduced output should not carry higher-order harmonics:\n%s", layer)
	}
	if !strings.Contains(layer, "custom int splat:shDegree = 0") {
		t.Fatalf("expected degree zero in reduced output:\n%s", layer)
	}
}

func TestCLIConvertCommandErrors(t *testing.T) {
	configPath := testConfigPath(t)
	base := t.TempDir()

	if _, _, err := runCLI(t, "--config", configPath, "convert", filepath.Join(base, "nope.ply")); err == nil {
		t.Fatal("expected error for missing input")
	} else if !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("unexpected error: %v", err)
	}

	textFile := filepath.Join(base, "notes.txt")
	testsupport.WriteFile(t, textFile, []byte("not a scene"))
	if _, _, err := runCLI(t, "--config", configPath, "convert", textFile); err == nil {
		t.Fatal("expected error for wrong extension")
	} else if !strings.Contains(err.Error(), "must have a .ply extension") {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := runCLI(t, "--config", configPath, "convert", base); err == nil {
		t.Fatal("expected error for directory input")
	} else if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCLIBatchCommand(t *testing.T) {
	configPath := testConfigPath(t)

	base := t.TempDir()
	inputRoot := filepath.Join(base, "in")
	outputRoot := filepath.Join(base, "out")
	for _, rel := range []string{"a.ply", "sub/b.ply", "sub/deep/c.ply"} {
		testsupport.WriteSplatPLY(t, filepath.Join(inputRoot, rel), testsupport.NewSplatScene(3, 1))
	}

	stdout, _, err := runCLI(t, "--config", configPath, "batch", inputRoot, outputRoot)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	if !strings.Contains(stdout, "[3/3] converted") {
		t.Fatalf("expected final progress line, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "All 3 conversions succeeded") {
		t.Fatalf("expected success verdict, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Successful") {
		t.Fatalf("expected summary table, got:\n%s", stdout)
	}

	for _, rel := range []string{"a.usdz", "sub/b.usdz", "sub/deep/c.usdz"} {
		if _, err := os.Stat(filepath.Join(outputRoot, rel)); err != nil {
			t.Fatalf("expected output %s: %v", rel, err)
		}
	}
}

func TestCLIBatchDryRun(t *testing.T) {
	configPath := testConfigPath(t)

	base := t.TempDir()
	inputRoot := filepath.Join(base, "in")
	outputRoot := filepath.Join(base, "out")
	for _, rel := range []string{"a.ply", "sub/b.ply", "sub/deep/c.ply"} {
		testsupport.WriteSplatPLY(t, filepath.Join(inputRoot, rel), testsupport.NewSplatScene(2, 0))
	}

	stdout, _, err := runCLI(t, "--config", configPath, "batch", inputRoot, outputRoot, "--dry-run")
	if err != nil {
		t.Fatalf("batch --dry-run: %v", err)
	}

	if got := strings.Count(stdout, "would convert"); got != 3 {
		t.Fatalf("expected 3 planned lines, got %d:\n%s", got, stdout)
	}
	if !strings.Contains(stdout, "Planned 3 conversions") {
		t.Fatalf("expected dry run summary, got:\n%s", stdout)
	}
	if _, err := os.Stat(outputRoot); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the output root: %v", err)
	}
}

func TestCLIBatchFailureIsolation(t *testing.T) {
	configPath := testConfigPath(t)

	base := t.TempDir()
	inputRoot := filepath.Join(base, "in")
	outputRoot := filepath.Join(base, "out")
	testsupport.WriteSplatPLY(t, filepath.Join(inputRoot, "a.ply"), testsupport.NewSplatScene(3, 1))
	testsupport.WriteFile(t, filepath.Join(inputRoot, "sub/b.ply"), []byte("not a ply"))
	testsupport.WriteSplatPLY(t, filepath.Join(inputRoot, "sub/deep/c.ply"), testsupport.NewSplatScene(3, 1))

	stdout, _, err := runCLI(t, "--config", configPath, "batch", inputRoot, outputRoot)
	if err == nil {
		t.Fatal("expected batch to report failure")
	}
	if !strings.Contains(err.Error(), "1 of 3 conversions failed") {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout, "sub/b.ply") {
		t.Fatalf("expected failure table to name the bad scene, got:\n%s", stdout)
	}
	for _, rel := range []string{"a.usdz", "sub/deep/c.usdz"} {
		if _, err := os.Stat(filepath.Join(outputRoot, rel)); err != nil {
			t.Fatalf("healthy scene %s should still convert: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outputRoot, "sub/b.usdz")); !os.IsNotExist(err) {
		t.Fatalf("failed scene must not produce output: %v", err)
	}
}

func TestCLIBatchEmptyAndMissingRoots(t *testing.T) {
	configPath := testConfigPath(t)
	base := t.TempDir()

	emptyRoot := filepath.Join(base, "empty")
	if err := os.MkdirAll(emptyRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := runCLI(t, "--config", configPath, "batch", emptyRoot, filepath.Join(base, "out"))
	if err != nil {
		t.Fatalf("empty tree should exit cleanly: %v", err)
	}
	if !strings.Contains(stdout, "No .ply files found") {
		t.Fatalf("expected empty-tree notice, got:\n%s", stdout)
	}

	if _, _, err := runCLI(t, "--config", configPath, "batch", filepath.Join(base, "missing"), filepath.Join(base, "out")); err == nil {
		t.Fatal("expected error for missing input root")
	} else if !strings.Contains(err.Error(), "input root not found") {
		t.Fatalf("unexpected error: %v", err)
	}

	filePath := filepath.Join(base, "file.ply")
	testsupport.WriteFile(t, filePath, []byte("x"))
	if _, _, err := runCLI(t, "--config", configPath, "batch", filePath, filepath.Join(base, "out")); err == nil {
		t.Fatal("expected error for file input root")
	} else if !strings.Contains(err.Error(), "input root is not a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCLIBatchWorkersFlag(t *testing.T) {
	configPath := testConfigPath(t)
	base := t.TempDir()
	inputRoot := filepath.Join(base, "in")
	testsupport.WriteSplatPLY(t, filepath.Join(inputRoot, "a.ply"), testsupport.NewSplatScene(2, 0))
	testsupport.WriteSplatPLY(t, filepath.Join(inputRoot, "b.ply"), testsupport.NewSplatScene(2, 0))

	if _, _, err := runCLI(t, "--config", configPath, "batch", inputRoot, filepath.Join(base, "out"), "--workers", "0"); err == nil {
		t.Fatal("expected error for zero workers")
	} else if !strings.Contains(err.Error(), "--workers must be at least 1") {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := runCLI(t, "--config", configPath, "batch", inputRoot, filepath.Join(base, "out2"), "--workers", "2"); err != nil {
		t.Fatalf("batch --workers 2: %v", err)
	}
}

func TestCLIBatchRunLock(t *testing.T) {
	configPath := testConfigPath(t)
	base := t.TempDir()
	inputRoot := filepath.Join(base, "in")
	outputRoot := filepath.Join(base, "out")
	testsupport.WriteSplatPLY(t, filepath.Join(inputRoot, "a.ply"), testsupport.NewSplatScene(2, 0))

	lock, err := runlock.Acquire(outputRoot)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer lock.Release()

	if _, _, err := runCLI(t, "--config", configPath, "batch", inputRoot, outputRoot); err == nil {
		t.Fatal("expected batch to refuse a locked output root")
	} else if !strings.Contains(err.Error(), "already writing to") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCLIConfigCommands(t *testing.T) {
	target := filepath.Join(t.TempDir(), "cfg", "config.toml")

	stdout, _, err := runCLI(t, "config", "init", "-p", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, "Wrote sample configuration to "+target) {
		t.Fatalf("unexpected init output: %q", stdout)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[conversion]") {
		t.Fatalf("sample config missing conversion section:\n%s", data)
	}

	if _, _, err := runCLI(t, "config", "init", "-p", target); err == nil {
		t.Fatal("expected error when config already exists")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := runCLI(t, "config", "init", "-p", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	configPath := testConfigPath(t)
	stdout, _, err = runCLI(t, "--config", configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(stdout, "Config path: "+configPath) {
		t.Fatalf("expected resolved path, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "workers = 4") {
		t.Fatalf("expected rendered settings, got:\n%s", stdout)
	}
}

func TestCLIVerboseAddsSource(t *testing.T) {
	configPath := testConfigPath(t)

	scenePath := filepath.Join(t.TempDir(), "tiny.ply")
	testsupport.WriteSplatPLY(t, scenePath, testsupport.NewSplatScene(1, 0))

	stdout, _, err := runCLI(t, "--config", configPath, "-v", "convert", scenePath)
	if err != nil {
		t.Fatalf("convert -v: %v", err)
	}
	if !strings.Contains(stdout, ".go:") {
		t.Fatalf("expected source annotation in verbose output, got:\n%s", stdout)
	}
}
