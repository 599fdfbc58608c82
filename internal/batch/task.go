package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"splatconv/internal/fileutil"
)

// Mode selects the conversion variant for an entire run.
type Mode string

const (
	// ModeStandard keeps every attribute the input scene carries.
	ModeStandard Mode = "standard"
	// ModeReduced strips higher-order detail attributes for constrained
	// downstream renderers.
	ModeReduced Mode = "reduced"
)

// Model is an opaque handle to a loaded scene, produced by Converter.Load and
// consumed by Converter.Export. The orchestrator never inspects it.
type Model any

// Converter is the per-file conversion capability. Implementations are built
// once per worker and reused for every task that lands on that worker, so
// Load may overwrite state captured by earlier loads.
type Converter interface {
	Load(ctx context.Context, path string, mode Mode) (Model, error)
	Export(ctx context.Context, model Model, outputPath string) error
}

// ConverterFactory builds the expensive per-worker Converter. It is invoked
// at most once per worker, on the worker's first task.
type ConverterFactory func(Mode) (Converter, error)

// Task is one planned input-to-output conversion. Immutable once created.
type Task struct {
	InputPath    string
	OutputPath   string
	RelativePath string
}

// OutputRelative returns the task's output path relative to the output root.
func (t Task) OutputRelative() string {
	return fileutil.ReplaceExtension(t.RelativePath, filepath.Ext(t.OutputPath))
}

// Outcome records the result of attempting one task. Exactly one Outcome is
// produced per planned task.
type Outcome struct {
	Task    Task
	Success bool
	// Message is the human one-liner shown in progress output.
	Message string
	// Err carries the classified error chain for failed outcomes.
	Err error
}

// Summary holds the aggregate counts for a completed run.
type Summary struct {
	Total      int
	Successful int
	Failed     int
}

// Verdict returns nil when every planned task converted successfully. Zero
// tasks is vacuous success.
func (s Summary) Verdict() error {
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", s.Failed, s.Total)
	}
	if s.Successful != s.Total {
		return fmt.Errorf("only %d of %d conversions accounted for", s.Successful, s.Total)
	}
	return nil
}
