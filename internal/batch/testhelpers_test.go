package batch_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"splatconv/internal/batch"
)

// stubConverter satisfies batch.Converter with pluggable hooks so tests can
// inject failures, panics, and latency per input path.
type stubConverter struct {
	mu       sync.Mutex
	loaded   []string
	modes    []batch.Mode
	exported []string

	loadHook   func(path string) error
	exportHook func(outputPath string) error
}

func (s *stubConverter) Load(ctx context.Context, path string, mode batch.Mode) (batch.Model, error) {
	s.mu.Lock()
	s.loaded = append(s.loaded, path)
	s.modes = append(s.modes, mode)
	s.mu.Unlock()
	if s.loadHook != nil {
		if err := s.loadHook(path); err != nil {
			return nil, err
		}
	}
	return path, nil
}

func (s *stubConverter) Export(ctx context.Context, model batch.Model, outputPath string) error {
	s.mu.Lock()
	s.exported = append(s.exported, outputPath)
	s.mu.Unlock()
	if s.exportHook != nil {
		return s.exportHook(outputPath)
	}
	return nil
}

func (s *stubConverter) loadedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.loaded...)
}

func (s *stubConverter) loadedModes() []batch.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]batch.Mode(nil), s.modes...)
}

func (s *stubConverter) exportCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exported)
}

// sharedConverterFactory hands every worker the same stub and counts
// constructions.
func sharedConverterFactory(conv *stubConverter, constructions *atomic.Int32) batch.ConverterFactory {
	return func(batch.Mode) (batch.Converter, error) {
		constructions.Add(1)
		return conv, nil
	}
}

func failingFactory(err error, constructions *atomic.Int32) batch.ConverterFactory {
	return func(batch.Mode) (batch.Converter, error) {
		constructions.Add(1)
		return nil, err
	}
}

// makeTasks fabricates n planned tasks whose outputs land under a fresh
// temp directory. Inputs do not exist on disk; the stub converter never
// reads them.
func makeTasks(t *testing.T, n int) []batch.Task {
	t.Helper()
	root := t.TempDir()
	tasks := make([]batch.Task, 0, n)
	for i := 0; i < n; i++ {
		rel := fmt.Sprintf("scene_%02d.ply", i)
		tasks = append(tasks, batch.Task{
			InputPath:    filepath.Join(root, "in", rel),
			OutputPath:   filepath.Join(root, "out", fmt.Sprintf("scene_%02d.usdz", i)),
			RelativePath: rel,
		})
	}
	return tasks
}

func consumeAll(t *testing.T, outcomes <-chan batch.Outcome) []batch.Outcome {
	t.Helper()
	var collected []batch.Outcome
	for outcome := range outcomes {
		collected = append(collected, outcome)
	}
	return collected
}

func summarize(outcomes []batch.Outcome) batch.Summary {
	summary := batch.Summary{Total: len(outcomes)}
	for _, outcome := range outcomes {
		if outcome.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return summary
}
