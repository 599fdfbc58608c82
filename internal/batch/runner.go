package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"splatconv/internal/fileutil"
	"splatconv/internal/logging"
	"splatconv/internal/services"
)

// Runner executes one task at a time and converts every failure into a
// failed Outcome. Nothing escapes Run as an error or a panic from the load
// and export steps themselves; panics raised by converter internals are
// handled one level up at the scheduler boundary.
type Runner struct {
	cache  *ResourceCache
	logger *slog.Logger
}

func NewRunner(cache *ResourceCache, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{cache: cache, logger: logger}
}

// Run attempts task on behalf of workerID and reports the outcome. The
// sequence is: fetch the worker's converter, ensure the output directory,
// load, export. The first failing step ends the attempt.
func (r *Runner) Run(ctx context.Context, workerID int, task Task) Outcome {
	ctx = services.WithWorkerID(ctx, workerID)
	ctx = services.WithTask(ctx, task.RelativePath)
	logger := logging.WithContext(ctx, r.logger)

	converter, err := r.cache.Get(workerID)
	if err != nil {
		return r.failure(logger, task, "initialize worker resources", err)
	}

	if err := fileutil.EnsureDir(filepath.Dir(task.OutputPath)); err != nil {
		err = services.Wrap(services.ErrExport, "runner", "create output directory", "", err)
		return r.failure(logger, task, "create output directory", err)
	}

	model, err := converter.Load(ctx, task.InputPath, r.cache.Mode())
	if err != nil {
		return r.failure(logger, task, "load scene", err)
	}

	if err := converter.Export(ctx, model, task.OutputPath); err != nil {
		return r.failure(logger, task, "export scene", err)
	}

	logger.Debug("task converted",
		logging.String(logging.FieldEventType, "task_converted"),
		logging.String("output", task.OutputPath),
	)
	return Outcome{
		Task:    task,
		Success: true,
		Message: fmt.Sprintf("%s -> %s", task.RelativePath, filepath.Base(task.OutputPath)),
	}
}

func (r *Runner) failure(logger *slog.Logger, task Task, operation string, err error) Outcome {
	logger.Error("task failed",
		logging.String(logging.FieldEventType, "task_failed"),
		logging.String("operation", operation),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.Error(err),
	)
	return Outcome{
		Task:    task,
		Success: false,
		Message: fmt.Sprintf("%s: %v", task.RelativePath, err),
		Err:     err,
	}
}
