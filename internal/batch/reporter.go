package batch

import (
	"fmt"
	"log/slog"

	"splatconv/internal/logging"
	"splatconv/internal/services"
)

// Reporter consumes outcomes as they complete and keeps the running counts.
// It is single-threaded: accumulation happens only while draining the
// completion stream, so the counts need no further synchronization.
type Reporter struct {
	logger   *slog.Logger
	total    int
	failures []Outcome
}

func NewReporter(logger *slog.Logger, total int) *Reporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reporter{logger: logger, total: total}
}

// Consume drains the outcome stream, emitting one progress line per outcome,
// and returns the final summary once the stream closes.
func (r *Reporter) Consume(outcomes <-chan Outcome) Summary {
	summary := Summary{Total: r.total}
	done := 0
	for outcome := range outcomes {
		done++
		if outcome.Success {
			summary.Successful++
			r.logger.Info(fmt.Sprintf("[%d/%d] converted %s", done, r.total, outcome.Message),
				logging.String(logging.FieldEventType, "task_progress"),
			)
			continue
		}
		summary.Failed++
		r.failures = append(r.failures, outcome)
		r.logger.Warn(fmt.Sprintf("[%d/%d] failed %s", done, r.total, outcome.Message),
			logging.String(logging.FieldEventType, "task_progress"),
			logging.String(logging.FieldErrorKind, services.Kind(outcome.Err)),
		)
	}

	r.logger.Info("batch complete",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("total", summary.Total),
		logging.Int("successful", summary.Successful),
		logging.Int("failed", summary.Failed),
	)
	return summary
}

// Failures returns the failed outcomes in completion order.
func (r *Reporter) Failures() []Outcome {
	return r.failures
}

// ListPlanned logs every would-be conversion without performing any. Dry
// runs call this instead of Execute.
func (r *Reporter) ListPlanned(tasks []Task) {
	for _, task := range tasks {
		r.logger.Info(fmt.Sprintf("would convert %s -> %s", task.RelativePath, task.OutputRelative()),
			logging.String(logging.FieldEventType, "task_planned"),
		)
	}
	r.logger.Info("dry run complete",
		logging.String(logging.FieldEventType, "dry_run_complete"),
		logging.Int("total", len(tasks)),
	)
}
