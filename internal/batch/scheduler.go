package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"splatconv/internal/logging"
	"splatconv/internal/services"
)

// Scheduler drives a planned task list to completion on a fixed pool of
// workers. Worker count 1 degenerates to strict planning order.
type Scheduler struct {
	runner  *Runner
	workers int
	logger  *slog.Logger
}

func NewScheduler(runner *Runner, workers int, logger *slog.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{runner: runner, workers: workers, logger: logger}
}

// Execute runs every task and streams outcomes in completion order. The
// returned channel closes once each planned task has produced exactly one
// outcome. Workers pull from a shared queue; a worker whose converter cannot
// be constructed stops pulling, and any tasks left unclaimed when the pool
// exits are accounted for as failures. Context cancellation stops new
// dispatch while in-flight tasks finish; remaining tasks are accounted for as
// canceled failures.
func (s *Scheduler) Execute(ctx context.Context, tasks []Task) <-chan Outcome {
	jobs := make(chan Task, len(tasks))
	for _, task := range tasks {
		jobs <- task
	}
	close(jobs)

	outcomes := make(chan Outcome, len(tasks))
	workers := s.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for id := 1; id <= workers; id++ {
		go s.runWorker(ctx, id, jobs, outcomes, &wg)
	}

	go func() {
		wg.Wait()
		// Tasks left unclaimed after every worker exited. Each still
		// needs an outcome so the summary stays exact.
		for task := range jobs {
			outcomes <- s.unattempted(task)
		}
		close(outcomes)
	}()

	return outcomes
}

func (s *Scheduler) runWorker(ctx context.Context, workerID int, jobs <-chan Task, outcomes chan<- Outcome, wg *sync.WaitGroup) {
	defer wg.Done()
	for task := range jobs {
		if ctx.Err() != nil {
			outcomes <- s.canceled(task, ctx.Err())
			continue
		}
		outcome := s.attempt(ctx, workerID, task)
		outcomes <- outcome
		if services.Fatal(outcome.Err) {
			s.logger.Error("worker aborted",
				logging.Int(logging.FieldWorkerID, workerID),
				logging.String(logging.FieldEventType, "worker_aborted"),
				logging.Error(outcome.Err),
			)
			return
		}
	}
}

// attempt is the last isolation boundary: a panic anywhere below becomes a
// failed outcome instead of losing the task.
func (s *Scheduler) attempt(ctx context.Context, workerID int, task Task) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			err := services.Wrap(services.ErrUnexpected, "scheduler", "execute task", fmt.Sprint(rec), nil)
			s.logger.Error("task panicked",
				logging.Int(logging.FieldWorkerID, workerID),
				logging.String(logging.FieldTask, task.RelativePath),
				logging.String(logging.FieldEventType, "task_panic"),
				logging.String("stack", string(debug.Stack())),
				logging.Error(err),
			)
			outcome = Outcome{
				Task:    task,
				Success: false,
				Message: fmt.Sprintf("%s: %v", task.RelativePath, err),
				Err:     err,
			}
		}
	}()
	return s.runner.Run(ctx, workerID, task)
}

func (s *Scheduler) canceled(task Task, cause error) Outcome {
	err := fmt.Errorf("conversion canceled: %w", cause)
	return Outcome{
		Task:    task,
		Success: false,
		Message: fmt.Sprintf("%s: %v", task.RelativePath, err),
		Err:     err,
	}
}

func (s *Scheduler) unattempted(task Task) Outcome {
	err := services.Wrap(services.ErrConfiguration, "scheduler", "dispatch", "not attempted after worker abort", nil)
	return Outcome{
		Task:    task,
		Success: false,
		Message: fmt.Sprintf("%s: %v", task.RelativePath, err),
		Err:     err,
	}
}
