// Package batch is the conversion orchestrator: it plans one task per input
// file, executes the tasks sequentially or across a fixed worker pool, and
// aggregates outcomes into a streaming report.
//
// The package guarantees three properties regardless of worker count:
//
//   - expensive per-worker state (the Converter built by the factory) is
//     constructed at most once per worker and never shared across workers;
//   - one task's failure never aborts the batch: load, export, and even
//     panics at the task boundary become failed outcomes;
//   - every planned task yields exactly one outcome, so the final summary
//     always satisfies total == successful + failed.
//
// The per-file conversion is consumed through the Converter interface and
// stays opaque to the orchestrator; internal/convert provides the real
// implementation. All tasks in one run share a single conversion Mode, fixed
// when the ResourceCache is built.
package batch
