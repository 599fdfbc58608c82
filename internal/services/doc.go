// Package services defines shared utilities consumed by the batch pipeline
// and the converter implementations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, worker slots, and task paths
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the taxonomy the scheduler acts on (per-task vs worker-fatal).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the conversion path.
package services
