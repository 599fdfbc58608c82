// Package preflight provides readiness checks for the filesystem paths
// a conversion run depends on.
//
// These checks run before any task executes:
//   - The batch command probes the output root before acquiring the run
//     lock. Discovering an unwritable tree up front beats failing hundreds
//     of conversions into a run.
//   - The single-file command probes the input file and the destination
//     directory so obvious mistakes surface before the scene is decoded.
//
// Checks report a Result rather than an error so callers can render all
// of them before deciding whether to proceed.
package preflight
