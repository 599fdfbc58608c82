// Package convert implements the per-file conversion capability consumed by
// the batch orchestrator, binding the PLY decoder to the USDZ exporter.
//
// A Resources value is one worker's expensive state: the decoder model and
// the exporter are built once per worker and reused across its tasks. The
// conversion mode is fixed at construction; ModeReduced clamps the model's
// spherical harmonics ceiling to zero so higher-order coefficients never
// survive into the export.
package convert
