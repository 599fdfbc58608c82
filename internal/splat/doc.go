// Package splat decodes Gaussian splat scenes from PLY training checkpoints.
//
// A Model holds the decoded attribute arrays in raw training space and
// derives display-space values (color, opacity, linear scale) on demand.
// Workers reuse one Model across many loads; each LoadPLY replaces the
// previous scene wholesale.
//
// Both binary little-endian and ascii PLY encodings are supported. Spherical
// harmonics coefficients above the configured ceiling are dropped during
// decode rather than after, so reduced conversions never materialize
// coefficients they will not export.
package splat
