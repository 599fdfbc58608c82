// Package usdz writes Gaussian splat models as USDZ packages.
//
// A USDZ package is a zip archive with every entry stored uncompressed and
// entry data aligned to 64-byte boundaries so USD runtimes can mmap layers
// straight out of the archive. The scene is authored as a single usda layer
// holding a Points prim; splat-specific attributes (rotations, linear scales,
// higher-order spherical harmonics) ride along as custom attributes.
package usdz
