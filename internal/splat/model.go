package splat

import (
	"bufio"
	"fmt"
	"math"
	"os"
)

// shC0 is the zero-order spherical harmonics basis constant. The DC color
// term stored in splat files is multiplied by it to recover linear color.
const shC0 = 0.28209479177387814

// Model holds one decoded Gaussian splat scene. A Model is built once per
// worker and reused: each LoadPLY call replaces the previous scene wholesale,
// so handles into an earlier scene become stale after the next load.
//
// Attribute slices store raw training-space values exactly as read from disk.
// Display-space conversions (sigmoid opacity, exponential scale, DC color)
// are exposed as methods so exporters do not duplicate the activation math.
type Model struct {
	maxSHDegree int

	// Count is the number of splats in the current scene.
	Count int
	// Positions holds xyz per splat.
	Positions []float32
	// ColorsDC holds the spherical harmonics DC term per splat, 3 values each.
	ColorsDC []float32
	// RestSH holds higher-order spherical harmonics coefficients per splat in
	// channel-major order: all red coefficients, then green, then blue,
	// matching the on-disk layout. Empty when SHDegree is 0.
	RestSH []float32
	// Opacities holds raw opacity logits, 1 per splat.
	Opacities []float32
	// Scales holds log-space scales, 3 per splat.
	Scales []float32
	// Rotations holds unit quaternions in wxyz order, 4 per splat.
	Rotations []float32
	// SHDegree is the effective spherical harmonics degree after clamping the
	// file contents to the model's configured ceiling.
	SHDegree int
}

// NewModel returns a Model that decodes spherical harmonics up to
// maxSHDegree. Degree 0 drops all higher-order coefficients during load.
func NewModel(maxSHDegree int) *Model {
	return &Model{maxSHDegree: maxSHDegree}
}

// MaxSHDegree reports the configured spherical harmonics ceiling.
func (m *Model) MaxSHDegree() int {
	return m.maxSHDegree
}

// RestCoefficientsPerChannel returns how many higher-order coefficients each
// color channel carries at the current effective degree.
func (m *Model) RestCoefficientsPerChannel() int {
	return restCoefficients(m.SHDegree)
}

// LoadPLY replaces the model contents with the scene stored at path. On error
// the previous scene is left intact.
func (m *Model) LoadPLY(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	if err := m.decode(bufio.NewReaderSize(file, 1<<16)); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// BaseColor returns the display color of splat i derived from the DC term,
// clamped to [0, 1].
func (m *Model) BaseColor(i int) [3]float32 {
	var out [3]float32
	for c := 0; c < 3; c++ {
		out[c] = clamp01(0.5 + shC0*float64(m.ColorsDC[i*3+c]))
	}
	return out
}

// Opacity returns the display opacity of splat i.
func (m *Model) Opacity(i int) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(m.Opacities[i]))))
}

// ScaleLinear returns the world-space scale of splat i.
func (m *Model) ScaleLinear(i int) [3]float32 {
	var out [3]float32
	for c := 0; c < 3; c++ {
		out[c] = float32(math.Exp(float64(m.Scales[i*3+c])))
	}
	return out
}

// Rotation returns the unit quaternion of splat i in wxyz order.
func (m *Model) Rotation(i int) [4]float32 {
	var out [4]float32
	copy(out[:], m.Rotations[i*4:i*4+4])
	return out
}

func clamp01(v float64) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return float32(v)
	}
}

func restCoefficients(degree int) int {
	if degree <= 0 {
		return 0
	}
	return (degree+1)*(degree+1) - 1
}

// degreeForRestCount maps a per-channel coefficient count back to a spherical
// harmonics degree, or -1 when the count does not correspond to any degree.
func degreeForRestCount(perChannel int) int {
	for degree := 0; degree <= 3; degree++ {
		if restCoefficients(degree) == perChannel {
			return degree
		}
	}
	return -1
}
