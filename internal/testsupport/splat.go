package testsupport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"testing"
)

// SplatScene holds the attribute arrays behind a synthetic fixture, laid out
// the way the decoder exposes them (RestSH channel-major per splat).
type SplatScene struct {
	Count     int
	SHDegree  int
	Positions []float32
	ColorsDC  []float32
	RestSH    []float32
	Opacities []float32
	Scales    []float32
	Rotations []float32
}

// NewSplatScene generates deterministic attribute values for count splats at
// the given spherical harmonics degree.
func NewSplatScene(count, shDegree int) SplatScene {
	perChannel := restCoefficientCount(shDegree)
	s := SplatScene{
		Count:     count,
		SHDegree:  shDegree,
		Positions: make([]float32, 3*count),
		ColorsDC:  make([]float32, 3*count),
		Opacities: make([]float32, count),
		Scales:    make([]float32, 3*count),
		Rotations: make([]float32, 4*count),
	}
	if perChannel > 0 {
		s.RestSH = make([]float32, 3*perChannel*count)
	}
	for i := 0; i < count; i++ {
		base := float32(i)
		for c := 0; c < 3; c++ {
			s.Positions[i*3+c] = base + float32(c)*0.25
			s.ColorsDC[i*3+c] = base*0.01 + float32(c)*0.1
			s.Scales[i*3+c] = -1 + base*0.01 - float32(c)*0.1
		}
		s.Opacities[i] = base*0.1 - 0.5
		for c := 0; c < 4; c++ {
			s.Rotations[i*4+c] = float32(c) + base*0.001
		}
		for ch := 0; ch < 3; ch++ {
			for j := 0; j < perChannel; j++ {
				s.RestSH[(i*3+ch)*perChannel+j] = base + float32(ch)*10 + float32(j)*0.5
			}
		}
	}
	return s
}

// WriteSplatPLY writes scene as a binary little-endian splat PLY at path.
func WriteSplatPLY(t testing.TB, path string, scene SplatScene) {
	t.Helper()
	WriteFile(t, path, EncodeSplatPLY(scene, false))
}

// WriteSplatPLYASCII writes scene in the text PLY encoding at path.
func WriteSplatPLYASCII(t testing.TB, path string, scene SplatScene) {
	t.Helper()
	WriteFile(t, path, EncodeSplatPLY(scene, true))
}

// EncodeSplatPLY renders the scene into PLY bytes using the standard splat
// column order, including the unused normal columns real training dumps carry.
func EncodeSplatPLY(scene SplatScene, ascii bool) []byte {
	perChannel := restCoefficientCount(scene.SHDegree)
	var buf bytes.Buffer
	buf.WriteString("ply\n")
	if ascii {
		buf.WriteString("format ascii 1.0\n")
	} else {
		buf.WriteString("format binary_little_endian 1.0\n")
	}
	buf.WriteString("comment synthetic splat scene\n")
	fmt.Fprintf(&buf, "element vertex %d\n", scene.Count)
	for _, name := range []string{"x", "y", "z", "nx", "ny", "nz", "f_dc_0", "f_dc_1", "f_dc_2"} {
		fmt.Fprintf(&buf, "property float %s\n", name)
	}
	for j := 0; j < 3*perChannel; j++ {
		fmt.Fprintf(&buf, "property float f_rest_%d\n", j)
	}
	buf.WriteString("property float opacity\n")
	for c := 0; c < 3; c++ {
		fmt.Fprintf(&buf, "property float scale_%d\n", c)
	}
	for c := 0; c < 4; c++ {
		fmt.Fprintf(&buf, "property float rot_%d\n", c)
	}
	buf.WriteString("end_header\n")

	for i := 0; i < scene.Count; i++ {
		row := make([]float32, 0, 17+3*perChannel)
		row = append(row, scene.Positions[i*3], scene.Positions[i*3+1], scene.Positions[i*3+2])
		row = append(row, 0, 0, 0)
		row = append(row, scene.ColorsDC[i*3], scene.ColorsDC[i*3+1], scene.ColorsDC[i*3+2])
		for ch := 0; ch < 3; ch++ {
			for j := 0; j < perChannel; j++ {
				row = append(row, scene.RestSH[(i*3+ch)*perChannel+j])
			}
		}
		row = append(row, scene.Opacities[i])
		row = append(row, scene.Scales[i*3], scene.Scales[i*3+1], scene.Scales[i*3+2])
		row = append(row, scene.Rotations[i*4], scene.Rotations[i*4+1], scene.Rotations[i*4+2], scene.Rotations[i*4+3])

		if ascii {
			for k, v := range row {
				if k > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
			}
			buf.WriteByte('\n')
		} else {
			var scratch [4]byte
			for _, v := range row {
				binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
				buf.Write(scratch[:])
			}
		}
	}
	return buf.Bytes()
}

func restCoefficientCount(degree int) int {
	if degree <= 0 {
		return 0
	}
	return (degree+1)*(degree+1) - 1
}
