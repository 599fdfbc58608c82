package usdz

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"splatconv/internal/splat"
)

// sceneDoc authors one usda layer describing a splat scene as a Points prim.
type sceneDoc struct {
	name          string
	upAxis        string
	metersPerUnit float64
	widthScale    float64
}

func (d sceneDoc) write(w io.Writer, model *splat.Model) error {
	u := &usdaWriter{w: bufio.NewWriterSize(w, 1<<16)}

	u.printf("#usda 1.0\n(\n")
	u.printf("    defaultPrim = %q\n", d.name)
	u.printf("    metersPerUnit = %s\n", formatFloat64(d.metersPerUnit))
	u.printf("    upAxis = %q\n", d.upAxis)
	u.printf(")\n\n")

	u.printf("def Points %q (\n", d.name)
	u.printf("    kind = \"component\"\n")
	u.printf(")\n{\n")

	widths := make([]float32, model.Count)
	var maxHalfWidth float32
	for i := range widths {
		s := model.ScaleLinear(i)
		width := (s[0] + s[1] + s[2]) / 3 * 2 * float32(d.widthScale)
		widths[i] = width
		if width/2 > maxHalfWidth {
			maxHalfWidth = width / 2
		}
	}

	lo, hi := positionBounds(model)
	for c := 0; c < 3; c++ {
		lo[c] -= maxHalfWidth
		hi[c] += maxHalfWidth
	}
	u.printf("    float3[] extent = [(%s, %s, %s), (%s, %s, %s)]\n",
		formatFloat(lo[0]), formatFloat(lo[1]), formatFloat(lo[2]),
		formatFloat(hi[0]), formatFloat(hi[1]), formatFloat(hi[2]))

	u.attrVec3("point3f[] points", model.Count, func(i int) [3]float32 {
		return [3]float32{model.Positions[i*3], model.Positions[i*3+1], model.Positions[i*3+2]}
	})
	u.printf("\n")

	u.attrFloats("float[] widths", widths)
	u.printf("\n")

	u.attrVec3("color3f[] primvars:displayColor", model.Count, model.BaseColor)
	u.printf(" (\n        interpolation = \"vertex\"\n    )\n")

	u.attrFloatsFunc("float[] primvars:displayOpacity", model.Count, model.Opacity)
	u.printf(" (\n        interpolation = \"vertex\"\n    )\n")

	u.attrQuats("custom quatf[] splat:rotations", model.Count, model.Rotation)
	u.printf("\n")

	u.attrVec3("custom float3[] splat:scales", model.Count, model.ScaleLinear)
	u.printf("\n")

	u.printf("    custom int splat:shDegree = %d\n", model.SHDegree)
	if model.SHDegree > 0 {
		u.attrFloats("custom float[] splat:shRest", model.RestSH)
		u.printf("\n")
	}

	u.printf("}\n")
	return u.flush()
}

// usdaWriter accumulates the first write error so attribute helpers can be
// chained without per-call checks.
type usdaWriter struct {
	w   *bufio.Writer
	err error
}

func (u *usdaWriter) printf(format string, args ...any) {
	if u.err != nil {
		return
	}
	_, u.err = fmt.Fprintf(u.w, format, args...)
}

func (u *usdaWriter) attrVec3(decl string, count int, at func(int) [3]float32) {
	u.printf("    %s = [", decl)
	for i := 0; i < count; i++ {
		if i > 0 {
			u.printf(", ")
		}
		v := at(i)
		u.printf("(%s, %s, %s)", formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]))
	}
	u.printf("]")
}

func (u *usdaWriter) attrQuats(decl string, count int, at func(int) [4]float32) {
	u.printf("    %s = [", decl)
	for i := 0; i < count; i++ {
		if i > 0 {
			u.printf(", ")
		}
		v := at(i)
		u.printf("(%s, %s, %s, %s)", formatFloat(v[0]), formatFloat(v[1]), formatFloat(v[2]), formatFloat(v[3]))
	}
	u.printf("]")
}

func (u *usdaWriter) attrFloats(decl string, values []float32) {
	u.printf("    %s = [", decl)
	for i, v := range values {
		if i > 0 {
			u.printf(", ")
		}
		u.printf("%s", formatFloat(v))
	}
	u.printf("]")
}

func (u *usdaWriter) attrFloatsFunc(decl string, count int, at func(int) float32) {
	u.printf("    %s = [", decl)
	for i := 0; i < count; i++ {
		if i > 0 {
			u.printf(", ")
		}
		u.printf("%s", formatFloat(at(i)))
	}
	u.printf("]")
}

func (u *usdaWriter) flush() error {
	if u.err != nil {
		return u.err
	}
	return u.w.Flush()
}

func positionBounds(m *splat.Model) (lo, hi [3]float32) {
	if m.Count == 0 {
		return lo, hi
	}
	for c := 0; c < 3; c++ {
		lo[c] = m.Positions[c]
		hi[c] = m.Positions[c]
	}
	for i := 1; i < m.Count; i++ {
		for c := 0; c < 3; c++ {
			v := m.Positions[i*3+c]
			if v < lo[c] {
				lo[c] = v
			}
			if v > hi[c] {
				hi[c] = v
			}
		}
	}
	return lo, hi
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func formatFloat64(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
