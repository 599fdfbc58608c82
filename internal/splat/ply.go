package splat

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

type plyFormat int

const (
	formatBinaryLE plyFormat = iota
	formatASCII
)

type scalarType int

const (
	typeInt8 scalarType = iota
	typeUint8
	typeInt16
	typeUint16
	typeInt32
	typeUint32
	typeFloat32
	typeFloat64
)

var scalarTypes = map[string]scalarType{
	"char":    typeInt8,
	"int8":    typeInt8,
	"uchar":   typeUint8,
	"uint8":   typeUint8,
	"short":   typeInt16,
	"int16":   typeInt16,
	"ushort":  typeUint16,
	"uint16":  typeUint16,
	"int":     typeInt32,
	"int32":   typeInt32,
	"uint":    typeUint32,
	"uint32":  typeUint32,
	"float":   typeFloat32,
	"float32": typeFloat32,
	"double":  typeFloat64,
	"float64": typeFloat64,
}

func (t scalarType) size() int {
	switch t {
	case typeInt8, typeUint8:
		return 1
	case typeInt16, typeUint16:
		return 2
	case typeInt32, typeUint32, typeFloat32:
		return 4
	default:
		return 8
	}
}

type plyProperty struct {
	name string
	typ  scalarType
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

func (e plyElement) stride() int {
	total := 0
	for _, p := range e.props {
		total += p.typ.size()
	}
	return total
}

type plyHeader struct {
	format   plyFormat
	elements []plyElement
}

func (m *Model) decode(r *bufio.Reader) error {
	header, err := parseHeader(r)
	if err != nil {
		return err
	}

	for _, elem := range header.elements {
		if elem.name == "vertex" {
			return m.decodeVertices(r, header.format, elem)
		}
		if err := skipElement(r, header.format, elem); err != nil {
			return fmt.Errorf("skip element %q: %w", elem.name, err)
		}
	}
	return errors.New("missing vertex element")
}

func parseHeader(r *bufio.Reader) (*plyHeader, error) {
	magic, err := readHeaderLine(r)
	if err != nil {
		return nil, err
	}
	if magic != "ply" {
		return nil, errors.New("not a PLY file")
	}

	header := &plyHeader{}
	haveFormat := false
	for {
		line, err := readHeaderLine(r)
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed format line %q", line)
			}
			switch fields[1] {
			case "binary_little_endian":
				header.format = formatBinaryLE
			case "ascii":
				header.format = formatASCII
			default:
				return nil, fmt.Errorf("unsupported PLY format %q", fields[1])
			}
			haveFormat = true
		case "comment", "obj_info":
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed element line %q", line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count in %q", line)
			}
			header.elements = append(header.elements, plyElement{name: fields[1], count: count})
		case "property":
			if len(header.elements) == 0 {
				return nil, errors.New("property declared before any element")
			}
			if len(fields) >= 2 && fields[1] == "list" {
				return nil, fmt.Errorf("list properties are not supported (%q)", line)
			}
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed property line %q", line)
			}
			typ, ok := scalarTypes[fields[1]]
			if !ok {
				return nil, fmt.Errorf("unsupported property type %q", fields[1])
			}
			elem := &header.elements[len(header.elements)-1]
			elem.props = append(elem.props, plyProperty{name: fields[2], typ: typ})
		case "end_header":
			if !haveFormat {
				return nil, errors.New("missing format line")
			}
			return header, nil
		default:
			return nil, fmt.Errorf("unrecognized header line %q", line)
		}
	}
}

func readHeaderLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", errors.New("unexpected end of header")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type vertexLayout struct {
	position [3]int
	dc       [3]int
	opacity  int
	scale    [3]int
	rotation [4]int
	// rest maps flat f_rest indices to property indices in file order.
	rest []int
}

func buildVertexLayout(props []plyProperty) (vertexLayout, int, error) {
	layout := vertexLayout{
		position: [3]int{-1, -1, -1},
		dc:       [3]int{-1, -1, -1},
		opacity:  -1,
		scale:    [3]int{-1, -1, -1},
		rotation: [4]int{-1, -1, -1, -1},
	}
	restByIndex := map[int]int{}

	for i, prop := range props {
		switch prop.name {
		case "x":
			layout.position[0] = i
		case "y":
			layout.position[1] = i
		case "z":
			layout.position[2] = i
		case "opacity":
			layout.opacity = i
		default:
			if idx, ok := indexedName(prop.name, "f_dc_"); ok && idx < 3 {
				layout.dc[idx] = i
			} else if idx, ok := indexedName(prop.name, "scale_"); ok && idx < 3 {
				layout.scale[idx] = i
			} else if idx, ok := indexedName(prop.name, "rot_"); ok && idx < 4 {
				layout.rotation[idx] = i
			} else if idx, ok := indexedName(prop.name, "f_rest_"); ok {
				restByIndex[idx] = i
			}
			// Other properties (normals and the like) are read past, not decoded.
		}
	}

	required := []struct {
		name  string
		index int
	}{
		{"x", layout.position[0]}, {"y", layout.position[1]}, {"z", layout.position[2]},
		{"f_dc_0", layout.dc[0]}, {"f_dc_1", layout.dc[1]}, {"f_dc_2", layout.dc[2]},
		{"opacity", layout.opacity},
		{"scale_0", layout.scale[0]}, {"scale_1", layout.scale[1]}, {"scale_2", layout.scale[2]},
		{"rot_0", layout.rotation[0]}, {"rot_1", layout.rotation[1]}, {"rot_2", layout.rotation[2]}, {"rot_3", layout.rotation[3]},
	}
	for _, req := range required {
		if req.index < 0 {
			return layout, 0, fmt.Errorf("vertex element missing property %q", req.name)
		}
	}

	for j := 0; j < len(restByIndex); j++ {
		if _, ok := restByIndex[j]; !ok {
			return layout, 0, fmt.Errorf("f_rest indices are not contiguous (missing f_rest_%d)", j)
		}
	}
	if len(restByIndex)%3 != 0 {
		return layout, 0, fmt.Errorf("f_rest property count %d is not divisible by 3", len(restByIndex))
	}
	perChannel := len(restByIndex) / 3
	fileDegree := degreeForRestCount(perChannel)
	if fileDegree < 0 {
		return layout, 0, fmt.Errorf("unsupported spherical harmonics layout (%d coefficients per channel)", perChannel)
	}

	layout.rest = make([]int, len(restByIndex))
	for j := range layout.rest {
		layout.rest[j] = restByIndex[j]
	}
	return layout, fileDegree, nil
}

func indexedName(name, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func (m *Model) decodeVertices(r *bufio.Reader, format plyFormat, elem plyElement) error {
	layout, fileDegree, err := buildVertexLayout(elem.props)
	if err != nil {
		return err
	}

	degree := fileDegree
	if degree > m.maxSHDegree {
		degree = m.maxSHDegree
	}
	keep := restCoefficients(degree)
	filePerChannel := restCoefficients(fileDegree)

	count := elem.count
	positions := make([]float32, 3*count)
	colors := make([]float32, 3*count)
	opacities := make([]float32, count)
	scales := make([]float32, 3*count)
	rotations := make([]float32, 4*count)
	var rest []float32
	if keep > 0 {
		rest = make([]float32, 3*keep*count)
	}

	var rows rowReader
	switch format {
	case formatBinaryLE:
		rows = newBinaryRowReader(r, elem.props)
	case formatASCII:
		rows = newASCIIRowReader(r, len(elem.props))
	}

	for i := 0; i < count; i++ {
		row, err := rows.next()
		if err != nil {
			return fmt.Errorf("vertex %d of %d: %w", i, count, err)
		}
		for c := 0; c < 3; c++ {
			positions[i*3+c] = row[layout.position[c]]
			colors[i*3+c] = row[layout.dc[c]]
			scales[i*3+c] = row[layout.scale[c]]
		}
		opacities[i] = row[layout.opacity]
		for c := 0; c < 4; c++ {
			rotations[i*4+c] = row[layout.rotation[c]]
		}
		for ch := 0; ch < 3; ch++ {
			for j := 0; j < keep; j++ {
				rest[(i*3+ch)*keep+j] = row[layout.rest[ch*filePerChannel+j]]
			}
		}
	}

	m.Count = count
	m.Positions = positions
	m.ColorsDC = colors
	m.RestSH = rest
	m.Opacities = opacities
	m.Scales = scales
	m.Rotations = rotations
	m.SHDegree = degree
	return nil
}

type rowReader interface {
	next() ([]float32, error)
}

type binaryRowReader struct {
	r       io.Reader
	buf     []byte
	values  []float32
	offsets []int
	types   []scalarType
}

func newBinaryRowReader(r io.Reader, props []plyProperty) *binaryRowReader {
	offsets := make([]int, len(props))
	types := make([]scalarType, len(props))
	stride := 0
	for i, p := range props {
		offsets[i] = stride
		types[i] = p.typ
		stride += p.typ.size()
	}
	return &binaryRowReader{
		r:       r,
		buf:     make([]byte, stride),
		values:  make([]float32, len(props)),
		offsets: offsets,
		types:   types,
	}
}

func (b *binaryRowReader) next() ([]float32, error) {
	if _, err := io.ReadFull(b.r, b.buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.New("truncated vertex data")
		}
		return nil, err
	}
	for i := range b.values {
		b.values[i] = decodeScalar(b.buf[b.offsets[i]:], b.types[i])
	}
	return b.values, nil
}

func decodeScalar(data []byte, typ scalarType) float32 {
	switch typ {
	case typeInt8:
		return float32(int8(data[0]))
	case typeUint8:
		return float32(data[0])
	case typeInt16:
		return float32(int16(binary.LittleEndian.Uint16(data)))
	case typeUint16:
		return float32(binary.LittleEndian.Uint16(data))
	case typeInt32:
		return float32(int32(binary.LittleEndian.Uint32(data)))
	case typeUint32:
		return float32(binary.LittleEndian.Uint32(data))
	case typeFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(data))
	default:
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(data)))
	}
}

type asciiRowReader struct {
	r      *bufio.Reader
	values []float32
}

func newASCIIRowReader(r *bufio.Reader, propCount int) *asciiRowReader {
	return &asciiRowReader{r: r, values: make([]float32, propCount)}
}

func (a *asciiRowReader) next() ([]float32, error) {
	for {
		line, err := a.r.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) == 0 {
			if err != nil {
				return nil, errors.New("truncated vertex data")
			}
			continue
		}
		if len(fields) < len(a.values) {
			return nil, fmt.Errorf("expected %d values per vertex, got %d", len(a.values), len(fields))
		}
		for i := range a.values {
			v, perr := strconv.ParseFloat(fields[i], 32)
			if perr != nil {
				return nil, fmt.Errorf("parse vertex value %q: %w", fields[i], perr)
			}
			a.values[i] = float32(v)
		}
		return a.values, nil
	}
}

func skipElement(r *bufio.Reader, format plyFormat, elem plyElement) error {
	switch format {
	case formatBinaryLE:
		n := int64(elem.stride()) * int64(elem.count)
		if _, err := io.CopyN(io.Discard, r, n); err != nil {
			return errors.New("truncated element data")
		}
	case formatASCII:
		for i := 0; i < elem.count; i++ {
			if _, err := r.ReadString('\n'); err != nil {
				return errors.New("truncated element data")
			}
		}
	}
	return nil
}
