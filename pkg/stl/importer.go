package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/stlprim/pkg/mesh"
	"github.com/deadsy/sdfx/render"
)

// ErrFormat is returned when input is neither valid ASCII nor binary STL.
var ErrFormat = errors.New("stl: malformed input")

const (
	binaryHeaderSize   = 84 // 80 byte header + uint32 triangle count
	binaryTriangleSize = 50 // 12 float32 + uint16 attribute count
)

// Importer decodes an STL file into facets.
type Importer struct {
	name   string
	facets []mesh.Facet
}

// NewImporter returns an empty importer.
func NewImporter() *Importer {
	return &Importer{}
}

// Load reads and decodes the STL file at path.
func (im *Importer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("stl: load %s: %w", path, err)
	}
	if err := im.Decode(data); err != nil {
		return fmt.Errorf("stl: load %s: %w", path, err)
	}
	return nil
}

// Decode replaces the importer contents with the facets in data, which may
// be ASCII or binary STL.
func (im *Importer) Decode(data []byte) error {
	var (
		name   string
		facets []mesh.Facet
		err    error
	)
	switch {
	case isBinary(data):
		facets, err = decodeBinary(data)
	case bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")):
		name, facets, err = decodeASCII(data)
	default:
		err = fmt.Errorf("%w: neither ASCII nor binary STL", ErrFormat)
	}
	if err != nil {
		return err
	}
	im.name = name
	im.facets = facets
	return nil
}

// Name returns the solid name of an ASCII file. Binary files have no name.
func (im *Importer) Name() string {
	return im.name
}

// Facets returns a copy of the decoded facets in file order.
func (im *Importer) Facets() []mesh.Facet {
	out := make([]mesh.Facet, len(im.facets))
	copy(out, im.facets)
	return out
}

// isBinary uses the triangle count in the header to decide the flavour;
// binary files are allowed to start with "solid" too.
func isBinary(data []byte) bool {
	if len(data) < binaryHeaderSize {
		return false
	}
	n := int64(binary.LittleEndian.Uint32(data[80:binaryHeaderSize]))
	return int64(len(data)) == binaryHeaderSize+n*binaryTriangleSize
}

func decodeBinary(data []byte) ([]mesh.Facet, error) {
	r := bytes.NewReader(data)
	var hdr render.STLHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}
	facets := make([]mesh.Facet, 0, hdr.Count)
	for i := uint32(0); i < hdr.Count; i++ {
		var t render.STLTriangle
		if err := binary.Read(r, binary.LittleEndian, &t); err != nil {
			return nil, fmt.Errorf("%w: triangle %d: %v", ErrFormat, i, err)
		}
		facets = append(facets, mesh.Facet{
			Normal: fromF32(t.Normal),
			Vert1:  fromF32(t.Vertex1),
			Vert2:  fromF32(t.Vertex2),
			Vert3:  fromF32(t.Vertex3),
		})
	}
	return facets, nil
}

func fromF32(v [3]float32) mesh.Vec3 {
	return mesh.Vec3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// ASCII parser states, in the order they appear within one facet.
const (
	expectFacet = iota
	expectOuterLoop
	expectVertex1
	expectVertex2
	expectVertex3
	expectEndLoop
	expectEndFacet
)

func decodeASCII(data []byte) (string, []mesh.Facet, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			line++
			if fields := strings.Fields(sc.Text()); len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}

	fields, ok := next()
	if !ok || fields[0] != "solid" {
		return "", nil, fmt.Errorf("%w: missing solid header", ErrFormat)
	}
	name := strings.Join(fields[1:], " ")

	var (
		facets []mesh.Facet
		f      mesh.Facet
		err    error
	)
	state := expectFacet
	for {
		fields, ok = next()
		if !ok {
			if err := sc.Err(); err != nil {
				return "", nil, fmt.Errorf("%w: %v", ErrFormat, err)
			}
			return "", nil, fmt.Errorf("%w: line %d: unexpected end of input", ErrFormat, line)
		}
		switch state {
		case expectFacet:
			if fields[0] == "endsolid" {
				return name, facets, nil
			}
			if len(fields) != 5 || fields[0] != "facet" || fields[1] != "normal" {
				return "", nil, asciiError(line, "facet normal", fields)
			}
			if f.Normal, err = parseVec(fields[2:]); err != nil {
				return "", nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
			}
		case expectOuterLoop:
			if len(fields) != 2 || fields[0] != "outer" || fields[1] != "loop" {
				return "", nil, asciiError(line, "outer loop", fields)
			}
		case expectVertex1, expectVertex2, expectVertex3:
			if len(fields) != 4 || fields[0] != "vertex" {
				return "", nil, asciiError(line, "vertex", fields)
			}
			v, err := parseVec(fields[1:])
			if err != nil {
				return "", nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
			}
			switch state {
			case expectVertex1:
				f.Vert1 = v
			case expectVertex2:
				f.Vert2 = v
			default:
				f.Vert3 = v
			}
		case expectEndLoop:
			if fields[0] != "endloop" {
				return "", nil, asciiError(line, "endloop", fields)
			}
		case expectEndFacet:
			if fields[0] != "endfacet" {
				return "", nil, asciiError(line, "endfacet", fields)
			}
			facets = append(facets, f)
			f = mesh.Facet{}
			state = expectFacet
			continue
		}
		state++
	}
}

func asciiError(line int, want string, got []string) error {
	return fmt.Errorf("%w: line %d: expected %q, got %q", ErrFormat, line, want, strings.Join(got, " "))
}

func parseVec(s []string) (mesh.Vec3, error) {
	var c [3]float64
	for i := range c {
		f, err := strconv.ParseFloat(s[i], 64)
		if err != nil {
			return mesh.Vec3{}, fmt.Errorf("invalid coordinate %q", s[i])
		}
		c[i] = f
	}
	return mesh.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}
