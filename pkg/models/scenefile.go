package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/taigrr/flatshade/pkg/math3d"
	"github.com/taigrr/flatshade/pkg/scene"
)

// ParseError reports a malformed line of a scene file.
type ParseError struct {
	Path string // Empty when parsing a reader
	Line int    // 1-based; 0 when the error is not tied to a line
	Err  error
}

func (e *ParseError) Error() string {
	prefix := "scene"
	if e.Path != "" {
		prefix = e.Path
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", prefix, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	// ErrMissingPolygons is returned when a file ends before the declared
	// number of polygons was read.
	ErrMissingPolygons = errors.New("fewer polygons than declared")

	// ErrTrailingData is returned for non-comment lines after the last
	// declared polygon.
	ErrTrailingData = errors.New("unexpected data after last polygon")
)

// LoadScene reads a scene file from path. See ParseScene for the format.
func LoadScene(path string, opts ...LoadOption) (scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return scene.Scene{}, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	sc, err := ParseScene(f, opts...)
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Path = path
	}
	return sc, err
}

// ParseScene reads a scene in the flatshade text format:
//
//	# comments and blank lines are ignored
//	<polygon count>
//	<lx> <ly> <lz> [<lr> <lg> <lb>]
//	<r> <g> <b> <x0> <y0> <z0> <x1> <y1> <z1> <x2> <y2> <z2>
//
// The light line holds the light position and an optional color, white by
// default. Each polygon line holds the reflectance followed by three
// vertices. Fields are separated by spaces, tabs or commas.
func ParseScene(r io.Reader, opts ...LoadOption) (scene.Scene, error) {
	cfg := newLoadConfig(opts)
	p := &sceneParser{scanner: bufio.NewScanner(r)}

	fields, err := p.next()
	if err != nil {
		return scene.Scene{}, err
	}
	if len(fields) != 1 {
		return scene.Scene{}, p.errorf("polygon count: want 1 field, got %d", len(fields))
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return scene.Scene{}, p.errorf("polygon count: invalid %q", fields[0])
	}

	fields, err = p.next()
	if err != nil {
		return scene.Scene{}, err
	}
	light, lightColor, err := p.parseLight(fields)
	if err != nil {
		return scene.Scene{}, err
	}

	polys := make([]scene.Polygon, 0, count)
	for range count {
		fields, err := p.next()
		if errors.Is(err, io.EOF) {
			return scene.Scene{}, p.wrap(fmt.Errorf("%w: want %d, got %d", ErrMissingPolygons, count, len(polys)))
		}
		if err != nil {
			return scene.Scene{}, err
		}
		poly, err := p.parsePolygon(fields)
		if err != nil {
			return scene.Scene{}, err
		}
		polys = append(polys, poly)
	}

	if _, err := p.next(); !errors.Is(err, io.EOF) {
		if err != nil {
			return scene.Scene{}, err
		}
		return scene.Scene{}, p.wrap(ErrTrailingData)
	}

	return cfg.relight(scene.New(polys, light, lightColor, DefaultAmbient)), nil
}

type sceneParser struct {
	scanner *bufio.Scanner
	line    int
}

// next returns the fields of the next non-blank, non-comment line, or an
// error wrapping io.EOF at the end of input.
func (p *sceneParser) next() ([]string, error) {
	for p.scanner.Scan() {
		p.line++
		text := p.scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ',' || r == '\r'
		})
		if len(fields) > 0 {
			return fields, nil
		}
	}
	if err := p.scanner.Err(); err != nil {
		return nil, p.wrap(fmt.Errorf("read: %w", err))
	}
	return nil, p.wrap(fmt.Errorf("unexpected end of file: %w", io.EOF))
}

func (p *sceneParser) wrap(err error) error {
	return &ParseError{Line: p.line, Err: err}
}

func (p *sceneParser) errorf(format string, args ...any) error {
	return p.wrap(fmt.Errorf(format, args...))
}

func (p *sceneParser) parseLight(fields []string) (math3d.Vec3, scene.Color, error) {
	if len(fields) != 3 && len(fields) != 6 {
		return math3d.Vec3{}, scene.Color{}, p.errorf("light: want 3 or 6 fields, got %d", len(fields))
	}
	pos, err := p.parseVec3(fields[0:3])
	if err != nil {
		return math3d.Vec3{}, scene.Color{}, err
	}
	c := scene.ColorWhite
	if len(fields) == 6 {
		if c, err = p.parseColor(fields[3:6]); err != nil {
			return math3d.Vec3{}, scene.Color{}, err
		}
	}
	return pos, c, nil
}

func (p *sceneParser) parsePolygon(fields []string) (scene.Polygon, error) {
	if len(fields) != 12 {
		return scene.Polygon{}, p.errorf("polygon: want 12 fields (color and 3 vertices), got %d", len(fields))
	}
	c, err := p.parseColor(fields[0:3])
	if err != nil {
		return scene.Polygon{}, err
	}
	var verts [3]math3d.Vec3
	for i := range verts {
		if verts[i], err = p.parseVec3(fields[3+i*3 : 6+i*3]); err != nil {
			return scene.Polygon{}, err
		}
	}
	return scene.NewPolygon(verts[0], verts[1], verts[2], c), nil
}

func (p *sceneParser) parseVec3(fields []string) (math3d.Vec3, error) {
	var xyz [3]float64
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return math3d.Vec3{}, p.errorf("invalid coordinate %q", s)
		}
		xyz[i] = f
	}
	return math3d.V3(xyz[0], xyz[1], xyz[2]), nil
}

func (p *sceneParser) parseColor(fields []string) (scene.Color, error) {
	var rgb [3]uint8
	for i, s := range fields {
		v, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return scene.Color{}, p.errorf("invalid color channel %q (want 0-255)", s)
		}
		rgb[i] = uint8(v)
	}
	return scene.RGB(rgb[0], rgb[1], rgb[2]), nil
}
