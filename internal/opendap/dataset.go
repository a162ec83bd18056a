package opendap

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Dataset is an opened remote dataset. It carries only metadata.
type Dataset struct {
	DDS   *DDS
	Attrs Attributes

	client   *Client
	url      *url.URL
	username string
	password string
}

// URL returns the dataset address with credentials removed
func (ds *Dataset) URL() string {
	return ds.url.Redacted()
}

// Select starts a lazy selection of the named variables. All variables must
// share the same dimensions.
func (ds *Dataset) Select(names ...string) *Selection {
	s := &Selection{
		ds:     ds,
		index:  make(map[string]int),
		bounds: make(map[string][2]float64),
	}
	if len(names) == 0 {
		s.err = fmt.Errorf("%s: no variables selected", ds.URL())
		return s
	}
	for _, name := range names {
		v, ok := ds.DDS.Var(name)
		if !ok {
			s.err = fmt.Errorf("%s: %w: %s", ds.URL(), ErrNoSuchVariable, name)
			return s
		}
		if v.Kind != KindGrid && v.Kind != KindArray {
			s.err = fmt.Errorf("%s: %w: %s is not an array", ds.URL(), ErrUnsupported, name)
			return s
		}
		if len(s.vars) > 0 && !sameDims(s.vars[0].Dims, v.Dims) {
			s.err = fmt.Errorf("%s: %s and %s have different dimensions", ds.URL(), s.vars[0].Name, name)
			return s
		}
		s.vars = append(s.vars, v)
	}
	return s
}

func sameDims(a, b []Dim) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Selection is a deferred request for a hyperslab of one or more variables.
// Errors are sticky: the first failing step is reported by Realize.
type Selection struct {
	ds     *Dataset
	vars   []*Variable
	index  map[string]int
	bounds map[string][2]float64
	err    error
}

// Err returns the first error recorded while building the selection
func (s *Selection) Err() error {
	return s.err
}

// ISel selects a single index along dim; the dimension is dropped from the result
func (s *Selection) ISel(dim string, i int) *Selection {
	if s.err != nil {
		return s
	}
	d, ok := s.dim(dim)
	if !ok {
		return s
	}
	if i < 0 || i >= d.Size {
		s.err = fmt.Errorf("%s: %w: %s[%d] of %d", s.ds.URL(), ErrIndexOutOfRange, dim, i, d.Size)
		return s
	}
	s.index[dim] = i
	return s
}

// Sel keeps the positions along dim whose coordinate lies in [lo, hi]
func (s *Selection) Sel(dim string, lo, hi float64) *Selection {
	if s.err != nil {
		return s
	}
	if _, ok := s.dim(dim); !ok {
		return s
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	s.bounds[dim] = [2]float64{lo, hi}
	return s
}

func (s *Selection) dim(name string) (Dim, bool) {
	for _, d := range s.vars[0].Dims {
		if d.Name == name {
			return d, true
		}
	}
	s.err = fmt.Errorf("%s: %w: %s", s.ds.URL(), ErrNoSuchDimension, name)
	return Dim{}, false
}

// Subset is a realized, in-memory selection
type Subset struct {
	Dims   []Dim                // Remaining dimensions in array order
	Coords map[string][]float64 // Coordinate values per remaining dimension
	Vars   map[string][]float64 // Row-major values over Dims, CF-decoded
}

type span struct {
	start, stop int // inclusive
}

// Realize transfers the selected hyperslab and decodes it into memory.
// Fill values become NaN and scale_factor/add_offset are applied.
func (s *Selection) Realize(ctx context.Context) (*Subset, error) {
	if s.err != nil {
		return nil, s.err
	}

	spans := make(map[string]span)
	coords := make(map[string][]float64)
	for _, d := range s.vars[0].Dims {
		if i, ok := s.index[d.Name]; ok {
			spans[d.Name] = span{i, i}
			continue
		}
		bounds, ok := s.bounds[d.Name]
		if !ok {
			spans[d.Name] = span{0, d.Size - 1}
			continue
		}
		values, err := s.coordinate(ctx, d)
		if err != nil {
			return nil, err
		}
		sp, err := rangeOf(values, bounds[0], bounds[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %s in [%g, %g]: %w", s.ds.URL(), d.Name, bounds[0], bounds[1], err)
		}
		spans[d.Name] = sp
		coords[d.Name] = values[sp.start : sp.stop+1]
	}

	body, err := s.ds.get(ctx, ".dods", s.constraint(spans))
	if err != nil {
		return nil, err
	}
	ddsText, payload, err := splitDataResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ds.URL(), err)
	}
	dds, err := ParseDDS(ddsText)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ds.URL(), err)
	}
	arrays, err := decodeData(dds, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ds.URL(), err)
	}

	sub := &Subset{
		Coords: make(map[string][]float64),
		Vars:   make(map[string][]float64),
	}
	want := 1
	for _, d := range s.vars[0].Dims {
		if _, squeezed := s.index[d.Name]; squeezed {
			continue
		}
		sp := spans[d.Name]
		size := sp.stop - sp.start + 1
		sub.Dims = append(sub.Dims, Dim{Name: d.Name, Size: size})
		want *= size

		switch {
		case arrays[d.Name] != nil && len(arrays[d.Name].Values) == size:
			sub.Coords[d.Name] = arrays[d.Name].Values
		case coords[d.Name] != nil:
			sub.Coords[d.Name] = coords[d.Name]
		default:
			idx := make([]float64, size)
			for i := range idx {
				idx[i] = float64(sp.start + i)
			}
			sub.Coords[d.Name] = idx
		}
	}

	for _, v := range s.vars {
		a, ok := arrays[v.Name]
		if !ok {
			return nil, fmt.Errorf("%s: %w: %s missing from data response", s.ds.URL(), ErrMalformed, v.Name)
		}
		if len(a.Values) != want {
			return nil, fmt.Errorf("%s: %w: %s has %d values, want %d", s.ds.URL(), ErrMalformed, v.Name, len(a.Values), want)
		}
		sub.Vars[v.Name] = decodeCF(a.Values, v.Type, s.ds.Attrs[v.Name])
	}
	return sub, nil
}

// coordinate fetches the full coordinate vector of a dimension
func (s *Selection) coordinate(ctx context.Context, d Dim) ([]float64, error) {
	if _, ok := s.ds.DDS.Var(d.Name); !ok {
		return nil, fmt.Errorf("%s: %w: no coordinate variable for %s", s.ds.URL(), ErrNoSuchVariable, d.Name)
	}
	body, err := s.ds.get(ctx, ".dods", d.Name)
	if err != nil {
		return nil, err
	}
	ddsText, payload, err := splitDataResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ds.URL(), err)
	}
	dds, err := ParseDDS(ddsText)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ds.URL(), err)
	}
	arrays, err := decodeData(dds, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ds.URL(), err)
	}
	a, ok := arrays[d.Name]
	if !ok || len(a.Values) != d.Size {
		return nil, fmt.Errorf("%s: %w: coordinate %s", s.ds.URL(), ErrMalformed, d.Name)
	}
	return a.Values, nil
}

// constraint renders the DAP2 projection for the selected variables
func (s *Selection) constraint(spans map[string]span) string {
	parts := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		var sb strings.Builder
		sb.WriteString(v.Name)
		for _, d := range v.Dims {
			sp := spans[d.Name]
			if sp.start == sp.stop {
				fmt.Fprintf(&sb, "[%d]", sp.start)
			} else {
				fmt.Fprintf(&sb, "[%d:%d]", sp.start, sp.stop)
			}
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, ",")
}

// rangeOf returns the contiguous index span of values inside [lo, hi].
// Coordinates may be ascending or descending.
func rangeOf(values []float64, lo, hi float64) (span, error) {
	first, last := -1, -1
	for i, v := range values {
		if v >= lo && v <= hi {
			if first < 0 {
				first = i
			} else if last != i-1 {
				return span{}, fmt.Errorf("coordinate is not monotonic")
			}
			last = i
		}
	}
	if first < 0 {
		return span{}, ErrEmptySelection
	}
	return span{first, last}, nil
}

// decodeCF masks fill values and applies packing attributes
func decodeCF(values []float64, t BaseType, attrs AttrTable) []float64 {
	var fills []float64
	for _, name := range []string{"_FillValue", "missing_value"} {
		if f, ok := attrs.Float(name); ok {
			fills = append(fills, f)
		}
	}
	scale, hasScale := attrs.Float("scale_factor")
	offset, hasOffset := attrs.Float("add_offset")

	out := make([]float64, len(values))
	for i, v := range values {
		if isFill(v, t, fills) {
			out[i] = math.NaN()
			continue
		}
		if hasScale {
			v *= scale
		}
		if hasOffset {
			v += offset
		}
		out[i] = v
	}
	return out
}

func isFill(v float64, t BaseType, fills []float64) bool {
	if math.IsNaN(v) {
		return true
	}
	for _, f := range fills {
		if t == Float32 {
			if float32(v) == float32(f) {
				return true
			}
			continue
		}
		if v == f {
			return true
		}
	}
	return false
}
