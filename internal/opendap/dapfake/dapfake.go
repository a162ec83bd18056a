// Package dapfake serves synthetic gridded datasets over the DAP2 protocol
// for tests.
package dapfake

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	xdr "github.com/davecgh/go-xdr/xdr2"
)

// Dataset is a gridded dataset with 1-D coordinates and variables laid out
// row-major over Dims.
type Dataset struct {
	Name   string
	Dims   []string             // e.g. time, lat, lon
	Coords map[string][]float64 // one vector per dimension
	Vars   map[string][]float64
	Attrs  map[string]map[string]string // var -> attribute -> "Type value"
}

// Server serves datasets keyed by URL path, e.g. "/2023/06/w3g_reg_20230601_1200.nc"
type Server struct {
	Username string
	Password string

	mu       sync.Mutex
	datasets map[string]*Dataset
	requests []string
}

// NewServer creates an empty server
func NewServer() *Server {
	return &Server{datasets: make(map[string]*Dataset)}
}

// Add registers a dataset under path
func (s *Server) Add(path string, ds *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[path] = ds
}

// Requests returns the request URIs seen so far
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.RequestURI())
	s.mu.Unlock()

	if s.Username != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
	}

	path := r.URL.Path
	var suffix string
	for _, sfx := range []string{".dds", ".das", ".dods"} {
		if strings.HasSuffix(path, sfx) {
			suffix = sfx
			path = strings.TrimSuffix(path, sfx)
			break
		}
	}

	s.mu.Lock()
	ds, ok := s.datasets[path]
	s.mu.Unlock()
	if !ok || suffix == "" {
		writeError(w, http.StatusNotFound, "no such file: "+path)
		return
	}

	switch suffix {
	case ".dds":
		w.Write([]byte(ds.fullDDS()))
	case ".das":
		w.Write([]byte(ds.das()))
	case ".dods":
		body, err := ds.data(r.URL.RawQuery)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(body)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	fmt.Fprintf(w, "Error {\n    code = %d;\n    message = %q;\n};\n", code, msg)
}

func (ds *Dataset) coordType(name string) string {
	if name == "time" {
		return "Float64"
	}
	return "Float32"
}

func (ds *Dataset) sortedVars() []string {
	names := make([]string, 0, len(ds.Vars))
	for name := range ds.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ds *Dataset) shape(sizes map[string]int) string {
	var sb strings.Builder
	for _, d := range ds.Dims {
		fmt.Fprintf(&sb, "[%s = %d]", d, sizes[d])
	}
	return sb.String()
}

func (ds *Dataset) fullDDS() string {
	sizes := make(map[string]int)
	for _, d := range ds.Dims {
		sizes[d] = len(ds.Coords[d])
	}
	var sb strings.Builder
	sb.WriteString("Dataset {\n")
	for _, d := range ds.Dims {
		fmt.Fprintf(&sb, "    %s %s[%s = %d];\n", ds.coordType(d), d, d, sizes[d])
	}
	for _, name := range ds.sortedVars() {
		ds.writeGridDecl(&sb, name, sizes)
	}
	fmt.Fprintf(&sb, "} %s;\n", ds.Name)
	return sb.String()
}

func (ds *Dataset) writeGridDecl(sb *strings.Builder, name string, sizes map[string]int) {
	sb.WriteString("    Grid {\n      Array:\n")
	fmt.Fprintf(sb, "        Float32 %s%s;\n", name, ds.shape(sizes))
	sb.WriteString("      Maps:\n")
	for _, d := range ds.Dims {
		fmt.Fprintf(sb, "        %s %s[%s = %d];\n", ds.coordType(d), d, d, sizes[d])
	}
	fmt.Fprintf(sb, "    } %s;\n", name)
}

func (ds *Dataset) das() string {
	var sb strings.Builder
	sb.WriteString("Attributes {\n")
	names := append([]string(nil), ds.Dims...)
	names = append(names, ds.sortedVars()...)
	for _, name := range names {
		fmt.Fprintf(&sb, "    %s {\n", name)
		attrs := ds.Attrs[name]
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			typ, value, _ := strings.Cut(attrs[k], " ")
			fmt.Fprintf(&sb, "        %s %s %s;\n", typ, k, value)
		}
		sb.WriteString("    }\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

type projection struct {
	name  string
	spans [][2]int
}

func parseConstraint(raw string) ([]projection, error) {
	raw = strings.NewReplacer("%5B", "[", "%5D", "]", "%5b", "[", "%5d", "]", "%20", " ").Replace(raw)
	var out []projection
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name := item
		var rest string
		if i := strings.IndexByte(item, '['); i >= 0 {
			name, rest = item[:i], item[i:]
		}
		p := projection{name: name}
		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return nil, fmt.Errorf("bad hyperslab in %q", item)
			}
			parts := strings.Split(rest[1:end], ":")
			var lo, hi int
			var err error
			switch len(parts) {
			case 1:
				lo, err = strconv.Atoi(parts[0])
				hi = lo
			case 2:
				lo, err = strconv.Atoi(parts[0])
				if err == nil {
					hi, err = strconv.Atoi(parts[1])
				}
			default:
				return nil, fmt.Errorf("strides are not supported: %q", item)
			}
			if err != nil {
				return nil, fmt.Errorf("bad index in %q", item)
			}
			p.spans = append(p.spans, [2]int{lo, hi})
			rest = rest[end+1:]
		}
		out = append(out, p)
	}
	return out, nil
}

func (ds *Dataset) data(rawQuery string) ([]byte, error) {
	projs, err := parseConstraint(rawQuery)
	if err != nil {
		return nil, err
	}

	var header strings.Builder
	var payload bytes.Buffer
	enc := xdr.NewEncoder(&payload)
	header.WriteString("Dataset {\n")

	for _, p := range projs {
		if coord, ok := ds.Coords[p.name]; ok {
			sp := [2]int{0, len(coord) - 1}
			if len(p.spans) == 1 {
				sp = p.spans[0]
			}
			if sp[0] < 0 || sp[1] >= len(coord) || sp[0] > sp[1] {
				return nil, fmt.Errorf("index out of range for %s", p.name)
			}
			values := coord[sp[0] : sp[1]+1]
			fmt.Fprintf(&header, "    %s %s[%s = %d];\n", ds.coordType(p.name), p.name, p.name, len(values))
			encodeArray(enc, ds.coordType(p.name), values)
			continue
		}

		values, ok := ds.Vars[p.name]
		if !ok {
			return nil, fmt.Errorf("no such variable: %s", p.name)
		}
		spans := p.spans
		if len(spans) == 0 {
			for _, d := range ds.Dims {
				spans = append(spans, [2]int{0, len(ds.Coords[d]) - 1})
			}
		}
		if len(spans) != len(ds.Dims) {
			return nil, fmt.Errorf("%s needs %d hyperslabs", p.name, len(ds.Dims))
		}
		sizes := make(map[string]int)
		for i, d := range ds.Dims {
			if spans[i][0] < 0 || spans[i][1] >= len(ds.Coords[d]) || spans[i][0] > spans[i][1] {
				return nil, fmt.Errorf("index out of range for %s along %s", p.name, d)
			}
			sizes[d] = spans[i][1] - spans[i][0] + 1
		}
		ds.writeGridDecl(&header, p.name, sizes)

		encodeArray(enc, "Float32", ds.slice(values, spans))
		for i, d := range ds.Dims {
			encodeArray(enc, ds.coordType(d), ds.Coords[d][spans[i][0]:spans[i][1]+1])
		}
	}

	fmt.Fprintf(&header, "} %s;\n", ds.Name)
	header.WriteString("\nData:\n")
	return append([]byte(header.String()), payload.Bytes()...), nil
}

// slice extracts a hyperslab from a row-major array
func (ds *Dataset) slice(values []float64, spans [][2]int) []float64 {
	sizes := make([]int, len(ds.Dims))
	for i, d := range ds.Dims {
		sizes[i] = len(ds.Coords[d])
	}
	var out []float64
	idx := make([]int, len(spans))
	for i := range idx {
		idx[i] = spans[i][0]
	}
	for {
		flat := 0
		for i := range idx {
			flat = flat*sizes[i] + idx[i]
		}
		out = append(out, values[flat])

		// odometer increment, last dimension fastest
		k := len(idx) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] <= spans[k][1] {
				break
			}
			idx[k] = spans[k][0]
			k--
		}
		if k < 0 {
			return out
		}
	}
}

func encodeArray(enc *xdr.Encoder, typ string, values []float64) {
	enc.EncodeUint(uint32(len(values)))
	enc.EncodeUint(uint32(len(values)))
	for _, v := range values {
		if typ == "Float64" {
			enc.EncodeDouble(v)
		} else {
			enc.EncodeFloat(float32(v))
		}
	}
}
