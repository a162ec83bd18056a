package models

import (
	"fmt"
	"sort"
)

// Raw variable and dimension names of the wave model datasets
const (
	VarWaveHeight = "hs"
	VarWindU      = "uwnd"
	VarWindV      = "vwnd"

	DimTime = "time"
	DimLat  = "lat"
	DimLon  = "lon"
)

// Grid is an in-memory 2-D (lat, lon) field set. Every field is stored
// row-major: index = latIndex*len(Lon) + lonIndex.
type Grid struct {
	Lat    []float64
	Lon    []float64
	fields map[string][]float64
}

// NewGrid creates an empty grid over the given coordinates
func NewGrid(lat, lon []float64) *Grid {
	return &Grid{
		Lat:    lat,
		Lon:    lon,
		fields: make(map[string][]float64),
	}
}

// Len returns the number of grid points
func (g *Grid) Len() int {
	return len(g.Lat) * len(g.Lon)
}

// SetField stores values under name, replacing any existing field
func (g *Grid) SetField(name string, values []float64) error {
	if len(values) != g.Len() {
		return fmt.Errorf("field %s has %d values, grid has %d points", name, len(values), g.Len())
	}
	g.fields[name] = values
	return nil
}

// Field returns the values stored under name
func (g *Grid) Field(name string) ([]float64, bool) {
	v, ok := g.fields[name]
	return v, ok
}

// FieldNames returns the field names in sorted order
func (g *Grid) FieldNames() []string {
	names := make([]string, 0, len(g.fields))
	for name := range g.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Drop removes the named fields; unknown names are ignored
func (g *Grid) Drop(names ...string) {
	for _, name := range names {
		delete(g.fields, name)
	}
}

// Rename moves a field to a new name
func (g *Grid) Rename(from, to string) error {
	v, ok := g.fields[from]
	if !ok {
		return fmt.Errorf("field %s not found", from)
	}
	delete(g.fields, from)
	g.fields[to] = v
	return nil
}
