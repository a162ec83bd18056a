package opendap

import (
	"fmt"
	"strconv"
	"strings"
)

// BaseType is a DAP2 atomic type name
type BaseType string

const (
	Byte    BaseType = "Byte"
	Int16   BaseType = "Int16"
	UInt16  BaseType = "UInt16"
	Int32   BaseType = "Int32"
	UInt32  BaseType = "UInt32"
	Float32 BaseType = "Float32"
	Float64 BaseType = "Float64"
	String  BaseType = "String"
	URL     BaseType = "Url"
)

var baseTypes = map[string]BaseType{
	"byte":    Byte,
	"int16":   Int16,
	"uint16":  UInt16,
	"int32":   Int32,
	"uint32":  UInt32,
	"float32": Float32,
	"float64": Float64,
	"string":  String,
	"url":     URL,
}

// VarKind distinguishes plain arrays from DAP2 constructor types
type VarKind int

const (
	KindArray VarKind = iota // atomic scalar or array
	KindGrid
	KindStructure
	KindSequence
)

// Dim is a named array dimension
type Dim struct {
	Name string
	Size int
}

// Variable is one declaration of a DDS
type Variable struct {
	Kind    VarKind
	Name    string
	Type    BaseType    // element type of the array (or the Grid's array)
	Dims    []Dim       // shape of the array (or the Grid's array)
	Maps    []*Variable // Grid map vectors
	Members []*Variable // Structure and Sequence members
}

// Len returns the number of elements of the array
func (v *Variable) Len() int {
	n := 1
	for _, d := range v.Dims {
		n *= d.Size
	}
	return n
}

// DimIndex returns the position of the named dimension, or -1
func (v *Variable) DimIndex(name string) int {
	for i, d := range v.Dims {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// DDS is a parsed Dataset Descriptor Structure
type DDS struct {
	Name string
	Vars []*Variable
}

// Var looks up a top-level variable by name
func (d *DDS) Var(name string) (*Variable, bool) {
	for _, v := range d.Vars {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// ParseDDS parses the text form of a Dataset Descriptor Structure
func ParseDDS(src string) (*DDS, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, fmt.Errorf("parsing DDS: %w", err)
	}
	dds, err := p.parseDataset()
	if err != nil {
		return nil, fmt.Errorf("parsing DDS: %w", err)
	}
	return dds, nil
}

func (p *parser) parseDataset() (*DDS, error) {
	if err := p.expectKeyword("Dataset"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	vars, err := p.parseDecls()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return &DDS{Name: name, Vars: vars}, nil
}

// parseDecls reads declarations up to the closing brace or a Maps: label
func (p *parser) parseDecls() ([]*Variable, error) {
	var vars []*Variable
	for {
		if p.isPunct("}") || p.peek().kind == tokEOF {
			return vars, nil
		}
		if p.isKeyword("Maps") && p.peekAt(1).kind == tokPunct && p.peekAt(1).text == ":" {
			return vars, nil
		}
		v, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
}

func (p *parser) parseDecl() (*Variable, error) {
	t := p.next()
	if t.kind != tokWord {
		return nil, fmt.Errorf("line %d: expected declaration, got %s", t.line, t)
	}

	switch strings.ToLower(t.text) {
	case "grid":
		return p.parseGrid()
	case "structure", "sequence":
		kind := KindStructure
		if strings.EqualFold(t.text, "sequence") {
			kind = KindSequence
		}
		if err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		members, err := p.parseDecls()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		v, err := p.parseVarName()
		if err != nil {
			return nil, err
		}
		v.Kind = kind
		v.Members = members
		return v, nil
	}

	bt, ok := baseTypes[strings.ToLower(t.text)]
	if !ok {
		return nil, fmt.Errorf("line %d: unknown type %s", t.line, t)
	}
	v, err := p.parseVarName()
	if err != nil {
		return nil, err
	}
	v.Type = bt
	return v, nil
}

func (p *parser) parseGrid() (*Variable, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("Array"); err != nil {
		return nil, err
	}
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	array, err := p.parseDecl()
	if err != nil {
		return nil, err
	}
	if array.Kind != KindArray {
		return nil, fmt.Errorf("grid %s: array part must be an atomic array", array.Name)
	}
	if err := p.expectKeyword("Maps"); err != nil {
		return nil, err
	}
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	maps, err := p.parseDecls()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return &Variable{
		Kind: KindGrid,
		Name: name,
		Type: array.Type,
		Dims: array.Dims,
		Maps: maps,
	}, nil
}

// parseVarName reads `name [dim = size]... ;`
func (p *parser) parseVarName() (*Variable, error) {
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	v := &Variable{Name: name}
	for p.isPunct("[") {
		p.next()
		var d Dim
		t := p.next()
		if p.isPunct("=") {
			p.next()
			d.Name = t.text
			t = p.next()
		}
		size, err := strconv.Atoi(t.text)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("line %d: bad dimension size %s", t.line, t)
		}
		d.Size = size
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		v.Dims = append(v.Dims, d)
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return v, nil
}
